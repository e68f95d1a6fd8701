package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/service"
)

// servedFromHeader 响应来源头（fresh-cache / live / stale-cache）
const servedFromHeader = "X-Served-From"

type AlbumController struct {
	albumService   *service.AlbumService
	productService *service.ProductService
}

func NewAlbumController(albumService *service.AlbumService, productService *service.ProductService) *AlbumController {
	return &AlbumController{albumService: albumService, productService: productService}
}

// ==================== 查询接口 ====================

// GetAlbums 获取专辑列表
// @Summary 获取专辑列表（按上架时间倒序）
// @Tags Album
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.AlbumListResp
// @Router /api/albums [get]
func (ctrl *AlbumController) GetAlbums(c *gin.Context) {
	var req dto.AlbumListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "无效的查询参数"})
		return
	}

	resp, from, err := ctrl.albumService.ListAlbums(c.Request.Context(), &req)
	if err != nil {
		c.JSON(503, gin.H{"code": 503, "message": "查询失败: " + err.Error()})
		return
	}

	c.Header(servedFromHeader, string(from))
	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    resp,
	})
}

// GetAlbum 获取专辑详情
// @Summary 获取单个专辑详情
// @Tags Album
// @Param id path int true "专辑ID"
// @Success 200 {object} dto.AlbumResp
// @Router /api/albums/{id} [get]
func (ctrl *AlbumController) GetAlbum(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的专辑ID"})
		return
	}

	resp, from, err := ctrl.albumService.GetAlbum(c.Request.Context(), id)
	if err != nil {
		c.JSON(404, gin.H{"code": 404, "message": "专辑不存在"})
		return
	}

	c.Header(servedFromHeader, string(from))
	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    resp,
	})
}

// GetProduct 获取商品详情
// @Summary 获取单个商品详情（含非专辑商品）
// @Tags Product
// @Param id path int true "商品ID"
// @Success 200 {object} dto.ProductResp
// @Router /api/products/{id} [get]
func (ctrl *AlbumController) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品ID"})
		return
	}

	resp, from, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
		return
	}

	c.Header(servedFromHeader, string(from))
	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    resp,
	})
}
