package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/service"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/task"
)

// SyncController 同步控制器
// 手动触发走任务管理器异步执行，响应立即返回；
// 同步进度通过 GET /api/sync/status 查询。
type SyncController struct {
	taskManager *task.TaskManager
	syncSvc     *service.SyncService
}

// NewSyncController 创建同步控制器
func NewSyncController(taskManager *task.TaskManager, syncSvc *service.SyncService) *SyncController {
	return &SyncController{taskManager: taskManager, syncSvc: syncSvc}
}

// ==================== Handler 实现 ====================

// SyncCatalog 触发目录全链路
// @Summary 手动触发目录同步（分类 -> 目录 -> 专辑重建）
// @Tags Sync
// @Param body body dto.SyncCatalogRequest false "同步参数"
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "上一轮尚未结束"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/sync/catalog [post]
func (c *SyncController) SyncCatalog(ctx *gin.Context) {
	var req dto.SyncCatalogRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(400, gin.H{"code": 400, "message": "无效的请求体: " + err.Error()})
			return
		}
	}

	if !c.taskManager.TriggerCatalog(&req) {
		ctx.JSON(409, gin.H{"code": 409, "message": "目录同步正在执行中"})
		return
	}

	syncType := "增量"
	if req.Full {
		syncType = "全量"
	}
	ctx.JSON(202, gin.H{
		"code":    202,
		"message": "目录" + syncType + "同步已触发",
	})
}

// SyncSales 触发销售同步
// @Summary 手动触发销售同步
// @Tags Sync
// @Param body body dto.SyncSalesRequest false "同步参数"
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "上一轮尚未结束"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/sync/sales [post]
func (c *SyncController) SyncSales(ctx *gin.Context) {
	var req dto.SyncSalesRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(400, gin.H{"code": 400, "message": "无效的请求体: " + err.Error()})
			return
		}
	}

	if !c.taskManager.TriggerSales(&req) {
		ctx.JSON(409, gin.H{"code": 409, "message": "销售同步正在执行中"})
		return
	}

	ctx.JSON(202, gin.H{
		"code":    202,
		"message": "销售同步已触发",
	})
}

// RebuildAlbums 重建专辑表
// @Summary 手动重建专辑表（同步执行）
// @Tags Sync
// @Success 200 {object} dto.RebuildAlbumsResponse
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/sync/albums/rebuild [post]
func (c *SyncController) RebuildAlbums(ctx *gin.Context) {
	resp, err := c.syncSvc.RunAlbumRebuild(ctx.Request.Context())
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": "重建失败: " + err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    resp,
	})
}

// Status 查询同步状态
// @Summary 查询各同步类型的状态与核心表行数
// @Tags Sync
// @Success 200 {object} dto.SyncStatusResponse
// @Router /api/sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	resp, err := c.syncSvc.Status(ctx.Request.Context())
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    resp,
	})
}
