package service

import (
	"context"
	"fmt"
	"time"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/cache"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
)

// ==================== 筛选口径 ====================

// 专辑口径：哪些商品行算"黑胶专辑"
var (
	// albumAllowCategories 主分类白名单
	albumAllowCategories = []string{
		"New Vinyl", "Used Vinyl", "Vinyl", "LPs", "45s", "7 Inch",
		"Box Sets", "Records",
	}

	// albumVinylCategories 分类集合里出现即入选（主分类缺失或混乱时兜底）
	albumVinylCategories = []string{"New Vinyl", "Used Vinyl"}

	// albumExcludeCategories 主分类排除名单
	albumExcludeCategories = []string{
		"CDs", "Cassettes", "DVDs", "Equipment", "Accessories",
		"Apparel", "Gift Cards", "Books", "Turntables",
	}

	// albumExcludeMarkers 分类名带这些标记的行一律剔除
	albumExcludeMarkers = []string{"DVD", "VHS", "Video Game"}
)

// brandNewWindowDays 新建且零库存的行视为尚未上架，窗口内不进专辑表
const brandNewWindowDays = 7

// ==================== AlbumService ====================

// AlbumService 专辑服务
// 重建走整表替换，读路径走读穿缓存。
type AlbumService struct {
	albumRepo repository.AlbumRepository
	readCache *cache.ReadCache
}

// NewAlbumService 创建专辑服务
func NewAlbumService(albumRepo repository.AlbumRepository, readCache *cache.ReadCache) *AlbumService {
	return &AlbumService{albumRepo: albumRepo, readCache: readCache}
}

// ==================== 重建 ====================

// RebuildAlbums 全量重建专辑表
// 清空后按筛选口径从商品表一次性灌入；REINDEX / ANALYZE 为非关键维护步骤，
// 失败只记日志。重建完成后清空读缓存，避免继续供应旧表数据。
func (s *AlbumService) RebuildAlbums(ctx context.Context) (*dto.RebuildAlbumsResponse, error) {
	start := time.Now()
	resp := &dto.RebuildAlbumsResponse{}

	filter := repository.AlbumFilter{
		AllowCategories:   albumAllowCategories,
		VinylCategories:   albumVinylCategories,
		ExcludeCategories: albumExcludeCategories,
		ExcludeMarkers:    albumExcludeMarkers,
		BrandNewCutoff:    time.Now().AddDate(0, 0, -brandNewWindowDays),
	}

	count, err := s.albumRepo.Rebuild(ctx, filter)
	if err != nil {
		return resp, fmt.Errorf("重建专辑表失败: %w", err)
	}
	resp.AlbumCount = count

	resp.Maintenance = append(resp.Maintenance,
		runStep("reindex", func() error { return s.albumRepo.Reindex(ctx) }),
		runStep("analyze", func() error { return s.albumRepo.Analyze(ctx) }),
	)

	if s.readCache != nil {
		s.readCache.Clear()
	}

	resp.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}

// ==================== 读路径 ====================

// GetAlbum 按 id 读取专辑（读穿缓存）
func (s *AlbumService) GetAlbum(ctx context.Context, id int64) (*dto.AlbumResp, cache.ServedFrom, error) {
	key := fmt.Sprintf("album:%d", id)
	v, from, err := s.readCache.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		album, err := s.albumRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return toAlbumResp(album), nil
	})
	if err != nil {
		return nil, from, err
	}
	return v.(*dto.AlbumResp), from, nil
}

// ListAlbums 分页列出专辑（读穿缓存，按商品创建时间倒序）
func (s *AlbumService) ListAlbums(ctx context.Context, req *dto.AlbumListRequest) (*dto.AlbumListResp, cache.ServedFrom, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	key := fmt.Sprintf("albums:%d:%d", page, pageSize)
	v, from, err := s.readCache.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		albums, total, err := s.albumRepo.List(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		resp := &dto.AlbumListResp{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Albums:   make([]dto.AlbumResp, 0, len(albums)),
		}
		for i := range albums {
			resp.Albums = append(resp.Albums, *toAlbumResp(&albums[i]))
		}
		return resp, nil
	})
	if err != nil {
		return nil, from, err
	}
	return v.(*dto.AlbumListResp), from, nil
}

// ==================== 转换 ====================

func toAlbumResp(a *model.Album) *dto.AlbumResp {
	resp := &dto.AlbumResp{
		ID:               a.ID,
		ProductID:        a.ProductID,
		Name:             a.Name,
		Description:      a.Description,
		Price:            a.PriceDollars(),
		Currency:         a.Currency,
		Categories:       []string{},
		StockCount:       a.StockCount,
		ImageURL:         a.ImageURL,
		SoldCount:        a.SoldCount,
		LastSoldAt:       a.LastSoldAt,
		ProductCreatedAt: a.ProductCreatedAt,
	}
	if a.Category != nil {
		resp.Category = *a.Category
	}
	if names := a.CategoryNames(); names != nil {
		resp.Categories = names
	}
	return resp
}
