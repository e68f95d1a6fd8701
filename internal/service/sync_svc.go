package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
)

// ==================== SyncService ====================

// SyncService 同步编排服务
// 把分类 / 目录 / 专辑重建串成一条链路：目录依赖分类映射，
// 专辑表又从商品表衍生，顺序不可调换。
type SyncService struct {
	catalogSvc  *CatalogService
	salesSvc    *SalesService
	albumSvc    *AlbumService
	stateRepo   repository.SyncStateRepository
	productRepo repository.ProductRepository
	albumRepo   repository.AlbumRepository
	orderRepo   repository.OrderRepository
	catRepo     repository.CategoryRepository
}

// NewSyncService 创建同步编排服务
func NewSyncService(
	catalogSvc *CatalogService,
	salesSvc *SalesService,
	albumSvc *AlbumService,
	stateRepo repository.SyncStateRepository,
	productRepo repository.ProductRepository,
	albumRepo repository.AlbumRepository,
	orderRepo repository.OrderRepository,
	catRepo repository.CategoryRepository,
) *SyncService {
	return &SyncService{
		catalogSvc:  catalogSvc,
		salesSvc:    salesSvc,
		albumSvc:    albumSvc,
		stateRepo:   stateRepo,
		productRepo: productRepo,
		albumRepo:   albumRepo,
		orderRepo:   orderRepo,
		catRepo:     catRepo,
	}
}

// ==================== 目录全链路 ====================

// RunCatalogPipeline 执行目录全链路：分类 -> 目录 -> 专辑重建
// 分类同步失败不致命（目录可用旧映射继续）；目录同步失败则中止，
// 不在半新半旧的商品表上重建专辑。
func (s *SyncService) RunCatalogPipeline(ctx context.Context, req *dto.SyncCatalogRequest) (*dto.CatalogPipelineResponse, error) {
	start := time.Now()
	resp := &dto.CatalogPipelineResponse{}
	defer func() { resp.DurationMs = time.Since(start).Milliseconds() }()

	categories, err := s.catalogSvc.SyncCategories(ctx)
	resp.Categories = categories
	if err != nil {
		log.Printf("[SyncPipeline] 分类同步失败，沿用已有分类映射: %v", err)
		resp.Steps = append(resp.Steps, dto.StepSummary{Name: "categories", Status: StepFailed, Error: err.Error()})
	} else {
		resp.Steps = append(resp.Steps, dto.StepSummary{Name: "categories", Status: StepSucceeded})
	}

	catalog, err := s.catalogSvc.SyncCatalog(ctx, req)
	resp.Catalog = catalog
	if err != nil {
		resp.Steps = append(resp.Steps, dto.StepSummary{Name: "catalog", Status: StepFailed, Error: err.Error()})
		return resp, fmt.Errorf("目录同步失败: %w", err)
	}
	resp.Steps = append(resp.Steps, dto.StepSummary{Name: "catalog", Status: StepSucceeded})

	albums, err := s.albumSvc.RebuildAlbums(ctx)
	resp.Albums = albums
	if err != nil {
		resp.Steps = append(resp.Steps, dto.StepSummary{Name: "albums", Status: StepFailed, Error: err.Error()})
		return resp, fmt.Errorf("专辑重建失败: %w", err)
	}
	resp.Steps = append(resp.Steps, dto.StepSummary{Name: "albums", Status: StepSucceeded})

	return resp, nil
}

// RunSalesSync 执行销售同步
func (s *SyncService) RunSalesSync(ctx context.Context, req *dto.SyncSalesRequest) (*dto.SyncSalesResponse, error) {
	return s.salesSvc.SyncSales(ctx, req)
}

// RunAlbumRebuild 执行专辑重建
func (s *SyncService) RunAlbumRebuild(ctx context.Context) (*dto.RebuildAlbumsResponse, error) {
	return s.albumSvc.RebuildAlbums(ctx)
}

// ==================== 状态 ====================

// Status 各同步类型的状态与核心表行数
func (s *SyncService) Status(ctx context.Context) (*dto.SyncStatusResponse, error) {
	states, err := s.stateRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取同步状态失败: %w", err)
	}

	resp := &dto.SyncStatusResponse{}
	for _, st := range states {
		resp.States = append(resp.States, dto.SyncStatusItem{
			SyncType:     st.SyncType,
			HasCursor:    st.Cursor != "",
			LastSyncedAt: st.LastSyncedAt,
			LastRunAt:    st.LastRunAt,
		})
	}

	// 行数统计为辅助信息，单表失败不影响整体
	if n, err := s.productRepo.Count(ctx); err == nil {
		resp.Products = n
	}
	if n, err := s.albumRepo.Count(ctx); err == nil {
		resp.Albums = n
	}
	if n, err := s.orderRepo.CountOrders(ctx); err == nil {
		resp.Orders = n
	}
	if n, err := s.orderRepo.CountLineItems(ctx); err == nil {
		resp.LineItems = n
	}
	if n, err := s.catRepo.Count(ctx); err == nil {
		resp.Categories = n
	}

	return resp, nil
}
