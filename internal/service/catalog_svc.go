package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
	"github.com/grey-chair-dev/spiral-groove-sub002/pkg/database"
	"github.com/grey-chair-dev/spiral-groove-sub002/pkg/square"
)

// DefaultCatalogPageLimit 单次执行默认最多走的页数
// 控制单次 HTTP 触发 / 定时任务的执行时长；断点游标保证下次接着走。
const DefaultCatalogPageLimit = 10

// ==================== 依赖接口 ====================

// CatalogAPI 目录同步依赖的上游接口
type CatalogAPI interface {
	SearchCatalogObjects(ctx context.Context, objectTypes []string, cursor string) (*square.SearchCatalogResp, error)
	BatchRetrieveCatalogObjects(ctx context.Context, objectIDs []string) (*square.BatchRetrieveCatalogResp, error)
	BatchRetrieveInventoryCounts(ctx context.Context, objectIDs []string, locationID, cursor string) (*square.BatchInventoryCountsResp, error)
}

// ==================== CatalogService ====================

// CatalogService 目录同步服务
// 一条流水线：拉取目录页 -> 元数据 upsert -> 图片回填 -> 库存对账 -> 落盘游标。
// 每个批次各自成事务边界，崩溃后从最后落盘的游标恢复。
type CatalogService struct {
	api          CatalogAPI
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	stateRepo    repository.SyncStateRepository
	locationID   string
}

// NewCatalogService 创建目录同步服务
func NewCatalogService(
	api CatalogAPI,
	db *gorm.DB,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	stateRepo repository.SyncStateRepository,
	locationID string,
) *CatalogService {
	return &CatalogService{
		api:          api,
		db:           db,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		stateRepo:    stateRepo,
		locationID:   locationID,
	}
}

// ==================== 分类同步 ====================

// SyncCategories 同步分类表
// 分页拉取 CATEGORY 对象并按 square_id upsert；删除的分类保留行、打 is_deleted 标记。
func (s *CatalogService) SyncCategories(ctx context.Context) (*dto.SyncCategoriesResponse, error) {
	resp := &dto.SyncCategoriesResponse{}
	cursor := ""

	for {
		page, err := s.api.SearchCatalogObjects(ctx, []string{"CATEGORY"}, cursor)
		if err != nil {
			return resp, fmt.Errorf("拉取分类失败: %w", err)
		}

		categories := make([]model.Category, 0, len(page.Objects))
		for _, obj := range page.Objects {
			if obj.CategoryData == nil {
				continue
			}
			c := model.Category{
				SquareID:  obj.ID,
				Name:      obj.CategoryData.Name,
				IsDeleted: obj.IsDeleted,
			}
			if obj.CategoryData.ParentCategoryID != nil {
				c.ParentID = obj.CategoryData.ParentCategoryID.ID
			}
			categories = append(categories, c)
		}
		resp.CategoriesSeen += len(categories)

		var affected int64
		err = database.RetryTransient(ctx, s.db, func() error {
			var e error
			affected, e = s.categoryRepo.BatchUpsert(ctx, categories)
			return e
		})
		if err != nil {
			return resp, fmt.Errorf("写入分类失败: %w", err)
		}
		resp.Upserted += affected

		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	now := time.Now()
	if err := s.stateRepo.SaveWatermark(ctx, model.SyncTypeCategories, now); err != nil {
		log.Printf("[CatalogSync] 保存分类水位失败: %v", err)
	}

	return resp, nil
}

// ==================== 目录同步 ====================

// SyncCatalog 同步商品目录
// 默认从上次落盘的游标续走；req.Full 忽略游标从头开始；
// req.ItemIDs / req.VariationIDs 走定向批量拉取（不分页、不碰游标）。
func (s *CatalogService) SyncCatalog(ctx context.Context, req *dto.SyncCatalogRequest) (*dto.SyncCatalogResponse, error) {
	start := time.Now()
	resp := &dto.SyncCatalogResponse{}
	defer func() { resp.DurationMs = time.Since(start).Milliseconds() }()

	nameByID, err := s.categoryRepo.NameMap(ctx)
	if err != nil {
		return resp, fmt.Errorf("读取分类映射失败: %w", err)
	}

	// 定向模式
	if len(req.ItemIDs) > 0 || len(req.VariationIDs) > 0 {
		if err := s.syncTargeted(ctx, req, resp, nameByID); err != nil {
			return resp, err
		}
		resp.Completed = true
		return resp, nil
	}

	// 分页模式：确定起始游标
	cursor := ""
	if !req.Full {
		state, err := s.stateRepo.Get(ctx, model.SyncTypeCatalog)
		if err != nil {
			return resp, fmt.Errorf("读取同步状态失败: %w", err)
		}
		if state != nil {
			cursor = state.Cursor
		}
	}

	pageLimit := req.Limit
	if pageLimit <= 0 {
		pageLimit = DefaultCatalogPageLimit
	}

	for resp.PagesWalked < pageLimit {
		page, err := s.api.SearchCatalogObjects(ctx, []string{"ITEM"}, cursor)
		if err != nil {
			// 已处理的批次与游标都已落盘，瞬时错误下个周期自动续走
			return resp, fmt.Errorf("拉取目录失败: %w", err)
		}
		resp.PagesWalked++

		if err := s.processBatch(ctx, page.Objects, page.RelatedObjects, resp, nameByID); err != nil {
			return resp, err
		}

		// 批次成功后立即落盘游标，这是断点续传的锚点
		if page.Cursor == "" {
			if err := s.stateRepo.ClearCursor(ctx, model.SyncTypeCatalog); err != nil {
				return resp, fmt.Errorf("清空游标失败: %w", err)
			}
			if err := s.stateRepo.SaveWatermark(ctx, model.SyncTypeCatalog, time.Now()); err != nil {
				log.Printf("[CatalogSync] 保存目录水位失败: %v", err)
			}
			resp.Completed = true
			resp.Cursor = ""
			break
		}
		if err := s.stateRepo.SaveCursor(ctx, model.SyncTypeCatalog, page.Cursor); err != nil {
			return resp, fmt.Errorf("保存游标失败: %w", err)
		}
		cursor = page.Cursor
		resp.Cursor = page.Cursor
	}

	// 反规范化主分类名：非关键步骤，失败不影响同步结果
	if n, err := s.productRepo.DenormalizeCategory(ctx); err != nil {
		log.Printf("[CatalogSync] 反规范化分类失败: %v", err)
	} else {
		resp.CategoriesDenormalized = n
	}

	return resp, nil
}

// syncTargeted 定向同步指定对象（不走分页游标）
func (s *CatalogService) syncTargeted(ctx context.Context, req *dto.SyncCatalogRequest, resp *dto.SyncCatalogResponse, nameByID map[string]string) error {
	ids := make([]string, 0, len(req.ItemIDs)+len(req.VariationIDs))
	ids = append(ids, req.ItemIDs...)
	ids = append(ids, req.VariationIDs...)

	page, err := s.api.BatchRetrieveCatalogObjects(ctx, ids)
	if err != nil {
		return fmt.Errorf("批量拉取目录对象失败: %w", err)
	}
	return s.processBatch(ctx, page.Objects, page.RelatedObjects, resp, nameByID)
}

// processBatch 处理一个目录批次：元数据 upsert -> 图片回填 -> 库存对账
func (s *CatalogService) processBatch(ctx context.Context, objects, related []square.CatalogObject, resp *dto.SyncCatalogResponse, nameByID map[string]string) error {
	products, urlByItemID, skipped := s.convertObjects(objects, related, nameByID)
	resp.ItemsSeen += len(objects)
	resp.SkippedDeleted += skipped

	if len(products) > 0 {
		var affected int64
		err := database.RetryTransient(ctx, s.db, func() error {
			var e error
			affected, e = s.productRepo.BatchUpsertMetadata(ctx, products)
			return e
		})
		if err != nil {
			return fmt.Errorf("写入商品元数据失败: %w", err)
		}
		resp.VariationsUpserted += affected
	}

	if len(urlByItemID) > 0 {
		n, err := s.productRepo.BulkUpdateImageURLs(ctx, urlByItemID)
		if err != nil {
			return fmt.Errorf("回填图片失败: %w", err)
		}
		resp.ImageRowsUpdated += n
	}

	variationIDs := make([]string, 0, len(products))
	for i := range products {
		variationIDs = append(variationIDs, products[i].SquareVariationID)
	}
	n, err := s.ReconcileInventory(ctx, variationIDs)
	if err != nil {
		return fmt.Errorf("库存对账失败: %w", err)
	}
	resp.InventoryRowsUpdated += n

	return nil
}

// convertObjects 把一页目录对象（含关联图片）转成商品行
// 删除标记的条目整体跳过（含其全部变体），只计数不落库。
func (s *CatalogService) convertObjects(objects, related []square.CatalogObject, nameByID map[string]string) ([]model.Product, map[string]string, int) {
	imageURLByID := make(map[string]string, len(related))
	for _, obj := range related {
		if obj.Type == "IMAGE" && obj.ImageData != nil && !obj.IsDeleted {
			imageURLByID[obj.ID] = obj.ImageData.URL
		}
	}

	now := time.Now()
	var products []model.Product
	urlByItemID := make(map[string]string)
	skipped := 0

	for _, obj := range objects {
		if obj.Type != "ITEM" || obj.ItemData == nil {
			continue
		}
		if obj.IsDeleted {
			skipped++
			continue
		}
		item := obj.ItemData

		// 分类：主分类名取自 category_id，集合取自 categories 引用
		var category *string
		var squareCategoryID *string
		if item.CategoryID != "" {
			id := item.CategoryID
			squareCategoryID = &id
			if name, ok := nameByID[id]; ok {
				category = &name
			}
		}
		var categoryNames []string
		for _, ref := range item.Categories {
			if name, ok := nameByID[ref.ID]; ok {
				categoryNames = append(categoryNames, name)
			}
		}

		// 图片：取条目的第一张图
		for _, imgID := range item.ImageIDs {
			if url, ok := imageURLByID[imgID]; ok {
				urlByItemID[obj.ID] = url
				break
			}
		}

		for _, v := range item.Variations {
			if v.IsDeleted {
				skipped++
				continue
			}
			if v.ItemVariationData == nil {
				continue
			}

			p := model.Product{
				SquareItemID:      obj.ID,
				SquareVariationID: v.ID,
				Name:              variationDisplayName(item.Name, v.ItemVariationData.Name),
				Description:       item.Description,
				Category:          category,
				SquareCategoryID:  squareCategoryID,
				SquareUpdatedAt:   obj.UpdatedTime(),
				SyncedAt:          &now,
			}
			p.SetCategoryNames(categoryNames)
			if money := v.ItemVariationData.PriceMoney; money != nil {
				p.PriceCents = money.Amount
				if money.Currency != "" {
					p.Currency = money.Currency
				}
			}
			products = append(products, p)
		}
	}

	return products, urlByItemID, skipped
}

// variationDisplayName 展示名：默认变体只用条目名，具名变体附加变体名
func variationDisplayName(itemName, variationName string) string {
	if variationName == "" || variationName == "Regular" {
		return itemName
	}
	return itemName + " - " + variationName
}

// ==================== 库存对账 ====================

// ReconcileInventory 对账一批变体的库存
// 上游不回传数量为 0 的行，先把全部 id 预置为 0 再用响应覆盖，
// 保证售罄商品一定被归零而不是保留脏库存。
func (s *CatalogService) ReconcileInventory(ctx context.Context, variationIDs []string) (int64, error) {
	var total int64

	for start := 0; start < len(variationIDs); start += square.InventoryBatchLimit {
		end := start + square.InventoryBatchLimit
		if end > len(variationIDs) {
			end = len(variationIDs)
		}
		chunk := variationIDs[start:end]

		countByID := make(map[string]int, len(chunk))
		for _, id := range chunk {
			countByID[id] = 0
		}

		cursor := ""
		for {
			page, err := s.api.BatchRetrieveInventoryCounts(ctx, chunk, s.locationID, cursor)
			if err != nil {
				return total, err
			}
			for _, c := range page.Counts {
				countByID[c.CatalogObjectID] = c.QuantityInt()
			}
			if page.Cursor == "" {
				break
			}
			cursor = page.Cursor
		}

		var affected int64
		err := database.RetryTransient(ctx, s.db, func() error {
			var e error
			affected, e = s.productRepo.UpdateStockCounts(ctx, countByID)
			return e
		})
		if err != nil {
			return total, err
		}
		total += affected
	}

	return total, nil
}
