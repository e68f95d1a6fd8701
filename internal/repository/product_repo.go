package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

// ==================== 接口定义 ====================

// SalesDelta 单个商品的销量增量
type SalesDelta struct {
	SquareVariationID string
	Quantity          int
	SoldAt            time.Time
}

// ProductRepository 商品仓储接口
// 写入约定（按表单写者划分）：
//   - BatchUpsertMetadata / BulkUpdateImageURLs / DenormalizeCategory 只归目录同步
//   - UpdateStockCounts 只归库存对账
//   - ApplySalesDeltas 只归销售同步
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByVariationID(ctx context.Context, variationID string) (*model.Product, error)
	List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)
	Count(ctx context.Context) (int64, error)

	// 批量操作
	BatchUpsertMetadata(ctx context.Context, products []model.Product) (int64, error)
	BulkUpdateImageURLs(ctx context.Context, urlByItemID map[string]string) (int64, error)
	UpdateStockCounts(ctx context.Context, countByVariationID map[string]int) (int64, error)
	ApplySalesDeltas(ctx context.Context, deltas []SalesDelta) error

	// 反规范化
	DenormalizeCategory(ctx context.Context) (int64, error)
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByVariationID(ctx context.Context, variationID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("square_variation_id = ?", variationID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := query.
		Order("updated_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&products).Error

	return products, total, err
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error
	return total, err
}

// BatchUpsertMetadata 按 square_variation_id 批量 upsert 商品元数据
// 冲突策略：
//   - 元数据字段（名称/描述/价格/同步时间）总是取上游值
//   - 分类字段：上游部分载荷可能缺分类，入库时保留已有值
//   - stock_count / sold_count / last_sold_at 刻意不出现在 SET 列表里，
//     目录同步永远不碰库存与销量
func (r *productRepo) BatchUpsertMetadata(ctx context.Context, products []model.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "square_variation_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"square_item_id":     gorm.Expr("excluded.square_item_id"),
			"name":               gorm.Expr("excluded.name"),
			"description":        gorm.Expr("excluded.description"),
			"price_cents":        gorm.Expr("excluded.price_cents"),
			"currency":           gorm.Expr("excluded.currency"),
			"category":           gorm.Expr("COALESCE(excluded.category, products.category)"),
			"square_category_id": gorm.Expr("COALESCE(excluded.square_category_id, products.square_category_id)"),
			"categories":         gorm.Expr("CASE WHEN excluded.categories = '' THEN products.categories ELSE excluded.categories END"),
			"square_updated_at":  gorm.Expr("excluded.square_updated_at"),
			"synced_at":          gorm.Expr("excluded.synced_at"),
			"updated_at":         gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&products)

	return res.RowsAffected, res.Error
}

// BulkUpdateImageURLs 按 square_item_id 批量回填图片地址（单条 CASE 语句）
func (r *productRepo) BulkUpdateImageURLs(ctx context.Context, urlByItemID map[string]string) (int64, error) {
	if len(urlByItemID) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(urlByItemID)*2+1)
	itemIDs := make([]string, 0, len(urlByItemID))

	sb.WriteString("UPDATE products SET image_url = CASE square_item_id")
	for itemID, url := range urlByItemID {
		sb.WriteString(" WHEN ? THEN ?")
		args = append(args, itemID, url)
		itemIDs = append(itemIDs, itemID)
	}
	sb.WriteString(" ELSE image_url END, updated_at = CURRENT_TIMESTAMP WHERE square_item_id IN ? AND image_url <> CASE square_item_id")
	args = append(args, itemIDs)
	for itemID, url := range urlByItemID {
		sb.WriteString(" WHEN ? THEN ?")
		args = append(args, itemID, url)
	}
	sb.WriteString(" ELSE image_url END")

	res := r.db.WithContext(ctx).Exec(sb.String(), args...)
	return res.RowsAffected, res.Error
}

// UpdateStockCounts 库存对账写入：按数量分组批量更新
// 只按 square_variation_id 定位已有行，绝不创建新商品行；
// 数值未变化的行不触碰（保证重复对账零净变更）。
func (r *productRepo) UpdateStockCounts(ctx context.Context, countByVariationID map[string]int) (int64, error) {
	if len(countByVariationID) == 0 {
		return 0, nil
	}

	idsByCount := make(map[int][]string)
	for variationID, count := range countByVariationID {
		idsByCount[count] = append(idsByCount[count], variationID)
	}

	var total int64
	for count, ids := range idsByCount {
		res := r.db.WithContext(ctx).
			Model(&model.Product{}).
			Where("square_variation_id IN ?", ids).
			Where("stock_count <> ?", count).
			Update("stock_count", count)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

// ApplySalesDeltas 销售同步写入：销量只做加法，售出时间只向前推进
// 非重新赋值，并发/重叠的同步运行不会让任一字段回退。
func (r *productRepo) ApplySalesDeltas(ctx context.Context, deltas []SalesDelta) error {
	for _, d := range deltas {
		if d.Quantity <= 0 {
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&model.Product{}).
			Where("square_variation_id = ?", d.SquareVariationID).
			Updates(map[string]interface{}{
				"sold_count":   gorm.Expr("sold_count + ?", d.Quantity),
				"last_sold_at": gorm.Expr("CASE WHEN last_sold_at IS NULL OR last_sold_at < ? THEN ? ELSE last_sold_at END", d.SoldAt, d.SoldAt),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DenormalizeCategory 全表回填主分类名（分类 id -> 名称）
// 整轮同步跑一次即可，只更新名称确实变化的行。
func (r *productRepo) DenormalizeCategory(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products SET category = (
			SELECT name FROM categories WHERE categories.square_id = products.square_category_id
		), updated_at = CURRENT_TIMESTAMP
		WHERE square_category_id IS NOT NULL
		  AND EXISTS (SELECT 1 FROM categories WHERE categories.square_id = products.square_category_id)
		  AND (category IS NULL OR category <> (
			SELECT name FROM categories WHERE categories.square_id = products.square_category_id
		  ))`)
	return res.RowsAffected, res.Error
}
