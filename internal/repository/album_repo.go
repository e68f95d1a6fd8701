package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

// ==================== 筛选规则 ====================

// AlbumFilter 专辑入选规则
// 入选：主分类在白名单 / 分类集合含黑胶分类 / 主分类为空
// 剔除：主分类在排除名单、带 DVD/游戏类标记、或"新建且零库存"的死区行
type AlbumFilter struct {
	AllowCategories   []string
	VinylCategories   []string
	ExcludeCategories []string
	ExcludeMarkers    []string

	// BrandNewCutoff 晚于该时间创建且零库存的行视为尚未上架的噪音
	BrandNewCutoff time.Time
}

// ==================== 接口定义 ====================

// AlbumRepository 专辑衍生表仓储接口
// 唯一允许写 albums 表的组件；写入只有整表重建一种形态。
type AlbumRepository interface {
	Rebuild(ctx context.Context, filter AlbumFilter) (int64, error)
	Reindex(ctx context.Context) error
	Analyze(ctx context.Context) error

	GetByID(ctx context.Context, id int64) (*model.Album, error)
	List(ctx context.Context, page, pageSize int) ([]model.Album, int64, error)
	Count(ctx context.Context) (int64, error)
}

// ==================== 仓储实现 ====================

type albumRepo struct {
	db *gorm.DB
}

// NewAlbumRepository 创建专辑仓储
func NewAlbumRepository(db *gorm.DB) AlbumRepository {
	return &albumRepo{db: db}
}

// Rebuild 清空后按规则从 products 一次性 insert-select 重灌
// 整个重建在一个事务里，读侧要么看到旧表要么看到新表。
func (r *albumRepo) Rebuild(ctx context.Context, filter AlbumFilter) (int64, error) {
	var inserted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM albums").Error; err != nil {
			return err
		}

		sql, args := buildRebuildSQL(filter)
		res := tx.Exec(sql, args...)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})

	return inserted, err
}

// buildRebuildSQL 拼装 insert-select 语句
// 生成的 SQL 同时兼容 Postgres 与 sqlite（测试环境）。
func buildRebuildSQL(f AlbumFilter) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString(`INSERT INTO albums (
		product_id, square_item_id, square_variation_id, name, description,
		price_cents, currency, category, categories, stock_count, sold_count,
		last_sold_at, image_url, product_created_at, created_at, updated_at)
	SELECT
		id, square_item_id, square_variation_id, name, description,
		price_cents, currency, category, categories, stock_count, sold_count,
		last_sold_at, image_url, created_at, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	FROM products WHERE `)

	// 入选条件
	include := []string{"category IS NULL"}
	if len(f.AllowCategories) > 0 {
		include = append(include, "category IN ?")
		args = append(args, f.AllowCategories)
	}
	for _, vinyl := range f.VinylCategories {
		include = append(include, "categories LIKE ?")
		args = append(args, `%"`+vinyl+`"%`)
	}
	sb.WriteString("(" + strings.Join(include, " OR ") + ")")

	// 排除名单
	if len(f.ExcludeCategories) > 0 {
		sb.WriteString(" AND (category IS NULL OR category NOT IN ?)")
		args = append(args, f.ExcludeCategories)
	}

	// DVD / 游戏类标记
	for _, marker := range f.ExcludeMarkers {
		sb.WriteString(" AND COALESCE(category, '') NOT LIKE ? AND categories NOT LIKE ?")
		pattern := "%" + marker + "%"
		args = append(args, pattern, pattern)
	}

	// 新建且零库存的死区行
	if !f.BrandNewCutoff.IsZero() {
		sb.WriteString(" AND NOT (stock_count = 0 AND created_at > ?)")
		args = append(args, f.BrandNewCutoff)
	}

	return sb.String(), args
}

// Reindex 重建索引（维护步骤，失败不影响重建结果）
func (r *albumRepo) Reindex(ctx context.Context) error {
	stmt := "REINDEX albums"
	if r.db.Dialector.Name() == "postgres" {
		stmt = "REINDEX TABLE albums"
	}
	return r.db.WithContext(ctx).Exec(stmt).Error
}

// Analyze 刷新统计信息（维护步骤，失败不影响重建结果）
func (r *albumRepo) Analyze(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("ANALYZE albums").Error
}

func (r *albumRepo) GetByID(ctx context.Context, id int64) (*model.Album, error) {
	var album model.Album
	err := r.db.WithContext(ctx).First(&album, id).Error
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (r *albumRepo) List(ctx context.Context, page, pageSize int) ([]model.Album, int64, error) {
	var albums []model.Album
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Album{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	err := query.
		Order("product_created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&albums).Error

	return albums, total, err
}

func (r *albumRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Album{}).Count(&total).Error
	return total, err
}
