package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

// ==================== 接口定义 ====================

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	BatchUpsert(ctx context.Context, categories []model.Category) (int64, error)
	NameMap(ctx context.Context) (map[string]string, error)
	Count(ctx context.Context) (int64, error)
}

// ==================== 仓储实现 ====================

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

// BatchUpsert 按 square_id 批量 upsert 分类
func (r *categoryRepo) BatchUpsert(ctx context.Context, categories []model.Category) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "square_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "parent_id", "is_deleted", "updated_at",
		}),
	}).Create(&categories)

	return res.RowsAffected, res.Error
}

// NameMap 返回 square_id -> 名称 映射（软删除的分类不参与反规范化）
func (r *categoryRepo) NameMap(ctx context.Context) (map[string]string, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.SquareID] = c.Name
	}
	return names, nil
}

func (r *categoryRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&total).Error
	return total, err
}
