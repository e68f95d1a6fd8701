package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

// ==================== 接口定义 ====================

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// 订单 upsert：totals / state 在上游可变，冲突时整体覆盖
	Upsert(ctx context.Context, order *model.Order) error
	GetBySquareOrderID(ctx context.Context, squareOrderID string) (*model.Order, error)

	// 订单行只插入不更新：冲突时 DO NOTHING
	// 返回值表示这一行是否真的新插入（幂等重放时为 false）
	InsertLineItem(ctx context.Context, item *model.OrderLineItem) (bool, error)
	ListLineItems(ctx context.Context, squareOrderID string) ([]model.OrderLineItem, error)
	CountLineItems(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
}

// ==================== 仓储实现 ====================

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

// Upsert 按 square_order_id upsert 订单
func (r *orderRepo) Upsert(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "square_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"location_id", "state", "total_cents", "currency",
			"customer_id", "source", "raw_data",
			"square_created_at", "square_closed_at", "synced_at", "updated_at",
		}),
	}).Create(order).Error
}

func (r *orderRepo) GetBySquareOrderID(ctx context.Context, squareOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("square_order_id = ?", squareOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertLineItem 插入订单行，(square_order_id, uid) 冲突时静默跳过
func (r *orderRepo) InsertLineItem(ctx context.Context, item *model.OrderLineItem) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "square_order_id"}, {Name: "uid"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) ListLineItems(ctx context.Context, squareOrderID string) ([]model.OrderLineItem, error) {
	var items []model.OrderLineItem
	err := r.db.WithContext(ctx).
		Where("square_order_id = ?", squareOrderID).
		Find(&items).Error
	return items, err
}

func (r *orderRepo) CountLineItems(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.OrderLineItem{}).Count(&total).Error
	return total, err
}

func (r *orderRepo) CountOrders(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&total).Error
	return total, err
}
