package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

// Square 订单状态
const (
	OrderStateOpen      = "OPEN"
	OrderStateCompleted = "COMPLETED"
	OrderStateCanceled  = "CANCELED"
	OrderStateDraft     = "DRAFT"
)

// ==================== Order 订单主表 ====================

// Order 订单（每个 Square order 一行，只 upsert 不删除）
type Order struct {
	BaseModel
	SquareOrderID string `gorm:"size:64;uniqueIndex;not null"`
	LocationID    string `gorm:"size:64;index"`

	// 状态（totals / state 在 Square 侧可变，同步时整体覆盖）
	State string `gorm:"size:32;index"`

	// 金额（分为单位存储）
	TotalCents int64  `gorm:"default:0"`
	Currency   string `gorm:"size:10;default:USD"`

	// 买家 / 来源引用
	CustomerID string `gorm:"size:64;index"`
	Source     string `gorm:"size:64"`

	// Square 原始数据（PostgreSQL JSONB，留作审计）
	RawData datatypes.JSON `gorm:"type:jsonb"`

	// 时间戳
	SquareCreatedAt *time.Time `gorm:"index"`
	SquareClosedAt  *time.Time
	SyncedAt        *time.Time

	// 关联
	Items []OrderLineItem `gorm:"foreignKey:SquareOrderID;references:SquareOrderID"`
}

func (*Order) TableName() string {
	return "orders"
}

// TotalDollars 获取订单总额（元）
func (o *Order) TotalDollars() float64 {
	return float64(o.TotalCents) / 100
}

// ==================== OrderLineItem 订单行 ====================

// OrderLineItem 订单行（幂等边界：(square_order_id, uid) 组合唯一）
// 只插入不更新：冲突时 DO NOTHING，行一旦落库即不可变。
type OrderLineItem struct {
	BaseModel
	SquareOrderID string `gorm:"size:64;uniqueIndex:idx_order_line_uid,priority:1;not null"`
	UID           string `gorm:"size:64;uniqueIndex:idx_order_line_uid,priority:2;not null"`

	// 商品引用（解析自 catalog_object_id，可能为空）
	SquareVariationID string `gorm:"size:64;index"`
	Name              string `gorm:"size:255"`

	// 数量与金额
	Quantity       int    `gorm:"default:0"`
	UnitPriceCents int64  `gorm:"default:0"`
	TotalCents     int64  `gorm:"default:0"`
	Currency       string `gorm:"size:10;default:USD"`

	// 订单时间（冗余存储，便于按时间范围查询）
	OrderCreatedAt *time.Time `gorm:"index"`
	OrderClosedAt  *time.Time
}

func (*OrderLineItem) TableName() string {
	return "order_line_items"
}
