package model

import (
	"time"
)

// ==================== 同步类型常量 ====================

const (
	SyncTypeCatalog    = "catalog"
	SyncTypeCategories = "categories"
	SyncTypeSales      = "sales"
)

// ==================== SyncState 同步状态表 ====================

// SyncState 同步状态（每个同步类型一行）
// 只由编排层写入：运行开始时读取，每个批次成功后立即落盘，
// 这样进程中途崩溃后能从最后一个完成的批次附近恢复，而不是从头再来。
type SyncState struct {
	BaseModel
	SyncType string `gorm:"size:50;uniqueIndex;not null"`

	// Cursor 上游分页游标（不透明字符串，空串表示无半途状态）
	Cursor string `gorm:"type:text"`

	// LastSyncedAt 最近一次成功处理到的水位时间
	// 销售同步只推进到实际观测到的最大订单创建时间，不是 "now"
	LastSyncedAt *time.Time

	// LastRunAt 最近一次运行时间（无论成败）
	LastRunAt *time.Time
}

func (SyncState) TableName() string {
	return "sync_states"
}
