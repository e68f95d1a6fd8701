package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

// ==================== 接口定义 ====================

// SyncStateRepository 同步状态仓储接口
// 只由编排层调用；每个写方法都是针对单列的 upsert，
// 互不覆盖对方维护的列（游标写入不会动水位时间，反之亦然）。
type SyncStateRepository interface {
	Get(ctx context.Context, syncType string) (*model.SyncState, error)
	All(ctx context.Context) ([]model.SyncState, error)

	// SaveCursor 每个批次成功后立即落盘游标
	SaveCursor(ctx context.Context, syncType, cursor string) error
	// SaveWatermark 推进成功水位时间（销售同步只推进到实际观测到的最大订单时间）
	// 只向前推进：写入早于已存水位的时间是空操作，历史回填不会把水位拉回去
	SaveWatermark(ctx context.Context, syncType string, watermark time.Time) error
	// ClearCursor 整轮完成后清空半途游标
	ClearCursor(ctx context.Context, syncType string) error
}

// ==================== 仓储实现 ====================

type syncStateRepo struct {
	db *gorm.DB
}

// NewSyncStateRepository 创建同步状态仓储
func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepo{db: db}
}

// Get 查询指定类型的同步状态，不存在时返回 (nil, nil)
func (r *syncStateRepo) Get(ctx context.Context, syncType string) (*model.SyncState, error) {
	var state model.SyncState
	err := r.db.WithContext(ctx).
		Where("sync_type = ?", syncType).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *syncStateRepo) All(ctx context.Context) ([]model.SyncState, error) {
	var states []model.SyncState
	err := r.db.WithContext(ctx).Order("sync_type").Find(&states).Error
	return states, err
}

func (r *syncStateRepo) SaveCursor(ctx context.Context, syncType, cursor string) error {
	now := time.Now()
	state := model.SyncState{
		SyncType:  syncType,
		Cursor:    cursor,
		LastRunAt: &now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sync_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor", "last_run_at", "updated_at",
		}),
	}).Create(&state).Error
}

func (r *syncStateRepo) SaveWatermark(ctx context.Context, syncType string, watermark time.Time) error {
	now := time.Now()
	state := model.SyncState{
		SyncType:     syncType,
		LastSyncedAt: &watermark,
		LastRunAt:    &now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sync_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_synced_at": gorm.Expr("CASE WHEN sync_states.last_synced_at IS NULL OR sync_states.last_synced_at < excluded.last_synced_at THEN excluded.last_synced_at ELSE sync_states.last_synced_at END"),
			"last_run_at":    gorm.Expr("excluded.last_run_at"),
			"updated_at":     gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&state).Error
}

func (r *syncStateRepo) ClearCursor(ctx context.Context, syncType string) error {
	return r.db.WithContext(ctx).
		Model(&model.SyncState{}).
		Where("sync_type = ?", syncType).
		Update("cursor", "").Error
}
