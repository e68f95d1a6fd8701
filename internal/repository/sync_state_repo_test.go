package repository

import (
	"context"
	"testing"
	"time"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

func TestSyncStateRepo_GetMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncStateRepository(db)

	state, err := repo.Get(context.Background(), model.SyncTypeCatalog)
	if err != nil {
		t.Fatalf("查询不应报错: %v", err)
	}
	if state != nil {
		t.Errorf("无记录时应返回 nil，实际 %+v", state)
	}
}

func TestSyncStateRepo_CursorLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncStateRepository(db)
	ctx := context.Background()

	if err := repo.SaveCursor(ctx, model.SyncTypeCatalog, "CURSOR-A"); err != nil {
		t.Fatalf("保存游标失败: %v", err)
	}
	state, _ := repo.Get(ctx, model.SyncTypeCatalog)
	if state == nil || state.Cursor != "CURSOR-A" {
		t.Fatalf("游标未落盘: %+v", state)
	}
	if state.LastRunAt == nil {
		t.Error("保存游标应同时更新 last_run_at")
	}

	// 游标推进
	if err := repo.SaveCursor(ctx, model.SyncTypeCatalog, "CURSOR-B"); err != nil {
		t.Fatalf("推进游标失败: %v", err)
	}
	state, _ = repo.Get(ctx, model.SyncTypeCatalog)
	if state.Cursor != "CURSOR-B" {
		t.Errorf("游标未推进: %s", state.Cursor)
	}

	// 整轮完成后清空
	if err := repo.ClearCursor(ctx, model.SyncTypeCatalog); err != nil {
		t.Fatalf("清空游标失败: %v", err)
	}
	state, _ = repo.Get(ctx, model.SyncTypeCatalog)
	if state.Cursor != "" {
		t.Errorf("游标未清空: %s", state.Cursor)
	}
}

func TestSyncStateRepo_SaveWatermark(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncStateRepository(db)
	ctx := context.Background()

	mark := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	if err := repo.SaveWatermark(ctx, model.SyncTypeSales, mark); err != nil {
		t.Fatalf("保存水位失败: %v", err)
	}

	state, _ := repo.Get(ctx, model.SyncTypeSales)
	if state == nil || state.LastSyncedAt == nil || !state.LastSyncedAt.Equal(mark) {
		t.Fatalf("水位未落盘: %+v", state)
	}

	// 不同同步类型互不影响
	other, _ := repo.Get(ctx, model.SyncTypeCatalog)
	if other != nil {
		t.Errorf("其他同步类型不应存在记录: %+v", other)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("查询全部状态失败: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("期望 1 条状态，实际 %d", len(all))
	}
}

func TestSyncStateRepo_WatermarkMonotonic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncStateRepository(db)
	ctx := context.Background()

	later := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	if err := repo.SaveWatermark(ctx, model.SyncTypeSales, later); err != nil {
		t.Fatalf("保存水位失败: %v", err)
	}

	// 写入更早的时间是空操作
	if err := repo.SaveWatermark(ctx, model.SyncTypeSales, earlier); err != nil {
		t.Fatalf("写入早水位失败: %v", err)
	}
	state, _ := repo.Get(ctx, model.SyncTypeSales)
	if state.LastSyncedAt == nil || !state.LastSyncedAt.Equal(later) {
		t.Errorf("水位不应回退: %v", state.LastSyncedAt)
	}

	// 更晚的时间仍然推进
	latest := later.Add(time.Hour)
	if err := repo.SaveWatermark(ctx, model.SyncTypeSales, latest); err != nil {
		t.Fatalf("推进水位失败: %v", err)
	}
	state, _ = repo.Get(ctx, model.SyncTypeSales)
	if state.LastSyncedAt == nil || !state.LastSyncedAt.Equal(latest) {
		t.Errorf("水位未推进: %v", state.LastSyncedAt)
	}
}
