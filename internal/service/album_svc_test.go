package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/cache"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
)

func newAlbumServiceForTest(t *testing.T) (*AlbumService, *gorm.DB, *cache.ReadCache) {
	db := setupServiceTestDB(t)
	readCache := cache.NewReadCache(30*time.Second, 10*time.Minute)
	svc := NewAlbumService(repository.NewAlbumRepository(db), readCache)
	return svc, db, readCache
}

func vinylCategory(name string) *string { return &name }

// ==================== 重建 ====================

func TestAlbumService_RebuildAlbums(t *testing.T) {
	svc, db, readCache := newAlbumServiceForTest(t)
	ctx := context.Background()

	db.Create(&model.Product{
		SquareItemID: "I1", SquareVariationID: "V1", Name: "Harvest",
		Category: vinylCategory("Used Vinyl"), StockCount: 2,
	})
	db.Create(&model.Product{
		SquareItemID: "I2", SquareVariationID: "V2", Name: "Some Turntable",
		Category: vinylCategory("Equipment"), StockCount: 5,
	})

	// 预置缓存，重建后必须被清空
	readCache.Get(ctx, "albums:1:20", func(context.Context) (interface{}, error) {
		return "old", nil
	})

	resp, err := svc.RebuildAlbums(ctx)
	if err != nil {
		t.Fatalf("重建失败: %v", err)
	}
	if resp.AlbumCount != 1 {
		t.Errorf("期望 1 张专辑，实际 %d", resp.AlbumCount)
	}
	if len(resp.Maintenance) != 2 {
		t.Fatalf("期望 2 个维护步骤，实际 %d", len(resp.Maintenance))
	}
	for _, step := range resp.Maintenance {
		if step.Status != StepSucceeded {
			t.Errorf("维护步骤 %s 状态异常: %s (%s)", step.Name, step.Status, step.Error)
		}
	}
	if readCache.Len() != 0 {
		t.Errorf("重建后缓存应清空: %d", readCache.Len())
	}
}

// ==================== 读路径 ====================

func TestAlbumService_GetAlbum_ReadThrough(t *testing.T) {
	svc, db, _ := newAlbumServiceForTest(t)
	ctx := context.Background()

	db.Create(&model.Product{
		SquareItemID: "I1", SquareVariationID: "V1", Name: "Blue",
		Category: vinylCategory("New Vinyl"), Categories: `["New Vinyl","Folk"]`,
		PriceCents: 3499, StockCount: 1,
	})
	if _, err := svc.RebuildAlbums(ctx); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	var albumID int64
	db.Raw("SELECT id FROM albums LIMIT 1").Scan(&albumID)

	// 首次：实时读取
	album, from, err := svc.GetAlbum(ctx, albumID)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if from != cache.ServedLive {
		t.Errorf("首次读取应为 live: %s", from)
	}
	if album.Name != "Blue" || album.Price != 34.99 {
		t.Errorf("载荷错误: %+v", album)
	}
	if len(album.Categories) != 2 {
		t.Errorf("分类集合未解析: %v", album.Categories)
	}

	// 二次：新鲜命中
	_, from, err = svc.GetAlbum(ctx, albumID)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if from != cache.ServedFresh {
		t.Errorf("二次读取应命中缓存: %s", from)
	}
}

func TestAlbumService_ListAlbums_NewestFirst(t *testing.T) {
	svc, db, _ := newAlbumServiceForTest(t)
	ctx := context.Background()

	older := model.Product{
		SquareItemID: "I1", SquareVariationID: "V1", Name: "Older",
		Category: vinylCategory("Used Vinyl"), StockCount: 1,
	}
	db.Create(&older)
	db.Model(&model.Product{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().AddDate(0, -1, 0))
	db.Create(&model.Product{
		SquareItemID: "I2", SquareVariationID: "V2", Name: "Newer",
		Category: vinylCategory("Used Vinyl"), StockCount: 1,
	})

	if _, err := svc.RebuildAlbums(ctx); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	list, _, err := svc.ListAlbums(ctx, &dto.AlbumListRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if list.Total != 2 || len(list.Albums) != 2 {
		t.Fatalf("期望 2 张专辑: total=%d len=%d", list.Total, len(list.Albums))
	}
	if list.Albums[0].Name != "Newer" {
		t.Errorf("应按上架时间倒序: %s", list.Albums[0].Name)
	}
}
