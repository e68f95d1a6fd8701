package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

func testAlbumFilter() AlbumFilter {
	return AlbumFilter{
		AllowCategories:   []string{"New Vinyl", "Used Vinyl", "45s"},
		VinylCategories:   []string{"New Vinyl", "Used Vinyl"},
		ExcludeCategories: []string{"CDs", "Equipment"},
		ExcludeMarkers:    []string{"DVD"},
		BrandNewCutoff:    time.Now().AddDate(0, 0, -7),
	}
}

// ==================== 重建 ====================

func TestAlbumRepo_Rebuild_Filtering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAlbumRepository(db)
	ctx := context.Background()

	// 入选：主分类在白名单
	seedProduct(t, db, model.Product{
		SquareItemID: "I1", SquareVariationID: "V1", Name: "In Rainbows",
		Category: strPtr("New Vinyl"), StockCount: 3,
	})
	// 入选：主分类为空但分类集合含黑胶
	seedProduct(t, db, model.Product{
		SquareItemID: "I2", SquareVariationID: "V2", Name: "OK Computer",
		Categories: `["Used Vinyl","Rock"]`, StockCount: 1,
	})
	// 剔除：主分类在排除名单
	seedProduct(t, db, model.Product{
		SquareItemID: "I3", SquareVariationID: "V3", Name: "Some CD",
		Category: strPtr("CDs"), StockCount: 5,
	})
	// 剔除：分类集合带 DVD 标记
	seedProduct(t, db, model.Product{
		SquareItemID: "I4", SquareVariationID: "V4", Name: "Concert Film",
		Category: strPtr("New Vinyl"), Categories: `["Music DVD"]`, StockCount: 2,
	})

	count, err := repo.Rebuild(ctx, testAlbumFilter())
	if err != nil {
		t.Fatalf("重建失败: %v", err)
	}
	if count != 2 {
		t.Errorf("期望 2 张专辑，实际 %d", count)
	}

	albums, total, err := repo.List(ctx, 1, 50)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 2 {
		t.Errorf("期望总数 2，实际 %d", total)
	}
	names := map[string]bool{}
	for _, a := range albums {
		names[a.Name] = true
	}
	if !names["In Rainbows"] || !names["OK Computer"] {
		t.Errorf("入选集合不符: %v", names)
	}
}

func TestAlbumRepo_Rebuild_SkipsBrandNewZeroStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAlbumRepository(db)
	ctx := context.Background()

	// 新建且零库存：尚未上架的噪音行
	seedProduct(t, db, model.Product{
		SquareItemID: "I1", SquareVariationID: "V1", Name: "Not Yet Listed",
		Category: strPtr("New Vinyl"), StockCount: 0,
	})
	// 老行零库存：售罄但仍展示
	old := seedProduct(t, db, model.Product{
		SquareItemID: "I2", SquareVariationID: "V2", Name: "Sold Out Classic",
		Category: strPtr("Used Vinyl"), StockCount: 0,
	})
	db.Model(&model.Product{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -30))

	count, err := repo.Rebuild(ctx, testAlbumFilter())
	if err != nil {
		t.Fatalf("重建失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望 1 张专辑，实际 %d", count)
	}

	albums, _, _ := repo.List(ctx, 1, 10)
	if len(albums) != 1 || albums[0].Name != "Sold Out Classic" {
		t.Errorf("入选行不符: %+v", albums)
	}
}

func TestAlbumRepo_Rebuild_ReplacesWholeTable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAlbumRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, model.Product{
		SquareItemID: "I1", SquareVariationID: "V1", Name: "First Pressing",
		Category: strPtr("New Vinyl"), StockCount: 2,
	})
	db.Model(&model.Product{}).Where("id = ?", p.ID).
		Update("created_at", time.Now().AddDate(0, 0, -10))

	if _, err := repo.Rebuild(ctx, testAlbumFilter()); err != nil {
		t.Fatalf("首次重建失败: %v", err)
	}

	// 库存归零后再重建：旧行不残留，新行反映当前库存
	db.Model(&model.Product{}).Where("id = ?", p.ID).Update("stock_count", 0)
	count, err := repo.Rebuild(ctx, testAlbumFilter())
	if err != nil {
		t.Fatalf("二次重建失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望 1 张专辑，实际 %d", count)
	}

	album, err := repo.GetByID(ctx, mustFirstAlbumID(t, db))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if album.StockCount != 0 {
		t.Errorf("期望库存 0，实际 %d", album.StockCount)
	}
	if album.ProductID != p.ID {
		t.Errorf("专辑未关联源商品: %d", album.ProductID)
	}
}

func mustFirstAlbumID(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var id int64
	if err := db.Raw("SELECT id FROM albums LIMIT 1").Scan(&id).Error; err != nil {
		t.Fatalf("查询专辑 id 失败: %v", err)
	}
	return id
}

// ==================== 维护步骤 ====================

func TestAlbumRepo_ReindexAnalyze(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAlbumRepository(db)
	ctx := context.Background()

	if err := repo.Reindex(ctx); err != nil {
		t.Errorf("REINDEX 失败: %v", err)
	}
	if err := repo.Analyze(ctx); err != nil {
		t.Errorf("ANALYZE 失败: %v", err)
	}
}
