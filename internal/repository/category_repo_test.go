package repository

import (
	"context"
	"testing"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
)

func TestCategoryRepo_BatchUpsertAndNameMap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	n, err := repo.BatchUpsert(ctx, []model.Category{
		{SquareID: "CAT1", Name: "New Vinyl"},
		{SquareID: "CAT2", Name: "Used Vinyl"},
		{SquareID: "CAT3", Name: "Old Name", IsDeleted: true},
	})
	if err != nil {
		t.Fatalf("upsert 失败: %v", err)
	}
	if n != 3 {
		t.Errorf("期望影响 3 行，实际 %d", n)
	}

	// 改名重放：同一 square_id 覆盖
	if _, err := repo.BatchUpsert(ctx, []model.Category{
		{SquareID: "CAT2", Name: "Used Vinyl LPs"},
	}); err != nil {
		t.Fatalf("二次 upsert 失败: %v", err)
	}

	nameMap, err := repo.NameMap(ctx)
	if err != nil {
		t.Fatalf("查询映射失败: %v", err)
	}
	if nameMap["CAT1"] != "New Vinyl" {
		t.Errorf("CAT1 映射错误: %s", nameMap["CAT1"])
	}
	if nameMap["CAT2"] != "Used Vinyl LPs" {
		t.Errorf("CAT2 改名未生效: %s", nameMap["CAT2"])
	}
	if _, ok := nameMap["CAT3"]; ok {
		t.Error("删除标记的分类不应出现在映射里")
	}

	total, _ := repo.Count(ctx)
	if total != 3 {
		t.Errorf("期望 3 行，实际 %d", total)
	}
}
