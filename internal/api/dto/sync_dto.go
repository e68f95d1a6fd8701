package dto

import "time"

// ==================== 目录同步 ====================

// SyncCatalogRequest 目录同步请求
// Full: 忽略断点游标从头全量走一遍
// ItemIDs/VariationIDs: 定向同步指定对象（不走分页）
// Limit: 单次调用最多走多少页（控制单次执行时长）
type SyncCatalogRequest struct {
	Full         bool     `json:"full"`
	ItemIDs      []string `json:"item_ids"`
	VariationIDs []string `json:"variation_ids"`
	Limit        int      `json:"limit"`
}

// SyncCatalogResponse 目录同步结果摘要
type SyncCatalogResponse struct {
	ItemsSeen              int    `json:"items_seen"`
	VariationsUpserted     int64  `json:"variations_upserted"`
	InventoryRowsUpdated   int64  `json:"inventory_rows_updated"`
	ImageRowsUpdated       int64  `json:"image_rows_updated"`
	SkippedDeleted         int    `json:"skipped_deleted"`
	PagesWalked            int    `json:"pages_walked"`
	Cursor                 string `json:"cursor"`
	Completed              bool   `json:"completed"`
	CategoriesDenormalized int64  `json:"categories_denormalized"`
	DurationMs             int64  `json:"duration_ms"`
}

// SyncCategoriesResponse 分类同步结果摘要
type SyncCategoriesResponse struct {
	CategoriesSeen int   `json:"categories_seen"`
	Upserted       int64 `json:"upserted"`
}

// ==================== 销售同步 ====================

// SyncSalesRequest 销售同步请求
// Mode: incremental（固定回看 24 小时）或 backfill；缺省时按内容推断，
// 带 StartAt/EndAt 即视为 backfill
// StartAt/EndAt: backfill 的显式时间范围（RFC3339 或 2006-01-02），
// 缺省时从上次成功水位回退 2 小时自动推导
// Limit: 单页拉取条数（0 走上游默认上限）
type SyncSalesRequest struct {
	Mode     string `json:"mode"`
	StartAt  string `json:"start_at"`
	EndAt    string `json:"end_at"`
	Limit    int    `json:"limit"`
	MaxPages int    `json:"max_pages"`
}

// SyncSalesResponse 销售同步结果摘要
type SyncSalesResponse struct {
	OrdersSeen        int        `json:"orders_seen"`
	LineItemsInserted int        `json:"line_items_inserted"`
	SoldCountApplied  int        `json:"sold_count_applied"`
	PagesWalked       int        `json:"pages_walked"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	Skipped           []string   `json:"skipped,omitempty"`
	DurationMs        int64      `json:"duration_ms"`
}

// ==================== 专辑重建 ====================

// RebuildAlbumsResponse 专辑重建结果摘要
type RebuildAlbumsResponse struct {
	AlbumCount  int64         `json:"album_count"`
	DurationMs  int64         `json:"duration_ms"`
	Maintenance []StepSummary `json:"maintenance,omitempty"`
}

// ==================== 编排 ====================

// StepSummary 非关键步骤执行情况
type StepSummary struct {
	Name   string `json:"name"`
	Status string `json:"status"` // succeeded / skipped / failed
	Error  string `json:"error,omitempty"`
}

// CatalogPipelineResponse 目录全链路（分类 -> 目录 -> 专辑重建）结果摘要
type CatalogPipelineResponse struct {
	Categories *SyncCategoriesResponse `json:"categories,omitempty"`
	Catalog    *SyncCatalogResponse    `json:"catalog,omitempty"`
	Albums     *RebuildAlbumsResponse  `json:"albums,omitempty"`
	Steps      []StepSummary           `json:"steps,omitempty"`
	DurationMs int64                   `json:"duration_ms"`
}

// SyncStatusItem 单个同步类型的状态
type SyncStatusItem struct {
	SyncType     string     `json:"sync_type"`
	HasCursor    bool       `json:"has_cursor"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
}

// SyncStatusResponse 同步状态总览
type SyncStatusResponse struct {
	States     []SyncStatusItem `json:"states"`
	Products   int64            `json:"products"`
	Albums     int64            `json:"albums"`
	Orders     int64            `json:"orders"`
	LineItems  int64            `json:"line_items"`
	Categories int64            `json:"categories"`
}
