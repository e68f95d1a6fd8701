package dto

import "time"

// ==================== 专辑 / 商品展示 ====================

// AlbumListRequest 专辑列表查询参数
type AlbumListRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// AlbumResp 对外展示的专辑
type AlbumResp struct {
	ID               int64      `json:"id"`
	ProductID        int64      `json:"product_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Price            float64    `json:"price"`
	Currency         string     `json:"currency"`
	Category         string     `json:"category"`
	Categories       []string   `json:"categories"`
	StockCount       int        `json:"stock_count"`
	ImageURL         string     `json:"image_url"`
	SoldCount        int        `json:"sold_count"`
	LastSoldAt       *time.Time `json:"last_sold_at,omitempty"`
	ProductCreatedAt time.Time  `json:"product_created_at"`
}

// AlbumListResp 专辑分页结果
type AlbumListResp struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Albums   []AlbumResp `json:"albums"`
}

// ProductResp 对外展示的商品
type ProductResp struct {
	ID                int64      `json:"id"`
	SquareItemID      string     `json:"square_item_id"`
	SquareVariationID string     `json:"square_variation_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	Currency          string     `json:"currency"`
	Category          string     `json:"category"`
	Categories        []string   `json:"categories"`
	StockCount        int        `json:"stock_count"`
	ImageURL          string     `json:"image_url"`
	SoldCount         int        `json:"sold_count"`
	LastSoldAt        *time.Time `json:"last_sold_at,omitempty"`
	SyncedAt          *time.Time `json:"synced_at,omitempty"`
}
