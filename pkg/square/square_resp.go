package square

// ==========================================
// 响应信封: Square API 各接口的外层结构
// ==========================================

// APIErrorDetail Square 错误明细
type APIErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field"`
}

// ErrorResp 通用错误响应
type ErrorResp struct {
	Errors []APIErrorDetail `json:"errors"`
}

// SearchCatalogResp POST /v2/catalog/search 响应
type SearchCatalogResp struct {
	Cursor         string          `json:"cursor"`
	Objects        []CatalogObject `json:"objects"`
	RelatedObjects []CatalogObject `json:"related_objects"`
}

// BatchRetrieveCatalogResp POST /v2/catalog/batch-retrieve 响应
type BatchRetrieveCatalogResp struct {
	Objects        []CatalogObject `json:"objects"`
	RelatedObjects []CatalogObject `json:"related_objects"`
}

// BatchInventoryCountsResp POST /v2/inventory/counts/batch-retrieve 响应
type BatchInventoryCountsResp struct {
	Cursor string           `json:"cursor"`
	Counts []InventoryCount `json:"counts"`
}

// SearchOrdersResp POST /v2/orders/search 响应
type SearchOrdersResp struct {
	Cursor string  `json:"cursor"`
	Orders []Order `json:"orders"`
}
