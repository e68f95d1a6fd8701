package square

import (
	"strconv"
	"time"
)

// ==========================================
// DTO: 用于接收 Square API 返回的原始 JSON 数据
// ==========================================

// Money 金额嵌套结构（amount 以最小货币单位计）
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CatalogObject Catalog 对象外层结构
// type 决定哪个 *_data 字段有值 (ITEM / ITEM_VARIATION / CATEGORY / IMAGE)
type CatalogObject struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	UpdatedAt string `json:"updated_at"`
	Version   int64  `json:"version"`
	IsDeleted bool   `json:"is_deleted"`

	ItemData          *CatalogItem          `json:"item_data,omitempty"`
	ItemVariationData *CatalogItemVariation `json:"item_variation_data,omitempty"`
	CategoryData      *CatalogCategory      `json:"category_data,omitempty"`
	ImageData         *CatalogImage         `json:"image_data,omitempty"`
}

// UpdatedTime 解析 updated_at
func (o *CatalogObject) UpdatedTime() *time.Time {
	if o.UpdatedAt == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, o.UpdatedAt)
	if err != nil {
		return nil
	}
	return &t
}

// CatalogItem 商品条目
type CatalogItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Categories  []CategoryRef   `json:"categories"`
	ImageIDs    []string        `json:"image_ids"`
	Variations  []CatalogObject `json:"variations"`
}

// CategoryRef 商品挂载的分类引用
type CategoryRef struct {
	ID string `json:"id"`
}

// CatalogItemVariation 商品变体（本系统标准商品行的粒度）
type CatalogItemVariation struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	PriceMoney  *Money `json:"price_money"`
	PricingType string `json:"pricing_type"`
}

// CatalogCategory 分类
type CatalogCategory struct {
	Name             string       `json:"name"`
	ParentCategoryID *CategoryRef `json:"parent_category,omitempty"`
}

// CatalogImage 图片
type CatalogImage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// InventoryCount 库存计数
// Square 不回传数量为 0 的行；缺席即为 0，调用方必须自行补零。
type InventoryCount struct {
	CatalogObjectID string `json:"catalog_object_id"`
	LocationID      string `json:"location_id"`
	State           string `json:"state"`
	Quantity        string `json:"quantity"`
}

// QuantityInt 解析数量（Square 以十进制字符串返回）
func (c *InventoryCount) QuantityInt() int {
	if c.Quantity == "" {
		return 0
	}
	f, err := strconv.ParseFloat(c.Quantity, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// Order 订单
type Order struct {
	ID         string          `json:"id"`
	LocationID string          `json:"location_id"`
	State      string          `json:"state"`
	CustomerID string          `json:"customer_id"`
	Source     *OrderSource    `json:"source,omitempty"`
	LineItems  []OrderLineItem `json:"line_items"`
	TotalMoney *Money          `json:"total_money,omitempty"`
	CreatedAt  string          `json:"created_at"`
	ClosedAt   string          `json:"closed_at"`
}

// OrderSource 订单来源
type OrderSource struct {
	Name string `json:"name"`
}

// CreatedTime 解析 created_at
func (o *Order) CreatedTime() *time.Time {
	return parseRFC3339(o.CreatedAt)
}

// ClosedTime 解析 closed_at
func (o *Order) ClosedTime() *time.Time {
	return parseRFC3339(o.ClosedAt)
}

// OrderLineItem 订单行
type OrderLineItem struct {
	UID             string `json:"uid"`
	CatalogObjectID string `json:"catalog_object_id"`
	Name            string `json:"name"`
	Quantity        string `json:"quantity"`
	BasePriceMoney  *Money `json:"base_price_money,omitempty"`
	TotalMoney      *Money `json:"total_money,omitempty"`
}

// QuantityInt 解析数量
func (li *OrderLineItem) QuantityInt() int {
	if li.Quantity == "" {
		return 0
	}
	f, err := strconv.ParseFloat(li.Quantity, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

func parseRFC3339(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
