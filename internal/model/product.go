package model

import (
	"encoding/json"
	"time"
)

// ==================== Product 商品主表 ====================

// Product 标准商品表（每个 Square variation 一行）
// 库存字段 StockCount 只允许库存对账逻辑写入，目录元数据同步不得覆盖。
// Square 侧删除的对象目前不回传（无删除路径），旧行会一直保留。
type Product struct {
	BaseModel

	// --- Square 身份标识 ---
	SquareItemID      string `gorm:"size:64;index;not null"`
	SquareVariationID string `gorm:"size:64;uniqueIndex;not null"`

	// --- 商品基本信息 ---
	Name        string `gorm:"size:255;index"`
	Description string `gorm:"type:text"`

	// --- 价格（分为单位存储） ---
	PriceCents int64  `gorm:"default:0"`
	Currency   string `gorm:"size:5;default:USD"`

	// --- 分类 ---
	// Category 冗余存储主分类名，分类同步后由反规范化步骤统一回填
	Category         *string `gorm:"size:100;index"`
	SquareCategoryID *string `gorm:"size:64;index"`
	// Categories 冗余存储分类名集合（JSON 数组文本）
	Categories string `gorm:"type:text"`

	// --- 库存 ---
	StockCount int `gorm:"default:0;check:stock_count >= 0"`

	// --- 图片 ---
	ImageURL string `gorm:"size:512"`

	// --- 销量聚合（仅销售同步累加） ---
	SoldCount  int `gorm:"default:0"`
	LastSoldAt *time.Time

	// --- 时间戳 ---
	SquareUpdatedAt *time.Time
	SyncedAt        *time.Time
}

func (Product) TableName() string {
	return "products"
}

// PriceDollars 获取价格（元）
func (p *Product) PriceDollars() float64 {
	return float64(p.PriceCents) / 100
}

// CategoryNames 解析分类名集合
func (p *Product) CategoryNames() []string {
	if p.Categories == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(p.Categories), &names); err != nil {
		return nil
	}
	return names
}

// SetCategoryNames 设置分类名集合
func (p *Product) SetCategoryNames(names []string) {
	if len(names) == 0 {
		p.Categories = ""
		return
	}
	b, err := json.Marshal(names)
	if err != nil {
		return
	}
	p.Categories = string(b)
}

// ==================== Category 分类表 ====================

// Category 分类表（仅用于反规范化，不对外暴露）
type Category struct {
	BaseModel
	SquareID  string `gorm:"size:64;uniqueIndex;not null"`
	Name      string `gorm:"size:100;not null"`
	ParentID  string `gorm:"size:64"`
	IsDeleted bool   `gorm:"default:false"`
}

func (Category) TableName() string {
	return "categories"
}
