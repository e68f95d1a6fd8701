package model

import (
	"encoding/json"
	"time"
)

// ==================== Album 专辑衍生表 ====================

// Album 读优化的专辑衍生表
// 每次重建时整表清空后由 products 一次性 insert-select 重新灌入，
// 不做增量修补。每一行都对应一条 Product，反之不成立。
type Album struct {
	BaseModel

	ProductID int64 `gorm:"index;not null"`

	// --- Square 身份标识 ---
	SquareItemID      string `gorm:"size:64;index;not null"`
	SquareVariationID string `gorm:"size:64;uniqueIndex;not null"`

	// --- 展示信息 ---
	Name        string `gorm:"size:255;index"`
	Description string `gorm:"type:text"`

	// --- 价格 ---
	PriceCents int64  `gorm:"default:0"`
	Currency   string `gorm:"size:5;default:USD"`

	// --- 分类 ---
	Category   *string `gorm:"size:100;index"`
	Categories string  `gorm:"type:text"`

	// --- 库存与销量 ---
	StockCount int `gorm:"default:0"`
	SoldCount  int `gorm:"default:0"`
	LastSoldAt *time.Time

	// --- 图片 ---
	ImageURL string `gorm:"size:512"`

	// --- 源行创建时间（用于"新到货"排序与筛选） ---
	ProductCreatedAt time.Time `gorm:"index"`
}

func (Album) TableName() string {
	return "albums"
}

// PriceDollars 获取价格（元）
func (a *Album) PriceDollars() float64 {
	return float64(a.PriceCents) / 100
}

// CategoryNames 解析分类名集合
func (a *Album) CategoryNames() []string {
	if a.Categories == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(a.Categories), &names); err != nil {
		return nil
	}
	return names
}
