package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultProductSize  = 30
	DefaultProductColor = "Silver"
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string          `gorm:"type:varchar(150);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity    int64           `gorm:"not null;default:0" json:"quantity"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Slug        string          `gorm:"type:varchar(150);not null;uniqueIndex" json:"slug"`
	Size        int             `gorm:"not null;default:30" json:"size"`
	Color       string          `gorm:"type:varchar(50);not null" json:"color"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`

	Images []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

// 商品画像（ギャラリー）
type ProductImage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	URL       string `gorm:"type:varchar(255);not null" json:"url"`
}

// 先頭の画像。無ければ空文字。
func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}
