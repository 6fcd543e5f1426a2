package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 購入者ごとに1件だけ存在する「いまのカート」。
// チェックアウト後も行は残り、明細だけが消える。
type Order struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID       int64     `gorm:"not null;uniqueIndex" json:"customer_id"`
	IsCompleted      bool      `gorm:"not null;default:false" json:"is_completed"`
	Shipping         bool      `gorm:"not null;default:true" json:"shipping"`
	PaymentSessionID string    `gorm:"type:varchar(255);not null;default:''" json:"-"`
	// セッション作成時に請求した金額（最小通貨単位）
	PaymentAmount    int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// カートの明細。quantityが0以下になったら行ごと削除する。
type OrderProduct struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;uniqueIndex:idx_order_product" json:"order_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_order_product" json:"product_id"`
	Quantity  int64     `gorm:"not null;default:0" json:"quantity"`
	AddedAt   time.Time `gorm:"not null;autoCreateTime" json:"added_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

// quantity × product.price
func (op OrderProduct) LineTotal() decimal.Decimal {
	return op.Product.Price.Mul(decimal.NewFromInt(op.Quantity))
}
