package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 完了した注文の履歴。作成後は変更しない。
type SaveOrder struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64           `gorm:"not null;index" json:"customer_id"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`

	Products []SaveOrderProduct `gorm:"foreignKey:SaveOrderID" json:"products"`
}

// 履歴の明細。Productへの参照は持たず、値をコピーして残す。
type SaveOrderProduct struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SaveOrderID  int64           `gorm:"not null;index" json:"save_order_id"`
	Product      string          `gorm:"type:varchar(400);not null" json:"product"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	ProductPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"product_price"`
	FinalPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"final_price"`
	Photo        string          `gorm:"type:varchar(255)" json:"photo"`
	AddedAt      time.Time       `gorm:"not null;autoCreateTime" json:"added_at"`
}
