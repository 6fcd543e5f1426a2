package model

import "time"

// 配送先住所
type ShippingAddress struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64     `gorm:"not null;index" json:"customer_id"`
	OrderID    int64     `gorm:"not null;index" json:"order_id"`
	Address    string    `gorm:"type:varchar(300);not null" json:"address"`
	CityID     int64     `gorm:"not null;index" json:"city_id"`
	Region     string    `gorm:"type:varchar(250);not null" json:"region"`
	Phone      string    `gorm:"type:varchar(250);not null" json:"phone"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

type City struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(300);not null" json:"name"`
}
