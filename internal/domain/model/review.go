package model

import "time"

type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  int64     `gorm:"not null;index" json:"author_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
