package model

// 購入者。1ユーザーにつき最大1件。
type Customer struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	FirstName string `gorm:"type:varchar(250);not null;default:''" json:"first_name"`
	LastName  string `gorm:"type:varchar(250);not null;default:''" json:"last_name"`
}
