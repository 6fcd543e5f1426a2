package model

// お気に入り。(user, product)で1件。
type FavouriteProduct struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_favourite_user_product" json:"user_id"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_favourite_user_product" json:"product_id"`
}

// メルマガ購読者
type MailCustomer struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Mail   string `gorm:"type:varchar(254);not null;uniqueIndex" json:"mail"`
	UserID *int64 `gorm:"index" json:"user_id"`
}

type Profile struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	Photo       string `gorm:"type:varchar(255)" json:"photo"`
	PhoneNumber string `gorm:"type:varchar(30)" json:"phone_number"`
}
