package model

// カテゴリ（parentで木構造）
type Category struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title    string `gorm:"type:varchar(150);not null" json:"title"`
	Image    string `gorm:"type:varchar(255)" json:"image"`
	Slug     string `gorm:"type:varchar(150);not null;uniqueIndex" json:"slug"`
	ParentID *int64 `gorm:"index" json:"parent_id"`

	Subcategories []Category `gorm:"foreignKey:ParentID" json:"subcategories,omitempty"`
}

func (c Category) IsRoot() bool {
	return c.ParentID == nil
}
