package model

// AutoMigrateの対象。依存される側から並べる。
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Product{},
		&ProductImage{},
		&Customer{},
		&Order{},
		&OrderProduct{},
		&City{},
		&ShippingAddress{},
		&SaveOrder{},
		&SaveOrderProduct{},
		&Review{},
		&FavouriteProduct{},
		&MailCustomer{},
		&Profile{},
	}
}
