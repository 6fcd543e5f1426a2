package repository

import (
	"context"

	"shop/internal/domain/model"
)

type ShippingAddressRepository interface {
	Create(ctx context.Context, a model.ShippingAddress) (model.ShippingAddress, error)
}

type CityRepository interface {
	List(ctx context.Context) ([]model.City, error)
	FindByID(ctx context.Context, id int64) (model.City, error)
}

// 注文履歴（スナップショット）
type SaveOrderRepository interface {
	// productsも一緒に保存する
	Create(ctx context.Context, so *model.SaveOrder) error
	ListByCustomerID(ctx context.Context, customerID int64) ([]model.SaveOrder, error)
	FindByID(ctx context.Context, id int64) (model.SaveOrder, error)
}
