package repository

import (
	"context"

	"shop/internal/domain/model"
)

type CustomerRepository interface {
	// 無ければ作る（同時実行でも1件に収束する）
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Customer, error)
	UpdateNames(ctx context.Context, customerID int64, firstName, lastName string) error
}

// いまのカート（Order）
type OrderRepository interface {
	// 無ければ作る（同時実行でも1件に収束する）
	GetOrCreateByCustomerID(ctx context.Context, customerID int64) (model.Order, error)
	// 行ロック付きで取得（カートへの変更を直列化する）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	// 決済セッションIDと請求額を記録。("", 0)でクリア
	SetPaymentSession(ctx context.Context, orderID int64, sessionID string, amount int64) error
}

// カートの明細
type OrderProductRepository interface {
	// 行ロック付きで取得。無ければErrNotFound
	FindForUpdate(ctx context.Context, orderID, productID int64) (model.OrderProduct, error)
	Create(ctx context.Context, op model.OrderProduct) (model.OrderProduct, error)
	UpdateQuantity(ctx context.Context, id int64, qty int64) error
	DeleteByID(ctx context.Context, id int64) error
	// productとimages付き
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error)
}
