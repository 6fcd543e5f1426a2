package repository

import (
	"context"

	"shop/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
}

type FavouriteRepository interface {
	Find(ctx context.Context, userID, productID int64) (model.FavouriteProduct, bool, error)
	Create(ctx context.Context, f model.FavouriteProduct) error
	DeleteByID(ctx context.Context, id int64) error
	ListProductsByUserID(ctx context.Context, userID int64) ([]model.Product, error)
}

type MailCustomerRepository interface {
	// 既にあるメールならErrDuplicate
	Create(ctx context.Context, m model.MailCustomer) error
	ListAll(ctx context.Context) ([]model.MailCustomer, error)
}

type ProfileRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Profile, error)
	Update(ctx context.Context, p model.Profile) error
}
