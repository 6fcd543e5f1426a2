package repository

import (
	"context"

	"shop/internal/domain/model"
)

// カテゴリ配下の商品一覧の条件
type ProductListQuery struct {
	CategoryIDs []int64
	Sort        string
	Page        int
	Limit       int
}

type CategoryRepository interface {
	// parentが無いカテゴリ（subcategories付き）
	ListRoots(ctx context.Context) ([]model.Category, error)
	// slugで1件（subcategories付き）
	FindBySlug(ctx context.Context, slug string) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 行ロック付きで取得（トランザクション内で使う）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	// 在庫数だけ読む（キャッシュした商品に重ねる）
	QuantityByID(ctx context.Context, id int64) (int64, error)
	ListIDs(ctx context.Context) ([]int64, error)
	ListByCategories(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, id int64) error
}

// 在庫の増減
type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
