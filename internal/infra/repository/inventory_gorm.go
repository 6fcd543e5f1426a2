package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

// products.quantityの増減。カートのtx内で使う（行はLockByIDで取得済み）
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫がqty以上のときだけ減らす。足りなければfalse
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	n, err := r.adjust(ctx, productID, -qty, qty)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// カートから戻した分を在庫へ
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	n, err := r.adjust(ctx, productID, qty, 0)
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// atLeast > 0 のときは在庫がそれ以上ある行だけ更新する
func (r *InventoryGormRepository) adjust(ctx context.Context, productID, delta, atLeast int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID)
	if atLeast > 0 {
		q = q.Where("quantity >= ?", atLeast)
	}
	res := q.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	return res.RowsAffected, mapErr(res.Error)
}

var _ repo.InventoryRepository = (*InventoryGormRepository)(nil)
