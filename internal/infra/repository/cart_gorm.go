package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerGormRepository struct {
	db *gorm.DB
}

// DI
func NewCustomerGormRepository(db *gorm.DB) *CustomerGormRepository {
	return &CustomerGormRepository{db: db}
}

// user_idの購入者を取得し、無ければ作成
func (r *CustomerGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Customer, error) {
	var c model.Customer

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if err == nil {
		return c, nil
	}
	if err = mapErr(err); err != repo.ErrNotFound {
		return model.Customer{}, err
	}

	// 同時に作られても一意制約で1件に収束させる
	newCustomer := model.Customer{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&newCustomer).Error; err != nil {
		return model.Customer{}, mapErr(err)
	}

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return model.Customer{}, mapErr(err)
	}
	return c, nil
}

// 姓名を更新
func (r *CustomerGormRepository) UpdateNames(ctx context.Context, customerID int64, firstName, lastName string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
		})
	// 値が同じだとMySQLは0件を返すので件数は見ない
	return res.Error
}

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 購入者のカート（Order）を取得し、無ければ作成
func (r *OrderGormRepository) GetOrCreateByCustomerID(ctx context.Context, customerID int64) (model.Order, error) {
	var o model.Order

	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&o).Error
	if err == nil {
		return o, nil
	}
	if err = mapErr(err); err != repo.ErrNotFound {
		return model.Order{}, err
	}

	newOrder := model.Order{CustomerID: customerID, Shipping: true}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "customer_id"}}, DoNothing: true}).
		Create(&newOrder).Error; err != nil {
		return model.Order{}, mapErr(err)
	}

	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&o).Error; err != nil {
		return model.Order{}, mapErr(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	return o, nil
}

// 決済セッションIDと請求額を記録（空文字でクリア）
func (r *OrderGormRepository) SetPaymentSession(ctx context.Context, orderID int64, sessionID string, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_session_id": sessionID,
			"payment_amount":     amount,
		})
	// 値が同じだとMySQLは0件を返すので件数は見ない
	return res.Error
}

type OrderProductGormRepository struct {
	db *gorm.DB
}

func NewOrderProductGormRepository(db *gorm.DB) *OrderProductGormRepository {
	return &OrderProductGormRepository{db: db}
}

// (order, product)の明細を行ロック付きで取得
func (r *OrderProductGormRepository) FindForUpdate(ctx context.Context, orderID, productID int64) (model.OrderProduct, error) {
	var op model.OrderProduct

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		First(&op).Error
	if err != nil {
		return model.OrderProduct{}, mapErr(err)
	}
	return op, nil
}

// 明細を作成
func (r *OrderProductGormRepository) Create(ctx context.Context, op model.OrderProduct) (model.OrderProduct, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&op).Error; err != nil {
		return model.OrderProduct{}, mapErr(err)
	}
	return op, nil
}

// 明細の数量を更新
func (r *OrderProductGormRepository) UpdateQuantity(ctx context.Context, id int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.OrderProduct{}).
		Where("id = ?", id).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *OrderProductGormRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.OrderProduct{}, id)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カート明細を一覧取得（product/images付き）
func (r *OrderProductGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	var items []model.OrderProduct

	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.OrderProduct{}, err
	}

	return items, nil
}

var (
	_ repo.CustomerRepository     = (*CustomerGormRepository)(nil)
	_ repo.OrderRepository        = (*OrderGormRepository)(nil)
	_ repo.OrderProductRepository = (*OrderProductGormRepository)(nil)
)
