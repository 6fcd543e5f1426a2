package repository

import (
	"context"

	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	customers         repo.CustomerRepository
	orders            repo.OrderRepository
	orderProducts     repo.OrderProductRepository
	products          repo.ProductRepository
	inventory         repo.InventoryRepository
	saveOrders        repo.SaveOrderRepository
	shippingAddresses repo.ShippingAddressRepository
	cities            repo.CityRepository
}

func (r *txReposGorm) Customers() repo.CustomerRepository         { return r.customers }
func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderProducts() repo.OrderProductRepository { return r.orderProducts }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *txReposGorm) SaveOrders() repo.SaveOrderRepository       { return r.saveOrders }
func (r *txReposGorm) ShippingAddresses() repo.ShippingAddressRepository {
	return r.shippingAddresses
}
func (r *txReposGorm) Cities() repo.CityRepository { return r.cities }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			customers:         NewCustomerGormRepository(tx),
			orders:            NewOrderGormRepository(tx),
			orderProducts:     NewOrderProductGormRepository(tx),
			products:          NewProductGormRepository(tx),
			inventory:         NewInventoryGormRepository(tx),
			saveOrders:        NewSaveOrderGormRepository(tx),
			shippingAddresses: NewShippingAddressGormRepository(tx),
			cities:            NewCityGormRepository(tx),
		}
		return fn(r)
	})
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)
