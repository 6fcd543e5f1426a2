package handler_test

import (
	"context"
	"sort"
	"sync"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// カートと決済のハンドラを動かすだけのインメモリDB（ロールバックはしない）
type shopStore struct {
	mu sync.Mutex

	nextID     int64
	customers  map[int64]model.Customer
	orders     map[int64]model.Order
	lines      map[int64]model.OrderProduct
	products   map[int64]model.Product
	saveOrders map[int64]model.SaveOrder
	cities     map[int64]model.City
}

func newShopStore() *shopStore {
	return &shopStore{
		customers:  map[int64]model.Customer{},
		orders:     map[int64]model.Order{},
		lines:      map[int64]model.OrderProduct{},
		products:   map[int64]model.Product{},
		saveOrders: map[int64]model.SaveOrder{},
		cities:     map[int64]model.City{},
	}
}

func (s *shopStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *shopStore) addProduct(p model.Product) model.Product {
	p.ID = s.id()
	s.products[p.ID] = p
	return p
}

func (s *shopStore) addCity(name string) model.City {
	c := model.City{ID: s.id(), Name: name}
	s.cities[c.ID] = c
	return c
}

// 他のユーザーの注文履歴を直接入れる
func (s *shopStore) addSaveOrder(userID int64, so model.SaveOrder) model.SaveOrder {
	c, _ := shopCustomers{s}.GetOrCreateByUserID(context.Background(), userID)
	so.ID = s.id()
	so.CustomerID = c.ID
	s.saveOrders[so.ID] = so
	return so
}

func (s *shopStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(shopTx{s})
}

type shopTx struct{ s *shopStore }

func (t shopTx) Customers() repo.CustomerRepository         { return shopCustomers{t.s} }
func (t shopTx) Orders() repo.OrderRepository               { return shopOrders{t.s} }
func (t shopTx) OrderProducts() repo.OrderProductRepository { return shopLines{t.s} }
func (t shopTx) Products() repo.ProductRepository           { return shopProducts{s: t.s} }
func (t shopTx) Inventory() repo.InventoryRepository        { return shopInventory{t.s} }
func (t shopTx) SaveOrders() repo.SaveOrderRepository       { return shopSaveOrders{t.s} }
func (t shopTx) ShippingAddresses() repo.ShippingAddressRepository {
	return shopAddresses{}
}
func (t shopTx) Cities() repo.CityRepository { return shopCities{t.s} }

type shopCustomers struct{ s *shopStore }

func (r shopCustomers) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Customer, error) {
	for _, c := range r.s.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	c := model.Customer{ID: r.s.id(), UserID: userID}
	r.s.customers[c.ID] = c
	return c, nil
}

func (r shopCustomers) UpdateNames(ctx context.Context, customerID int64, firstName, lastName string) error {
	c := r.s.customers[customerID]
	c.FirstName, c.LastName = firstName, lastName
	r.s.customers[customerID] = c
	return nil
}

type shopOrders struct{ s *shopStore }

func (r shopOrders) GetOrCreateByCustomerID(ctx context.Context, customerID int64) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.CustomerID == customerID {
			return o, nil
		}
	}
	o := model.Order{ID: r.s.id(), CustomerID: customerID, Shipping: true}
	r.s.orders[o.ID] = o
	return o, nil
}

func (r shopOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r shopOrders) SetPaymentSession(ctx context.Context, orderID int64, sessionID string, amount int64) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.PaymentSessionID = sessionID
	o.PaymentAmount = amount
	r.s.orders[orderID] = o
	return nil
}

type shopLines struct{ s *shopStore }

func (r shopLines) FindForUpdate(ctx context.Context, orderID, productID int64) (model.OrderProduct, error) {
	for _, l := range r.s.lines {
		if l.OrderID == orderID && l.ProductID == productID {
			return l, nil
		}
	}
	return model.OrderProduct{}, repo.ErrNotFound
}

func (r shopLines) Create(ctx context.Context, op model.OrderProduct) (model.OrderProduct, error) {
	op.ID = r.s.id()
	r.s.lines[op.ID] = op
	return op, nil
}

func (r shopLines) UpdateQuantity(ctx context.Context, id int64, qty int64) error {
	l := r.s.lines[id]
	l.Quantity = qty
	r.s.lines[id] = l
	return nil
}

func (r shopLines) DeleteByID(ctx context.Context, id int64) error {
	delete(r.s.lines, id)
	return nil
}

func (r shopLines) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	out := []model.OrderProduct{}
	for _, l := range r.s.lines {
		if l.OrderID == orderID {
			l.Product = r.s.products[l.ProductID]
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// カートが使うのはFindByIDForUpdateだけ
type shopProducts struct {
	repo.ProductRepository
	s *shopStore
}

func (r shopProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

type shopInventory struct{ s *shopStore }

func (r shopInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	p, ok := r.s.products[productID]
	if !ok || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r shopInventory) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Quantity += qty
	r.s.products[productID] = p
	return nil
}

type shopSaveOrders struct{ s *shopStore }

func (r shopSaveOrders) Create(ctx context.Context, so *model.SaveOrder) error {
	so.ID = r.s.id()
	r.s.saveOrders[so.ID] = *so
	return nil
}

func (r shopSaveOrders) ListByCustomerID(ctx context.Context, customerID int64) ([]model.SaveOrder, error) {
	out := []model.SaveOrder{}
	for _, so := range r.s.saveOrders {
		if so.CustomerID == customerID {
			out = append(out, so)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r shopSaveOrders) FindByID(ctx context.Context, id int64) (model.SaveOrder, error) {
	so, ok := r.s.saveOrders[id]
	if !ok {
		return model.SaveOrder{}, repo.ErrNotFound
	}
	return so, nil
}

type shopAddresses struct{}

func (shopAddresses) Create(ctx context.Context, a model.ShippingAddress) (model.ShippingAddress, error) {
	return a, nil
}

type shopCities struct{ s *shopStore }

func (r shopCities) List(ctx context.Context) ([]model.City, error) {
	out := []model.City{}
	for _, c := range r.s.cities {
		out = append(out, c)
	}
	return out, nil
}

func (r shopCities) FindByID(ctx context.Context, id int64) (model.City, error) {
	c, ok := r.s.cities[id]
	if !ok {
		return model.City{}, repo.ErrNotFound
	}
	return c, nil
}
