package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// テスト用のインメモリDB。
// WithinTxは全体ロックで直列化し、fnがエラーなら状態を巻き戻す。
type memStore struct {
	mu   sync.Mutex
	data memData
	// "SaveOrders.Create" などの呼び出しを失敗させる
	fail map[string]error
}

type memData struct {
	nextID     int64
	users      map[int64]model.User
	customers  map[int64]model.Customer
	orders     map[int64]model.Order
	lines      map[int64]model.OrderProduct
	products   map[int64]model.Product
	categories map[int64]model.Category
	saveOrders map[int64]model.SaveOrder
	addresses  map[int64]model.ShippingAddress
	cities     map[int64]model.City
	reviews    map[int64]model.Review
	favourites map[int64]model.FavouriteProduct
	mails      map[int64]model.MailCustomer
	profiles   map[int64]model.Profile
}

func newMemStore() *memStore {
	return &memStore{
		data: memData{
			users:      map[int64]model.User{},
			customers:  map[int64]model.Customer{},
			orders:     map[int64]model.Order{},
			lines:      map[int64]model.OrderProduct{},
			products:   map[int64]model.Product{},
			categories: map[int64]model.Category{},
			saveOrders: map[int64]model.SaveOrder{},
			addresses:  map[int64]model.ShippingAddress{},
			cities:     map[int64]model.City{},
			reviews:    map[int64]model.Review{},
			favourites: map[int64]model.FavouriteProduct{},
			mails:      map[int64]model.MailCustomer{},
			profiles:   map[int64]model.Profile{},
		},
		fail: map[string]error{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d memData) clone() memData {
	return memData{
		nextID:     d.nextID,
		users:      cloneMap(d.users),
		customers:  cloneMap(d.customers),
		orders:     cloneMap(d.orders),
		lines:      cloneMap(d.lines),
		products:   cloneMap(d.products),
		categories: cloneMap(d.categories),
		saveOrders: cloneMap(d.saveOrders),
		addresses:  cloneMap(d.addresses),
		cities:     cloneMap(d.cities),
		reviews:    cloneMap(d.reviews),
		favourites: cloneMap(d.favourites),
		mails:      cloneMap(d.mails),
		profiles:   cloneMap(d.profiles),
	}
}

func (s *memStore) id() int64 {
	s.data.nextID++
	return s.data.nextID
}

func (s *memStore) check(op string) error {
	return s.fail[op]
}

// WithinTx
func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.data.clone()
	if err := fn(memTx{s: s}); err != nil {
		s.data = backup
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t memTx) Customers() repo.CustomerRepository         { return memCustomers{t.s} }
func (t memTx) Orders() repo.OrderRepository               { return memOrders{t.s} }
func (t memTx) OrderProducts() repo.OrderProductRepository { return memLines{t.s} }
func (t memTx) Products() repo.ProductRepository           { return memProducts{t.s} }
func (t memTx) Inventory() repo.InventoryRepository        { return memInventory{t.s} }
func (t memTx) SaveOrders() repo.SaveOrderRepository       { return memSaveOrders{t.s} }
func (t memTx) ShippingAddresses() repo.ShippingAddressRepository {
	return memAddresses{t.s}
}
func (t memTx) Cities() repo.CityRepository { return memCities{t.s} }

// --- seed helpers ---

func (s *memStore) addProduct(p model.Product) model.Product {
	p.ID = s.id()
	if p.Slug == "" {
		p.Slug = strings.ToLower(strings.ReplaceAll(p.Title, " ", "-"))
	}
	s.data.products[p.ID] = p
	return p
}

func (s *memStore) addCategory(c model.Category) model.Category {
	c.ID = s.id()
	s.data.categories[c.ID] = c
	return c
}

func (s *memStore) addCity(name string) model.City {
	c := model.City{ID: s.id(), Name: name}
	s.data.cities[c.ID] = c
	return c
}

func (s *memStore) stock(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[productID].Quantity
}

// ユーザーのカートの明細（product_id → quantity）
func (s *memStore) cartLines(userID int64) map[int64]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[int64]int64{}
	for _, c := range s.data.customers {
		if c.UserID != userID {
			continue
		}
		for _, o := range s.data.orders {
			if o.CustomerID != c.ID {
				continue
			}
			for _, l := range s.data.lines {
				if l.OrderID == o.ID {
					out[l.ProductID] = l.Quantity
				}
			}
		}
	}
	return out
}

func (s *memStore) counts() (customers, orders int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.customers), len(s.data.orders)
}

// --- customers ---

type memCustomers struct{ s *memStore }

func (r memCustomers) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Customer, error) {
	if err := r.s.check("Customers.GetOrCreateByUserID"); err != nil {
		return model.Customer{}, err
	}
	for _, c := range r.s.data.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	c := model.Customer{ID: r.s.id(), UserID: userID}
	r.s.data.customers[c.ID] = c
	return c, nil
}

func (r memCustomers) UpdateNames(ctx context.Context, customerID int64, firstName, lastName string) error {
	c, ok := r.s.data.customers[customerID]
	if !ok {
		return repo.ErrNotFound
	}
	c.FirstName, c.LastName = firstName, lastName
	r.s.data.customers[customerID] = c
	return nil
}

// --- orders ---

type memOrders struct{ s *memStore }

func (r memOrders) GetOrCreateByCustomerID(ctx context.Context, customerID int64) (model.Order, error) {
	for _, o := range r.s.data.orders {
		if o.CustomerID == customerID {
			return o, nil
		}
	}
	o := model.Order{ID: r.s.id(), CustomerID: customerID, Shipping: true}
	r.s.data.orders[o.ID] = o
	return o, nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.data.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) SetPaymentSession(ctx context.Context, orderID int64, sessionID string, amount int64) error {
	if err := r.s.check("Orders.SetPaymentSession"); err != nil {
		return err
	}
	o, ok := r.s.data.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.PaymentSessionID = sessionID
	o.PaymentAmount = amount
	r.s.data.orders[orderID] = o
	return nil
}

// --- order products ---

type memLines struct{ s *memStore }

func (r memLines) FindForUpdate(ctx context.Context, orderID, productID int64) (model.OrderProduct, error) {
	for _, l := range r.s.data.lines {
		if l.OrderID == orderID && l.ProductID == productID {
			return l, nil
		}
	}
	return model.OrderProduct{}, repo.ErrNotFound
}

func (r memLines) Create(ctx context.Context, op model.OrderProduct) (model.OrderProduct, error) {
	for _, l := range r.s.data.lines {
		if l.OrderID == op.OrderID && l.ProductID == op.ProductID {
			return model.OrderProduct{}, repo.ErrDuplicate
		}
	}
	op.ID = r.s.id()
	op.Product = model.Product{}
	r.s.data.lines[op.ID] = op
	return op, nil
}

func (r memLines) UpdateQuantity(ctx context.Context, id int64, qty int64) error {
	l, ok := r.s.data.lines[id]
	if !ok {
		return repo.ErrNotFound
	}
	l.Quantity = qty
	r.s.data.lines[id] = l
	return nil
}

func (r memLines) DeleteByID(ctx context.Context, id int64) error {
	if err := r.s.check("OrderProducts.DeleteByID"); err != nil {
		return err
	}
	if _, ok := r.s.data.lines[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.data.lines, id)
	return nil
}

func (r memLines) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	out := []model.OrderProduct{}
	for _, l := range r.s.data.lines {
		if l.OrderID == orderID {
			l.Product = r.s.data.products[l.ProductID]
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- products ---

type memProducts struct{ s *memStore }

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.data.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r memProducts) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	for _, p := range r.s.data.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r memProducts) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) ListIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	for id := range r.s.data.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memProducts) ListByCategories(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	in := map[int64]bool{}
	for _, id := range q.CategoryIDs {
		in[id] = true
	}
	all := []model.Product{}
	for _, p := range r.s.data.products {
		if in[p.CategoryID] {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		switch q.Sort {
		case "price":
			return all[i].Price.LessThan(all[j].Price)
		case "-price":
			return all[i].Price.GreaterThan(all[j].Price)
		}
		return all[i].ID < all[j].ID
	})

	total := int64(len(all))
	start := (q.Page - 1) * q.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if _, err := r.FindBySlug(ctx, p.Slug); err == nil {
		return model.Product{}, repo.ErrDuplicate
	}
	p.ID = r.s.id()
	r.s.data.products[p.ID] = p
	return p, nil
}

func (r memProducts) QuantityByID(ctx context.Context, id int64) (int64, error) {
	p, ok := r.s.data.products[id]
	if !ok {
		return 0, repo.ErrNotFound
	}
	return p.Quantity, nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	cur, ok := r.s.data.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if other, err := r.FindBySlug(ctx, p.Slug); err == nil && other.ID != p.ID {
		return repo.ErrDuplicate
	}
	p.Images = cur.Images
	r.s.data.products[p.ID] = p
	return nil
}

func (r memProducts) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.data.products[id]; !ok {
		return repo.ErrNotFound
	}
	for _, l := range r.s.data.lines {
		if l.ProductID == id {
			return repo.ErrInUse
		}
	}
	delete(r.s.data.products, id)
	return nil
}

// --- inventory ---

type memInventory struct{ s *memStore }

func (r memInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	p, ok := r.s.data.products[productID]
	if !ok || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	r.s.data.products[productID] = p
	return true, nil
}

func (r memInventory) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	if err := r.s.check("Inventory.IncreaseStock"); err != nil {
		return err
	}
	p, ok := r.s.data.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Quantity += qty
	r.s.data.products[productID] = p
	return nil
}

// --- save orders ---

type memSaveOrders struct{ s *memStore }

func (r memSaveOrders) Create(ctx context.Context, so *model.SaveOrder) error {
	if err := r.s.check("SaveOrders.Create"); err != nil {
		return err
	}
	so.ID = r.s.id()
	products := make([]model.SaveOrderProduct, len(so.Products))
	for i, p := range so.Products {
		p.ID = r.s.id()
		p.SaveOrderID = so.ID
		products[i] = p
	}
	so.Products = products
	r.s.data.saveOrders[so.ID] = *so
	return nil
}

func (r memSaveOrders) ListByCustomerID(ctx context.Context, customerID int64) ([]model.SaveOrder, error) {
	out := []model.SaveOrder{}
	for _, so := range r.s.data.saveOrders {
		if so.CustomerID == customerID {
			out = append(out, so)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memSaveOrders) FindByID(ctx context.Context, id int64) (model.SaveOrder, error) {
	so, ok := r.s.data.saveOrders[id]
	if !ok {
		return model.SaveOrder{}, repo.ErrNotFound
	}
	return so, nil
}

// --- shipping / cities ---

type memAddresses struct{ s *memStore }

func (r memAddresses) Create(ctx context.Context, a model.ShippingAddress) (model.ShippingAddress, error) {
	a.ID = r.s.id()
	r.s.data.addresses[a.ID] = a
	return a, nil
}

type memCities struct{ s *memStore }

func (r memCities) List(ctx context.Context) ([]model.City, error) {
	out := []model.City{}
	for _, c := range r.s.data.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCities) FindByID(ctx context.Context, id int64) (model.City, error) {
	c, ok := r.s.data.cities[id]
	if !ok {
		return model.City{}, repo.ErrNotFound
	}
	return c, nil
}

// --- catalog ---

type memCategories struct{ s *memStore }

func (r memCategories) withSubs(c model.Category) model.Category {
	c.Subcategories = []model.Category{}
	for _, sub := range r.s.data.categories {
		if sub.ParentID != nil && *sub.ParentID == c.ID {
			c.Subcategories = append(c.Subcategories, sub)
		}
	}
	sort.Slice(c.Subcategories, func(i, j int) bool { return c.Subcategories[i].ID < c.Subcategories[j].ID })
	return c
}

func (r memCategories) ListRoots(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range r.s.data.categories {
		if c.ParentID == nil {
			out = append(out, r.withSubs(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCategories) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	for _, c := range r.s.data.categories {
		if c.Slug == slug {
			return r.withSubs(c), nil
		}
	}
	return model.Category{}, repo.ErrNotFound
}

func (r memCategories) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if _, err := r.FindBySlug(ctx, c.Slug); err == nil {
		return model.Category{}, repo.ErrDuplicate
	}
	c.ID = r.s.id()
	r.s.data.categories[c.ID] = c
	return c, nil
}

type memReviews struct{ s *memStore }

func (r memReviews) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	rv.ID = r.s.id()
	r.s.data.reviews[rv.ID] = rv
	return rv, nil
}

func (r memReviews) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	out := []model.Review{}
	for _, rv := range r.s.data.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memFavourites struct{ s *memStore }

func (r memFavourites) Find(ctx context.Context, userID, productID int64) (model.FavouriteProduct, bool, error) {
	for _, f := range r.s.data.favourites {
		if f.UserID == userID && f.ProductID == productID {
			return f, true, nil
		}
	}
	return model.FavouriteProduct{}, false, nil
}

func (r memFavourites) Create(ctx context.Context, f model.FavouriteProduct) error {
	if _, found, _ := r.Find(ctx, f.UserID, f.ProductID); found {
		return repo.ErrDuplicate
	}
	f.ID = r.s.id()
	r.s.data.favourites[f.ID] = f
	return nil
}

func (r memFavourites) DeleteByID(ctx context.Context, id int64) error {
	if _, ok := r.s.data.favourites[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.data.favourites, id)
	return nil
}

func (r memFavourites) ListProductsByUserID(ctx context.Context, userID int64) ([]model.Product, error) {
	favs := []model.FavouriteProduct{}
	for _, f := range r.s.data.favourites {
		if f.UserID == userID {
			favs = append(favs, f)
		}
	}
	sort.Slice(favs, func(i, j int) bool { return favs[i].ID < favs[j].ID })
	out := []model.Product{}
	for _, f := range favs {
		if p, ok := r.s.data.products[f.ProductID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memMails struct{ s *memStore }

func (r memMails) Create(ctx context.Context, m model.MailCustomer) error {
	for _, existing := range r.s.data.mails {
		if existing.Mail == m.Mail {
			return repo.ErrDuplicate
		}
	}
	m.ID = r.s.id()
	r.s.data.mails[m.ID] = m
	return nil
}

func (r memMails) ListAll(ctx context.Context) ([]model.MailCustomer, error) {
	out := []model.MailCustomer{}
	for _, m := range r.s.data.mails {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memProfiles struct{ s *memStore }

func (r memProfiles) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Profile, error) {
	for _, p := range r.s.data.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	p := model.Profile{ID: r.s.id(), UserID: userID}
	r.s.data.profiles[p.ID] = p
	return p, nil
}

func (r memProfiles) Update(ctx context.Context, p model.Profile) error {
	if _, ok := r.s.data.profiles[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.data.profiles[p.ID] = p
	return nil
}

var (
	_ repo.TransactionManager        = (*memStore)(nil)
	_ repo.CategoryRepository        = memCategories{}
	_ repo.ReviewRepository          = memReviews{}
	_ repo.FavouriteRepository       = memFavourites{}
	_ repo.MailCustomerRepository    = memMails{}
	_ repo.ProfileRepository         = memProfiles{}
	_ repo.OrderProductRepository    = memLines{}
	_ repo.SaveOrderRepository       = memSaveOrders{}
	_ repo.ShippingAddressRepository = memAddresses{}
)
