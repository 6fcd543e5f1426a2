//go:build integration

package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// テストごとに新しいPostgresを立ててマイグレーションする
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shop"),
		postgres.WithUsername("shop"),
		postgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Connect(config.DatabaseConfig{Driver: "postgres", URL: dsn})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, slug string, price string, qty int64) model.Product {
	t.Helper()
	ctx := context.Background()

	cat, err := infraRepo.NewCategoryGormRepository(gdb).Create(ctx, model.Category{Title: slug + "-cat", Slug: slug + "-cat"})
	require.NoError(t, err)

	p, err := infraRepo.NewProductGormRepository(gdb).Create(ctx, model.Product{
		Title:      slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
		Quantity:   qty,
		CategoryID: cat.ID,
		Size:       model.DefaultProductSize,
		Color:      model.DefaultProductColor,
		Images:     []model.ProductImage{{URL: "/media/" + slug + ".png"}},
	})
	require.NoError(t, err)
	return p
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) int64 {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", Role: model.RoleUser, IsActive: true}
	require.NoError(t, infraRepo.NewUserGormRepository(gdb).Create(context.Background(), u))
	return u.ID
}

func stockOf(t *testing.T, gdb *gorm.DB, id int64) int64 {
	t.Helper()
	p, err := infraRepo.NewProductGormRepository(gdb).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

// 同時に20回足しても在庫5を超えない
func TestCart_ConcurrentIncrementsRespectStock(t *testing.T) {
	gdb := setupDB(t)
	p := seedProduct(t, gdb, "lamp", "12.50", 5)
	users := []int64{seedUser(t, gdb, "a@test.com"), seedUser(t, gdb, "b@test.com")}
	uc := usecase.NewCartUsecase(infraRepo.NewTxManagerGorm(gdb), nil)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := uc.ApplyLineItemChange(ctx, userID, p.ID, usecase.CartActionIncrement)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if he, isHE := usecase.AsHTTPError(err); isHE && he.Status == 409 {
				full++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}(users[i%2])
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 15, full)
	assert.Equal(t, int64(0), stockOf(t, gdb, p.ID))

	var total int64
	for _, uid := range users {
		view, err := uc.Cart(ctx, uid)
		require.NoError(t, err)
		total += view.TotalQuantity
	}
	assert.Equal(t, int64(5), total)

	// 片方がカートを空にすると在庫が戻る
	view, err := uc.Cart(ctx, users[0])
	require.NoError(t, err)
	require.NoError(t, uc.ClearCart(ctx, users[0]))
	assert.Equal(t, view.TotalQuantity, stockOf(t, gdb, p.ID))
}

func TestCart_GetOrCreateIsIdempotentUnderRace(t *testing.T) {
	gdb := setupDB(t)
	userID := seedUser(t, gdb, "race@test.com")
	uc := usecase.NewCartUsecase(infraRepo.NewTxManagerGorm(gdb), nil)

	var wg sync.WaitGroup
	orders := make([]int64, 10)
	for i := range orders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, o, err := uc.GetOrCreateCart(context.Background(), userID)
			assert.NoError(t, err)
			orders[i] = o.ID
		}(i)
	}
	wg.Wait()

	for _, id := range orders {
		assert.Equal(t, orders[0], id)
	}
	var n int64
	require.NoError(t, gdb.Model(&model.Customer{}).Where("user_id = ?", userID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

type paidGateway struct{}

func (paidGateway) CreateSession(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentSession, error) {
	return usecase.PaymentSession{ID: "cs_it_" + req.Reference, URL: "https://pay.test/" + req.Reference}, nil
}

func (paidGateway) IsPaid(ctx context.Context, sessionID string) (bool, error) {
	return true, nil
}

func TestCheckout_ArchivesIntoSaveOrders(t *testing.T) {
	gdb := setupDB(t)
	ctx := context.Background()
	userID := seedUser(t, gdb, "buyer@test.com")
	shirt := seedProduct(t, gdb, "shirt", "10.00", 3)
	sock := seedProduct(t, gdb, "sock", "5.50", 3)
	city := model.City{Name: "Tashkent"}
	require.NoError(t, gdb.Create(&city).Error)

	txm := infraRepo.NewTxManagerGorm(gdb)
	cart := usecase.NewCartUsecase(txm, nil)
	checkout := usecase.NewCheckoutUsecase(txm, paidGateway{}, usecase.CheckoutConfig{}, nil)
	history := usecase.NewOrderHistoryUsecase(txm, nil)

	for _, id := range []int64{shirt.ID, shirt.ID, sock.ID} {
		_, err := cart.ApplyLineItemChange(ctx, userID, id, usecase.CartActionIncrement)
		require.NoError(t, err)
	}

	session, err := checkout.StartCheckout(ctx, userID, usecase.CheckoutInput{
		FirstName: "Aziz",
		LastName:  "Karimov",
		Address:   "12 Amir Temur st.",
		CityID:    city.ID,
		Region:    "Yunusabad",
		Phone:     "+998900000000",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2550), session.Amount)

	var pending model.Order
	require.NoError(t, gdb.First(&pending).Error)
	assert.Equal(t, session.SessionID, pending.PaymentSessionID)
	assert.Equal(t, int64(2550), pending.PaymentAmount)

	so, err := checkout.CompleteCheckout(ctx, userID, session.SessionID)
	require.NoError(t, err)

	got, err := history.Detail(ctx, userID, so.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.50", got.TotalPrice.StringFixed(2))
	require.Len(t, got.Products, 2)
	assert.Equal(t, "/media/shirt.png", got.Products[0].Photo)

	view, err := cart.Cart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(1), stockOf(t, gdb, shirt.ID))

	var addr model.ShippingAddress
	require.NoError(t, gdb.First(&addr).Error)
	assert.Equal(t, city.ID, addr.CityID)
}

func TestProduct_DeleteInCartIsRejected(t *testing.T) {
	gdb := setupDB(t)
	ctx := context.Background()
	userID := seedUser(t, gdb, "c@test.com")
	p := seedProduct(t, gdb, "mug", "3.00", 2)

	_, err := usecase.NewCartUsecase(infraRepo.NewTxManagerGorm(gdb), nil).
		ApplyLineItemChange(ctx, userID, p.ID, usecase.CartActionIncrement)
	require.NoError(t, err)

	err = infraRepo.NewProductGormRepository(gdb).Delete(ctx, p.ID)
	assert.True(t, errors.Is(err, repository.ErrInUse), "got %v", err)
}

func TestProduct_QuantityByID(t *testing.T) {
	gdb := setupDB(t)
	ctx := context.Background()
	userID := seedUser(t, gdb, "q@test.com")
	p := seedProduct(t, gdb, "lamp", "8.00", 4)
	products := infraRepo.NewProductGormRepository(gdb)

	_, err := usecase.NewCartUsecase(infraRepo.NewTxManagerGorm(gdb), nil).
		ApplyLineItemChange(ctx, userID, p.ID, usecase.CartActionIncrement)
	require.NoError(t, err)

	qty, err := products.QuantityByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)

	_, err = products.QuantityByID(ctx, p.ID+1000)
	assert.True(t, errors.Is(err, repository.ErrNotFound), "got %v", err)
}

func TestCatalog_CategoryTreeAndListing(t *testing.T) {
	gdb := setupDB(t)
	ctx := context.Background()
	cats := infraRepo.NewCategoryGormRepository(gdb)
	products := infraRepo.NewProductGormRepository(gdb)

	root, err := cats.Create(ctx, model.Category{Title: "Clothes", Slug: "clothes"})
	require.NoError(t, err)
	sub, err := cats.Create(ctx, model.Category{Title: "Shirts", Slug: "shirts", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = cats.Create(ctx, model.Category{Title: "Dup", Slug: "shirts"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate), "got %v", err)

	for i, price := range []string{"30.00", "10.00", "20.00"} {
		_, err := products.Create(ctx, model.Product{
			Title:      "Shirt",
			Slug:       "shirt-" + string(rune('a'+i)),
			Price:      decimal.RequireFromString(price),
			CategoryID: sub.ID,
			Color:      model.DefaultProductColor,
			Size:       model.DefaultProductSize,
		})
		require.NoError(t, err)
	}

	roots, err := cats.ListRoots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Subcategories, 1)

	items, total, err := products.ListByCategories(ctx, repository.ProductListQuery{
		CategoryIDs: []int64{sub.ID},
		Sort:        "price",
		Page:        1,
		Limit:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "10.00", items[0].Price.StringFixed(2))
	assert.Equal(t, "20.00", items[1].Price.StringFixed(2))
}
