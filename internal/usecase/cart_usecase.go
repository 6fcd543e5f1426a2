package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/notify"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// カートへの操作
type CartAction string

const (
	CartActionIncrement CartAction = "increment"
	CartActionDecrement CartAction = "decrement"
)

// URLの action をCartActionにする。add / delete は旧URLの別名。
func ParseCartAction(s string) (CartAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increment", "add":
		return CartActionIncrement, nil
	case "decrement", "delete", "remove":
		return CartActionDecrement, nil
	}
	return "", ErrValidationFailed("invalid action")
}

// CartUsecase は「いまのカート（Order）」の業務ロジックです。
// 在庫と明細は必ず同じTxで動かします。
type CartUsecase struct {
	tx  repo.TransactionManager
	log *zap.Logger
}

// DI
func NewCartUsecase(tx repo.TransactionManager, log *zap.Logger) *CartUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartUsecase{tx: tx, log: log}
}

// 1回の操作の結果。通知文はHandler側で作る。
type CartChange struct {
	Action       CartAction `json:"action"`
	ProductID    int64      `json:"product_id"`
	ProductTitle string     `json:"product_title"`
	LineQuantity int64      `json:"line_quantity"`
	Removed      bool       `json:"removed"`
	Stock        int64      `json:"stock"`
}

// 操作結果をユーザー向け通知にする
func (c CartChange) Notification() notify.Message {
	switch {
	case c.Action == CartActionIncrement:
		return notify.Success(fmt.Sprintf("%s added to cart", c.ProductTitle))
	case c.Removed:
		return notify.Success(fmt.Sprintf("%s removed from cart", c.ProductTitle))
	default:
		return notify.Success(fmt.Sprintf("%s quantity decreased", c.ProductTitle))
	}
}

type CartLine struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	OrderID       int64           `json:"order_id"`
	Items         []CartLine      `json:"items"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// 明細の合計数量と合計金額
func ComputeTotals(items []model.OrderProduct) (int64, decimal.Decimal) {
	var qty int64
	total := decimal.Zero
	for _, it := range items {
		qty += it.Quantity
		total = total.Add(it.LineTotal())
	}
	return qty, total
}

func buildCartView(orderID int64, items []model.OrderProduct) CartView {
	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Title:     it.Product.Title,
			Slug:      it.Product.Slug,
			Image:     it.Product.ImageURL(),
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}
	qty, total := ComputeTotals(items)
	return CartView{
		OrderID:       orderID,
		Items:         lines,
		TotalQuantity: qty,
		TotalPrice:    total,
	}
}

// 購入者とカートを取得し、無ければ作成する。
// lock=true のときはOrder行をロックして取り直す。
func getOrCreateCart(ctx context.Context, r repo.TxRepos, userID int64, lock bool) (model.Customer, model.Order, error) {
	customer, err := r.Customers().GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return model.Customer{}, model.Order{}, err
	}
	order, err := r.Orders().GetOrCreateByCustomerID(ctx, customer.ID)
	if err != nil {
		return model.Customer{}, model.Order{}, err
	}
	if lock {
		order, err = r.Orders().FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return model.Customer{}, model.Order{}, err
		}
	}
	return customer, order, nil
}

// 内容が変わったら開始済みの決済セッションは無効にする
func dropPendingSession(ctx context.Context, r repo.TxRepos, order model.Order) error {
	if order.PaymentSessionID == "" {
		return nil
	}
	return r.Orders().SetPaymentSession(ctx, order.ID, "", 0)
}

func (u *CartUsecase) GetOrCreateCart(ctx context.Context, userID int64) (model.Customer, model.Order, error) {
	if userID <= 0 {
		return model.Customer{}, model.Order{}, ErrAuthenticationRequired("Log in to use the cart")
	}

	var (
		customer model.Customer
		order    model.Order
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		customer, order, err = getOrCreateCart(ctx, r, userID, false)
		return err
	})
	if err != nil {
		u.log.Error("get or create cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.Customer{}, model.Order{}, ErrDB()
	}
	return customer, order, nil
}

// GET /cart
func (u *CartUsecase) Cart(ctx context.Context, userID int64) (CartView, error) {
	if userID <= 0 {
		return CartView{}, ErrAuthenticationRequired("Log in to use the cart")
	}

	var view CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, order, err := getOrCreateCart(ctx, r, userID, false)
		if err != nil {
			return err
		}
		items, err := r.OrderProducts().ListByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		view = buildCartView(order.ID, items)
		return nil
	})
	if err != nil {
		u.log.Error("load cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartView{}, ErrDB()
	}
	return view, nil
}

// POST /cart/:product_id/:action
// 在庫を1つ動かし、同じTxで明細を1つ動かす。
func (u *CartUsecase) ApplyLineItemChange(ctx context.Context, userID, productID int64, action CartAction) (CartChange, error) {
	if userID <= 0 {
		return CartChange{}, ErrAuthenticationRequired("Log in to add products to the cart")
	}
	if productID <= 0 {
		return CartChange{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if action != CartActionIncrement && action != CartActionDecrement {
		return CartChange{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}

	var change CartChange
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, order, err := getOrCreateCart(ctx, r, userID, true)
		if err != nil {
			return err
		}

		// ロック順は order → product → 明細
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound("product not found")
		}
		if err != nil {
			return err
		}

		line, err := r.OrderProducts().FindForUpdate(ctx, order.ID, productID)
		exists := err == nil
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		change = CartChange{Action: action, ProductID: p.ID, ProductTitle: p.Title}

		switch action {
		case CartActionIncrement:
			if !p.InStock() {
				return ErrOutOfStock(p.Title)
			}
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, 1)
			if err != nil {
				return err
			}
			if !ok {
				return ErrOutOfStock(p.Title)
			}
			if exists {
				line.Quantity++
				if err := r.OrderProducts().UpdateQuantity(ctx, line.ID, line.Quantity); err != nil {
					return err
				}
			} else {
				line, err = r.OrderProducts().Create(ctx, model.OrderProduct{
					OrderID:   order.ID,
					ProductID: p.ID,
					Quantity:  1,
				})
				if err != nil {
					return err
				}
			}
			change.LineQuantity = line.Quantity
			// pはFOR UPDATEで読んだ値なので、ここでの±1がコミット後の在庫になる
			change.Stock = p.Quantity - 1

		case CartActionDecrement:
			if !exists {
				return ErrNotFound("product not in cart")
			}
			if err := r.Inventory().IncreaseStock(ctx, p.ID, 1); err != nil {
				return err
			}
			line.Quantity--
			if line.Quantity <= 0 {
				if err := r.OrderProducts().DeleteByID(ctx, line.ID); err != nil {
					return err
				}
				change.Removed = true
				change.LineQuantity = 0
			} else {
				if err := r.OrderProducts().UpdateQuantity(ctx, line.ID, line.Quantity); err != nil {
					return err
				}
				change.LineQuantity = line.Quantity
			}
			// 上と同じくロック中の値から
			change.Stock = p.Quantity + 1
		}

		return dropPendingSession(ctx, r, order)
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return CartChange{}, err
		}
		u.log.Error("cart change failed",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return CartChange{}, ErrDB()
	}

	u.log.Info("cart changed",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.String("action", string(action)),
		zap.Int64("line_quantity", change.LineQuantity),
	)
	return change, nil
}

// DELETE /cart
// 明細を全部消し、その数量を在庫に戻す。
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrAuthenticationRequired("Log in to use the cart")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, order, err := getOrCreateCart(ctx, r, userID, true)
		if err != nil {
			return err
		}
		return clearLines(ctx, r, order)
	})
	if err != nil {
		u.log.Error("clear cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return ErrDB()
	}
	return nil
}

func clearLines(ctx context.Context, r repo.TxRepos, order model.Order) error {
	items, err := r.OrderProducts().ListByOrderID(ctx, order.ID)
	if err != nil {
		return err
	}

	// 商品ロックの順番を揃える
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	for _, it := range items {
		if _, err := r.Products().FindByIDForUpdate(ctx, it.ProductID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if err := r.OrderProducts().DeleteByID(ctx, it.ID); err != nil {
			return err
		}
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	return dropPendingSession(ctx, r, order)
}
