package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/notify"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 決済サービスに渡す内容。カート全体を1品目として請求する。
type PaymentRequest struct {
	Currency    string
	ProductName string
	UnitAmount  int64 // 最小通貨単位（セント）
	Quantity    int64
	SuccessURL  string
	CancelURL   string
	Reference   string
}

type PaymentSession struct {
	ID  string
	URL string
}

// 外部の決済サービス
type PaymentGateway interface {
	CreateSession(ctx context.Context, req PaymentRequest) (PaymentSession, error)
	IsPaid(ctx context.Context, sessionID string) (bool, error)
}

type CheckoutConfig struct {
	Currency    string
	ProductName string
	// 決済後に戻ってくるURL。success側には {CHECKOUT_SESSION_ID} を含めてよい
	SuccessURL string
	CancelURL  string
}

type CheckoutUsecase struct {
	tx      repo.TransactionManager
	gateway PaymentGateway
	cfg     CheckoutConfig
	log     *zap.Logger
}

// DI
func NewCheckoutUsecase(tx repo.TransactionManager, gateway PaymentGateway, cfg CheckoutConfig, log *zap.Logger) *CheckoutUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.ProductName == "" {
		cfg.ProductName = "Order"
	}
	return &CheckoutUsecase{tx: tx, gateway: gateway, cfg: cfg, log: log}
}

// POST /checkout の入力
type CheckoutInput struct {
	FirstName string
	LastName  string
	Address   string
	CityID    int64
	Region    string
	Phone     string
}

// GET /checkout の表示内容
type CheckoutPage struct {
	Customer model.Customer `json:"customer"`
	Cart     CartView       `json:"cart"`
	Cities   []model.City   `json:"cities"`
}

type CheckoutSession struct {
	SessionID   string          `json:"session_id"`
	RedirectURL string          `json:"redirect_url"`
	Total       decimal.Decimal `json:"total"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
}

// 金額を最小通貨単位にする（小数2桁で保存しているので割り切れる）
func MinorUnits(total decimal.Decimal) int64 {
	return total.Shift(2).Round(0).IntPart()
}

// GET /checkout
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64) (CheckoutPage, error) {
	if userID <= 0 {
		return CheckoutPage{}, ErrAuthenticationRequired("Log in to check out")
	}

	var page CheckoutPage
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, order, err := getOrCreateCart(ctx, r, userID, false)
		if err != nil {
			return err
		}
		items, err := r.OrderProducts().ListByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		cities, err := r.Cities().List(ctx)
		if err != nil {
			return err
		}
		page = CheckoutPage{Customer: customer, Cart: buildCartView(order.ID, items), Cities: cities}
		return nil
	})
	if err != nil {
		u.log.Error("load checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutPage{}, ErrDB()
	}
	return page, nil
}

// POST /checkout
// 入力を保存して決済セッションを作る。カートの中身はここでは変えない。
func (u *CheckoutUsecase) StartCheckout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutSession, error) {
	if userID <= 0 {
		return CheckoutSession{}, ErrAuthenticationRequired("Log in to check out")
	}

	customerForm := CustomerForm{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	shippingForm := ShippingForm{
		Address: strings.TrimSpace(in.Address),
		CityID:  in.CityID,
		Region:  strings.TrimSpace(in.Region),
		Phone:   strings.TrimSpace(in.Phone),
	}

	// 2つのフォームはそれぞれ検証して、まとめて返す
	var notices []notify.Message
	notices = append(notices, formErrors("customer", customerForm)...)
	notices = append(notices, formErrors("shipping", shippingForm)...)
	if len(notices) > 0 {
		return CheckoutSession{}, ErrValidationFailed("validation failed", notices...)
	}

	var (
		order model.Order
		total decimal.Decimal
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, o, err := getOrCreateCart(ctx, r, userID, true)
		if err != nil {
			return err
		}
		order = o

		items, err := r.OrderProducts().ListByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrValidationFailed("cart empty", notify.Warning("Your cart is empty"))
		}

		if _, err := r.Cities().FindByID(ctx, shippingForm.CityID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrValidationFailed("validation failed", notify.Error("shipping: city_id is invalid"))
			}
			return err
		}

		if err := r.Customers().UpdateNames(ctx, customer.ID, customerForm.FirstName, customerForm.LastName); err != nil {
			return err
		}
		if _, err := r.ShippingAddresses().Create(ctx, model.ShippingAddress{
			CustomerID: customer.ID,
			OrderID:    order.ID,
			Address:    shippingForm.Address,
			CityID:     shippingForm.CityID,
			Region:     shippingForm.Region,
			Phone:      shippingForm.Phone,
		}); err != nil {
			return err
		}

		_, total = ComputeTotals(items)
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return CheckoutSession{}, err
		}
		u.log.Error("start checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutSession{}, ErrDB()
	}

	amount := MinorUnits(total)
	// 外部呼び出しの間はロックを持たない
	session, err := u.gateway.CreateSession(ctx, PaymentRequest{
		Currency:    u.cfg.Currency,
		ProductName: u.cfg.ProductName,
		UnitAmount:  amount,
		Quantity:    1,
		SuccessURL:  u.cfg.SuccessURL,
		CancelURL:   u.cfg.CancelURL,
		Reference:   orderReference(order.ID),
	})
	if err != nil {
		u.log.Warn("payment session create failed",
			zap.Int64("user_id", userID),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return CheckoutSession{}, ErrUpstreamUnavailable()
	}

	// 決済サービスを呼んでいる間にカートや価格が変わっていたらセッションは使わない
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		items, err := r.OrderProducts().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		if _, now := ComputeTotals(items); MinorUnits(now) != amount {
			return ErrConflict("Your cart changed during checkout, please try again")
		}
		return r.Orders().SetPaymentSession(ctx, o.ID, session.ID, amount)
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			u.log.Warn("cart changed during checkout",
				zap.Int64("order_id", order.ID),
				zap.String("session_id", session.ID),
				zap.Int64("amount", amount),
			)
			return CheckoutSession{}, err
		}
		u.log.Error("save payment session failed", zap.Int64("order_id", order.ID), zap.Error(err))
		return CheckoutSession{}, ErrDB()
	}

	u.log.Info("checkout started",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", order.ID),
		zap.String("session_id", session.ID),
		zap.Int64("amount", amount),
	)
	return CheckoutSession{
		SessionID:   session.ID,
		RedirectURL: session.URL,
		Total:       total,
		Amount:      amount,
		Currency:    u.cfg.Currency,
	}, nil
}

// GET /checkout/success
// 支払い済みを確認してからカートを履歴に移す。
func (u *CheckoutUsecase) CompleteCheckout(ctx context.Context, userID int64, sessionID string) (model.SaveOrder, error) {
	if userID <= 0 {
		return model.SaveOrder{}, ErrAuthenticationRequired("Log in to check out")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return model.SaveOrder{}, NewHTTPError(http.StatusBadRequest, "session_id required")
	}

	_, order, err := u.currentCart(ctx, userID)
	if err != nil {
		return model.SaveOrder{}, err
	}
	if order.PaymentSessionID == "" || order.PaymentSessionID != sessionID {
		return model.SaveOrder{}, ErrConflict("No pending payment for this cart")
	}

	paid, err := u.gateway.IsPaid(ctx, sessionID)
	if err != nil {
		u.log.Warn("payment status check failed", zap.String("session_id", sessionID), zap.Error(err))
		return model.SaveOrder{}, ErrUpstreamUnavailable()
	}
	if !paid {
		return model.SaveOrder{}, ErrConflict("Payment has not been completed")
	}

	var archived model.SaveOrder
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, o, err := getOrCreateCart(ctx, r, userID, true)
		if err != nil {
			return err
		}
		// 確認中に別リクエストがカートを変えていないか
		if o.PaymentSessionID != sessionID {
			return ErrConflict("No pending payment for this cart")
		}

		archived, err = archiveOrder(ctx, r, customer, o)
		return err
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.SaveOrder{}, err
		}
		u.log.Error("archive order failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.SaveOrder{}, ErrDB()
	}

	u.log.Info("checkout completed",
		zap.Int64("user_id", userID),
		zap.Int64("save_order_id", archived.ID),
		zap.String("total", archived.TotalPrice.StringFixed(2)),
	)
	return archived, nil
}

// GET /checkout/cancel
// カートはそのまま。開始したセッションだけ捨てる。
func (u *CheckoutUsecase) CancelCheckout(ctx context.Context, userID int64) (notify.Message, error) {
	if userID <= 0 {
		return notify.Message{}, ErrAuthenticationRequired("Log in to check out")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, order, err := getOrCreateCart(ctx, r, userID, true)
		if err != nil {
			return err
		}
		return dropPendingSession(ctx, r, order)
	})
	if err != nil {
		u.log.Error("cancel checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		return notify.Message{}, ErrDB()
	}
	return notify.Warning("Payment was cancelled, your cart is unchanged"), nil
}

func (u *CheckoutUsecase) currentCart(ctx context.Context, userID int64) (model.Customer, model.Order, error) {
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
		u.log.Error("load cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.Customer{}, model.Order{}, ErrDB()
	}
	return customer, order, nil
}

// カートの明細を値のコピーとして履歴に残し、明細を消す。
// 在庫はカートに入れた時点で引いてあるので戻さない。
func archiveOrder(ctx context.Context, r repo.TxRepos, customer model.Customer, order model.Order) (model.SaveOrder, error) {
	items, err := r.OrderProducts().ListByOrderID(ctx, order.ID)
	if err != nil {
		return model.SaveOrder{}, err
	}
	if len(items) == 0 {
		return model.SaveOrder{}, ErrConflict("Your cart is empty")
	}

	_, total := ComputeTotals(items)
	// 請求した金額と違う内容は履歴にしない（価格変更など）
	if MinorUnits(total) != order.PaymentAmount {
		return model.SaveOrder{}, ErrConflict("Your cart no longer matches the payment")
	}
	so := model.SaveOrder{
		CustomerID: customer.ID,
		TotalPrice: total,
		Products:   make([]model.SaveOrderProduct, 0, len(items)),
	}
	for _, it := range items {
		so.Products = append(so.Products, model.SaveOrderProduct{
			Product:      it.Product.Title,
			Quantity:     it.Quantity,
			ProductPrice: it.Product.Price,
			FinalPrice:   it.LineTotal(),
			Photo:        it.Product.ImageURL(),
			AddedAt:      it.AddedAt,
		})
	}
	if err := r.SaveOrders().Create(ctx, &so); err != nil {
		return model.SaveOrder{}, err
	}

	for _, it := range items {
		if err := r.OrderProducts().DeleteByID(ctx, it.ID); err != nil {
			return model.SaveOrder{}, err
		}
	}
	if err := r.Orders().SetPaymentSession(ctx, order.ID, "", 0); err != nil {
		return model.SaveOrder{}, err
	}
	return so, nil
}

func orderReference(orderID int64) string {
	return "order-" + strconv.FormatInt(orderID, 10)
}
