package payment

import (
	"context"
	"errors"

	"shop/internal/usecase"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
)

var ErrNotConfigured = errors.New("payment gateway not configured")

// Stripe Checkoutで決済ページを作る
type StripeGateway struct {
	sessions *checkoutsession.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return newStripeGateway(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// 接続先を差し替える（テスト用のstripe-mockなど）
func NewStripeGatewayWithURL(secretKey, url string) *StripeGateway {
	return newStripeGateway(secretKey, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(url),
		MaxNetworkRetries: stripe.Int64(0),
	}))
}

func newStripeGateway(secretKey string, b stripe.Backend) *StripeGateway {
	return &StripeGateway{sessions: &checkoutsession.Client{B: b, Key: secretKey}}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentSession, error) {
	if g.sessions.Key == "" {
		return usecase.PaymentSession{}, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.UnitAmount),
				},
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.Reference != "" {
		params.ClientReferenceID = stripe.String(req.Reference)
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return usecase.PaymentSession{}, err
	}
	return usecase.PaymentSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) IsPaid(ctx context.Context, sessionID string) (bool, error) {
	if g.sessions.Key == "" {
		return false, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return false, err
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)
