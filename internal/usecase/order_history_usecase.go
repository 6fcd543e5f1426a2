package usecase

import (
	"context"
	"errors"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

// 完了した注文（SaveOrder）の参照だけ
type OrderHistoryUsecase struct {
	tx  repo.TransactionManager
	log *zap.Logger
}

func NewOrderHistoryUsecase(tx repo.TransactionManager, log *zap.Logger) *OrderHistoryUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHistoryUsecase{tx: tx, log: log}
}

// GET /orders
func (u *OrderHistoryUsecase) List(ctx context.Context, userID int64) ([]model.SaveOrder, error) {
	if userID <= 0 {
		return nil, ErrAuthenticationRequired("Log in to see your orders")
	}

	var orders []model.SaveOrder
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, err := r.Customers().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return err
		}
		orders, err = r.SaveOrders().ListByCustomerID(ctx, customer.ID)
		return err
	})
	if err != nil {
		u.log.Error("list orders failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, ErrDB()
	}
	return orders, nil
}

// GET /orders/:id
// 他人の注文は存在しないものとして扱う
func (u *OrderHistoryUsecase) Detail(ctx context.Context, userID, saveOrderID int64) (model.SaveOrder, error) {
	if userID <= 0 {
		return model.SaveOrder{}, ErrAuthenticationRequired("Log in to see your orders")
	}
	if saveOrderID <= 0 {
		return model.SaveOrder{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var so model.SaveOrder
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		customer, err := r.Customers().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return err
		}
		so, err = r.SaveOrders().FindByID(ctx, saveOrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound("order not found")
		}
		if err != nil {
			return err
		}
		if so.CustomerID != customer.ID {
			return ErrNotFound("order not found")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.SaveOrder{}, err
		}
		u.log.Error("load order failed", zap.Int64("user_id", userID), zap.Int64("id", saveOrderID), zap.Error(err))
		return model.SaveOrder{}, ErrDB()
	}
	return so, nil
}
