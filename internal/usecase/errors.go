package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"shop/internal/notify"
)

// HandlerがそのままHTTPレスポンスにできるエラー
type HTTPError struct {
	Status  int
	Message string
	// 画面に出す通知（認証・入力エラーなどその場で回復するもの）
	Notices []notify.Message
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string, notices ...notify.Message) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Notices: notices,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 401 未ログインでカート・お気に入り・決済を触った
func ErrAuthenticationRequired(notice string) error {
	return NewHTTPError(http.StatusUnauthorized, "authentication required", notify.Warning(notice))
}

// 404 商品・カテゴリなどが無い
func ErrNotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

// 400 フォームの入力エラー
func ErrValidationFailed(message string, notices ...notify.Message) error {
	if len(notices) == 0 {
		notices = []notify.Message{notify.Error(message)}
	}
	return NewHTTPError(http.StatusBadRequest, message, notices...)
}

// 409 一意制約（購読メールの重複など）
func ErrDuplicateEntry(notice string) error {
	return NewHTTPError(http.StatusConflict, "duplicate entry", notify.Warning(notice))
}

// 409 在庫切れ
func ErrOutOfStock(title string) error {
	return NewHTTPError(http.StatusConflict, "out of stock", notify.Error(fmt.Sprintf("%s is out of stock", title)))
}

// 409 状態が合わない
func ErrConflict(message string) error {
	return NewHTTPError(http.StatusConflict, message, notify.Error(message))
}

// 502 決済サービスに繋がらない
func ErrUpstreamUnavailable() error {
	return NewHTTPError(http.StatusBadGateway, "payment gateway unavailable", notify.Error("Payment service is unavailable, please try again later"))
}

// 403 管理者以外
func ErrForbidden() error {
	return NewHTTPError(http.StatusForbidden, "forbidden")
}

// 500
func ErrDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
