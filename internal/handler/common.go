package handler

import (
	"net/http"
	"strconv"

	"shop/internal/middleware"
	"shop/internal/notify"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error    string           `json:"error"`
	Messages []notify.Message `json:"messages,omitempty"`
}

// 本体と一緒に画面用の通知を返す
type MessageResponse struct {
	Messages []notify.Message `json:"messages"`
}

// リクエスト1回分の通知の置き場
const ctxNoticesKey = "notices"

func collector(c echo.Context) *notify.Collector {
	if col, ok := c.Get(ctxNoticesKey).(*notify.Collector); ok {
		return col
	}
	col := notify.NewCollector()
	c.Set(ctxNoticesKey, col)
	return col
}

func push(sink notify.Sink, msgs ...notify.Message) {
	for _, m := range msgs {
		sink.Add(m)
	}
}

// 通知を足して、このリクエストでたまった通知を全部返す
func notices(c echo.Context, msgs ...notify.Message) []notify.Message {
	col := collector(c)
	push(col, msgs...)
	return col.Messages()
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		msgs := notices(c, he.Notices...)
		if len(msgs) == 0 {
			msgs = nil
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Messages: msgs})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bindとValidateをまとめて行う。falseならレスポンスは書き込み済み
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		msg := "invalid body"
		if he, ok := err.(*echo.HTTPError); ok {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Messages: notices(c, notify.Error(msg))})
	}
	return true, nil
}

// AuthJWTが入れたuser_id
func getUserIDFromContext(c echo.Context) (int64, bool) {
	userID, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// ログイン必須のグループに付けるミドルウェア
func requireLogin(jwtSecret string, userRepo repository.UserRepository) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(jwtSecret),
		middleware.TokenVersionGuard(userRepo),
	}
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:    "authentication required",
		Messages: notices(c, notify.Warning("Log in to continue")),
	})
}
