package middleware

import (
	"context"

	"shop/internal/repository"

	"github.com/labstack/echo/v4"
)

// ログアウト（token_versionの更新）や停止で古いトークンを無効にする
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(CtxUserIDKey).(int64)
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if userID <= 0 || !ok {
				return unauthorized(c)
			}
			if !tokenStillValid(c.Request().Context(), userRepo, userID, tv) {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

// DB障害のときも通さない
func tokenStillValid(ctx context.Context, users repository.UserRepository, userID int64, tv int) bool {
	user, err := users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return false
	}
	return user.IsActive && user.TokenVersion == tv
}
