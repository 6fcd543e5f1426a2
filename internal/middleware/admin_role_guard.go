package middleware

import (
	"net/http"

	"shop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// /admin配下用。AuthJWTの後ろに付ける
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch role, _ := c.Get(CtxUserRoleKey).(string); model.Role(role) {
			case model.RoleAdmin:
				return next(c)
			case "":
				return unauthorized(c)
			default:
				return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
			}
		}
	}
}
