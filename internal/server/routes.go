package server

import (
	"shop/internal/repository"

	"github.com/labstack/echo/v4"
)

// 各Handlerが自分のルートを登録する
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository)
}

func RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository, handlers ...RouteRegistrar) {
	for _, h := range handlers {
		h.RegisterRoutes(e, jwtSecret, userRepo)
	}
}
