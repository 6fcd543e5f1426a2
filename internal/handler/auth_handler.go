package handler

import (
	"net/http"

	"shop/internal/notify"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc *usecase.AuthUsecase
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// /auth/register, /auth/login のリクエストボディ
type authRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	usecase.AuthLoginResponse
	Messages []notify.Message `json:"messages"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout, requireLogin(jwtSecret, userRepo)...)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req authRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"user": out})
}

func (h *AuthHandler) login(c echo.Context) error {
	var req authRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{
		AuthLoginResponse: out,
		Messages:          notices(c, notify.Success("Logged in")),
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.uc.Logout(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Messages: notices(c, notify.Warning("You have logged out"))})
}
