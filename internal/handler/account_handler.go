package handler

import (
	"net/http"

	"shop/internal/notify"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購読とプロフィール
type AccountHandler struct {
	subscriptions *usecase.SubscriptionUsecase
	profiles      *usecase.ProfileUsecase
}

// DI
func NewAccountHandler(subscriptions *usecase.SubscriptionUsecase, profiles *usecase.ProfileUsecase) *AccountHandler {
	return &AccountHandler{subscriptions: subscriptions, profiles: profiles}
}

type subscribeRequest struct {
	Mail string `json:"mail"`
}

type profileRequest struct {
	Photo       string `json:"photo"`
	PhoneNumber string `json:"phone_number"`
}

type profileResponse struct {
	Profile  usecase.ProfileView `json:"profile"`
	Messages []notify.Message    `json:"messages,omitempty"`
}

func (h *AccountHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	login := requireLogin(jwtSecret, userRepo)

	e.POST("/subscriptions", h.subscribe, login...)
	e.GET("/profile", h.getProfile, login...)
	e.PUT("/profile", h.updateProfile, login...)
}

// 登録済みでも200で警告を返す
func (h *AccountHandler) subscribe(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	msg, err := h.subscriptions.Subscribe(c.Request().Context(), userID, req.Mail)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Messages: notices(c, msg)})
}

func (h *AccountHandler) getProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.profiles.Get(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, profileResponse{Profile: out})
}

func (h *AccountHandler) updateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.profiles.Update(c.Request().Context(), userID, usecase.ProfileForm{
		Photo:       req.Photo,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, profileResponse{
		Profile:  out,
		Messages: notices(c, notify.Success("Profile updated")),
	})
}
