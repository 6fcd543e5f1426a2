package handler

import (
	"net/http"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/notify"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout と /orders
type CheckoutHandler struct {
	checkout *usecase.CheckoutUsecase
	history  *usecase.OrderHistoryUsecase
}

// DI
func NewCheckoutHandler(checkout *usecase.CheckoutUsecase, history *usecase.OrderHistoryUsecase) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, history: history}
}

// POST /checkout のボディ。購入者と配送先の2つのフォーム
type checkoutRequest struct {
	Customer struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	Shipping struct {
		Address string `json:"address"`
		CityID  int64  `json:"city_id"`
		Region  string `json:"region"`
		Phone   string `json:"phone"`
	} `json:"shipping"`
}

type checkoutCompletedResponse struct {
	Order    model.SaveOrder  `json:"order"`
	Messages []notify.Message `json:"messages"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	login := requireLogin(jwtSecret, userRepo)

	g := e.Group("/checkout", login...)
	g.GET("", h.page)
	g.POST("", h.start)
	g.GET("/success", h.success)
	g.GET("/cancel", h.cancel)

	o := e.Group("/orders", login...)
	o.GET("", h.listOrders)
	o.GET("/:id", h.orderDetail)
}

func (h *CheckoutHandler) page(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.checkout.Checkout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 決済ページへ303で飛ばす。Accept: application/json ならURLをJSONで返す
func (h *CheckoutHandler) start(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.checkout.StartCheckout(c.Request().Context(), userID, usecase.CheckoutInput{
		FirstName: req.Customer.FirstName,
		LastName:  req.Customer.LastName,
		Address:   req.Shipping.Address,
		CityID:    req.Shipping.CityID,
		Region:    req.Shipping.Region,
		Phone:     req.Shipping.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, out)
	}
	return c.Redirect(http.StatusSeeOther, out.RedirectURL)
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func (h *CheckoutHandler) success(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	so, err := h.checkout.CompleteCheckout(c.Request().Context(), userID, c.QueryParam("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, checkoutCompletedResponse{
		Order:    so,
		Messages: notices(c, notify.Success("Payment successful, thank you for your order")),
	})
}

func (h *CheckoutHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	msg, err := h.checkout.CancelCheckout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Messages: notices(c, msg)})
}

func (h *CheckoutHandler) listOrders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.history.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *CheckoutHandler) orderDetail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.history.Detail(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
