package handler

import (
	"net/http"

	"shop/internal/notify"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type cartChangeResponse struct {
	Change   usecase.CartChange `json:"change"`
	Cart     usecase.CartView   `json:"cart"`
	Messages []notify.Message   `json:"messages"`
}

type cartClearResponse struct {
	Cart     usecase.CartView `json:"cart"`
	Messages []notify.Message `json:"messages"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	g := e.Group("/cart", requireLogin(jwtSecret, userRepo)...)

	g.GET("", h.getCart)
	g.POST("/:product_id/:action", h.changeLine)
	g.DELETE("", h.clear)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Cart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 在庫1つ分だけ明細を増減する
func (h *CartHandler) changeLine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}
	action, err := usecase.ParseCartAction(c.Param("action"))
	if err != nil {
		return writeError(c, err)
	}

	change, err := h.uc.ApplyLineItemChange(c.Request().Context(), userID, productID, action)
	if err != nil {
		return writeError(c, err)
	}

	cart, err := h.uc.Cart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartChangeResponse{
		Change:   change,
		Cart:     cart,
		Messages: notices(c, change.Notification()),
	})
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.ClearCart(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}

	cart, err := h.uc.Cart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartClearResponse{
		Cart:     cart,
		Messages: notices(c, notify.Success("Cart cleared")),
	})
}
