package handler

import (
	"net/http"

	"shop/internal/middleware"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SuccessResponse は { message: string } の形
type SuccessResponse struct {
	Message string `json:"message"`
}

type categoryCreateRequest struct {
	Title    string `json:"title" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	Image    string `json:"image"`
	ParentID *int64 `json:"parent_id"`
}

// 価格は文字列で受けて丸め誤差を避ける
type productRequest struct {
	Title       string   `json:"title" validate:"required"`
	Slug        string   `json:"slug" validate:"required"`
	Description string   `json:"description"`
	Price       string   `json:"price" validate:"required"`
	Quantity    int64    `json:"quantity"`
	CategoryID  int64    `json:"category_id" validate:"required"`
	Size        int      `json:"size"`
	Color       string   `json:"color"`
	Images      []string `json:"images"`
}

func (r productRequest) form() usecase.ProductForm {
	return usecase.ProductForm{
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		CategoryID:  r.CategoryID,
		Size:        r.Size,
		Color:       r.Color,
		Images:      r.Images,
	}
}

type mailRequest struct {
	Text string `json:"text" validate:"required"`
}

// /admin 以下（カタログ管理と一括メール）
type AdminHandler struct {
	catalog       *usecase.CatalogUsecase
	subscriptions *usecase.SubscriptionUsecase
}

// DI
func NewAdminHandler(catalog *usecase.CatalogUsecase, subscriptions *usecase.SubscriptionUsecase) *AdminHandler {
	return &AdminHandler{catalog: catalog, subscriptions: subscriptions}
}

// adminを登録
func (h *AdminHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	admin := e.Group("/admin", requireLogin(jwtSecret, userRepo)...)
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/categories", h.createCategory)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.POST("/mail", h.broadcast)
}

func (h *AdminHandler) createCategory(c echo.Context) error {
	var req categoryCreateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.catalog.CreateCategory(c.Request().Context(), usecase.CategoryForm{
		Title:    req.Title,
		Slug:     req.Slug,
		Image:    req.Image,
		ParentID: req.ParentID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminHandler) createProduct(c echo.Context) error {
	var req productRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.catalog.CreateProduct(c.Request().Context(), req.form())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminHandler) updateProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req productRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.catalog.UpdateProduct(c.Request().Context(), id, req.form())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) deleteProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// 購読者全員に送る。結果は1件ずつ返す
func (h *AdminHandler) broadcast(c echo.Context) error {
	var req mailRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.subscriptions.Broadcast(c.Request().Context(), req.Text)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
