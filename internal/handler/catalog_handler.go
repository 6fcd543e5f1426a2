package handler

import (
	"net/http"
	"strconv"

	"shop/internal/domain/model"
	"shop/internal/notify"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// カテゴリ・商品・レビュー・お気に入り
type CatalogHandler struct {
	catalog    *usecase.CatalogUsecase
	reviews    *usecase.ReviewUsecase
	favourites *usecase.FavouriteUsecase
	cities     *usecase.CityUsecase
}

// DI
func NewCatalogHandler(
	catalog *usecase.CatalogUsecase,
	reviews *usecase.ReviewUsecase,
	favourites *usecase.FavouriteUsecase,
	cities *usecase.CityUsecase,
) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, reviews: reviews, favourites: favourites, cities: cities}
}

type reviewRequest struct {
	Text string `json:"text"`
}

type reviewResponse struct {
	Review   model.Review     `json:"review"`
	Messages []notify.Message `json:"messages"`
}

type favouriteResponse struct {
	usecase.FavouriteToggle
	Messages []notify.Message `json:"messages"`
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository) {
	e.GET("/categories", h.categories)
	e.GET("/categories/:slug/products", h.categoryProducts)
	e.GET("/products/:slug", h.productDetail)
	e.GET("/cities", h.listCities)

	login := requireLogin(jwtSecret, userRepo)
	e.POST("/products/:slug/reviews", h.createReview, login...)
	e.POST("/products/:slug/favourite", h.toggleFavourite, login...)
	e.GET("/favourites", h.listFavourites, login...)
}

func (h *CatalogHandler) categories(c echo.Context) error {
	out, err := h.catalog.RootCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *CatalogHandler) categoryProducts(c echo.Context) error {
	q := usecase.CategoryQuery{
		Sort: c.QueryParam("sort"),
		Type: c.QueryParam("type"),
	}
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		q.Page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		q.Limit = l
	}

	out, err := h.catalog.CategoryProducts(c.Request().Context(), c.Param("slug"), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) productDetail(c echo.Context) error {
	out, err := h.catalog.ProductDetail(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) listCities(c echo.Context) error {
	out, err := h.cities.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *CatalogHandler) createReview(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	rv, err := h.reviews.Create(c.Request().Context(), userID, c.Param("slug"), req.Text)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, reviewResponse{
		Review:   rv,
		Messages: notices(c, notify.Success("Review published")),
	})
}

func (h *CatalogHandler) toggleFavourite(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.favourites.Toggle(c.Request().Context(), userID, c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, favouriteResponse{
		FavouriteToggle: out,
		Messages:        notices(c, out.Notification()),
	})
}

func (h *CatalogHandler) listFavourites(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.favourites.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}
