package usecase

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 商品詳細に出す「他の商品」の数
const relatedProductCount = 4

// 一覧のデフォルト件数
const defaultPageLimit = 12

// カタログの読み取りキャッシュ。無効なら毎回DBを読む。
type CatalogCache interface {
	GetRootCategories(ctx context.Context) ([]model.Category, bool)
	SetRootCategories(ctx context.Context, cats []model.Category)
	GetProduct(ctx context.Context, slug string) (model.Product, bool)
	SetProduct(ctx context.Context, p model.Product)
	// カタログを変えたら全部捨てる
	Invalidate(ctx context.Context)
}

type noopCatalogCache struct{}

func (noopCatalogCache) GetRootCategories(context.Context) ([]model.Category, bool) { return nil, false }
func (noopCatalogCache) SetRootCategories(context.Context, []model.Category)        {}
func (noopCatalogCache) GetProduct(context.Context, string) (model.Product, bool)   { return model.Product{}, false }
func (noopCatalogCache) SetProduct(context.Context, model.Product)                  {}
func (noopCatalogCache) Invalidate(context.Context)                                 {}

type CatalogUsecase struct {
	categories repo.CategoryRepository
	products   repo.ProductRepository
	reviews    repo.ReviewRepository
	cache      CatalogCache
	log        *zap.Logger

	// テストで差し替える
	shuffle func(n int, swap func(i, j int))
}

// DI
func NewCatalogUsecase(
	categories repo.CategoryRepository,
	products repo.ProductRepository,
	reviews repo.ReviewRepository,
	cache CatalogCache,
	log *zap.Logger,
) *CatalogUsecase {
	if cache == nil {
		cache = noopCatalogCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogUsecase{
		categories: categories,
		products:   products,
		reviews:    reviews,
		cache:      cache,
		log:        log,
		shuffle:    rand.Shuffle,
	}
}

// GET /categories
func (u *CatalogUsecase) RootCategories(ctx context.Context) ([]model.Category, error) {
	if cats, ok := u.cache.GetRootCategories(ctx); ok {
		return cats, nil
	}

	cats, err := u.categories.ListRoots(ctx)
	if err != nil {
		u.log.Error("list categories failed", zap.Error(err))
		return nil, ErrDB()
	}
	u.cache.SetRootCategories(ctx, cats)
	return cats, nil
}

// GET /categories/:slug/products のクエリ
type CategoryQuery struct {
	Sort  string
	Type  string // サブカテゴリのslugで絞り込み
	Page  int
	Limit int
}

type CategoryProductsOutput struct {
	Category model.Category  `json:"category"`
	Items    []model.Product `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

var allowedSorts = map[string]bool{
	"":            true,
	"price":       true,
	"-price":      true,
	"title":       true,
	"-title":      true,
	"created_at":  true,
	"-created_at": true,
}

func (u *CatalogUsecase) CategoryProducts(ctx context.Context, slug string, q CategoryQuery) (CategoryProductsOutput, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultPageLimit
	}
	if q.Page < 1 {
		return CategoryProductsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return CategoryProductsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if !allowedSorts[q.Sort] {
		return CategoryProductsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	cat, err := u.categories.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryProductsOutput{}, ErrNotFound("category not found")
	}
	if err != nil {
		u.log.Error("find category failed", zap.String("slug", slug), zap.Error(err))
		return CategoryProductsOutput{}, ErrDB()
	}

	// 親カテゴリならサブカテゴリの商品、末端ならそのカテゴリの商品
	var ids []int64
	if q.Type != "" {
		found := false
		for _, sub := range cat.Subcategories {
			if sub.Slug == q.Type {
				ids = []int64{sub.ID}
				found = true
				break
			}
		}
		if !found {
			return CategoryProductsOutput{}, ErrNotFound("category not found")
		}
	} else if len(cat.Subcategories) > 0 {
		for _, sub := range cat.Subcategories {
			ids = append(ids, sub.ID)
		}
	} else {
		ids = []int64{cat.ID}
	}

	items, total, err := u.products.ListByCategories(ctx, repo.ProductListQuery{
		CategoryIDs: ids,
		Sort:        q.Sort,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		u.log.Error("list products failed", zap.String("slug", slug), zap.Error(err))
		return CategoryProductsOutput{}, ErrDB()
	}

	return CategoryProductsOutput{
		Category: cat,
		Items:    items,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
	}, nil
}

type ProductDetailOutput struct {
	Product model.Product   `json:"product"`
	Reviews []model.Review  `json:"reviews"`
	Related []model.Product `json:"related"`
}

// GET /products/:slug
func (u *CatalogUsecase) ProductDetail(ctx context.Context, slug string) (ProductDetailOutput, error) {
	p, ok := u.cache.GetProduct(ctx, slug)
	if !ok {
		var err error
		p, err = u.products.FindBySlug(ctx, slug)
		if errors.Is(err, repo.ErrNotFound) {
			return ProductDetailOutput{}, ErrNotFound("product not found")
		}
		if err != nil {
			u.log.Error("find product failed", zap.String("slug", slug), zap.Error(err))
			return ProductDetailOutput{}, ErrDB()
		}
		u.cache.SetProduct(ctx, p)
	} else {
		// 在庫はカート操作のたびに変わるのでキャッシュの値は使わない
		qty, err := u.products.QuantityByID(ctx, p.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return ProductDetailOutput{}, ErrNotFound("product not found")
		}
		if err != nil {
			u.log.Error("read stock failed", zap.Int64("product_id", p.ID), zap.Error(err))
			return ProductDetailOutput{}, ErrDB()
		}
		p.Quantity = qty
	}

	reviews, err := u.reviews.ListByProductID(ctx, p.ID)
	if err != nil {
		u.log.Error("list reviews failed", zap.Int64("product_id", p.ID), zap.Error(err))
		return ProductDetailOutput{}, ErrDB()
	}

	related, err := u.relatedProducts(ctx, p.ID)
	if err != nil {
		u.log.Error("related products failed", zap.Int64("product_id", p.ID), zap.Error(err))
		return ProductDetailOutput{}, ErrDB()
	}

	return ProductDetailOutput{Product: p, Reviews: reviews, Related: related}, nil
}

// 自分以外からランダムに最大4件
func (u *CatalogUsecase) relatedProducts(ctx context.Context, productID int64) ([]model.Product, error) {
	ids, err := u.products.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	others := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != productID {
			others = append(others, id)
		}
	}
	u.shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	if len(others) > relatedProductCount {
		others = others[:relatedProductCount]
	}
	return u.products.FindByIDs(ctx, others)
}

// POST /admin/categories
func (u *CatalogUsecase) CreateCategory(ctx context.Context, in CategoryForm) (model.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validateForm("category", in); err != nil {
		return model.Category{}, err
	}

	c, err := u.categories.Create(ctx, model.Category{
		Title:    in.Title,
		Slug:     in.Slug,
		Image:    in.Image,
		ParentID: in.ParentID,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Category{}, ErrDuplicateEntry("A category with this slug already exists")
	}
	if errors.Is(err, repo.ErrInUse) {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid parent_id")
	}
	if err != nil {
		u.log.Error("create category failed", zap.Error(err))
		return model.Category{}, ErrDB()
	}

	u.cache.Invalidate(ctx)
	return c, nil
}

func productFromForm(in ProductForm) (model.Product, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return model.Product{}, ErrValidationFailed("invalid price")
	}
	size := in.Size
	if size == 0 {
		size = model.DefaultProductSize
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = model.DefaultProductColor
	}

	p := model.Product{
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		Price:       price.Round(2),
		Quantity:    in.Quantity,
		CategoryID:  in.CategoryID,
		Size:        size,
		Color:       color,
	}
	for _, url := range in.Images {
		p.Images = append(p.Images, model.ProductImage{URL: url})
	}
	return p, nil
}

// POST /admin/products
func (u *CatalogUsecase) CreateProduct(ctx context.Context, in ProductForm) (model.Product, error) {
	if err := validateForm("product", in); err != nil {
		return model.Product{}, err
	}
	p, err := productFromForm(in)
	if err != nil {
		return model.Product{}, err
	}

	created, err := u.products.Create(ctx, p)
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Product{}, ErrDuplicateEntry("A product with this slug already exists")
	}
	if errors.Is(err, repo.ErrInUse) {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	if err != nil {
		u.log.Error("create product failed", zap.Error(err))
		return model.Product{}, ErrDB()
	}

	u.cache.Invalidate(ctx)
	return created, nil
}

// PUT /admin/products/:id（画像はそのまま）
func (u *CatalogUsecase) UpdateProduct(ctx context.Context, id int64, in ProductForm) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := validateForm("product", in); err != nil {
		return model.Product{}, err
	}
	p, err := productFromForm(in)
	if err != nil {
		return model.Product{}, err
	}
	p.ID = id

	err = u.products.Update(ctx, p)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return model.Product{}, ErrNotFound("product not found")
	case errors.Is(err, repo.ErrDuplicate):
		return model.Product{}, ErrDuplicateEntry("A product with this slug already exists")
	case errors.Is(err, repo.ErrInUse):
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid category_id")
	case err != nil:
		u.log.Error("update product failed", zap.Int64("id", id), zap.Error(err))
		return model.Product{}, ErrDB()
	}

	u.cache.Invalidate(ctx)

	updated, err := u.products.FindByID(ctx, id)
	if err != nil {
		u.log.Error("reload product failed", zap.Int64("id", id), zap.Error(err))
		return model.Product{}, ErrDB()
	}
	return updated, nil
}

// DELETE /admin/products/:id
func (u *CatalogUsecase) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.products.Delete(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound("product not found")
	case errors.Is(err, repo.ErrInUse):
		return ErrConflict("Product is in a cart and cannot be deleted")
	case err != nil:
		u.log.Error("delete product failed", zap.Int64("id", id), zap.Error(err))
		return ErrDB()
	}

	u.cache.Invalidate(ctx)
	return nil
}
