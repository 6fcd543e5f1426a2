package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/notify"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	products repo.ProductRepository
	log      *zap.Logger
}

func NewReviewUsecase(reviews repo.ReviewRepository, products repo.ProductRepository, log *zap.Logger) *ReviewUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewUsecase{reviews: reviews, products: products, log: log}
}

// POST /products/:slug/reviews
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, slug string, text string) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, ErrAuthenticationRequired("Log in to leave a review")
	}
	form := ReviewForm{Text: strings.TrimSpace(text)}
	if err := validateForm("review", form); err != nil {
		return model.Review{}, err
	}

	p, err := u.products.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, ErrNotFound("product not found")
	}
	if err != nil {
		u.log.Error("find product failed", zap.String("slug", slug), zap.Error(err))
		return model.Review{}, ErrDB()
	}

	rv, err := u.reviews.Create(ctx, model.Review{Text: form.Text, AuthorID: userID, ProductID: p.ID})
	if err != nil {
		u.log.Error("create review failed", zap.Int64("product_id", p.ID), zap.Error(err))
		return model.Review{}, ErrDB()
	}
	return rv, nil
}

type FavouriteUsecase struct {
	favourites repo.FavouriteRepository
	products   repo.ProductRepository
	log        *zap.Logger
}

func NewFavouriteUsecase(favourites repo.FavouriteRepository, products repo.ProductRepository, log *zap.Logger) *FavouriteUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &FavouriteUsecase{favourites: favourites, products: products, log: log}
}

// 切り替えた後の状態
type FavouriteToggle struct {
	ProductID  int64  `json:"product_id"`
	Title      string `json:"title"`
	Favourited bool   `json:"favourited"`
}

func (t FavouriteToggle) Notification() notify.Message {
	if t.Favourited {
		return notify.Success(t.Title + " added to favourites")
	}
	return notify.Error(t.Title + " removed from favourites")
}

// POST /products/:slug/favourite
// あれば外す、無ければ付ける
func (u *FavouriteUsecase) Toggle(ctx context.Context, userID int64, slug string) (FavouriteToggle, error) {
	if userID <= 0 {
		return FavouriteToggle{}, ErrAuthenticationRequired("Log in to save favourites")
	}

	p, err := u.products.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return FavouriteToggle{}, ErrNotFound("product not found")
	}
	if err != nil {
		u.log.Error("find product failed", zap.String("slug", slug), zap.Error(err))
		return FavouriteToggle{}, ErrDB()
	}

	out := FavouriteToggle{ProductID: p.ID, Title: p.Title}

	fav, found, err := u.favourites.Find(ctx, userID, p.ID)
	if err != nil {
		u.log.Error("find favourite failed", zap.Int64("user_id", userID), zap.Error(err))
		return FavouriteToggle{}, ErrDB()
	}
	if found {
		if err := u.favourites.DeleteByID(ctx, fav.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			u.log.Error("delete favourite failed", zap.Int64("user_id", userID), zap.Error(err))
			return FavouriteToggle{}, ErrDB()
		}
		out.Favourited = false
		return out, nil
	}

	err = u.favourites.Create(ctx, model.FavouriteProduct{UserID: userID, ProductID: p.ID})
	// 同時に付けられた場合も「付いている」で揃う
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		u.log.Error("create favourite failed", zap.Int64("user_id", userID), zap.Error(err))
		return FavouriteToggle{}, ErrDB()
	}
	out.Favourited = true
	return out, nil
}

// GET /favourites
func (u *FavouriteUsecase) List(ctx context.Context, userID int64) ([]model.Product, error) {
	if userID <= 0 {
		return nil, ErrAuthenticationRequired("Log in to see your favourites")
	}
	products, err := u.favourites.ListProductsByUserID(ctx, userID)
	if err != nil {
		u.log.Error("list favourites failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, ErrDB()
	}
	return products, nil
}

type ProfileUsecase struct {
	profiles repo.ProfileRepository
	users    repo.UserRepository
	log      *zap.Logger
}

func NewProfileUsecase(profiles repo.ProfileRepository, users repo.UserRepository, log *zap.Logger) *ProfileUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileUsecase{profiles: profiles, users: users, log: log}
}

type ProfileView struct {
	Email       string `json:"email"`
	Photo       string `json:"photo"`
	PhoneNumber string `json:"phone_number"`
}

// GET /profile
func (u *ProfileUsecase) Get(ctx context.Context, userID int64) (ProfileView, error) {
	if userID <= 0 {
		return ProfileView{}, ErrAuthenticationRequired("Log in to see your profile")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProfileView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		u.log.Error("find user failed", zap.Int64("user_id", userID), zap.Error(err))
		return ProfileView{}, ErrDB()
	}

	p, err := u.profiles.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		u.log.Error("load profile failed", zap.Int64("user_id", userID), zap.Error(err))
		return ProfileView{}, ErrDB()
	}
	return ProfileView{Email: user.Email, Photo: p.Photo, PhoneNumber: p.PhoneNumber}, nil
}

// PUT /profile
func (u *ProfileUsecase) Update(ctx context.Context, userID int64, in ProfileForm) (ProfileView, error) {
	if userID <= 0 {
		return ProfileView{}, ErrAuthenticationRequired("Log in to see your profile")
	}
	in.Photo = strings.TrimSpace(in.Photo)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validateForm("profile", in); err != nil {
		return ProfileView{}, err
	}

	p, err := u.profiles.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		u.log.Error("load profile failed", zap.Int64("user_id", userID), zap.Error(err))
		return ProfileView{}, ErrDB()
	}
	p.Photo = in.Photo
	p.PhoneNumber = in.PhoneNumber
	if err := u.profiles.Update(ctx, p); err != nil {
		u.log.Error("update profile failed", zap.Int64("user_id", userID), zap.Error(err))
		return ProfileView{}, ErrDB()
	}
	return u.Get(ctx, userID)
}

type CityUsecase struct {
	cities repo.CityRepository
	log    *zap.Logger
}

func NewCityUsecase(cities repo.CityRepository, log *zap.Logger) *CityUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CityUsecase{cities: cities, log: log}
}

// GET /cities
func (u *CityUsecase) List(ctx context.Context) ([]model.City, error) {
	cities, err := u.cities.List(ctx)
	if err != nil {
		u.log.Error("list cities failed", zap.Error(err))
		return nil, ErrDB()
	}
	return cities, nil
}
