package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, mapErr(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id desc").Find(&list).Error; err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

type FavouriteGormRepository struct {
	db *gorm.DB
}

func NewFavouriteGormRepository(db *gorm.DB) *FavouriteGormRepository {
	return &FavouriteGormRepository{db: db}
}

func (r *FavouriteGormRepository) Find(ctx context.Context, userID, productID int64) (model.FavouriteProduct, bool, error) {
	var f model.FavouriteProduct

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&f).Error
	if err = mapErr(err); err == repo.ErrNotFound {
		return model.FavouriteProduct{}, false, nil
	}
	if err != nil {
		return model.FavouriteProduct{}, false, err
	}
	return f, true, nil
}

func (r *FavouriteGormRepository) Create(ctx context.Context, f model.FavouriteProduct) error {
	return mapErr(r.db.WithContext(ctx).Create(&f).Error)
}

func (r *FavouriteGormRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.FavouriteProduct{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// お気に入りの商品を追加順に
func (r *FavouriteGormRepository) ListProductsByUserID(ctx context.Context, userID int64) ([]model.Product, error) {
	var products []model.Product

	err := withImages(r.db.WithContext(ctx)).
		Joins("JOIN favourite_products ON favourite_products.product_id = products.id").
		Where("favourite_products.user_id = ?", userID).
		Order("favourite_products.id asc").
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

type MailCustomerGormRepository struct {
	db *gorm.DB
}

func NewMailCustomerGormRepository(db *gorm.DB) *MailCustomerGormRepository {
	return &MailCustomerGormRepository{db: db}
}

// 既にあるメールならErrDuplicate
func (r *MailCustomerGormRepository) Create(ctx context.Context, m model.MailCustomer) error {
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *MailCustomerGormRepository) ListAll(ctx context.Context) ([]model.MailCustomer, error) {
	var list []model.MailCustomer
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return []model.MailCustomer{}, err
	}
	return list, nil
}

type ProfileGormRepository struct {
	db *gorm.DB
}

func NewProfileGormRepository(db *gorm.DB) *ProfileGormRepository {
	return &ProfileGormRepository{db: db}
}

func (r *ProfileGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Profile, error) {
	p := model.Profile{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&p).Error; err != nil {
		return model.Profile{}, mapErr(err)
	}

	var out model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return model.Profile{}, mapErr(err)
	}
	return out, nil
}

func (r *ProfileGormRepository) Update(ctx context.Context, p model.Profile) error {
	res := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"photo":        p.Photo,
			"phone_number": p.PhoneNumber,
		})
	// 値が変わらないとMySQLは0件を返すので件数は見ない
	return res.Error
}

var (
	_ repo.ReviewRepository       = (*ReviewGormRepository)(nil)
	_ repo.FavouriteRepository    = (*FavouriteGormRepository)(nil)
	_ repo.MailCustomerRepository = (*MailCustomerGormRepository)(nil)
	_ repo.ProfileRepository      = (*ProfileGormRepository)(nil)
)
