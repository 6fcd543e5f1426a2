package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type ShippingAddressGormRepository struct {
	db *gorm.DB
}

func NewShippingAddressGormRepository(db *gorm.DB) *ShippingAddressGormRepository {
	return &ShippingAddressGormRepository{db: db}
}

// 住所を作成
func (r *ShippingAddressGormRepository) Create(ctx context.Context, a model.ShippingAddress) (model.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.ShippingAddress{}, mapErr(err)
	}
	return a, nil
}

type CityGormRepository struct {
	db *gorm.DB
}

func NewCityGormRepository(db *gorm.DB) *CityGormRepository {
	return &CityGormRepository{db: db}
}

func (r *CityGormRepository) List(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	if err := r.db.WithContext(ctx).Order("name asc").Find(&cities).Error; err != nil {
		return []model.City{}, err
	}
	return cities, nil
}

func (r *CityGormRepository) FindByID(ctx context.Context, id int64) (model.City, error) {
	var c model.City
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.City{}, mapErr(err)
	}
	return c, nil
}

type SaveOrderGormRepository struct {
	db *gorm.DB
}

func NewSaveOrderGormRepository(db *gorm.DB) *SaveOrderGormRepository {
	return &SaveOrderGormRepository{db: db}
}

// 履歴と明細をまとめて作成（productsはgormが一緒に入れる）
func (r *SaveOrderGormRepository) Create(ctx context.Context, so *model.SaveOrder) error {
	return mapErr(r.db.WithContext(ctx).Create(so).Error)
}

// 購入者の履歴を新しい順に
func (r *SaveOrderGormRepository) ListByCustomerID(ctx context.Context, customerID int64) ([]model.SaveOrder, error) {
	var list []model.SaveOrder

	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("customer_id = ?", customerID).
		Order("id desc").
		Find(&list).Error
	if err != nil {
		return []model.SaveOrder{}, err
	}
	return list, nil
}

func (r *SaveOrderGormRepository) FindByID(ctx context.Context, id int64) (model.SaveOrder, error) {
	var so model.SaveOrder

	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&so, id).Error
	if err != nil {
		return model.SaveOrder{}, mapErr(err)
	}
	return so, nil
}

var (
	_ repo.ShippingAddressRepository = (*ShippingAddressGormRepository)(nil)
	_ repo.CityRepository            = (*CityGormRepository)(nil)
	_ repo.SaveOrderRepository       = (*SaveOrderGormRepository)(nil)
)
