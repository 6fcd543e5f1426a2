package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db *gorm.DB
}

// DI
func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

// parentが無いカテゴリをsubcategories付きで返す
func (r *CategoryGormRepository) ListRoots(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category

	err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("parent_id IS NULL").
		Order("id asc").
		Find(&cats).Error
	if err != nil {
		return []model.Category{}, err
	}
	return cats, nil
}

func (r *CategoryGormRepository) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	var c model.Category

	err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("slug = ?", slug).
		First(&c).Error
	if err != nil {
		return model.Category{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	c.Subcategories = nil
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, mapErr(err)
	}
	return c, nil
}

var _ repo.CategoryRepository = (*CategoryGormRepository)(nil)
