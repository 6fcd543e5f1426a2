package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := withImages(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// 行ロック付きで取得（カート操作の直列化）
func (r *ProductGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	var p model.Product
	if err := withImages(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&p).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	var products []model.Product
	if err := withImages(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

func (r *ProductGormRepository) QuantityByID(ctx context.Context, id int64) (int64, error) {
	var qty []int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Limit(1).Pluck("quantity", &qty).Error; err != nil {
		return 0, err
	}
	if len(qty) == 0 {
		return 0, repo.ErrNotFound
	}
	return qty[0], nil
}

func (r *ProductGormRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return []int64{}, err
	}
	return ids, nil
}

// カテゴリ配下の商品を、ソート/ページング付きで返す。
func (r *ProductGormRepository) ListByCategories(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	if len(q.CategoryIDs) == 0 {
		return []model.Product{}, 0, nil
	}

	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id IN ?", q.CategoryIDs)

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price":
		tx = tx.Order("price asc").Order("id asc")
	case "-price":
		tx = tx.Order("price desc").Order("id desc")
	case "title":
		tx = tx.Order("title asc").Order("id asc")
	case "-title":
		tx = tx.Order("title desc").Order("id desc")
	case "created_at":
		tx = tx.Order("created_at asc").Order("id asc")
	case "-created_at":
		tx = tx.Order("created_at desc").Order("id desc")
	default:
		tx = tx.Order("id asc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := withImages(tx).Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"title":       p.Title,
		"description": p.Description,
		"price":       p.Price,
		"quantity":    p.Quantity,
		"category_id": p.CategoryID,
		"slug":        p.Slug,
		"size":        p.Size,
		"color":       p.Color,
	})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQLは値が同じだと0件になるので存在を数え直す
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（画像も消す）
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return mapErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)
