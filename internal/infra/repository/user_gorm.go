package repository

import (
	"context"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
func NewUserGormRepository(db *gorm.DB) repo.UserRepository {
	return &userGormRepository{db: db}
}

// emailはunique。重複はErrDuplicateになる
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return mapErr(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

// 見つからなければErrNotFound（nil, nilは返さない）
func (r *userGormRepository) first(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// ログアウト。発行済みトークンのtvと合わなくなる
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
