package repository

import (
	"errors"

	repo "shop/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーに寄せる
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return repo.ErrInUse
	default:
		return err
	}
}
