package repository

import "errors"

var (
	// 対象の行が無い
	ErrNotFound = errors.New("not found")

	// 一意制約違反
	ErrDuplicate = errors.New("duplicate entry")

	// 他の行から参照されていて消せない
	ErrInUse = errors.New("in use")
)
