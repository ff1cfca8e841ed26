package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反
	ErrDuplicate = errors.New("duplicate")
	// 他の行から参照されていて消せない
	ErrInUse = errors.New("in use")
)
