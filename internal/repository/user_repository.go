package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	// メール重複はErrDuplicate
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// プロフィール・ロール・有効フラグ・最終ログインのみ。token_versionは触らない
	Update(ctx context.Context, user *model.User) error
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
