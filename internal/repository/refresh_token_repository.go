package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// 未使用かつ未失効の行だけ。該当なしはErrRefreshTokenNotFound
	MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error
	// 失効済みならErrRefreshTokenNotFound
	Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error
	// replay検知や強制ログアウト時の全消し
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
