package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type refreshTokenGormRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return mapErr(r.db.WithContext(ctx).Create(token).Error)
}

func (r *refreshTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	token := new(model.RefreshToken)
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Take(token).Error
	switch {
	case isNotFound(err):
		return nil, repo.ErrRefreshTokenNotFound
	case err != nil:
		return nil, err
	}
	return token, nil
}

func (r *refreshTokenGormRepository) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	return r.stamp(ctx, tokenID, "used_at", usedAt, "used_at IS NULL", "revoked_at IS NULL")
}

func (r *refreshTokenGormRepository) Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error {
	return r.stamp(ctx, tokenID, "revoked_at", revokedAt, "revoked_at IS NULL")
}

// 条件を満たす1行にだけ時刻を入れる。0件なら他の経路で先に消費されている
func (r *refreshTokenGormRepository) stamp(ctx context.Context, tokenID, column string, at time.Time, guards ...string) error {
	q := r.db.WithContext(ctx).Model(&model.RefreshToken{}).Where("id = ?", tokenID)
	for _, g := range guards {
		q = q.Where(g)
	}
	res := q.Update(column, at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}
