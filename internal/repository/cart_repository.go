package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 明細をまるごと置き換える（無ければ作成）
	Save(ctx context.Context, userID int64, lines []model.CartLine) error
	Clear(ctx context.Context, userID int64) error
}
