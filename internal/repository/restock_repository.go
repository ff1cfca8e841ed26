package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type RestockRepository interface {
	FindPending(ctx context.Context, productID, userID int64) (model.RestockSubscription, bool, error)
	Create(ctx context.Context, s *model.RestockSubscription) error
	List(ctx context.Context) ([]model.RestockSubscription, error)
	// 行ロック付きでpendingを取る（Tx内で使う）
	ListPendingForUpdate(ctx context.Context, productID int64) ([]model.RestockSubscription, error)
	MarkNotified(ctx context.Context, ids []int64) error
}
