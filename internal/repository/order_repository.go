package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (model.Order, bool, error)

	// 並び順は保証しない（呼び出し側で並べる）
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	//管理者用の注文一覧（created_at desc）
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// 決済参照が重複したらErrDuplicate
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, history []model.StatusEntry) error

	Delete(ctx context.Context, orderID int64) error
	DeleteAllByUserID(ctx context.Context, userID int64) (int64, error)
}
