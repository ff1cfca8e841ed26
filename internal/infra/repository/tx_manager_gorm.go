package repository

import (
	"context"

	"gorm.io/gorm"

	repo "storefront/internal/repository"
)

type txReposGorm struct {
	tx *gorm.DB
}

func (r *txReposGorm) Orders() repo.OrderRepository { return NewOrderGormRepository(r.tx) }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository {
	return NewOrderItemGormRepository(r.tx)
}
func (r *txReposGorm) Carts() repo.CartRepository          { return NewCartGormRepository(r.tx) }
func (r *txReposGorm) Inventory() repo.InventoryRepository { return NewInventoryGormRepository(r.tx) }
func (r *txReposGorm) Products() repo.ProductRepository    { return NewProductGormRepository(r.tx) }
func (r *txReposGorm) Checkouts() repo.CheckoutRepository  { return NewCheckoutGormRepository(r.tx) }
func (r *txReposGorm) Restocks() repo.RestockRepository    { return NewRestockGormRepository(r.tx) }
func (r *txReposGorm) Reviews() repo.ReviewRepository      { return NewReviewGormRepository(r.tx) }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository  { return NewAuditLogGormRepository(r.tx) }
func (r *txReposGorm) Notifications() repo.NotificationRepository {
	return NewNotificationGormRepository(r.tx)
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(&txReposGorm{tx: tx})
	})
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)
