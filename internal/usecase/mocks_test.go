package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/model"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/payment"
	"storefront/internal/infra/worker"
	repo "storefront/internal/repository"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos *TxReposMock
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

// 未設定のリポジトリを触ったらnil interfaceでpanicする
type TxReposMock struct {
	orders        *OrderRepoMock
	orderItems    *OrderItemRepoMock
	carts         *CartRepoMock
	inventory     *InventoryRepoMock
	products      *ProductRepoMock
	checkouts     *CheckoutRepoMock
	notifications *NotificationRepoMock
	restocks      *RestockRepoMock
	reviews       *ReviewRepoMock
	audit         *AuditRepoMock
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposMock) Carts() repo.CartRepository                 { return r.carts }
func (r *TxReposMock) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository           { return r.products }
func (r *TxReposMock) Checkouts() repo.CheckoutRepository         { return r.checkouts }
func (r *TxReposMock) Notifications() repo.NotificationRepository { return r.notifications }
func (r *TxReposMock) Restocks() repo.RestockRepository           { return r.restocks }
func (r *TxReposMock) Reviews() repo.ReviewRepository             { return r.reviews }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository         { return r.audit }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByPaymentReference(ctx context.Context, reference string) (model.Order, bool, error) {
	args := m.Called(ctx, reference)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Error(1)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, history []model.StatusEntry) error {
	args := m.Called(ctx, orderID, status, history)
	return args.Error(0)
}

func (m *OrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *OrderRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) DeleteByOrderID(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *OrderItemRepoMock) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Save(ctx context.Context, userID int64, lines []model.CartLine) error {
	args := m.Called(ctx, userID, lines)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *InventoryRepoMock) ApplySale(ctx context.Context, productID int64, qty int64, strict bool) (int64, error) {
	args := m.Called(ctx, productID, qty, strict)
	applied, _ := args.Get(0).(int64)
	return applied, args.Error(1)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Error(1)
}

func (m *ProductRepoMock) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProductRepoMock) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepoMock) UpdateReviewStats(ctx context.Context, id int64, rating float64, reviewCount int64) error {
	args := m.Called(ctx, id, rating, reviewCount)
	return args.Error(0)
}

type CheckoutRepoMock struct{ mock.Mock }

func (m *CheckoutRepoMock) Create(ctx context.Context, s *model.CheckoutSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *CheckoutRepoMock) FindByReference(ctx context.Context, reference string) (model.CheckoutSession, error) {
	args := m.Called(ctx, reference)
	s, _ := args.Get(0).(model.CheckoutSession)
	return s, args.Error(1)
}

func (m *CheckoutRepoMock) Update(ctx context.Context, s model.CheckoutSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepoMock) CreateBulk(ctx context.Context, ns []model.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *NotificationRepoMock) FindByID(ctx context.Context, id int64) (model.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(model.Notification)
	return n, args.Error(1)
}

func (m *NotificationRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Error(1)
}

func (m *NotificationRepoMock) ListAnnouncements(ctx context.Context) ([]model.Notification, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Error(1)
}

func (m *NotificationRepoMock) ListReadAnnouncementIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *NotificationRepoMock) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepoMock) MarkAllReadByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *NotificationRepoMock) UpsertReadReceipts(ctx context.Context, userID int64, notificationIDs []int64, at time.Time) error {
	args := m.Called(ctx, userID, notificationIDs, at)
	return args.Error(0)
}

func (m *NotificationRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *NotificationRepoMock) DeleteAllAnnouncements(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type RestockRepoMock struct{ mock.Mock }

func (m *RestockRepoMock) FindPending(ctx context.Context, productID, userID int64) (model.RestockSubscription, bool, error) {
	args := m.Called(ctx, productID, userID)
	s, _ := args.Get(0).(model.RestockSubscription)
	return s, args.Bool(1), args.Error(2)
}

func (m *RestockRepoMock) Create(ctx context.Context, s *model.RestockSubscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *RestockRepoMock) List(ctx context.Context) ([]model.RestockSubscription, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.RestockSubscription)
	return list, args.Error(1)
}

func (m *RestockRepoMock) ListPendingForUpdate(ctx context.Context, productID int64) ([]model.RestockSubscription, error) {
	args := m.Called(ctx, productID)
	list, _ := args.Get(0).([]model.RestockSubscription)
	return list, args.Error(1)
}

func (m *RestockRepoMock) MarkNotified(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type ReviewRepoMock struct{ mock.Mock }

func (m *ReviewRepoMock) Create(ctx context.Context, r *model.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *ReviewRepoMock) ListByProductID(ctx context.Context, productID int64, onlyApproved bool) ([]model.Review, error) {
	args := m.Called(ctx, productID, onlyApproved)
	list, _ := args.Get(0).([]model.Review)
	return list, args.Error(1)
}

func (m *ReviewRepoMock) Approve(ctx context.Context, reviewID int64) (model.Review, error) {
	args := m.Called(ctx, reviewID)
	r, _ := args.Get(0).(model.Review)
	return r, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, q)
	list, _ := args.Get(0).([]model.AuditLog)
	total, _ := args.Get(1).(int64)
	return list, total, args.Error(2)
}

type CouponRepoMock struct{ mock.Mock }

func (m *CouponRepoMock) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) List(ctx context.Context) ([]model.Coupon, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Coupon)
	return list, args.Error(1)
}

func (m *CouponRepoMock) Create(ctx context.Context, c *model.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CouponRepoMock) Update(ctx context.Context, c model.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CouponRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type SettingsRepoMock struct{ mock.Mock }

func (m *SettingsRepoMock) Get(ctx context.Context) (model.ShippingSettings, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(model.ShippingSettings)
	return s, args.Error(1)
}

func (m *SettingsRepoMock) Save(ctx context.Context, s model.ShippingSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, a model.Address) (model.Address, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) Update(ctx context.Context, a model.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AddressRepoMock) Delete(ctx context.Context, userID, addressID int64) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

func (m *AddressRepoMock) SetDefault(ctx context.Context, userID, addressID int64) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type RefreshTokenRepoMock struct{ mock.Mock }

func (m *RefreshTokenRepoMock) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	t, _ := args.Get(0).(*model.RefreshToken)
	return t, args.Error(1)
}

func (m *RefreshTokenRepoMock) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error {
	args := m.Called(ctx, tokenID, revokedAt)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var (
	_ repo.OrderRepository            = (*OrderRepoMock)(nil)
	_ repo.OrderItemRepository        = (*OrderItemRepoMock)(nil)
	_ repo.CartRepository             = (*CartRepoMock)(nil)
	_ repo.InventoryRepository        = (*InventoryRepoMock)(nil)
	_ repo.ProductRepository          = (*ProductRepoMock)(nil)
	_ repo.CheckoutRepository         = (*CheckoutRepoMock)(nil)
	_ repo.NotificationRepository     = (*NotificationRepoMock)(nil)
	_ repo.RestockRepository          = (*RestockRepoMock)(nil)
	_ repo.ReviewRepository           = (*ReviewRepoMock)(nil)
	_ repo.AuditLogRepository         = (*AuditRepoMock)(nil)
	_ repo.CouponRepository           = (*CouponRepoMock)(nil)
	_ repo.ShippingSettingsRepository = (*SettingsRepoMock)(nil)
	_ repo.AddressRepository          = (*AddressRepoMock)(nil)
	_ repo.UserRepository             = (*UserRepoMock)(nil)
	_ repo.RefreshTokenRepository     = (*RefreshTokenRepoMock)(nil)
	_ repo.TransactionManager         = (*TxManagerMock)(nil)
)

// =====================
// infra mocks
// =====================

// 積まれたスナップショットを覚えるだけ
type SyncerStub struct {
	enqueued [][]model.CartLine
}

func (s *SyncerStub) Enqueue(userID int64, lines []model.CartLine) {
	s.enqueued = append(s.enqueued, lines)
}

func (s *SyncerStub) Status(userID int64) worker.SyncStatus {
	return worker.SyncSaved
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, key string, ev broker.Event) error {
	args := m.Called(ctx, key, ev)
	return args.Error(0)
}

func (m *PublisherMock) Close() error { return nil }

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Verify(ctx context.Context, reference string) (payment.Verification, error) {
	args := m.Called(ctx, reference)
	v, _ := args.Get(0).(payment.Verification)
	return v, args.Error(1)
}

// =====================
// helper
// =====================

// HTTPErrorの実装詳細に依存しない
func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func int64Ptr(v int64) *int64 { return &v }
