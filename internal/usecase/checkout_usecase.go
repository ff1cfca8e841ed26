package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/payment"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
	"storefront/internal/tracing"
)

const (
	msgOrderFailed = "payment succeeded but order failed, contact support"

	confirmLockTTL = 30 * time.Second
)

type CheckoutConfig struct {
	Currency  string
	PublicKey string
	// 在庫不足なら注文を拒否（falseなら0で止める）
	StrictStock bool
}

type CheckoutUsecase struct {
	tx        repo.TransactionManager
	sessions  repo.CheckoutRepository
	orders    repo.OrderRepository
	products  repo.ProductRepository
	addresses repo.AddressRepository
	settings  repo.ShippingSettingsRepository
	cart      *CartUsecase
	coupons   *CouponUsecase
	gateway   payment.Gateway
	locker    cache.Locker
	pub       broker.Publisher
	log       *zap.Logger
	cfg       CheckoutConfig

	now          func() time.Time
	newReference func() (string, error)
}

type CheckoutDeps struct {
	Tx        repo.TransactionManager
	Sessions  repo.CheckoutRepository
	Orders    repo.OrderRepository
	Products  repo.ProductRepository
	Addresses repo.AddressRepository
	Settings  repo.ShippingSettingsRepository
	Cart      *CartUsecase
	Coupons   *CouponUsecase
	Gateway   payment.Gateway
	Locker    cache.Locker
	Publisher broker.Publisher
	Log       *zap.Logger
}

func NewCheckoutUsecase(d CheckoutDeps, cfg CheckoutConfig) *CheckoutUsecase {
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	return &CheckoutUsecase{
		tx:           d.Tx,
		sessions:     d.Sessions,
		orders:       d.Orders,
		products:     d.Products,
		addresses:    d.Addresses,
		settings:     d.Settings,
		cart:         d.Cart,
		coupons:      d.Coupons,
		gateway:      d.Gateway,
		locker:       d.Locker,
		pub:          d.Publisher,
		log:          d.Log,
		cfg:          cfg,
		now:          time.Now,
		newReference: NewPaymentReference,
	}
}

// ref_ + 32桁の16進
func NewPaymentReference() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return "ref_" + hex.EncodeToString(id[:]), nil
}

type StartCheckoutInput struct {
	Shipping      model.ShippingDetails
	TermsAccepted bool
	CouponCode    string
	// 保存済み住所で空欄を埋める
	AddressID int64
}

type StartCheckoutOutput struct {
	Reference string            `json:"reference"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Email     string            `json:"email"`
	PublicKey string            `json:"public_key"`
	State     string            `json:"state"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

type CheckoutSessionOutput struct {
	Reference       string                `json:"reference"`
	State           string                `json:"state"`
	Amount          int64                 `json:"amount"`
	Breakdown       pricing.Breakdown     `json:"breakdown"`
	ShippingDetails model.ShippingDetails `json:"shipping_details"`
	Lines           []model.CheckoutLine  `json:"lines"`
	OrderID         *int64                `json:"order_id,omitempty"`
	FailureMessage  string                `json:"failure_message,omitempty"`
}

type ConfirmPaymentOutput struct {
	Reference string      `json:"reference"`
	State     string      `json:"state"`
	Order     OrderOutput `json:"order"`
}

// 配送先の検証→カート検証→価格計算→決済待ちのセッション作成
func (u *CheckoutUsecase) Start(ctx context.Context, userID int64, in StartCheckoutInput) (StartCheckoutOutput, error) {
	ctx, span := tracing.StartSpan(ctx, "checkout.start")
	defer span.End()

	if userID <= 0 {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}

	shipping := trimShipping(in.Shipping)
	if in.AddressID > 0 {
		addr, err := u.addresses.FindByID(ctx, in.AddressID)
		if err == repo.ErrNotFound {
			return StartCheckoutOutput{}, NewHTTPError(http.StatusNotFound, "address not found")
		}
		if err != nil {
			return StartCheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if addr.UserID != userID {
			return StartCheckoutOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
		}
		shipping = fillShipping(shipping, addr.ToShippingDetails())
	}

	m := checkout.NewMachine()
	if err := m.Submit(checkout.ShippingForm{Details: shipping, TermsAccepted: in.TermsAccepted}); err != nil {
		var ve *checkout.ValidationError
		if errors.As(err, &ve) {
			metrics.CheckoutFailuresTotal.WithLabelValues("shipping_invalid").Inc()
			return StartCheckoutOutput{}, NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		return StartCheckoutOutput{}, NewHTTPError(http.StatusConflict, err.Error())
	}

	lines, breakdown, err := u.validateCart(ctx, userID, in.CouponCode)
	if err != nil {
		_ = m.Fire(checkout.EventValidationFailed)
		metrics.CheckoutFailuresTotal.WithLabelValues("cart_invalid").Inc()
		return StartCheckoutOutput{}, err
	}
	// 桁あふれや全額割引で0以下になった金額は決済に出さない
	if breakdown.Total <= 0 {
		_ = m.Fire(checkout.EventValidationFailed)
		metrics.CheckoutFailuresTotal.WithLabelValues("amount_invalid").Inc()
		return StartCheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "order total must be positive")
	}
	if err := m.Fire(checkout.EventValidated); err != nil {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusConflict, err.Error())
	}

	ref, err := u.newReference()
	if err != nil {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	amount := pricing.ToGatewayAmount(breakdown.Total)
	session := model.CheckoutSession{
		UserID:      userID,
		Reference:   ref,
		State:       string(m.State()),
		Shipping:    shipping,
		CouponCode:  breakdown.CouponCode,
		Subtotal:    breakdown.Subtotal,
		Discount:    breakdown.Discount,
		ShippingFee: breakdown.ShippingFee,
		Total:       breakdown.Total,
		Amount:      amount,
		Lines:       lines,
	}
	if err := u.sessions.Create(ctx, &session); err != nil {
		return StartCheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	span.SetAttributes(attribute.String("checkout.reference", ref), attribute.Int64("checkout.amount", amount))
	u.log.Info("checkout started",
		zap.Int64("user_id", userID),
		zap.String("reference", ref),
		zap.Int64("amount", amount),
	)

	return StartCheckoutOutput{
		Reference: ref,
		Amount:    amount,
		Currency:  u.cfg.Currency,
		Email:     shipping.Email,
		PublicKey: u.cfg.PublicKey,
		State:     session.State,
		Breakdown: breakdown,
	}, nil
}

// カートが空でなく、全行が購入可能か。スナップショットと金額を返す
func (u *CheckoutUsecase) validateCart(ctx context.Context, userID int64, couponCode string) ([]model.CheckoutLine, pricing.Breakdown, error) {
	cartLines, err := u.cart.Lines(ctx, userID)
	if err != nil {
		return nil, pricing.Breakdown{}, err
	}
	if len(cartLines) == 0 {
		return nil, pricing.Breakdown{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	ids := make([]int64, 0, len(cartLines))
	for _, l := range cartLines {
		ids = append(ids, l.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pricing.Breakdown{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]model.CheckoutLine, 0, len(cartLines))
	priced := make([]pricing.Line, 0, len(cartLines))
	for _, l := range cartLines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, pricing.Breakdown{}, NewHTTPError(http.StatusBadRequest, "some items in your cart are no longer available")
		}
		if !p.Purchasable() {
			return nil, pricing.Breakdown{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%q is out of stock", p.Name))
		}
		if u.cfg.StrictStock && l.Quantity > p.StockQuantity {
			return nil, pricing.Breakdown{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("only %d left of %q", p.StockQuantity, p.Name))
		}
		lines = append(lines, model.CheckoutLine{
			ProductID:     p.ID,
			Name:          p.Name,
			Price:         p.Price,
			Image:         p.Image,
			SelectedColor: l.SelectedColor,
			SelectedSize:  l.SelectedSize,
			Quantity:      l.Quantity,
		})
		priced = append(priced, pricing.Line{UnitPrice: p.Price, Quantity: l.Quantity})
	}

	subtotal, err := pricing.Subtotal(priced)
	if err != nil {
		return nil, pricing.Breakdown{}, errCartTooLarge
	}

	var coupon *model.Coupon
	if strings.TrimSpace(couponCode) != "" {
		c, err := u.coupons.Apply(ctx, couponCode, subtotal)
		if err != nil {
			return nil, pricing.Breakdown{}, err
		}
		coupon = &c
	}

	settings, err := loadShippingSettings(ctx, u.settings)
	if err != nil {
		return nil, pricing.Breakdown{}, err
	}
	return lines, pricing.Calculate(subtotal, coupon, pricing.RuleFromSettings(settings)), nil
}

// 決済成功のコールバック。同じ参照は1回だけ注文になる
func (u *CheckoutUsecase) ConfirmPayment(ctx context.Context, userID int64, reference string) (ConfirmPaymentOutput, error) {
	ctx, span := tracing.StartSpan(ctx, "checkout.confirm_payment")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.reference", reference))

	if userID <= 0 {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "reference required")
	}

	if err := cache.AcquireWithRetry(ctx, u.locker, "checkout:"+reference, confirmLockTTL, 20, 100*time.Millisecond); err != nil {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusConflict, "payment confirmation already in progress")
	}
	defer func() {
		_ = u.locker.Release(context.WithoutCancel(ctx), "checkout:"+reference)
	}()

	s, err := u.ownedSession(ctx, userID, reference)
	if err != nil {
		return ConfirmPaymentOutput{}, err
	}

	switch checkout.State(s.State) {
	case checkout.StateDone:
		// 二重コールバック
		return u.existingOrder(ctx, s)
	case checkout.StateAwaitingPayment:
	case checkout.StateOrderFailed:
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, msgOrderFailed)
	default:
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusConflict, "checkout is "+s.State)
	}

	v, err := u.gateway.Verify(ctx, reference)
	if err != nil {
		metrics.CheckoutFailuresTotal.WithLabelValues("verify_error").Inc()
		u.log.Warn("payment verification failed", zap.String("reference", reference), zap.Error(err))
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusBadGateway, "could not verify payment")
	}
	if err := payment.Check(v, s.Amount); err != nil {
		metrics.CheckoutFailuresTotal.WithLabelValues("not_paid").Inc()
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusPaymentRequired, err.Error())
	}

	m := checkout.Resume(checkout.State(s.State))
	if err := m.Fire(checkout.EventPaymentSucceeded); err != nil {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusConflict, err.Error())
	}
	s.State = string(m.State())
	if err := u.sessions.Update(ctx, s); err != nil {
		// 支払いは確認済みなので利用者にはサポート案内を返す
		u.markFailed(ctx, s, err)
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, msgOrderFailed)
	}

	start := u.now()
	order, items, err := u.placeOrder(ctx, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order placement failed")
		u.markFailed(ctx, s, err)
		if he, ok := AsHTTPError(err); ok && he.Status < http.StatusInternalServerError {
			return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, msgOrderFailed+": "+he.Message)
		}
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, msgOrderFailed)
	}

	metrics.OrdersPlacedTotal.Inc()
	metrics.OrderPlacementLatency.Observe(u.now().Sub(start).Seconds())
	u.cart.ResetAfterOrder(userID)

	publish(ctx, u.pub, u.log, fmt.Sprint(order.ID), broker.EventOrderPlaced, map[string]interface{}{
		"order_id":  order.ID,
		"user_id":   order.UserID,
		"total":     order.Total,
		"reference": order.PaymentReference,
		"items":     len(items),
	})
	u.log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("reference", reference),
	)

	return ConfirmPaymentOutput{
		Reference: reference,
		State:     string(checkout.StateDone),
		Order:     toOrderOutput(order, items),
	}, nil
}

// 注文作成・在庫反映・カート削除・セッション完了を1つのTxで
func (u *CheckoutUsecase) placeOrder(ctx context.Context, s model.CheckoutSession) (model.Order, []model.OrderItem, error) {
	ctx, span := tracing.StartSpan(ctx, "checkout.place_order")
	defer span.End()

	now := u.now()
	order := model.Order{
		UserID:           s.UserID,
		Status:           model.OrderStatusPending,
		StatusHistory:    []model.StatusEntry{{Status: model.OrderStatusPending, Timestamp: now}},
		Subtotal:         s.Subtotal,
		Discount:         s.Discount,
		CouponCode:       s.CouponCode,
		ShippingFee:      s.ShippingFee,
		Total:            s.Total,
		Shipping:         s.Shipping,
		PaymentReference: s.Reference,
		PaymentStatus:    model.PaymentStatusPaid,
	}
	var items []model.OrderItem

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().Create(ctx, &order); err != nil {
			if err == repo.ErrDuplicate {
				return NewHTTPError(http.StatusConflict, "order already exists for this payment")
			}
			return err
		}

		// 明細は開始時のスナップショットのまま。小計・合計と同じ価格になる
		items = make([]model.OrderItem, 0, len(s.Lines))
		for _, l := range s.Lines {
			items = append(items, model.OrderItem{
				ProductID:     l.ProductID,
				Name:          l.Name,
				Price:         l.Price,
				Image:         l.Image,
				SelectedColor: l.SelectedColor,
				SelectedSize:  l.SelectedSize,
				Quantity:      l.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return err
		}

		for _, it := range items {
			applied, err := r.Inventory().ApplySale(ctx, it.ProductID, it.Quantity, u.cfg.StrictStock)
			if err != nil {
				return err
			}
			if applied < it.Quantity && u.cfg.StrictStock {
				return NewHTTPError(http.StatusConflict, fmt.Sprintf("%q is now out of stock", it.Name))
			}
			// 0で止めた分は履歴に載せない
			if applied > 0 {
				if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   it.ProductID,
					ActorUserID: s.UserID,
					Kind:        model.AdjustmentSale,
					Delta:       -applied,
					Reference:   s.Reference,
					Reason:      "order " + s.Reference,
				}); err != nil {
					return err
				}
			}
		}

		if err := r.Carts().Clear(ctx, s.UserID); err != nil {
			return err
		}

		m := checkout.Resume(checkout.State(s.State))
		if err := m.Fire(checkout.EventOrderPlaced); err != nil {
			return err
		}
		done := s
		done.State = string(m.State())
		done.OrderID = &order.ID
		return r.Checkouts().Update(ctx, done)
	})
	if err != nil {
		return model.Order{}, nil, err
	}
	return order, items, nil
}

func (u *CheckoutUsecase) markFailed(ctx context.Context, s model.CheckoutSession, cause error) {
	metrics.CheckoutFailuresTotal.WithLabelValues("order_failed").Inc()
	u.log.Error("payment succeeded but order failed",
		zap.String("reference", s.Reference),
		zap.Int64("user_id", s.UserID),
		zap.Error(cause),
	)

	m := checkout.Resume(checkout.State(s.State))
	if err := m.Fire(checkout.EventOrderFailed); err != nil {
		return
	}
	s.State = string(m.State())
	s.FailureMessage = cause.Error()
	if err := u.sessions.Update(context.WithoutCancel(ctx), s); err != nil {
		u.log.Error("could not record failed checkout", zap.String("reference", s.Reference), zap.Error(err))
	}
}

func (u *CheckoutUsecase) existingOrder(ctx context.Context, s model.CheckoutSession) (ConfirmPaymentOutput, error) {
	order, found, err := u.orders.FindByPaymentReference(ctx, s.Reference)
	if err != nil {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !found {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	var items []model.OrderItem
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		items, err = r.OrderItems().ListByOrderID(ctx, order.ID)
		return err
	})
	if err != nil {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ConfirmPaymentOutput{
		Reference: s.Reference,
		State:     s.State,
		Order:     toOrderOutput(order, items),
	}, nil
}

// 決済キャンセル（payment cancelled）。注文は作らない
func (u *CheckoutUsecase) CancelPayment(ctx context.Context, userID int64, reference string) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	s, err := u.ownedSession(ctx, userID, strings.TrimSpace(reference))
	if err != nil {
		return err
	}

	m := checkout.Resume(checkout.State(s.State))
	if err := m.Fire(checkout.EventPaymentCancelled); err != nil {
		return NewHTTPError(http.StatusConflict, "checkout is "+s.State)
	}
	s.State = string(m.State())
	if err := u.sessions.Update(ctx, s); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CheckoutUsecase) Get(ctx context.Context, userID int64, reference string) (CheckoutSessionOutput, error) {
	if userID <= 0 {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	s, err := u.ownedSession(ctx, userID, strings.TrimSpace(reference))
	if err != nil {
		return CheckoutSessionOutput{}, err
	}
	return CheckoutSessionOutput{
		Reference: s.Reference,
		State:     s.State,
		Amount:    s.Amount,
		Breakdown: pricing.Breakdown{
			Subtotal:    s.Subtotal,
			Discount:    s.Discount,
			ShippingFee: s.ShippingFee,
			Total:       s.Total,
			CouponCode:  s.CouponCode,
		},
		ShippingDetails: s.Shipping,
		Lines:           s.Lines,
		OrderID:         s.OrderID,
		FailureMessage:  s.FailureMessage,
	}, nil
}

// 他人のセッションは見えない
func (u *CheckoutUsecase) ownedSession(ctx context.Context, userID int64, reference string) (model.CheckoutSession, error) {
	s, err := u.sessions.FindByReference(ctx, reference)
	if err == repo.ErrNotFound {
		return model.CheckoutSession{}, NewHTTPError(http.StatusNotFound, "checkout not found")
	}
	if err != nil {
		return model.CheckoutSession{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if s.UserID != userID {
		return model.CheckoutSession{}, NewHTTPError(http.StatusNotFound, "checkout not found")
	}
	return s, nil
}

// 保存済み金額（開発用ゲートウェイ向け）
func (u *CheckoutUsecase) SessionAmount(ctx context.Context, reference string) (int64, error) {
	s, err := u.sessions.FindByReference(ctx, reference)
	if err != nil {
		return 0, err
	}
	return s.Amount, nil
}

func trimShipping(d model.ShippingDetails) model.ShippingDetails {
	return model.ShippingDetails{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.TrimSpace(d.Email),
		Phone:   strings.TrimSpace(d.Phone),
		Address: strings.TrimSpace(d.Address),
		City:    strings.TrimSpace(d.City),
		Zip:     strings.TrimSpace(d.Zip),
	}
}

// 入力が空の項目だけ埋める
func fillShipping(d, from model.ShippingDetails) model.ShippingDetails {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return strings.TrimSpace(b)
	}
	return model.ShippingDetails{
		Name:    pick(d.Name, from.Name),
		Email:   pick(d.Email, from.Email),
		Phone:   pick(d.Phone, from.Phone),
		Address: pick(d.Address, from.Address),
		City:    pick(d.City, from.City),
		Zip:     pick(d.Zip, from.Zip),
	}
}
