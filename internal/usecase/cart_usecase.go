package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	"storefront/internal/infra/worker"
	repo "storefront/internal/repository"
)

// 裏で保存する係
type CartSyncer interface {
	Enqueue(userID int64, lines []model.CartLine)
	Status(userID int64) worker.SyncStatus
}

// CartUsecase は /cart の業務ロジックです。
// メモリ上のカートが正で、保存はCartSyncerに任せる。
type CartUsecase struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	settings repo.ShippingSettingsRepository
	coupons  *CouponUsecase
	syncer   CartSyncer
	log      *zap.Logger

	mu    sync.Mutex
	lines map[int64][]model.CartLine
}

func NewCartUsecase(
	carts repo.CartRepository,
	products repo.ProductRepository,
	settings repo.ShippingSettingsRepository,
	coupons *CouponUsecase,
	syncer CartSyncer,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		products: products,
		settings: settings,
		coupons:  coupons,
		syncer:   syncer,
		log:      log,
		lines:    map[int64][]model.CartLine{},
	}
}

// 1行あたりの数量上限
const maxLineQuantity int64 = 999

var (
	errQuantityTooLarge = NewHTTPError(http.StatusBadRequest, "quantity must be at most 999")
	errCartTooLarge     = NewHTTPError(http.StatusBadRequest, "cart total is too large")
)

type CartItemInput struct {
	ProductID     int64
	Quantity      int64
	SelectedColor string
	SelectedSize  string
}

type CartLineOutput struct {
	ProductID     int64          `json:"product_id"`
	Quantity      int64          `json:"quantity"`
	SelectedColor string         `json:"selected_color,omitempty"`
	SelectedSize  string         `json:"selected_size,omitempty"`
	Product       *model.Product `json:"product"`
	// 商品が消えていたらfalse
	Available bool  `json:"available"`
	LineTotal int64 `json:"line_total"`
}

type CartOutput struct {
	Items      []CartLineOutput  `json:"items"`
	Subtotal   int64             `json:"subtotal"`
	Breakdown  pricing.Breakdown `json:"breakdown"`
	SyncStatus string            `json:"sync_status"`
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64, couponCode string) (CartOutput, error) {
	lines, err := u.Lines(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	return u.view(ctx, userID, lines, couponCode)
}

// 同じ商品・色・サイズなら数量を足す
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in CartItemInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	if in.ProductID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if in.Quantity > maxLineQuantity {
		return CartOutput{}, errQuantityTooLarge
	}

	if _, err := u.products.FindByID(ctx, in.ProductID); err != nil {
		if err == repo.ErrNotFound {
			return CartOutput{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	color, size := strings.TrimSpace(in.SelectedColor), strings.TrimSpace(in.SelectedSize)
	lines, err := u.mutate(ctx, userID, func(lines []model.CartLine) ([]model.CartLine, error) {
		for i := range lines {
			if lines[i].SameVariant(in.ProductID, color, size) {
				// 足した結果も上限内
				if lines[i].Quantity > maxLineQuantity-in.Quantity {
					return nil, errQuantityTooLarge
				}
				lines[i].Quantity += in.Quantity
				return lines, nil
			}
		}
		return append(lines, model.CartLine{
			ProductID:     in.ProductID,
			Quantity:      in.Quantity,
			SelectedColor: color,
			SelectedSize:  size,
		}), nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return u.view(ctx, userID, lines, "")
}

// 0以下は削除ではなくエラー
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, in CartItemInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	if in.Quantity <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
	}
	if in.Quantity > maxLineQuantity {
		return CartOutput{}, errQuantityTooLarge
	}

	color, size := strings.TrimSpace(in.SelectedColor), strings.TrimSpace(in.SelectedSize)
	lines, err := u.mutate(ctx, userID, func(lines []model.CartLine) ([]model.CartLine, error) {
		for i := range lines {
			if lines[i].SameVariant(in.ProductID, color, size) {
				lines[i].Quantity = in.Quantity
				return lines, nil
			}
		}
		return nil, NewHTTPError(http.StatusNotFound, "item not in cart")
	})
	if err != nil {
		return CartOutput{}, err
	}
	return u.view(ctx, userID, lines, "")
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, in CartItemInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}

	color, size := strings.TrimSpace(in.SelectedColor), strings.TrimSpace(in.SelectedSize)
	lines, err := u.mutate(ctx, userID, func(lines []model.CartLine) ([]model.CartLine, error) {
		out := lines[:0]
		for _, l := range lines {
			if !l.SameVariant(in.ProductID, color, size) {
				out = append(out, l)
			}
		}
		return out, nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return u.view(ctx, userID, lines, "")
}

func (u *CartUsecase) Clear(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	lines, err := u.mutate(ctx, userID, func([]model.CartLine) ([]model.CartLine, error) {
		return []model.CartLine{}, nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return u.view(ctx, userID, lines, "")
}

// 注文確定後：保存側はTxで空になっているのでメモリも空にする
func (u *CartUsecase) ResetAfterOrder(userID int64) {
	u.mu.Lock()
	u.lines[userID] = []model.CartLine{}
	u.mu.Unlock()
	// 古いスナップショットが後から書かれないように
	u.syncer.Enqueue(userID, []model.CartLine{})
}

// 現在の明細（コピー）
func (u *CartUsecase) Lines(ctx context.Context, userID int64) ([]model.CartLine, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	if err := u.ensureLoaded(ctx, userID); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return copyLines(u.lines[userID]), nil
}

// 初回だけ保存済みの明細を読む
func (u *CartUsecase) ensureLoaded(ctx context.Context, userID int64) error {
	u.mu.Lock()
	_, ok := u.lines[userID]
	u.mu.Unlock()
	if ok {
		return nil
	}

	var loaded []model.CartLine
	cart, err := u.carts.FindByUserID(ctx, userID)
	switch err {
	case nil:
		loaded = cart.Lines
	case repo.ErrNotFound:
		loaded = []model.CartLine{}
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.mu.Lock()
	if _, ok := u.lines[userID]; !ok {
		u.lines[userID] = copyLines(loaded)
	}
	u.mu.Unlock()
	return nil
}

// メモリ上で変更して保存を依頼する（保存失敗でも戻さない）
func (u *CartUsecase) mutate(ctx context.Context, userID int64, fn func([]model.CartLine) ([]model.CartLine, error)) ([]model.CartLine, error) {
	if err := u.ensureLoaded(ctx, userID); err != nil {
		return nil, err
	}

	u.mu.Lock()
	next, err := fn(copyLines(u.lines[userID]))
	if err != nil {
		u.mu.Unlock()
		return nil, err
	}
	u.lines[userID] = next
	snapshot := copyLines(next)
	u.mu.Unlock()

	u.syncer.Enqueue(userID, snapshot)
	return snapshot, nil
}

func (u *CartUsecase) view(ctx context.Context, userID int64, lines []model.CartLine, couponCode string) (CartOutput, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]CartLineOutput, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		item := CartLineOutput{
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			SelectedColor: l.SelectedColor,
			SelectedSize:  l.SelectedSize,
		}
		if p, ok := byID[l.ProductID]; ok {
			p := p
			item.Product = &p
			item.Available = true
			item.LineTotal = p.Price * l.Quantity
			priced = append(priced, pricing.Line{UnitPrice: p.Price, Quantity: l.Quantity})
		}
		items = append(items, item)
	}

	subtotal, err := pricing.Subtotal(priced)
	if err != nil {
		return CartOutput{}, errCartTooLarge
	}

	var coupon *model.Coupon
	if strings.TrimSpace(couponCode) != "" {
		c, err := u.coupons.Apply(ctx, couponCode, subtotal)
		if err != nil {
			return CartOutput{}, err
		}
		coupon = &c
	}

	settings, err := loadShippingSettings(ctx, u.settings)
	if err != nil {
		return CartOutput{}, err
	}

	return CartOutput{
		Items:      items,
		Subtotal:   subtotal,
		Breakdown:  pricing.Calculate(subtotal, coupon, pricing.RuleFromSettings(settings)),
		SyncStatus: string(u.syncer.Status(userID)),
	}, nil
}

func copyLines(in []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(in))
	copy(out, in)
	return out
}
