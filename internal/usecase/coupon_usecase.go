package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CouponUsecase struct {
	coupons repo.CouponRepository
	audit   repo.AuditLogRepository
	now     func() time.Time
}

func NewCouponUsecase(coupons repo.CouponRepository, audit repo.AuditLogRepository) *CouponUsecase {
	return &CouponUsecase{coupons: coupons, audit: audit, now: time.Now}
}

// 前後の空白を除いて大文字に
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// 小計に対してクーポンが使えるか
func (u *CouponUsecase) Apply(ctx context.Context, code string, subtotal int64) (model.Coupon, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "coupon code required")
	}

	c, err := u.coupons.FindByCode(ctx, code)
	if err == repo.ErrNotFound {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if c.ExpiresAt != nil && c.ExpiresAt.Before(u.now()) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "coupon expired")
	}
	//下限ちょうどはOK
	if c.MinPurchase != nil && subtotal < *c.MinPurchase {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("minimum purchase of %d required", *c.MinPurchase))
	}
	return c, nil
}

type CouponInput struct {
	Code          string
	DiscountType  model.DiscountType
	DiscountValue decimal.Decimal
	ExpiresAt     *time.Time
	MinPurchase   *int64
}

func (in CouponInput) validate() error {
	if NormalizeCouponCode(in.Code) == "" {
		return NewHTTPError(http.StatusBadRequest, "code required")
	}
	switch in.DiscountType {
	case model.DiscountPercentage:
		if in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return NewHTTPError(http.StatusBadRequest, "percentage must be <= 100")
		}
	case model.DiscountFixed:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}
	if in.DiscountValue.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "discount_value must be >= 0")
	}
	if in.MinPurchase != nil && *in.MinPurchase < 0 {
		return NewHTTPError(http.StatusBadRequest, "min_purchase must be >= 0")
	}
	return nil
}

func (u *CouponUsecase) AdminList(ctx context.Context) ([]model.Coupon, error) {
	list, err := u.coupons.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

func (u *CouponUsecase) AdminCreate(ctx context.Context, adminUserID int64, in CouponInput) (model.Coupon, error) {
	if err := in.validate(); err != nil {
		return model.Coupon{}, err
	}
	c := model.Coupon{
		Code:          NormalizeCouponCode(in.Code),
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		ExpiresAt:     in.ExpiresAt,
		MinPurchase:   in.MinPurchase,
	}
	err := u.coupons.Create(ctx, &c)
	if err == repo.ErrDuplicate {
		return model.Coupon{}, NewHTTPError(http.StatusConflict, "coupon code already exists")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, adminUserID, model.AuditActionUpsertCoupon, c.ID, nil, c)
	return c, nil
}

func (u *CouponUsecase) AdminUpdate(ctx context.Context, adminUserID int64, couponID int64, in CouponInput) (model.Coupon, error) {
	if couponID <= 0 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := in.validate(); err != nil {
		return model.Coupon{}, err
	}

	before, err := u.coupons.FindByID(ctx, couponID)
	if err == repo.ErrNotFound {
		return model.Coupon{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	after := before
	after.Code = NormalizeCouponCode(in.Code)
	after.DiscountType = in.DiscountType
	after.DiscountValue = in.DiscountValue
	after.ExpiresAt = in.ExpiresAt
	after.MinPurchase = in.MinPurchase

	err = u.coupons.Update(ctx, after)
	if err == repo.ErrDuplicate {
		return model.Coupon{}, NewHTTPError(http.StatusConflict, "coupon code already exists")
	}
	if err == repo.ErrNotFound {
		return model.Coupon{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, adminUserID, model.AuditActionUpsertCoupon, couponID, before, after)
	return after, nil
}

func (u *CouponUsecase) AdminDelete(ctx context.Context, adminUserID int64, couponID int64) error {
	if couponID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.coupons.Delete(ctx, couponID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.writeAudit(ctx, adminUserID, model.AuditActionDeleteCoupon, couponID, nil, nil)
	return nil
}

// 監査ログは失敗しても本処理は成功扱い
func (u *CouponUsecase) writeAudit(ctx context.Context, actor int64, action model.AuditAction, id int64, before, after interface{}) {
	if u.audit == nil {
		return
	}
	_ = u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceCoupon,
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
	})
}

func toJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
