package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

func percentCouponModel(code string, v int64) model.Coupon {
	return model.Coupon{ID: 1, Code: code, DiscountType: model.DiscountPercentage, DiscountValue: decimal.NewFromInt(v)}
}

// =====================
// Apply
// =====================

// 入力は空白除去+大文字化してから引く
func TestCouponUsecase_Apply_NormalizesCode(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("FindByCode", mock.Anything, "SAVE10").Return(percentCouponModel("SAVE10", 10), nil)

	uc := usecase.NewCouponUsecase(coupons, nil)

	c, err := uc.Apply(context.Background(), "  save10 ", 5000)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
	coupons.AssertExpectations(t)
}

func TestCouponUsecase_Apply_Unknown(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("FindByCode", mock.Anything, "NOPE").Return(model.Coupon{}, repo.ErrNotFound)

	uc := usecase.NewCouponUsecase(coupons, nil)

	_, err := uc.Apply(context.Background(), "nope", 5000)
	assertErrContains(t, err, "invalid coupon")
}

func TestCouponUsecase_Apply_EmptyCode(t *testing.T) {
	uc := usecase.NewCouponUsecase(new(CouponRepoMock), nil)

	_, err := uc.Apply(context.Background(), "   ", 5000)
	assertErrContains(t, err, "coupon code required")
}

// 期限切れは小計に関係なく拒否
func TestCouponUsecase_Apply_Expired(t *testing.T) {
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	c := percentCouponModel("OLD", 10)
	c.ExpiresAt = &past

	coupons := new(CouponRepoMock)
	coupons.On("FindByCode", mock.Anything, "OLD").Return(c, nil)
	uc := usecase.NewCouponUsecase(coupons, nil)

	for _, subtotal := range []int64{0, 1, 20000, 10_000_000} {
		_, err := uc.Apply(context.Background(), "OLD", subtotal)
		assertErrContains(t, err, "coupon expired")
	}
}

func TestCouponUsecase_Apply_MinPurchaseInclusive(t *testing.T) {
	c := percentCouponModel("BIG", 5)
	c.MinPurchase = int64Ptr(20000)

	coupons := new(CouponRepoMock)
	coupons.On("FindByCode", mock.Anything, "BIG").Return(c, nil)
	uc := usecase.NewCouponUsecase(coupons, nil)

	_, err := uc.Apply(context.Background(), "BIG", 19999)
	assertErrContains(t, err, "minimum purchase of 20000 required")

	_, err = uc.Apply(context.Background(), "BIG", 20000)
	assert.NoError(t, err)
}

// =====================
// Admin
// =====================

func TestCouponUsecase_AdminCreate_StoresUppercaseAndAudits(t *testing.T) {
	coupons := new(CouponRepoMock)
	audit := new(AuditRepoMock)

	coupons.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Coupon) bool {
		return c.Code == "WELCOME5"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Coupon).ID = 3
	}).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpsertCoupon && l.ResourceID == 3 && l.ActorUserID == 1
	})).Return(nil)

	uc := usecase.NewCouponUsecase(coupons, audit)

	c, err := uc.AdminCreate(context.Background(), 1, usecase.CouponInput{
		Code:          " welcome5",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME5", c.Code)

	coupons.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestCouponUsecase_AdminCreate_Validation(t *testing.T) {
	uc := usecase.NewCouponUsecase(new(CouponRepoMock), nil)

	cases := []struct {
		name string
		in   usecase.CouponInput
		want string
	}{
		{"no code", usecase.CouponInput{DiscountType: model.DiscountFixed, DiscountValue: decimal.NewFromInt(1)}, "code required"},
		{"bad type", usecase.CouponInput{Code: "X", DiscountType: "bogo", DiscountValue: decimal.NewFromInt(1)}, "invalid discount_type"},
		{"over 100", usecase.CouponInput{Code: "X", DiscountType: model.DiscountPercentage, DiscountValue: decimal.NewFromInt(101)}, "percentage must be <= 100"},
		{"negative", usecase.CouponInput{Code: "X", DiscountType: model.DiscountFixed, DiscountValue: decimal.NewFromInt(-1)}, "discount_value must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AdminCreate(context.Background(), 1, tc.in)
			assertErrContains(t, err, tc.want)
		})
	}
}

func TestCouponUsecase_AdminCreate_Duplicate(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("Create", mock.Anything, mock.Anything).Return(repo.ErrDuplicate)
	uc := usecase.NewCouponUsecase(coupons, nil)

	_, err := uc.AdminCreate(context.Background(), 1, usecase.CouponInput{
		Code: "SAVE10", DiscountType: model.DiscountPercentage, DiscountValue: decimal.NewFromInt(10),
	})
	assertErrContains(t, err, "coupon code already exists")
}

func TestCouponUsecase_AdminDelete_NotFound(t *testing.T) {
	coupons := new(CouponRepoMock)
	coupons.On("Delete", mock.Anything, int64(9)).Return(repo.ErrNotFound)
	uc := usecase.NewCouponUsecase(coupons, nil)

	err := uc.AdminDelete(context.Background(), 1, 9)
	assertErrContains(t, err, "not found")
}
