package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CouponRepository interface {
	// codeは大文字化済みで渡す
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	FindByID(ctx context.Context, id int64) (model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Create(ctx context.Context, c *model.Coupon) error
	Update(ctx context.Context, c model.Coupon) error
	Delete(ctx context.Context, id int64) error
}
