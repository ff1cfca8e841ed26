package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CheckoutRepository interface {
	Create(ctx context.Context, s *model.CheckoutSession) error
	FindByReference(ctx context.Context, reference string) (model.CheckoutSession, error)
	Update(ctx context.Context, s model.CheckoutSession) error
}
