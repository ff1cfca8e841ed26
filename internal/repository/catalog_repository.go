package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, r *model.Review) error
	ListByProductID(ctx context.Context, productID int64, onlyApproved bool) ([]model.Review, error)
	Approve(ctx context.Context, reviewID int64) (model.Review, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error
}

type BannerRepository interface {
	// orderの昇順
	List(ctx context.Context) ([]model.Banner, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, b *model.Banner) error
	Update(ctx context.Context, b model.Banner) error
	Delete(ctx context.Context, id int64) error
}
