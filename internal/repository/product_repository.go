package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page  int
	Limit int
	Q     string
	// featured / trending / new / flash_sale / カテゴリ名
	Filter string
	// best-sellers / most-rated / most-liked / 空ならcreated_at desc
	Sort string
	// 非公開も含めるか（管理者）
	IncludeHidden bool
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	// 行ロック付き（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	// likes+1して新しい値を返す
	IncrementLikes(ctx context.Context, id int64) (int64, error)
	UpdateReviewStats(ctx context.Context, id int64, rating float64, reviewCount int64) error
}
