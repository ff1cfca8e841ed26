package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type RestockGormRepository struct {
	db *gorm.DB
}

func NewRestockGormRepository(db *gorm.DB) *RestockGormRepository {
	return &RestockGormRepository{db: db}
}

// 同じ商品・同じユーザーのpendingがあるか
func (r *RestockGormRepository) FindPending(ctx context.Context, productID, userID int64) (model.RestockSubscription, bool, error) {
	var s model.RestockSubscription
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ? AND status = ?", productID, userID, model.RestockPending).
		First(&s).Error
	if isNotFound(err) {
		return model.RestockSubscription{}, false, nil
	}
	if err != nil {
		return model.RestockSubscription{}, false, err
	}
	return s, true, nil
}

// pendingの重複はErrDuplicate
func (r *RestockGormRepository) Create(ctx context.Context, s *model.RestockSubscription) error {
	return mapErr(r.db.WithContext(ctx).Create(s).Error)
}

func (r *RestockGormRepository) List(ctx context.Context) ([]model.RestockSubscription, error) {
	var list []model.RestockSubscription
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *RestockGormRepository) ListPendingForUpdate(ctx context.Context, productID int64) ([]model.RestockSubscription, error) {
	var list []model.RestockSubscription
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND status = ?", productID, model.RestockPending).
		Order("id asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *RestockGormRepository) MarkNotified(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.RestockSubscription{}).
		Where("id IN ?", ids).
		Update("status", model.RestockNotified).Error
}

var _ repo.RestockRepository = (*RestockGormRepository)(nil)
