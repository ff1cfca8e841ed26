package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CheckoutGormRepository struct {
	db *gorm.DB
}

func NewCheckoutGormRepository(db *gorm.DB) *CheckoutGormRepository {
	return &CheckoutGormRepository{db: db}
}

func (r *CheckoutGormRepository) Create(ctx context.Context, s *model.CheckoutSession) error {
	return mapErr(r.db.WithContext(ctx).Create(s).Error)
}

func (r *CheckoutGormRepository) FindByReference(ctx context.Context, reference string) (model.CheckoutSession, error) {
	var s model.CheckoutSession
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&s).Error; err != nil {
		return model.CheckoutSession{}, mapErr(err)
	}
	return s, nil
}

// 状態と結果だけ更新
func (r *CheckoutGormRepository) Update(ctx context.Context, s model.CheckoutSession) error {
	res := r.db.WithContext(ctx).Model(&model.CheckoutSession{ID: s.ID}).
		Select("state", "order_id", "failure_message").
		Updates(&s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var _ repo.CheckoutRepository = (*CheckoutGormRepository)(nil)
