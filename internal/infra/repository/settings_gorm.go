package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ShippingSettingsGormRepository struct {
	db *gorm.DB
}

func NewShippingSettingsGormRepository(db *gorm.DB) *ShippingSettingsGormRepository {
	return &ShippingSettingsGormRepository{db: db}
}

func (r *ShippingSettingsGormRepository) Get(ctx context.Context) (model.ShippingSettings, error) {
	var s model.ShippingSettings
	if err := r.db.WithContext(ctx).First(&s, model.ShippingSettingsID).Error; err != nil {
		return model.ShippingSettings{}, mapErr(err)
	}
	return s, nil
}

// 1行だけなのでupsert
func (r *ShippingSettingsGormRepository) Save(ctx context.Context, s model.ShippingSettings) error {
	s.ID = model.ShippingSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&s).Error
}

var _ repo.ShippingSettingsRepository = (*ShippingSettingsGormRepository)(nil)
