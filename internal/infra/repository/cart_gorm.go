package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカートを取得
func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return model.Cart{}, mapErr(err)
	}
	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}
	return cart, nil
}

// 明細をまるごと置き換える。無ければ作る
func (r *CartGormRepository) Save(ctx context.Context, userID int64, lines []model.CartLine) error {
	if lines == nil {
		lines = []model.CartLine{}
	}
	cart := model.Cart{UserID: userID, Lines: lines}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"lines", "updated_at"}),
		}).
		Create(&cart).Error
}

// 明細を空にする（行は残す）
func (r *CartGormRepository) Clear(ctx context.Context, userID int64) error {
	return r.Save(ctx, userID, []model.CartLine{})
}

var _ repo.CartRepository = (*CartGormRepository)(nil)
