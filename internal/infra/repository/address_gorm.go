package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type addressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func ownedBy(userID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	err := r.db.WithContext(ctx).Create(&address).Error
	return address, mapErr(err)
}

func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	list := []model.Address{}
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(userID)).
		Order("is_default DESC").
		Order("id").
		Find(&list).Error
	return list, mapErr(err)
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Where("id = ?", addressID).Take(&a).Error
	return a, mapErr(err)
}

func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	fields := map[string]any{
		"name":       address.Name,
		"email":      address.Email,
		"phone":      address.Phone,
		"address":    address.Address,
		"city":       address.City,
		"zip":        address.Zip,
		"updated_at": address.UpdatedAt,
	}
	res := r.db.WithContext(ctx).Model(&model.Address{}).
		Scopes(ownedBy(address.UserID)).
		Where("id = ?", address.ID).
		Updates(fields)
	return affectedOne(res)
}

func (r *addressGormRepository) Delete(ctx context.Context, userID, addressID int64) error {
	res := r.db.WithContext(ctx).
		Scopes(ownedBy(userID)).
		Where("id = ?", addressID).
		Delete(&model.Address{})
	return affectedOne(res)
}

// 対象行をtrue、それ以外をfalseにする1文の更新
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.Address
		if err := tx.Scopes(ownedBy(userID)).Where("id = ?", addressID).Take(&target).Error; err != nil {
			return mapErr(err)
		}
		return tx.Model(&model.Address{}).
			Scopes(ownedBy(userID)).
			Where("is_default OR id = ?", addressID).
			Update("is_default", gorm.Expr("id = ?", addressID)).Error
	})
}

func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
