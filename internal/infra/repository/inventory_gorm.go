package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 販売分の反映。行をロックして減算量を決め、在庫減算とsales加算は同じUPDATEで行う
func (r *InventoryGormRepository) ApplySale(ctx context.Context, productID int64, qty int64, strict bool) (int64, error) {
	var cur model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "stock_quantity").
		Where("id = ?", productID).
		Take(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	applied := qty
	if cur.StockQuantity < qty {
		if strict {
			return 0, nil
		}
		applied = max(cur.StockQuantity, 0)
	}

	q := r.db.WithContext(ctx).Model(&model.Product{})
	updates := map[string]interface{}{
		"sales": gorm.Expr("sales + ?", qty),
	}
	if strict {
		//在庫が足りるときだけ減算
		q = q.Where("id = ? AND stock_quantity >= ?", productID, qty)
		updates["stock_quantity"] = gorm.Expr("stock_quantity - ?", qty)
	} else {
		// 0で止める
		q = q.Where("id = ?", productID)
		updates["stock_quantity"] = gorm.Expr("GREATEST(stock_quantity - ?, 0)", qty)
	}

	res := q.UpdateColumns(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, nil
	}
	return applied, nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

var _ repo.InventoryRepository = (*InventoryGormRepository)(nil)
