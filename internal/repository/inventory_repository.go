package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 販売分を反映し、実際に減らした在庫数を返す
	// strict=falseなら在庫は0で止める。strict=trueなら足りないとき何もせず0
	ApplySale(ctx context.Context, productID int64, qty int64, strict bool) (int64, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
