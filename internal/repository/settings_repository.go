package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 送料設定（1行だけ）
type ShippingSettingsRepository interface {
	// 未設定ならErrNotFound
	Get(ctx context.Context) (model.ShippingSettings, error)
	Save(ctx context.Context, s model.ShippingSettings) error
}
