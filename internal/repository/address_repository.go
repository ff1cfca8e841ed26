package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 保存済み配送先。更新系はuserIDで所有者を絞る
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)
	// デフォルトが先頭、あとは作成順
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	// address.UserIDの持ち物でなければErrNotFound
	Update(ctx context.Context, address model.Address) error
	// 注文から参照されていればErrInUse
	Delete(ctx context.Context, userID, addressID int64) error
	// ユーザー内でデフォルトは常に1件以下
	SetDefault(ctx context.Context, userID, addressID int64) error
}
