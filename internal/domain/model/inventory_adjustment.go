package model

import "time"

type AdjustmentKind string

const (
	// 管理画面からの在庫数の上書き
	AdjustmentManual AdjustmentKind = "manual"
	// 支払い確定による減算。Referenceに決済参照が入る
	AdjustmentSale AdjustmentKind = "sale"
)

// 在庫の増減履歴。Deltaは減算なら負
type InventoryAdjustment struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64          `gorm:"not null;index" json:"product_id"`
	ActorUserID int64          `gorm:"not null;index" json:"actor_user_id"`
	Kind        AdjustmentKind `gorm:"type:varchar(20);not null;default:'manual'" json:"kind"`
	Delta       int64          `gorm:"not null" json:"delta"`
	Reference   string         `gorm:"type:varchar(100);index" json:"reference,omitempty"`
	Reason      string         `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}
