package model

import "time"

type AuditAction string

// 管理操作の種類
const (
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionDeleteOrder       AuditAction = "DELETE_ORDER"
	AuditActionUpsertCoupon      AuditAction = "UPSERT_COUPON"
	AuditActionDeleteCoupon      AuditAction = "DELETE_COUPON"
	AuditActionUpdateShipping    AuditAction = "UPDATE_SHIPPING"
)

type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceUser     AuditResourceType = "user"
	AuditResourceCoupon   AuditResourceType = "coupon"
	AuditResourceSettings AuditResourceType = "settings"
)

// 管理者の変更履歴。before/afterは対象の差分をJSON文字列で持つ。
// 追記のみで更新・削除はしない。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index:idx_audit_resource" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index:idx_audit_resource" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json"`
	AfterJSON    string            `gorm:"type:text" json:"after_json"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}
