package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPacked     OrderStatus = "packed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// 正規の順序
var OrderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// 順序上の位置。未知のステータスは-1
func (s OrderStatus) Rank() int {
	for i, v := range OrderStatusSequence {
		if v == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.Rank() >= 0
}

const PaymentStatusPaid = "paid"

type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

type Order struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	StatusHistory []StatusEntry `gorm:"serializer:json;type:jsonb" json:"status_history"`

	Subtotal    int64   `gorm:"not null" json:"subtotal"`
	Discount    int64   `gorm:"not null;default:0" json:"discount"`
	CouponCode  *string `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	ShippingFee int64   `gorm:"not null;default:0" json:"shipping_fee"`
	Total       int64   `gorm:"not null" json:"total"`

	Shipping ShippingDetails `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_details"`

	// 同じ決済参照で2件目は作らない
	PaymentReference string `gorm:"type:varchar(255);not null;uniqueIndex" json:"payment_reference"`
	PaymentStatus    string `gorm:"type:varchar(20);not null" json:"payment_status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
