package model

import "time"

// チェックアウト開始時点の明細
type CheckoutLine struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Image         string `json:"image"`
	SelectedColor string `json:"selected_color,omitempty"`
	SelectedSize  string `json:"selected_size,omitempty"`
	Quantity      int64  `json:"quantity"`
}

// 決済1回分のチェックアウト
type CheckoutSession struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	Reference string `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	State     string `gorm:"type:varchar(30);not null;index" json:"state"`

	Shipping   ShippingDetails `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_details"`
	CouponCode *string         `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`

	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	Discount    int64 `gorm:"not null" json:"discount"`
	ShippingFee int64 `gorm:"not null" json:"shipping_fee"`
	Total       int64 `gorm:"not null" json:"total"`
	// 決済代行に渡す金額（最小通貨単位）
	Amount int64 `gorm:"not null" json:"amount"`

	Lines []CheckoutLine `gorm:"serializer:json;type:jsonb" json:"lines"`

	OrderID        *int64 `json:"order_id,omitempty"`
	FailureMessage string `gorm:"type:text" json:"failure_message,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
