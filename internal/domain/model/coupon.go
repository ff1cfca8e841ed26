package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 大文字で保存
	Code          string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	DiscountType  DiscountType    `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"discount_value"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	MinPurchase   *int64          `json:"min_purchase,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
