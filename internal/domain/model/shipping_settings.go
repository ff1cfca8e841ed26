package model

import "time"

// 送料設定は1行だけ（id=1）
const ShippingSettingsID int64 = 1

const ShippingTypeFlatRate = "flat_rate"

type ShippingSettings struct {
	ID                    int64     `gorm:"primaryKey" json:"-"`
	Type                  string    `gorm:"type:varchar(20);not null;default:'flat_rate'" json:"type"`
	Rate                  int64     `gorm:"not null;default:0" json:"rate"`
	FreeShippingThreshold *int64    `json:"free_shipping_threshold"`
	IsFreeShippingEnabled bool      `gorm:"not null;default:false" json:"is_free_shipping_enabled"`
	UpdatedAt             time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 未設定のときの値
func DefaultShippingSettings() ShippingSettings {
	return ShippingSettings{
		ID:                    ShippingSettingsID,
		Type:                  ShippingTypeFlatRate,
		Rate:                  0,
		FreeShippingThreshold: nil,
		IsFreeShippingEnabled: false,
	}
}
