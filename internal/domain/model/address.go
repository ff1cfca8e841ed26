package model

import "time"

// 保存済みの配送先
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	Email string `gorm:"type:varchar(255)" json:"email"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//番地など
	Address string `gorm:"type:varchar(500);not null" json:"address"`

	//市区町村
	City string `gorm:"type:varchar(255);not null" json:"city"`

	//郵便番号
	Zip string `gorm:"type:varchar(20)" json:"zip"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// チェックアウト用の配送先へ変換
func (a Address) ToShippingDetails() ShippingDetails {
	return ShippingDetails{
		Name:    a.Name,
		Email:   a.Email,
		Phone:   a.Phone,
		Address: a.Address,
		City:    a.City,
		Zip:     a.Zip,
	}
}
