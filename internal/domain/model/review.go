package model

import "time"

type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	UserName  string    `gorm:"type:varchar(255)" json:"user_name"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Images    []string  `gorm:"serializer:json;type:jsonb" json:"images"`
	Approved  bool      `gorm:"not null;default:true" json:"approved"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
