package model

import "time"

type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Banner struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Subtitle  string    `gorm:"type:varchar(500)" json:"subtitle"`
	Image     string    `gorm:"type:text;not null" json:"image"`
	MediaType MediaType `gorm:"type:varchar(10);not null;default:'image'" json:"media_type"`
	Order     int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
