package model

import "time"

// 注文時点のスナップショット（以後は商品と連動しない）
type OrderItem struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64     `gorm:"not null;index" json:"order_id"`
	ProductID     int64     `gorm:"not null;index" json:"product_id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Price         int64     `gorm:"not null" json:"price"`
	Image         string    `gorm:"type:text" json:"image"`
	SelectedColor string    `gorm:"type:varchar(50)" json:"selected_color,omitempty"`
	SelectedSize  string    `gorm:"type:varchar(50)" json:"selected_size,omitempty"`
	Quantity      int64     `gorm:"not null" json:"quantity"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
