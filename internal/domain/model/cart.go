package model

import "time"

// カートの1行。(product_id, color, size)で1行として扱う
type CartLine struct {
	ProductID     int64  `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	SelectedColor string `json:"selected_color,omitempty"`
	SelectedSize  string `json:"selected_size,omitempty"`
}

// 同じ行か（商品と色・サイズが一致）
func (l CartLine) SameVariant(productID int64, color, size string) bool {
	return l.ProductID == productID && l.SelectedColor == color && l.SelectedSize == size
}

// 1ユーザーにつき1行。商品情報は保存しない
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	Lines     []CartLine `gorm:"serializer:json;type:jsonb" json:"lines"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
