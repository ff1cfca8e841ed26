package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusInStock    ProductStatus = "in_stock"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
	ProductStatusRestocking ProductStatus = "restocking"
)

type Product struct {
	ID               int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string        `gorm:"type:varchar(255);not null" json:"name"`
	Description      string        `gorm:"type:text" json:"description"`
	ShortDescription string        `gorm:"type:varchar(500)" json:"short_description"`
	Price            int64         `gorm:"not null" json:"price"`
	SlashPrice       *int64        `json:"slash_price,omitempty"`
	Image            string        `gorm:"type:text" json:"image"`
	Images           []string      `gorm:"serializer:json;type:jsonb" json:"images"`
	Category         string        `gorm:"type:varchar(100);index" json:"category"`
	Colors           []string      `gorm:"serializer:json;type:jsonb" json:"colors"`
	Sizes            []string      `gorm:"serializer:json;type:jsonb" json:"sizes"`
	StockQuantity    int64         `gorm:"not null;default:0" json:"stock_quantity"`
	Status           ProductStatus `gorm:"type:varchar(20);not null;default:'in_stock'" json:"status"`
	RestockDate      *time.Time    `json:"restock_date,omitempty"`

	// 表示フラグ
	Featured   bool `gorm:"not null;default:false" json:"featured"`
	Trending   bool `gorm:"not null;default:false" json:"trending"`
	NewArrival bool `gorm:"not null;default:false" json:"new_arrival"`
	FlashSale  bool `gorm:"not null;default:false" json:"flash_sale"`
	Visible    bool `gorm:"not null;default:true" json:"visible"`

	// 集計値
	Likes       int64   `gorm:"not null;default:0" json:"likes"`
	Rating      float64 `gorm:"not null;default:0" json:"rating"`
	ReviewCount int64   `gorm:"not null;default:0" json:"review_count"`
	Sales       int64   `gorm:"not null;default:0" json:"sales"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 在庫数から表示用ステータスを決める
// 在庫0以下ならrestocking指定以外はout_of_stock
func DeriveProductStatus(stock int64, stored ProductStatus) ProductStatus {
	if stock > 0 {
		return ProductStatusInStock
	}
	if stored == ProductStatusRestocking {
		return ProductStatusRestocking
	}
	return ProductStatusOutOfStock
}

// 読み込み時に一度だけステータスを確定させる
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.Status = DeriveProductStatus(p.StockQuantity, p.Status)
	return nil
}

// 購入できるか
func (p Product) Purchasable() bool {
	return DeriveProductStatus(p.StockQuantity, p.Status) == ProductStatusInStock
}
