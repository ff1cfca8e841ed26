package model

// 配送先（注文とチェックアウトに埋め込む）
type ShippingDetails struct {
	Name    string `gorm:"type:varchar(255)" json:"name"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
	Address string `gorm:"type:varchar(500)" json:"address"`
	City    string `gorm:"type:varchar(255)" json:"city"`
	Zip     string `gorm:"type:varchar(20)" json:"zip"`
}
