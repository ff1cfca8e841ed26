package model

import "time"

type RestockStatus string

const (
	RestockPending  RestockStatus = "pending"
	RestockNotified RestockStatus = "notified"
)

// 同じ商品・ユーザーのpendingは1件だけ（部分ユニーク）
type RestockSubscription struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64         `gorm:"not null;index;uniqueIndex:idx_restock_pending,priority:1,where:status = 'pending'" json:"product_id"`
	UserID    int64         `gorm:"not null;index;uniqueIndex:idx_restock_pending,priority:2,where:status = 'pending'" json:"user_id"`
	Email     string        `gorm:"type:varchar(255);not null" json:"email"`
	Status    RestockStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
}
