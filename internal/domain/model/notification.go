package model

import "time"

type NotificationType string

const (
	NotificationAnnouncement NotificationType = "announcement"
	NotificationRestock      NotificationType = "restock"
	NotificationOrder        NotificationType = "order"
)

// UserIDがnilなら全員向けのお知らせ
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64           `gorm:"index" json:"user_id,omitempty"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Link      string           `gorm:"type:varchar(255)" json:"link,omitempty"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"not null;index" json:"created_at"`
}

func (n Notification) IsAnnouncement() bool {
	return n.UserID == nil
}

// お知らせの既読（ユーザーごと）
type AnnouncementRead struct {
	NotificationID int64     `gorm:"primaryKey" json:"notification_id"`
	UserID         int64     `gorm:"primaryKey" json:"user_id"`
	ReadAt         time.Time `gorm:"not null" json:"read_at"`
}
