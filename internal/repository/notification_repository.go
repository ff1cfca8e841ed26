package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// まとめて作成（Tx内なら全部か0件）
	CreateBulk(ctx context.Context, ns []model.Notification) error
	FindByID(ctx context.Context, id int64) (model.Notification, error)

	ListByUserID(ctx context.Context, userID int64) ([]model.Notification, error)
	ListAnnouncements(ctx context.Context) ([]model.Notification, error)
	// ユーザーが既読にしたお知らせID
	ListReadAnnouncementIDs(ctx context.Context, userID int64) ([]int64, error)

	MarkRead(ctx context.Context, id int64) error
	MarkAllReadByUserID(ctx context.Context, userID int64) error
	// お知らせの既読レシート（重複は無視）
	UpsertReadReceipts(ctx context.Context, userID int64, notificationIDs []int64, at time.Time) error

	DeleteAllByUserID(ctx context.Context, userID int64) error
	DeleteAllAnnouncements(ctx context.Context) error
}
