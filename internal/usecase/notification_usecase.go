package usecase

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

type NotificationUsecase struct {
	tx            repo.TransactionManager
	notifications repo.NotificationRepository
	log           *zap.Logger
	now           func() time.Time
}

func NewNotificationUsecase(tx repo.TransactionManager, notifications repo.NotificationRepository, log *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{tx: tx, notifications: notifications, log: log, now: time.Now}
}

type NotificationOutput struct {
	ID        int64                  `json:"id"`
	Message   string                 `json:"message"`
	Type      model.NotificationType `json:"type"`
	Link      string                 `json:"link,omitempty"`
	IsRead    bool                   `json:"is_read"`
	Global    bool                   `json:"global"`
	CreatedAt time.Time              `json:"created_at"`
}

type AnnouncementInput struct {
	Message string
	Link    string
}

// 自分宛て＋全員向けを新しい順に
func (u *NotificationUsecase) List(ctx context.Context, userID int64) ([]NotificationOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	own, err := u.notifications.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	announcements, err := u.notifications.ListAnnouncements(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	readIDs, err := u.notifications.ListReadAnnouncementIDs(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	read := make(map[int64]bool, len(readIDs))
	for _, id := range readIDs {
		read[id] = true
	}

	out := make([]NotificationOutput, 0, len(own)+len(announcements))
	for _, n := range own {
		out = append(out, toNotificationOutput(n, n.IsRead))
	}
	for _, n := range announcements {
		//お知らせの既読はユーザーごとのレシートで判断
		out = append(out, toNotificationOutput(n, read[n.ID]))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if notificationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	n, err := u.notifications.FindByID(ctx, notificationID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if n.IsAnnouncement() {
		err = u.notifications.UpsertReadReceipts(ctx, userID, []int64{n.ID}, u.now())
	} else {
		if *n.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		err = u.notifications.MarkRead(ctx, n.ID)
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 自分宛てとお知らせをまとめて既読（1Tx）
func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Notifications().MarkAllReadByUserID(ctx, userID); err != nil {
			return err
		}
		announcements, err := r.Notifications().ListAnnouncements(ctx)
		if err != nil {
			return err
		}
		if len(announcements) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(announcements))
		for _, a := range announcements {
			ids = append(ids, a.ID)
		}
		return r.Notifications().UpsertReadReceipts(ctx, userID, ids, u.now())
	})
	return txError(err)
}

// 自分宛てだけ消す（お知らせは残る）
func (u *NotificationUsecase) DeleteAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.notifications.DeleteAllByUserID(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *NotificationUsecase) CreateAnnouncement(ctx context.Context, in AnnouncementInput) (NotificationOutput, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return NotificationOutput{}, NewHTTPError(http.StatusBadRequest, "message required")
	}

	n := model.Notification{
		Message:   msg,
		Type:      model.NotificationAnnouncement,
		Link:      strings.TrimSpace(in.Link),
		CreatedAt: u.now(),
	}
	if err := u.notifications.Create(ctx, &n); err != nil {
		return NotificationOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	metrics.NotificationsFannedOutTotal.WithLabelValues(string(model.NotificationAnnouncement)).Inc()
	u.log.Info("announcement created", zap.Int64("notification_id", n.ID))
	return toNotificationOutput(n, false), nil
}

func (u *NotificationUsecase) DeleteAllAnnouncements(ctx context.Context) error {
	if err := u.notifications.DeleteAllAnnouncements(ctx); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toNotificationOutput(n model.Notification, read bool) NotificationOutput {
	return NotificationOutput{
		ID:        n.ID,
		Message:   n.Message,
		Type:      n.Type,
		Link:      n.Link,
		IsRead:    read,
		Global:    n.IsAnnouncement(),
		CreatedAt: n.CreatedAt,
	}
}
