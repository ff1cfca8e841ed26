package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationGormRepository) CreateBulk(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now()
	for i := range ns {
		if ns[i].CreatedAt.IsZero() {
			ns[i].CreatedAt = now
		}
	}
	return r.db.WithContext(ctx).Create(&ns).Error
}

func (r *NotificationGormRepository) FindByID(ctx context.Context, id int64) (model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return model.Notification{}, mapErr(err)
	}
	return n, nil
}

func (r *NotificationGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Notification, error) {
	var list []model.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *NotificationGormRepository) ListAnnouncements(ctx context.Context) ([]model.Notification, error) {
	var list []model.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id IS NULL").
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *NotificationGormRepository) ListReadAnnouncementIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&model.AnnouncementRead{}).
		Where("user_id = ?", userID).
		Pluck("notification_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *NotificationGormRepository) MarkRead(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *NotificationGormRepository) MarkAllReadByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// 既にあるレシートはそのまま
func (r *NotificationGormRepository) UpsertReadReceipts(ctx context.Context, userID int64, notificationIDs []int64, at time.Time) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	rows := make([]model.AnnouncementRead, 0, len(notificationIDs))
	for _, id := range notificationIDs {
		rows = append(rows, model.AnnouncementRead{NotificationID: id, UserID: userID, ReadAt: at})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// 自分宛てだけ消す（お知らせは残る）
func (r *NotificationGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Notification{}).Error
}

func (r *NotificationGormRepository) DeleteAllAnnouncements(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.Notification{}).Select("id").Where("user_id IS NULL")
		if err := tx.Where("notification_id IN (?)", sub).Delete(&model.AnnouncementRead{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id IS NULL").Delete(&model.Notification{}).Error
	})
}

var _ repo.NotificationRepository = (*NotificationGormRepository)(nil)
