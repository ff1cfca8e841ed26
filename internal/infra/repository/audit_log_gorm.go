package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type auditLogGormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db, now: time.Now}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now()
	}
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *auditLogGormRepository) List(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.AuditLog{}).Scopes(auditFilter(q))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	offset := max(q.Offset, 0)

	var logs []model.AuditLog
	if err := base.Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func auditFilter(q repo.AuditLogQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.ActorUserID > 0 {
			db = db.Where("actor_user_id = ?", q.ActorUserID)
		}
		if q.Action != "" {
			db = db.Where("action = ?", q.Action)
		}
		if q.ResourceType != "" {
			db = db.Where("resource_type = ?", q.ResourceType)
		}
		if q.ResourceID > 0 {
			db = db.Where("resource_id = ?", q.ResourceID)
		}
		if q.From != nil {
			db = db.Where("created_at >= ?", *q.From)
		}
		if q.To != nil {
			db = db.Where("created_at <= ?", *q.To)
		}
		return db
	}
}
