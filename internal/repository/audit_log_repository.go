package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// ゼロ値の項目は絞り込みに使わない
type AuditLogQuery struct {
	ActorUserID  int64
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順。totalはlimit/offset適用前の件数
	List(ctx context.Context, q AuditLogQuery) (logs []model.AuditLog, total int64, err error)
}
