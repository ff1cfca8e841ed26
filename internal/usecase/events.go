package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/infra/broker"
	"storefront/internal/metrics"
)

// 送れなくても処理は止めない
func publish(ctx context.Context, pub broker.Publisher, log *zap.Logger, key, eventType string, payload interface{}) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := pub.Publish(ctx, key, broker.Event{
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	})
	if err != nil {
		metrics.EventPublishFailuresTotal.WithLabelValues(eventType).Inc()
		log.Warn("event publish failed",
			zap.String("type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
