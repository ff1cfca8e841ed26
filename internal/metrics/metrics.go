package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed after a verified payment",
	})

	CheckoutFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_failures_total",
		Help: "Checkout failures by reason",
	}, []string{"reason"})

	OrderPlacementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_placement_latency_seconds",
		Help:    "Latency of payment confirmation through order commit",
		Buckets: prometheus.DefBuckets,
	})

	CartSyncFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_sync_failures_total",
		Help: "Cart snapshots that could not be persisted after all retries",
	})

	CartSyncRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_sync_retries_total",
		Help: "Cart snapshot write retries",
	})

	NotificationsFannedOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_created_total",
		Help: "Notifications created by type",
	}, []string{"type"})

	MediaUploadFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_media_upload_fallbacks_total",
		Help: "Media uploads served from the in-process preview store",
	})

	EventPublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_event_publish_failures_total",
		Help: "Domain events that could not be published",
	}, []string{"event"})
)
