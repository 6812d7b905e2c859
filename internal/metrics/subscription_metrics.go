package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// SubscriptionMetrics интерфейс для метрик жизненного цикла подписки
type SubscriptionMetrics interface {
	IncCheckoutSessionCreated()
	IncSubscriptionCanceled()
	IncWebhookEvent(eventType, outcome string)
	ObserveSweep(stale, repaired int)
}

type subscriptionMetrics struct {
	log              *zap.SugaredLogger
	checkoutSessions prometheus.Counter
	cancellations    prometheus.Counter
	webhookEvents    *prometheus.CounterVec
	sweepStale       prometheus.Counter
	sweepRepaired    prometheus.Counter
}

// NewSubscriptionMetrics создает новые метрики подписок
func NewSubscriptionMetrics(registry *prometheus.Registry, log *zap.SugaredLogger) SubscriptionMetrics {
	return &subscriptionMetrics{
		log: log,
		checkoutSessions: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "The total number of created checkout sessions",
		}),
		cancellations: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "subscriptions_canceled_total",
			Help: "The total number of explicit subscription cancellations",
		}),
		webhookEvents: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "The total number of processed webhook events by type and outcome",
		}, []string{"type", "outcome"}),
		sweepStale: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "reconciliation_stale_subscribers_total",
			Help: "The total number of stale pending subscribers seen by the sweep",
		}),
		sweepRepaired: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "reconciliation_repaired_subscribers_total",
			Help: "The total number of subscribers repaired by the sweep",
		}),
	}
}

// IncCheckoutSessionCreated увеличивает счетчик созданных сессий оплаты
func (m *subscriptionMetrics) IncCheckoutSessionCreated() {
	m.checkoutSessions.Inc()
}

// IncSubscriptionCanceled увеличивает счетчик отмен подписки
func (m *subscriptionMetrics) IncSubscriptionCanceled() {
	m.cancellations.Inc()
}

// IncWebhookEvent увеличивает счетчик вебхук-событий
func (m *subscriptionMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ObserveSweep записывает результат прохода фоновой сверки
func (m *subscriptionMetrics) ObserveSweep(stale, repaired int) {
	m.sweepStale.Add(float64(stale))
	m.sweepRepaired.Add(float64(repaired))
}
