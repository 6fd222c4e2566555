package observability

import (
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for Monev.
type Metrics struct {
	// Registry is exposed so /metrics can serve it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	tokensUsed        *prometheus.CounterVec
	categorizations   *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	recurringDetected prometheus.Counter
}

// NewMetrics registers every metric in a private registry, so tests can
// call it repeatedly without duplicate-collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "monev_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monev_external_errors_total",
				Help: "Failures of external collaborators (store, ai, telegram, amqp).",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monev_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monev_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monev_ai_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		categorizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monev_categorizations_total",
				Help: "Categorizations by the source that produced them (ai, rules, fallback).",
			},
			[]string{"source"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monev_notifications_total",
				Help: "Chat notifications by outcome.",
			},
			[]string{"status"},
		),
		recurringDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "monev_recurring_candidates_total",
				Help: "Recurring charges found by detection runs.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrCategorization counts a categorization by its source.
func (m *Metrics) IncrCategorization(source string) {
	m.categorizations.WithLabelValues(source).Inc()
}

// IncrNotification counts a delivery attempt; status is "sent" or "failed".
func (m *Metrics) IncrNotification(status string) {
	m.notifications.WithLabelValues(status).Inc()
}

// AddRecurringDetected adds n detected recurring charges.
func (m *Metrics) AddRecurringDetected(n int) {
	m.recurringDetected.Add(float64(n))
}

// UsageSnapshot reads the current counter values for GET /v1/metrics/usage.
func (m *Metrics) UsageSnapshot() *domain.UsageSnapshot {
	prompt := counterValue(m.tokensUsed.WithLabelValues("prompt"))
	completion := counterValue(m.tokensUsed.WithLabelValues("completion"))

	ai := counterValue(m.categorizations.WithLabelValues("ai"))
	rules := counterValue(m.categorizations.WithLabelValues("rules"))
	fallback := counterValue(m.categorizations.WithLabelValues("fallback"))
	total := ai + rules + fallback

	hits := counterValue(m.cacheHits.WithLabelValues("drafts"))
	misses := counterValue(m.cacheMisses.WithLabelValues("drafts"))

	s := &domain.UsageSnapshot{
		PromptTokens:     int64(prompt),
		CompletionTokens: int64(completion),
		// gpt-4o-mini list price: $0.15/1M prompt, $0.60/1M completion.
		EstimatedCostUsd:    prompt/1e6*0.15 + completion/1e6*0.60,
		Categorizations:     int64(total),
		NotificationsSent:   int64(counterValue(m.notifications.WithLabelValues("sent"))),
		NotificationsFailed: int64(counterValue(m.notifications.WithLabelValues("failed"))),
		RecurringDetected:   int64(counterValue(m.recurringDetected)),
	}
	if total > 0 {
		s.FallbackRate = fallback / total
	}
	if hits+misses > 0 {
		s.DraftCacheHitRate = hits / (hits + misses)
	}
	return s
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
