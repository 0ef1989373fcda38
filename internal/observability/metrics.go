package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the chatbot, plus the
// in-process latency window behind the /v1/stats snapshot. One injected
// instance per process; tests build their own with a private registry.
type Metrics struct {
	Conversations  *prometheus.CounterVec
	LLMLatency     prometheus.Histogram
	LLMErrors      *prometheus.CounterVec
	InputBlocked   prometheus.Counter
	OutputBlocked  prometheus.Counter
	RateLimitHits  prometheus.Counter
	HTTPErrors     *prometheus.CounterVec
	StrategyServed *prometheus.CounterVec

	window *LatencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return newMetrics(namespace, promauto.With(prometheus.DefaultRegisterer))
}

// NewMetricsWithRegistry keeps test state isolated from the default registry.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	return newMetrics(namespace, promauto.With(reg))
}

func newMetrics(namespace string, factory promauto.Factory) *Metrics {
	return &Metrics{
		Conversations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_total",
			Help:      "Processed conversation turns by outcome status.",
		}, []string{"status"}),
		LLMLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM chat completions.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
		}),
		LLMErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_errors_total",
			Help:      "LLM provider errors by kind (timeout, circuit_open, provider).",
		}, []string{"kind"}),
		InputBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_blocked_total",
			Help:      "User messages rejected by the input filter.",
		}),
		OutputBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_blocked_total",
			Help:      "Model responses rejected by the output filter.",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP error responses by class (4xx, 5xx).",
		}, []string{"class"}),
		StrategyServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_served_total",
			Help:      "Responses served by strategy name.",
		}, []string{"strategy"}),
		window: NewLatencyWindow(1000),
	}
}

// ObserveResponseTime feeds both the Prometheus histogram and the snapshot
// window.
func (m *Metrics) ObserveResponseTime(d time.Duration) {
	m.LLMLatency.Observe(d.Seconds())
	m.window.Observe(float64(d.Milliseconds()))
}

// Snapshot exposes the aggregate latency view (mean, p95) for /v1/stats.
func (m *Metrics) Snapshot() LatencySnapshot {
	return m.window.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
