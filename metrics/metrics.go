package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "admissionbot"

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ActiveConversations prometheus.Gauge
	ChatRequests        *prometheus.CounterVec
	ChatLatency         prometheus.Histogram
	OracleSelections    *prometheus.CounterVec
	ToolCalls           *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveConversations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_conversations",
			Help:      "Number of users with an in-memory conversation.",
		}),
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		ChatLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "chat_latency_seconds",
			Help:      "Time spent producing a reply.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		OracleSelections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "oracle_selections_total",
			Help:      "Semester selections by how they were produced.",
		}, []string{"outcome"}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tool_calls_total",
			Help:      "Agent tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}
}

func (m *Metrics) SetActiveConversations(n int) {
	if m == nil {
		return
	}
	m.ActiveConversations.Set(float64(n))
}

func (m *Metrics) ObserveChat(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(outcome).Inc()
	m.ChatLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveSelection(outcome string) {
	if m == nil {
		return
	}
	m.OracleSelections.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
