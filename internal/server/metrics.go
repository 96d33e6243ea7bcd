package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tyrowin/guildchat/internal/realtime"
)

const metricsNamespace = "guildchat"

// Metrics is the Prometheus view of the service. It doubles as the
// realtime.Observer, so every routed, dropped or failed envelope is counted.
type Metrics struct {
	registry *prometheus.Registry

	routed         *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	gatewayFailure *prometheus.CounterVec
	broadcasts     *prometheus.CounterVec
	activeUsers    prometheus.Gauge
	connections    prometheus.Gauge
	rateLimited    prometheus.Counter
}

var _ realtime.Observer = (*Metrics)(nil)

// NewMetrics registers the service collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_routed_total",
			Help:      "Message envelopes handed to a delivery path, by route.",
		}, []string{"route"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_dropped_total",
			Help:      "Inbound frames dropped before reaching the gateway, by reason.",
		}, []string{"reason"}),
		gatewayFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "gateway_failures_total",
			Help:      "Failed persistence or fetch calls, by operation.",
		}, []string{"op"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "broadcasts_total",
			Help:      "Events fanned out to all connections, by event.",
		}, []string{"event"}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_users",
			Help:      "Users in the presence set.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Open WebSocket connections.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_frames_total",
			Help:      "Inbound frames discarded by the per-connection rate limiter.",
		}),
	}

	m.registry.MustRegister(
		m.routed,
		m.dropped,
		m.gatewayFailure,
		m.broadcasts,
		m.activeUsers,
		m.connections,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EnvelopeRouted(route string)   { m.routed.WithLabelValues(route).Inc() }
func (m *Metrics) EnvelopeDropped(reason string) { m.dropped.WithLabelValues(reason).Inc() }
func (m *Metrics) GatewayFailed(op string)       { m.gatewayFailure.WithLabelValues(op).Inc() }
func (m *Metrics) PresenceChanged(active int)    { m.activeUsers.Set(float64(active)) }
