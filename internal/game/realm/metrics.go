package realm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway's Prometheus descriptors. A nil *Metrics is a
// valid no-op receiver so tests can skip registration.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	denialsTotal       *prometheus.CounterVec
	silentDropsTotal   *prometheus.CounterVec
	exploitsTotal      prometheus.Counter
	castsCreatedTotal  prometheus.Counter
	continuationsTotal *prometheus.CounterVec
	sessionsConnected  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runegate_requests_total",
			Help: "Action requests received, by request type.",
		}, []string{"type"}),
		denialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runegate_denials_total",
			Help: "Client-visible denials, by request type and error code.",
		}, []string{"type", "code"}),
		silentDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runegate_silent_drops_total",
			Help: "Requests dropped without response, by reason.",
		}, []string{"reason"}),
		exploitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runegate_suspected_exploits_total",
			Help: "Requests only a modified client would send.",
		}),
		castsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runegate_casts_created_total",
			Help: "Cast objects created and acknowledged.",
		}),
		continuationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runegate_continuations_total",
			Help: "Deferred-fetch continuations resumed, by outcome.",
		}, []string{"outcome"}),
		sessionsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "runegate_sessions_connected",
			Help: "Currently attached sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.requestsTotal,
			m.denialsTotal,
			m.silentDropsTotal,
			m.exploitsTotal,
			m.castsCreatedTotal,
			m.continuationsTotal,
			m.sessionsConnected,
		)
	}
	return m
}

func (m *Metrics) request(typ string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(typ).Inc()
}

func (m *Metrics) denial(typ, code string) {
	if m == nil {
		return
	}
	m.denialsTotal.WithLabelValues(typ, code).Inc()
}

func (m *Metrics) silentDrop(reason string) {
	if m == nil {
		return
	}
	m.silentDropsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) exploit() {
	if m == nil {
		return
	}
	m.exploitsTotal.Inc()
}

func (m *Metrics) castCreated() {
	if m == nil {
		return
	}
	m.castsCreatedTotal.Inc()
}

func (m *Metrics) continuation(outcome string) {
	if m == nil {
		return
	}
	m.continuationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) sessions(delta float64) {
	if m == nil {
		return
	}
	m.sessionsConnected.Add(delta)
}
