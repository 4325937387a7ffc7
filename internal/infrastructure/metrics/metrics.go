package metrics

import (
	"net/http"
	"time"

	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ output.MetricsPort = (*Metrics)(nil)

// Buckets cover a fast direct POST up to a slow page load.
var ForwardBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Metrics owns a private registry so tests and multiple servers don't collide
// on the global default one.
type Metrics struct {
	registry *prometheus.Registry

	forwardTotal    *prometheus.CounterVec
	forwardDuration *prometheus.HistogramVec
	invalidPayloads prometheus.Counter
	browserReady    prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		forwardTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_bridge_forward_total",
				Help: "Total number of forwarded webhooks",
			},
			[]string{"strategy", "outcome"},
		),
		forwardDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_bridge_forward_duration_seconds",
				Help:    "Time spent forwarding a webhook",
				Buckets: ForwardBuckets,
			},
			[]string{"strategy"},
		),
		invalidPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webhook_bridge_invalid_payload_total",
			Help: "Inbound webhooks rejected because the body was not a JSON object",
		}),
		browserReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webhook_bridge_browser_ready",
			Help: "1 while the shared browser page is available",
		}),
	}

	reg.MustRegister(
		m.forwardTotal,
		m.forwardDuration,
		m.invalidPayloads,
		m.browserReady,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveForward(strategy entity.Strategy, outcome string, took time.Duration) {
	m.forwardTotal.WithLabelValues(string(strategy), outcome).Inc()
	m.forwardDuration.WithLabelValues(string(strategy)).Observe(took.Seconds())
}

func (m *Metrics) InvalidPayload() {
	m.invalidPayloads.Inc()
}

func (m *Metrics) BrowserReady(ready bool) {
	if ready {
		m.browserReady.Set(1)
		return
	}
	m.browserReady.Set(0)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
