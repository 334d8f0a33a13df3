// Package metrics exposes Prometheus collectors for inbound routes and the
// outbound calls made to the board and completion services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service labels for upstream collectors.
const (
	ServiceMiro   = "miro"
	ServiceOpenAI = "openai"
)

// Metrics contains the gateway's collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Inbound
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	// Outbound
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with Go and process collectors included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miro_gateway_http_requests_total",
				Help: "Total number of inbound HTTP requests",
			},
			[]string{"code", "method"},
		),

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "miro_gateway_http_request_duration_seconds",
				Help:    "Inbound HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code", "method"},
		),

		httpInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "miro_gateway_http_in_flight_requests",
				Help: "Inbound HTTP requests currently being served",
			},
		),

		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miro_gateway_upstream_requests_total",
				Help: "Total number of requests sent to upstream services",
			},
			[]string{"service", "code", "method"},
		),

		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "miro_gateway_upstream_request_duration_seconds",
				Help:    "Upstream round-trip latency",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"service", "code", "method"},
		),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentHandler records count, latency and in-flight requests for next.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(m.httpInFlight,
		promhttp.InstrumentHandlerDuration(m.httpDuration,
			promhttp.InstrumentHandlerCounter(m.httpRequests, next),
		),
	)
}

// Transport wraps next so calls to service are counted and timed. A nil next
// means http.DefaultTransport.
func (m *Metrics) Transport(service string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	labels := prometheus.Labels{"service": service}
	return promhttp.InstrumentRoundTripperCounter(m.upstreamRequests.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(m.upstreamDuration.MustCurryWith(labels), next),
	)
}

// HTTPClient returns a client for service using m's instrumented transport.
func (m *Metrics) HTTPClient(service string, base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = m.Transport(service, c.Transport)
	return c
}
