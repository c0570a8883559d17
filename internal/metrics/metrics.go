package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway holds the gateway's collectors on a private registry so that
// several servers (and tests) can coexist in one process.
type Gateway struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	UpstreamFailures *prometheus.CounterVec
}

// NewGateway creates and registers the gateway collectors.
func NewGateway() *Gateway {
	g := &Gateway{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_gateway_requests_total",
				Help: "Gateway requests by route and response status",
			},
			[]string{"route", "status"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_gateway_upstream_duration_seconds",
				Help:    "Backend call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"route"},
		),
		UpstreamFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_gateway_upstream_failures_total",
				Help: "Backend calls that failed or returned a non-success status",
			},
			[]string{"route"},
		),
	}
	g.Registry.MustRegister(g.RequestsTotal, g.UpstreamDuration, g.UpstreamFailures)
	return g
}

// ObserveRequest records one completed gateway request.
func (g *Gateway) ObserveRequest(route string, status int) {
	g.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveUpstream records one backend call.
func (g *Gateway) ObserveUpstream(route string, d time.Duration, failed bool) {
	g.UpstreamDuration.WithLabelValues(route).Observe(d.Seconds())
	if failed {
		g.UpstreamFailures.WithLabelValues(route).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (g *Gateway) Handler() http.Handler {
	return promhttp.HandlerFor(g.Registry, promhttp.HandlerOpts{})
}
