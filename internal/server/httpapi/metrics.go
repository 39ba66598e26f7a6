package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several handlers can live in one
// process (tests build many).
type Metrics struct {
	registry *prometheus.Registry
	auth     *prometheus.CounterVec
	requests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lingoplay",
			Name:      "auth_events_total",
			Help:      "Authentication operations by outcome.",
		}, []string{"operation", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lingoplay",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
	}
	m.registry.MustRegister(
		m.auth,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// observeAuth counts one authentication operation; the outcome is "ok" or
// the reason of err.
func (m *Metrics) observeAuth(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = common.Reason(err)
	}
	m.auth.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) observeRequest(r *http.Request, status int) {
	route := "unmatched"
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
