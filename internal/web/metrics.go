package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	streamEvents prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minishield_dashboard",
			Name:      "http_requests_total",
			Help:      "Facade requests by path and status code.",
		}, []string{"path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "minishield_dashboard",
			Name:      "http_request_duration_seconds",
			Help:      "Facade request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		streamEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "minishield_dashboard",
			Name:      "stream_events_total",
			Help:      "Attack events relayed from the live channel.",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.streamEvents)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records count and latency per routed path.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		m.requests.WithLabelValues(r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		m.duration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
