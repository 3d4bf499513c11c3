package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-attempt request counts and latencies.
// Register it after RefreshOnUnauthorized so each resend is observed once.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aada_client_requests_total",
				Help: "API requests by method, path and status.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aada_client_request_duration_seconds",
				Help:    "API request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aada_client_retried_requests_total",
			Help: "Requests resent after a token refresh.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.retries)
	return m
}

func (m *Metrics) BeforeRequest(call *Call, _ *http.Request) error {
	if call.Retried {
		m.retries.Inc()
	}
	return nil
}

func (m *Metrics) AfterResponse(_ context.Context, _ Sender, call *Call, resp *http.Response) (*http.Response, error) {
	path := metricPath(call.Path)
	m.requests.WithLabelValues(call.Method, path, strconv.Itoa(resp.StatusCode)).Inc()
	if !call.Started.IsZero() {
		m.duration.WithLabelValues(call.Method, path).Observe(time.Since(call.Started).Seconds())
	}
	return resp, nil
}

// metricPath drops the query string to keep label cardinality bounded.
func metricPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
