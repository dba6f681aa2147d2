package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports client metrics as Prometheus collectors.
type PrometheusRecorder struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	networkErrors prometheus.Counter
	cleared       prometheus.Counter
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	p := &PrometheusRecorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitgoalz",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and response status class.",
		}, []string{"method", "status_class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fitgoalz",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		networkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitgoalz",
			Subsystem: "client",
			Name:      "network_errors_total",
			Help:      "Requests that received no response.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitgoalz",
			Subsystem: "client",
			Name:      "credentials_cleared_total",
			Help:      "Stored credentials cleared after an unauthorized response.",
		}),
	}

	for _, c := range []prometheus.Collector{p.requests, p.duration, p.networkErrors, p.cleared} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ObserveRequest records one exchange.
func (p *PrometheusRecorder) ObserveRequest(method string, status int, duration time.Duration) {
	p.requests.WithLabelValues(method, StatusClass(status)).Inc()
	p.duration.WithLabelValues(method).Observe(duration.Seconds())
}

// IncNetworkError increments the network error counter.
func (p *PrometheusRecorder) IncNetworkError() {
	p.networkErrors.Inc()
}

// IncCredentialCleared increments the cleared credential counter.
func (p *PrometheusRecorder) IncCredentialCleared() {
	p.cleared.Inc()
}
