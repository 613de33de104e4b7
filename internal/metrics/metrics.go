package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotlog_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shotlog_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Business metrics (gauges updated periodically by collector)
var (
	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shotlog_users_total",
		Help: "Total number of aliases that have logged in",
	})

	BeansTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shotlog_beans_total",
		Help: "Total number of beans across all users",
	})

	ShotsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shotlog_shots_total",
		Help: "Total number of logged shots across all users",
	})
)

// Event counters (incremented on occurrence)
var (
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotlog_logins_total",
		Help: "Total number of login attempts",
	}, []string{"status"})

	ShotsLoggedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotlog_shots_logged_total",
		Help: "Total number of shots logged, by diagnosis",
	}, []string{"kind"})

	AdviceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotlog_advice_requests_total",
		Help: "Total number of advice previews, by diagnosis",
	}, []string{"kind"})

	BeansSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotlog_beans_saved_total",
		Help: "Total number of bean write operations",
	}, []string{"operation"})

	ExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotlog_exports_total",
		Help: "Total number of CSV exports",
	})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) < 3 || segments[0] != "api" {
		return path
	}

	if segments[1] == "suggestions" && len(segments) == 3 {
		return "/api/suggestions/:field"
	}
	if segments[1] != "beans" {
		return path
	}

	// /api/beans/{id} and /api/beans/{id}/shots
	switch {
	case len(segments) == 3:
		return "/api/beans/:id"
	case len(segments) == 4 && segments[3] == "shots":
		return "/api/beans/:id/shots"
	}

	return path
}

func splitPath(path string) []string {
	// Skip leading slash
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	// Split on /
	var segments []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		segments = append(segments, path[start:])
	}
	return segments
}
