package monitoring

import (
	"errors"

	"github.com/payperplay/profiles/internal/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes used as the "result" label
const (
	ResultOK          = "ok"
	ResultParseError  = "parse_error"
	ResultBuildError  = "build_error"
	ResultNotFound    = "not_found"
	ResultSuperseded  = "superseded"
	ResultSaveFailed  = "save_failed"
	ResultFetchFailed = "fetch_failed"
)

// Prometheus metrics for the profile service
var (
	// Edit sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payperplay_profile_sessions_active",
			Help: "Number of open profile edit sessions",
		},
	)

	SessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payperplay_profile_sessions_expired_total",
			Help: "Total number of edit sessions dropped after their idle timeout",
		},
	)

	// Engine operations: open, preview, save, save_raw
	ProfileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payperplay_profile_operations_total",
			Help: "Total number of profile operations by outcome",
		},
		[]string{"operation", "result"},
	)

	ProfileOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payperplay_profile_operation_duration_seconds",
			Help:    "Profile operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ProfileDocumentBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payperplay_profile_document_bytes",
			Help:    "Size of saved profile documents in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 2, 10),
		},
	)

	// Watch feed
	WatchClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payperplay_profile_watch_clients",
			Help: "Number of connected profile watch websocket clients",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payperplay_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payperplay_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// ResultLabel maps an operation error to its "result" label. Errors the
// engine does not define are reported as fetch failures.
func ResultLabel(err error) string {
	if err == nil {
		return ResultOK
	}
	var pe *profile.ParseError
	if errors.As(err, &pe) {
		return ResultParseError
	}
	var be *profile.BuildError
	if errors.As(err, &be) {
		return ResultBuildError
	}
	return ResultFetchFailed
}
