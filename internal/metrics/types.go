package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values shared by callers.
const (
	ImportCreated  = "created"
	ImportUpdated  = "updated"
	ImportRejected = "rejected"

	LinkOK    = "ok"
	LinkError = "error"

	LoginPassword = "password"
	LoginGoogle   = "google"
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	DrillsCreated      prometheus.Counter
	ImportRows         *prometheus.CounterVec
	LinkChecks         *prometheus.CounterVec
	MatchEvents        prometheus.Counter
	MatchUndos         prometheus.Counter
	SessionScores      prometheus.Counter
	Logins             *prometheus.CounterVec
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
	StartupTimeSeconds prometheus.Gauge
}
