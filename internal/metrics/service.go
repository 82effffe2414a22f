package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		DrillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basket_drills_created_total",
			Help: "The total number of drills created or duplicated.",
		}),
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basket_drill_import_rows_total",
			Help: "CSV drill import rows, by outcome.",
		}, []string{"outcome"}),
		LinkChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basket_link_checks_total",
			Help: "Outbound link checks, by result.",
		}, []string{"result"}),
		MatchEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basket_match_events_total",
			Help: "The total number of match events recorded, opponent points included.",
		}),
		MatchUndos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basket_match_undos_total",
			Help: "The total number of match events undone.",
		}),
		SessionScores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basket_session_scores_total",
			Help: "The total number of drill results turned into points.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basket_logins_total",
			Help: "Login attempts, by method and result.",
		}, []string{"method", "result"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basket_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basket_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "basket_http_request_duration_seconds",
			Help:    "The duration of HTTP requests, by route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "basket_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.DrillsCreated,
		s.ImportRows,
		s.LinkChecks,
		s.MatchEvents,
		s.MatchUndos,
		s.SessionScores,
		s.Logins,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.RequestDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncDrillsCreated() {
	s.DrillsCreated.Inc()
}

func (s *Service) IncImportRows(outcome string, n int) {
	s.ImportRows.WithLabelValues(outcome).Add(float64(n))
}

func (s *Service) IncLinkChecks(result string) {
	s.LinkChecks.WithLabelValues(result).Inc()
}

func (s *Service) IncMatchEvents() {
	s.MatchEvents.Inc()
}

func (s *Service) IncMatchUndos() {
	s.MatchUndos.Inc()
}

func (s *Service) AddSessionScores(n int) {
	s.SessionScores.Add(float64(n))
}

func (s *Service) IncLogins(method, result string) {
	s.Logins.WithLabelValues(method, result).Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) ObserveRequestDuration(route string, duration float64) {
	s.RequestDuration.WithLabelValues(route).Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
