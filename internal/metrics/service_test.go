package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)

	s.IncDrillsCreated()
	s.IncImportRows(ImportCreated, 3)
	s.IncImportRows(ImportRejected, 1)
	s.IncLinkChecks(LinkOK)
	s.IncLogins(LoginPassword, ResultFailure)
	s.IncLogins(LoginPassword, ResultFailure)
	s.AddSessionScores(5)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.DrillsCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.ImportRows.WithLabelValues(ImportCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.ImportRows.WithLabelValues(ImportRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.LinkChecks.WithLabelValues(LinkOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.Logins.WithLabelValues(LoginPassword, ResultFailure)))
	assert.Equal(t, 5.0, testutil.ToFloat64(s.SessionScores))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)
	s.SetStartupTime(1.5)
	s.ObserveRequestDuration("GET /health", 0.01)

	rr := httptest.NewRecorder()
	NewMetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "basket_startup_duration_seconds 1.5"))
	assert.Contains(t, body, `basket_http_request_duration_seconds_count{route="GET /health"} 1`)
}

func TestMock(t *testing.T) {
	m := NewMock()
	m.IncMatchEvents()
	m.IncMatchEvents()
	m.IncMatchUndos()
	m.IncLogins(LoginGoogle, ResultSuccess)
	m.ObserveRequestDuration("GET /health", 0.1)

	assert.Equal(t, 2, m.MatchEvents())
	assert.Equal(t, 1, m.MatchUndos())
	assert.Equal(t, 1, m.Logins(LoginGoogle, ResultSuccess))
	assert.Equal(t, []string{"GET /health"}, m.Routes())
}
