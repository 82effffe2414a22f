package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	drillsCreated    int
	importRows       map[string]int
	linkChecks       map[string]int
	matchEvents      int
	matchUndos       int
	sessionScores    int
	logins           map[string]int
	slackNotifSent   int
	slackNotifFailed int
	routes           []string
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		importRows: make(map[string]int),
		linkChecks: make(map[string]int),
		logins:     make(map[string]int),
	}
}

func (m *Mock) IncDrillsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drillsCreated++
}

func (m *Mock) IncImportRows(outcome string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importRows[outcome] += n
}

func (m *Mock) IncLinkChecks(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkChecks[result]++
}

func (m *Mock) IncMatchEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchEvents++
}

func (m *Mock) IncMatchUndos() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchUndos++
}

func (m *Mock) AddSessionScores(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionScores += n
}

func (m *Mock) IncLogins(method, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[method+"/"+result]++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) ObserveRequestDuration(route string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// DrillsCreated returns the number of times IncDrillsCreated was called.
func (m *Mock) DrillsCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drillsCreated
}

// ImportRows returns the rows counted for an outcome.
func (m *Mock) ImportRows(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.importRows[outcome]
}

// LinkChecks returns the checks counted for a result.
func (m *Mock) LinkChecks(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkChecks[result]
}

// MatchEvents returns the number of times IncMatchEvents was called.
func (m *Mock) MatchEvents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchEvents
}

// MatchUndos returns the number of times IncMatchUndos was called.
func (m *Mock) MatchUndos() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchUndos
}

// SessionScores returns the total passed to AddSessionScores.
func (m *Mock) SessionScores() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionScores
}

// Logins returns the attempts counted for a method and result.
func (m *Mock) Logins(method, result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logins[method+"/"+result]
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// Routes returns the route of every observed request, in order.
func (m *Mock) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.routes...)
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
