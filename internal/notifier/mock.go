package notifier

import (
	"sync"

	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	StaffInvitedCalls []struct {
		Team  *team.Team
		Staff *team.Staff
	}
	SessionFinishedCalls []struct {
		Team    *team.Team
		Session *session.Session
		Top     []scoring.Entry
	}
	MatchFinishedCalls []struct {
		Match *match.Match
		Stats *scoring.MatchStats
	}

	// Spies; when set their result is returned
	StaffInvitedFunc    func(t *team.Team, staff *team.Staff, dryRun bool) error
	SessionFinishedFunc func(t *team.Team, sess *session.Session, top []scoring.Entry, dryRun bool) error
	MatchFinishedFunc   func(m *match.Match, stats *scoring.MatchStats, dryRun bool) error
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaffInvitedCalls = nil
	m.SessionFinishedCalls = nil
	m.MatchFinishedCalls = nil
}

func (m *Mock) StaffInvited(t *team.Team, staff *team.Staff, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaffInvitedCalls = append(m.StaffInvitedCalls, struct {
		Team  *team.Team
		Staff *team.Staff
	}{t, staff})
	if m.StaffInvitedFunc != nil {
		return m.StaffInvitedFunc(t, staff, dryRun)
	}
	return nil
}

func (m *Mock) SessionFinished(t *team.Team, sess *session.Session, top []scoring.Entry, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionFinishedCalls = append(m.SessionFinishedCalls, struct {
		Team    *team.Team
		Session *session.Session
		Top     []scoring.Entry
	}{t, sess, top})
	if m.SessionFinishedFunc != nil {
		return m.SessionFinishedFunc(t, sess, top, dryRun)
	}
	return nil
}

func (m *Mock) MatchFinished(mt *match.Match, stats *scoring.MatchStats, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MatchFinishedCalls = append(m.MatchFinishedCalls, struct {
		Match *match.Match
		Stats *scoring.MatchStats
	}{mt, stats})
	if m.MatchFinishedFunc != nil {
		return m.MatchFinishedFunc(mt, stats, dryRun)
	}
	return nil
}

// Calls returns how many notifications of each kind were sent.
func (m *Mock) Calls() (invited, sessions, matches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StaffInvitedCalls), len(m.SessionFinishedCalls), len(m.MatchFinishedCalls)
}
