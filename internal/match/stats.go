package match

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

func (s *store) rosterPlayers(ctx context.Context, matchID int64) ([]scoring.RosterPlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.dorsal, p.photo_file
		FROM match_roster r
		JOIN players p ON p.id = r.player_id
		WHERE r.match_id = ?
		ORDER BY p.dorsal, p.name`, matchID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var players []scoring.RosterPlayer
	for rows.Next() {
		var p scoring.RosterPlayer
		if err := rows.Scan(&p.ID, &p.Name, &p.Dorsal, &p.PhotoFile); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// matchActions loads the owner's definitions plus any foreign action the log references.
func (s *store) matchActions(ctx context.Context, m *Match) ([]scoring.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, value, section FROM action_definitions
		WHERE user_id = ? OR id IN (SELECT action_id FROM match_events WHERE match_id = ?)`,
		m.OwnerID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var actions []scoring.Action
	for rows.Next() {
		var a scoring.Action
		if err := rows.Scan(&a.ID, &a.Name, &a.Value, &a.Section); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Stats builds the box score of a match from its roster and event log.
func (s *store) Stats(ctx context.Context, actor identity.Identity, matchID int64) (*scoring.MatchStats, error) {
	m, err := s.authorized(ctx, actor, matchID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster, err := s.rosterPlayers(ctx, matchID)
	if err != nil {
		return nil, err
	}
	actions, err := s.matchActions(ctx, m)
	if err != nil {
		return nil, err
	}
	events, err := s.events(ctx, matchID)
	if err != nil {
		return nil, err
	}

	log.Debug("Computing match stats", "matchID", matchID, "events", len(events))
	scored := make([]scoring.Event, len(events))
	for i, ev := range events {
		scored[i] = scoring.Event{
			ID:             ev.ID,
			PlayerID:       ev.PlayerID,
			ActionID:       ev.ActionID,
			OpponentPoints: ev.OpponentPoints,
			ScoreValue:     ev.ScoreValue,
			Period:         ev.Period,
		}
	}
	stats := scoring.TallyMatch(roster, actions, scored)
	return &stats, nil
}

func (s *store) CountsByAction(ctx context.Context, matchIDs []int64) ([]scoring.Tally, map[int64]int, error) {
	appearances := make(map[int64]int)
	if len(matchIDs) == 0 {
		return []scoring.Tally{}, appearances, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	in := placeholders(len(matchIDs))
	args := int64Args(matchIDs)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT player_id, action_id, COUNT(*)
		FROM match_events
		WHERE match_id IN (%s) AND player_id IS NOT NULL
		GROUP BY player_id, action_id`, in), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	tallies := []scoring.Tally{}
	for rows.Next() {
		var t scoring.Tally
		if err := rows.Scan(&t.PlayerID, &t.ActionID, &t.Count); err != nil {
			rows.Close()
			return nil, nil, err
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT player_id, COUNT(*) FROM match_roster WHERE match_id IN (%s) GROUP BY player_id`, in), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var playerID int64
		var n int
		if err := rows.Scan(&playerID, &n); err != nil {
			return nil, nil, err
		}
		appearances[playerID] = n
	}
	return tallies, appearances, rows.Err()
}
