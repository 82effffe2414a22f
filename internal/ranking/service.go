// Package ranking builds leaderboards from match events and training session points.
package ranking

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

var (
	ErrTeamRequired  = errors.New("session rankings need a team")
	ErrMatchNotFound = errors.New("match not found for this ranking")
)

// Query selects what a board aggregates. MatchIDs applies to match rankings, TeamID to
// session rankings.
type Query struct {
	MatchIDs []int64
	TeamID   int64
	Average  bool
}

// Board is a computed leaderboard.
type Board struct {
	Ranking  game.Ranking    `json:"ranking"`
	MatchIDs []int64         `json:"match_ids,omitempty"`
	Average  bool            `json:"average"`
	Entries  []scoring.Entry `json:"entries"`
}

// PublicBoard is what the public portal shows for a team.
type PublicBoard struct {
	Team    team.Team       `json:"team"`
	Entries []scoring.Entry `json:"entries"`
	Hidden  int             `json:"hidden"`
}

// Service combines the stores a leaderboard reads from.
type Service struct {
	games    game.GameStore
	matches  match.MatchStore
	sessions session.SessionStore
	teams    team.TeamStore
}

// NewService creates a ranking Service.
func NewService(games game.GameStore, matches match.MatchStore, sessions session.SessionStore, teams team.TeamStore) *Service {
	return &Service{games: games, matches: matches, sessions: sessions, teams: teams}
}

// Board computes a ranking definition. Match rankings count ingredient events over the selected
// matches, or over every match of the ranking owner the caller can see when none are selected.
// Session rankings sum drill points of one team.
func (s *Service) Board(ctx context.Context, actor identity.Identity, rankingID int64, q Query) (*Board, error) {
	def, err := s.games.GetRanking(ctx, actor, rankingID)
	if err != nil {
		return nil, err
	}

	if def.Context == game.ContextSession {
		if q.TeamID == 0 {
			return nil, ErrTeamRequired
		}
		entries, err := s.TeamRanking(ctx, actor, q.TeamID)
		if err != nil {
			return nil, err
		}
		return &Board{Ranking: *def, Entries: entries}, nil
	}

	selected, err := s.selectMatches(ctx, actor, def.OwnerID, q.MatchIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(selected))
	teamIDs := map[int64]struct{}{}
	for i, m := range selected {
		ids[i] = m.ID
		teamIDs[m.TeamID] = struct{}{}
	}

	tallies, appearances, err := s.matches.CountsByAction(ctx, ids)
	if err != nil {
		return nil, err
	}

	var players []scoring.Entry
	for teamID := range teamIDs {
		roster, err := s.teams.ListPlayers(ctx, actor, teamID)
		if err != nil {
			return nil, err
		}
		for _, p := range roster {
			if appearances[p.ID] > 0 {
				players = append(players, p.Entry())
			}
		}
	}
	// Map iteration order is random; ties must not depend on it.
	scoring.SortByDorsal(players)

	log.Debug("Computing match ranking", "rankingID", rankingID, "matches", len(ids), "players", len(players))
	return &Board{
		Ranking:  *def,
		MatchIDs: ids,
		Average:  q.Average,
		Entries:  scoring.RankByIngredients(players, tallies, def.ActionIDs, appearances, q.Average),
	}, nil
}

func (s *Service) selectMatches(ctx context.Context, actor identity.Identity, ownerID int64, wanted []int64) ([]match.Match, error) {
	all, err := s.matches.ListForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]match.Match, len(all))
	var owned []match.Match
	for _, m := range all {
		if m.OwnerID == ownerID {
			byID[m.ID] = m
			owned = append(owned, m)
		}
	}
	if len(wanted) == 0 {
		return owned, nil
	}

	out := make([]match.Match, 0, len(wanted))
	seen := map[int64]struct{}{}
	for _, id := range wanted {
		m, ok := byID[id]
		if !ok {
			return nil, ErrMatchNotFound
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

// sessionEntries ranks the players that have scored in at least one session.
func sessionEntries(players []team.Player, points map[int64]int) []scoring.Entry {
	entries := make([]scoring.Entry, 0, len(points))
	for _, p := range players {
		total, scored := points[p.ID]
		if !scored {
			continue
		}
		e := p.Entry()
		e.Points = float64(total)
		entries = append(entries, e)
	}
	scoring.SortRanking(entries)
	return entries
}

// TeamRanking is the full training points leaderboard of a team.
func (s *Service) TeamRanking(ctx context.Context, actor identity.Identity, teamID int64) ([]scoring.Entry, error) {
	players, err := s.teams.ListPlayers(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	points, err := s.sessions.TeamPoints(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return sessionEntries(players, points), nil
}

// PublicRanking is the training leaderboard cut to the team's visibility setting.
// It needs no authentication.
func (s *Service) PublicRanking(ctx context.Context, teamID int64) (*PublicBoard, error) {
	t, err := s.teams.GetPublic(ctx, teamID)
	if err != nil {
		return nil, err
	}
	players, err := s.teams.ListPlayersPublic(ctx, teamID)
	if err != nil {
		return nil, err
	}
	points, err := s.sessions.TeamPoints(ctx, teamID)
	if err != nil {
		return nil, err
	}
	entries := sessionEntries(players, points)
	visible := scoring.Truncate(entries, t.Visibility, len(players))
	return &PublicBoard{Team: *t, Entries: visible, Hidden: len(entries) - len(visible)}, nil
}
