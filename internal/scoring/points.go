// Package scoring holds the arithmetic behind training gamification, match stats and rankings.
// Everything here is pure: callers load rows and persist results.
package scoring

import (
	"errors"
	"fmt"
	"sort"
)

// Criterion decides which raw scores win a drill.
type Criterion string

const (
	// HigherWins ranks the largest raw score first (e.g. baskets made).
	HigherWins Criterion = "high"
	// LowerWins ranks the smallest raw score first (e.g. seconds taken).
	LowerWins Criterion = "low"
)

const (
	MaxPoints = 15
	MinPoints = 1
)

var (
	ErrInvalidCriterion = errors.New("criterion must be high or low")
	ErrDuplicatePlayer  = errors.New("player appears more than once in the results")
)

// RawResult is what a coach records for one player in one drill.
type RawResult struct {
	PlayerID int64   `json:"player_id"`
	RawScore float64 `json:"raw_score"`
}

// Scored is a RawResult with its rank (1-based) and gamified points.
type Scored struct {
	PlayerID int64   `json:"player_id"`
	RawScore float64 `json:"raw_score"`
	Rank     int     `json:"rank"`
	Points   int     `json:"points"`
}

// PointsForRank returns the points for a 1-based rank: 15, 14, ... never below 1.
func PointsForRank(rank int) int {
	p := MaxPoints - (rank - 1)
	if p < MinPoints {
		return MinPoints
	}
	return p
}

// AssignPoints ranks the results by criterion and converts ranks into points.
// Equal raw scores keep their input order, so ties get distinct consecutive ranks.
func AssignPoints(results []RawResult, criterion Criterion) ([]Scored, error) {
	if criterion != HigherWins && criterion != LowerWins {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCriterion, criterion)
	}

	seen := make(map[int64]struct{}, len(results))
	for _, r := range results {
		if _, dup := seen[r.PlayerID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePlayer, r.PlayerID)
		}
		seen[r.PlayerID] = struct{}{}
	}

	sorted := make([]RawResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if criterion == HigherWins {
			return sorted[i].RawScore > sorted[j].RawScore
		}
		return sorted[i].RawScore < sorted[j].RawScore
	})

	scored := make([]Scored, len(sorted))
	for i, r := range sorted {
		scored[i] = Scored{
			PlayerID: r.PlayerID,
			RawScore: r.RawScore,
			Rank:     i + 1,
			Points:   PointsForRank(i + 1),
		}
	}
	return scored, nil
}
