package scoring

import "sort"

// Entry is one line of a leaderboard.
type Entry struct {
	PlayerID  int64   `json:"player_id"`
	Name      string  `json:"name"`
	Dorsal    int     `json:"dorsal"`
	PhotoFile string  `json:"photo,omitempty"`
	Points    float64 `json:"points"`
}

// VisibilityMode selects how much of a leaderboard the public portal shows.
type VisibilityMode string

const (
	VisibilityFixed   VisibilityMode = "fixed"
	VisibilityPercent VisibilityMode = "percent"
)

// Visibility is a team's public ranking setting.
type Visibility struct {
	Mode   VisibilityMode `json:"mode"`
	TopX   int            `json:"top_x"`
	TopPct int            `json:"top_pct"`
}

// DefaultVisibility shows the top three players.
func DefaultVisibility() Visibility {
	return Visibility{Mode: VisibilityFixed, TopX: 3, TopPct: 25}
}

// SortRanking orders entries by points, highest first. Ties keep their input order.
func SortRanking(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
}

// SortByDorsal orders entries the way rosters are listed: dorsal, then name, then id.
func SortByDorsal(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Dorsal != b.Dorsal {
			return a.Dorsal < b.Dorsal
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.PlayerID < b.PlayerID
	})
}

// VisibleCount is the number of leaderboard lines the public may see.
// Percent mode is computed against the roster size, not the number of ranked players.
func VisibleCount(v Visibility, rosterSize int) int {
	if v.Mode == VisibilityPercent {
		limit := rosterSize * v.TopPct / 100
		if limit < 1 {
			limit = 1
		}
		return limit
	}
	if v.TopX < 0 {
		return 0
	}
	return v.TopX
}

// Truncate returns the publicly visible head of a sorted leaderboard.
func Truncate(entries []Entry, v Visibility, rosterSize int) []Entry {
	limit := VisibleCount(v, rosterSize)
	if limit > len(entries) {
		limit = len(entries)
	}
	return entries[:limit]
}

// Tally is the number of times a player performed an action, summed over the selected matches.
type Tally struct {
	PlayerID int64
	ActionID int64
	Count    int
}

// RankByIngredients builds a match-context leaderboard: each player's score is the number of
// events whose action is one of the ingredients. With average set, the score is divided by
// the number of selected matches the player appeared in.
func RankByIngredients(players []Entry, tallies []Tally, ingredients []int64, appearances map[int64]int, average bool) []Entry {
	wanted := make(map[int64]struct{}, len(ingredients))
	for _, id := range ingredients {
		wanted[id] = struct{}{}
	}

	counts := make(map[int64]int)
	for _, t := range tallies {
		if _, ok := wanted[t.ActionID]; ok {
			counts[t.PlayerID] += t.Count
		}
	}

	out := make([]Entry, len(players))
	for i, p := range players {
		p.Points = float64(counts[p.PlayerID])
		if average {
			if n := appearances[p.PlayerID]; n > 0 {
				p.Points /= float64(n)
			}
		}
		out[i] = p
	}
	SortRanking(out)
	return out
}
