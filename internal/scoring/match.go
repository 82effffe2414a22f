package scoring

import "strings"

const (
	SectionOffense = "offense"
	SectionDefense = "defense"
)

// Action is the slice of an action definition the match accounting needs.
type Action struct {
	ID      int64
	Name    string
	Value   float64
	Section string
}

// Event is a logged match event. Opponent markers have no player and no action.
type Event struct {
	ID             int64
	PlayerID       int64
	ActionID       int64
	OpponentPoints int
	// ScoreValue is what the event added to the team result when it was recorded.
	ScoreValue int
	Period     int
}

// IsOpponent reports whether the event only adds points to the opponent.
func (e Event) IsOpponent() bool {
	return e.PlayerID == 0 && e.ActionID == 0
}

// RosterPlayer identifies a player on a match roster.
type RosterPlayer struct {
	ID        int64
	Name      string
	Dorsal    int
	PhotoFile string
}

// PlayerLine is a player's box score.
type PlayerLine struct {
	PlayerID    int64          `json:"player_id"`
	Name        string         `json:"name"`
	Dorsal      int            `json:"dorsal"`
	PhotoFile   string         `json:"photo,omitempty"`
	Valuation   float64        `json:"valuation"`
	Offense     float64        `json:"offense"`
	Defense     float64        `json:"defense"`
	Points      int            `json:"points"`
	ShotsMade   int            `json:"shots_made"`
	ShotsMissed int            `json:"shots_missed"`
	Fouls       int            `json:"fouls"`
	Actions     map[string]int `json:"actions"`
}

// PeriodScore is the running score of one period.
type PeriodScore struct {
	Us   int `json:"us"`
	Them int `json:"them"`
}

// MatchStats is the full accounting of a match.
type MatchStats struct {
	Players       []PlayerLine        `json:"players"`
	TeamScore     int                 `json:"team_score"`
	OpponentScore int                 `json:"opponent_score"`
	Periods       map[int]PeriodScore `json:"periods"`
}

var (
	missedKeywords = []string{"fallad", "fallo", "fallid", "miss"}
	foulKeywords   = []string{"falta", "foul"}
)

// IsMissedShot matches action names such as "Canasta Fallada" or "Missed 3PT".
func IsMissedShot(name string) bool {
	return containsAny(name, missedKeywords)
}

// IsFoul matches action names such as "Falta Personal".
func IsFoul(name string) bool {
	return containsAny(name, foulKeywords)
}

func containsAny(name string, keywords []string) bool {
	n := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// TallyMatch accounts every event against the roster. Points come from the value stored on
// each event, not from the action's current definition, so the totals match the recorded result.
// Events for players outside the roster or for unknown actions still count towards the team
// score but get no player line.
func TallyMatch(roster []RosterPlayer, actions []Action, events []Event) MatchStats {
	byID := make(map[int64]Action, len(actions))
	for _, a := range actions {
		byID[a.ID] = a
	}

	stats := MatchStats{
		Players: make([]PlayerLine, len(roster)),
		Periods: make(map[int]PeriodScore),
	}
	lineIdx := make(map[int64]int, len(roster))
	for i, p := range roster {
		stats.Players[i] = PlayerLine{
			PlayerID:  p.ID,
			Name:      p.Name,
			Dorsal:    p.Dorsal,
			PhotoFile: p.PhotoFile,
			Actions:   make(map[string]int),
		}
		lineIdx[p.ID] = i
	}

	for _, ev := range events {
		period := stats.Periods[ev.Period]
		if ev.IsOpponent() {
			stats.OpponentScore += ev.OpponentPoints
			period.Them += ev.OpponentPoints
			stats.Periods[ev.Period] = period
			continue
		}

		stats.TeamScore += ev.ScoreValue
		period.Us += ev.ScoreValue
		stats.Periods[ev.Period] = period

		action, ok := byID[ev.ActionID]
		if !ok {
			continue
		}
		idx, onRoster := lineIdx[ev.PlayerID]
		if !onRoster {
			continue
		}
		line := &stats.Players[idx]
		line.Actions[action.Name]++
		line.Valuation += action.Value
		if action.Section == SectionDefense {
			line.Defense += action.Value
		} else {
			line.Offense += action.Value
		}
		line.Points += ev.ScoreValue
		switch {
		case ev.ScoreValue > 0:
			line.ShotsMade++
		case IsMissedShot(action.Name):
			line.ShotsMissed++
		case IsFoul(action.Name):
			line.Fouls++
		}
	}
	return stats
}
