package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testActions = []Action{
		{ID: 1, Name: "Canasta 2 puntos", Value: 2, Section: SectionOffense},
		{ID: 2, Name: "Triple", Value: 3, Section: SectionOffense},
		{ID: 3, Name: "Canasta Fallada", Value: -0.25, Section: SectionOffense},
		{ID: 4, Name: "Rebote Defensa", Value: 1, Section: SectionDefense},
		{ID: 5, Name: "Falta Personal", Value: -0.5, Section: SectionDefense},
	}
	testRoster = []RosterPlayer{{ID: 100, Name: "Ana", Dorsal: 4}, {ID: 200, Name: "Bea", Dorsal: 7}}
)

func TestTallyMatch(t *testing.T) {
	events := []Event{
		{ID: 1, PlayerID: 100, ActionID: 1, ScoreValue: 2, Period: 1},
		{ID: 2, PlayerID: 100, ActionID: 3, Period: 1},
		{ID: 3, OpponentPoints: 3, Period: 1},
		{ID: 4, PlayerID: 200, ActionID: 2, ScoreValue: 3, Period: 2},
		{ID: 5, PlayerID: 200, ActionID: 4, Period: 2},
		{ID: 6, PlayerID: 200, ActionID: 5, Period: 2},
		{ID: 7, OpponentPoints: 2, Period: 2},
	}

	stats := TallyMatch(testRoster, testActions, events)

	assert.Equal(t, 5, stats.TeamScore)
	assert.Equal(t, 5, stats.OpponentScore)
	assert.Equal(t, PeriodScore{Us: 2, Them: 3}, stats.Periods[1])
	assert.Equal(t, PeriodScore{Us: 3, Them: 2}, stats.Periods[2])

	require.Len(t, stats.Players, 2)
	ana, bea := stats.Players[0], stats.Players[1]

	assert.InDelta(t, 1.75, ana.Valuation, 1e-9)
	assert.InDelta(t, 1.75, ana.Offense, 1e-9)
	assert.InDelta(t, 0.0, ana.Defense, 1e-9)
	assert.Equal(t, 1, ana.ShotsMade)
	assert.Equal(t, 1, ana.ShotsMissed)
	assert.Equal(t, 2, ana.Points)
	assert.Equal(t, 1, ana.Actions["Canasta Fallada"])

	assert.InDelta(t, 3.5, bea.Valuation, 1e-9)
	assert.InDelta(t, 3.0, bea.Offense, 1e-9)
	assert.InDelta(t, 0.5, bea.Defense, 1e-9)
	assert.Equal(t, 1, bea.Fouls)
	assert.Equal(t, 3, bea.Points)
}

func TestTallyMatch_UndoRestoresOpponentScore(t *testing.T) {
	before := []Event{{ID: 1, PlayerID: 100, ActionID: 1, ScoreValue: 2, Period: 1}}
	after := append(append([]Event{}, before...), Event{ID: 2, OpponentPoints: 2, Period: 1})

	statsBefore := TallyMatch(testRoster, testActions, before)
	statsAfter := TallyMatch(testRoster, testActions, after)
	statsUndone := TallyMatch(testRoster, testActions, after[:1])

	assert.Equal(t, statsBefore.OpponentScore+2, statsAfter.OpponentScore)
	assert.Equal(t, statsBefore.OpponentScore, statsUndone.OpponentScore)
	assert.Equal(t, statsBefore.TeamScore, statsUndone.TeamScore)
}

func TestTallyMatch_OffRosterEventsStillScore(t *testing.T) {
	stats := TallyMatch(testRoster, testActions, []Event{{ID: 1, PlayerID: 999, ActionID: 2, ScoreValue: 3, Period: 1}})
	assert.Equal(t, 3, stats.TeamScore)
	for _, line := range stats.Players {
		assert.Zero(t, line.Valuation)
	}
}

func TestTallyMatch_UnknownActionStillScores(t *testing.T) {
	stats := TallyMatch(testRoster, testActions, []Event{{ID: 1, PlayerID: 100, ActionID: 42, ScoreValue: 2, Period: 1}})
	assert.Equal(t, 2, stats.TeamScore)
	assert.Equal(t, PeriodScore{Us: 2}, stats.Periods[1])
	assert.Zero(t, stats.Players[0].Points)
	assert.Empty(t, stats.Players[0].Actions)
}

func TestTallyMatch_UsesRecordedScoreValue(t *testing.T) {
	// The Triple definition was later edited to be worth 2; the event still carries 3.
	stats := TallyMatch(testRoster, testActions, []Event{{ID: 1, PlayerID: 200, ActionID: 2, ScoreValue: 3, Period: 1}})
	assert.Equal(t, 3, stats.TeamScore)
	assert.Equal(t, 3, stats.Players[1].Points)
	assert.Equal(t, 1, stats.Players[1].ShotsMade)
}

func TestActionNameMatching(t *testing.T) {
	assert.True(t, IsMissedShot("Canasta Fallada"))
	assert.True(t, IsMissedShot("Tiro libre fallado"))
	assert.True(t, IsMissedShot("Missed 3PT"))
	assert.False(t, IsMissedShot("Triple"))
	assert.True(t, IsFoul("Falta Personal"))
	assert.True(t, IsFoul("Technical Foul"))
	assert.False(t, IsFoul("Robo"))
}
