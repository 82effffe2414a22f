package match_test

import (
	"context"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	coach    = identity.Identity{UserID: 1, Email: "coach@example.com"}
	stranger = identity.Identity{UserID: 2, Email: "stranger@example.com"}
)

type fixture struct {
	store   match.MatchStore
	teams   team.TeamStore
	games   game.GameStore
	teamID  int64
	players []int64
	actions map[string]int64
}

// setupTestDB creates a team with three players and the default action set.
func setupTestDB(t *testing.T) (*fixture, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = db.Exec(`INSERT INTO users (id, email, name, created_at) VALUES (1, 'coach@example.com', 'Coach', 0), (2, 'stranger@example.com', 'Stranger', 0)`)
	require.NoError(t, err)

	games := game.New(db)
	require.NoError(t, games.InstallDefaults(ctx, coach.UserID))
	require.NoError(t, games.InstallDefaults(ctx, stranger.UserID))

	teams := team.New(db)
	tm, err := teams.Create(ctx, coach, team.TeamInput{Name: "Cadete A"})
	require.NoError(t, err)

	f := &fixture{store: match.New(db, teams), teams: teams, games: games, teamID: tm.ID, actions: map[string]int64{}}
	for i, name := range []string{"Ana", "Bea", "Carla"} {
		p, err := teams.AddPlayer(ctx, coach, tm.ID, team.PlayerInput{Name: name, Dorsal: i + 4})
		require.NoError(t, err)
		f.players = append(f.players, p.ID)
	}

	actions, err := games.ListActions(ctx, coach.UserID)
	require.NoError(t, err)
	for _, a := range actions {
		f.actions[a.Name] = a.ID
	}
	foreign, err := games.ListActions(ctx, stranger.UserID)
	require.NoError(t, err)
	f.actions["foreign"] = foreign[0].ID
	return f, teardown
}

func (f *fixture) newMatch(t *testing.T, roster ...int64) *match.Match {
	t.Helper()
	m, err := f.store.Create(context.Background(), coach, match.CreateInput{TeamID: f.teamID, Opponent: "Rival", IsHome: true, Roster: roster})
	require.NoError(t, err)
	return m
}

func TestCreateChecksRoster(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := f.store.Create(ctx, stranger, match.CreateInput{TeamID: f.teamID, Opponent: "Rival", Roster: f.players})
	assert.ErrorIs(t, err, identity.ErrForbidden)

	_, err = f.store.Create(ctx, coach, match.CreateInput{TeamID: f.teamID, Opponent: "Rival", Roster: []int64{f.players[0], 999}})
	assert.ErrorIs(t, err, match.ErrForeignPlayer)

	_, err = f.store.Create(ctx, coach, match.CreateInput{TeamID: f.teamID, Opponent: "Rival"})
	assert.ErrorIs(t, err, match.ErrEmptyRoster)

	m := f.newMatch(t, f.players[0], f.players[1], f.players[0])
	assert.Equal(t, match.StatusLive, m.Status)
	assert.Equal(t, "Cadete A", m.TeamName)

	got, err := f.store.Get(ctx, coach, m.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{f.players[0], f.players[1]}, got.Roster)

	list, err := f.store.ListForUser(ctx, coach)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.store.ListForUser(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordActionUpdatesScore(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := f.newMatch(t, f.players[0], f.players[1])

	ev, score, err := f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[0], ActionID: f.actions["Triple"], Period: 1})
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, match.Score{Us: 3}, score)

	_, score, err = f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[1], ActionID: f.actions["Asistencia"], Period: 1, GameMinute: 4})
	require.NoError(t, err)
	assert.Equal(t, match.Score{Us: 3}, score)

	_, _, err = f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[2], ActionID: f.actions["Triple"], Period: 1})
	assert.ErrorIs(t, err, match.ErrNotOnRoster)

	_, _, err = f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[0], ActionID: f.actions["foreign"], Period: 1})
	assert.ErrorIs(t, err, match.ErrForeignAction)

	_, _, err = f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[0], ActionID: f.actions["Triple"]})
	assert.ErrorIs(t, err, match.ErrInvalidPeriod)

	_, _, err = f.store.RecordAction(ctx, stranger, m.ID, match.Play{PlayerID: f.players[0], ActionID: f.actions["Triple"], Period: 1})
	assert.ErrorIs(t, err, identity.ErrForbidden)
}

func TestOpponentPoints(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := f.newMatch(t, f.players...)

	for _, pts := range []int{0, 4} {
		_, _, err := f.store.RecordOpponentPoints(ctx, coach, m.ID, match.Play{Points: pts, Period: 1})
		assert.ErrorIs(t, err, match.ErrInvalidPoints)
	}

	ev, score, err := f.store.RecordOpponentPoints(ctx, coach, m.ID, match.Play{Points: 2, Period: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ev.OpponentPoints)
	assert.Zero(t, ev.PlayerID)
	assert.Equal(t, match.Score{Them: 2}, score)
}

func TestUndoReversesExactly(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := f.newMatch(t, f.players[0], f.players[1])

	_, _, err := f.store.Undo(ctx, coach, m.ID, match.UndoFilter{})
	assert.ErrorIs(t, err, match.ErrNothingToUndo)

	first, _, err := f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[0], ActionID: f.actions["Canasta"], Period: 1})
	require.NoError(t, err)
	_, _, err = f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[1], ActionID: f.actions["Triple"], Period: 1})
	require.NoError(t, err)
	_, _, err = f.store.RecordOpponentPoints(ctx, coach, m.ID, match.Play{Points: 3, Period: 1})
	require.NoError(t, err)

	// Latest event overall is the opponent basket.
	ev, score, err := f.store.Undo(ctx, coach, m.ID, match.UndoFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, ev.OpponentPoints)
	assert.Equal(t, match.Score{Us: 5, Them: 0}, score)

	ev, score, err = f.store.Undo(ctx, coach, m.ID, match.UndoFilter{PlayerID: f.players[0]})
	require.NoError(t, err)
	assert.Equal(t, first.ID, ev.ID)
	assert.Equal(t, match.Score{Us: 3}, score)

	_, _, err = f.store.Undo(ctx, coach, m.ID, match.UndoFilter{EventID: first.ID})
	assert.ErrorIs(t, err, match.ErrNothingToUndo)

	events, err := f.store.Events(ctx, coach, m.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStatsAndFinish(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := f.newMatch(t, f.players[0], f.players[1])

	plays := []match.Play{
		{PlayerID: f.players[0], ActionID: f.actions["Canasta"], Period: 1},
		{PlayerID: f.players[0], ActionID: f.actions["Canasta Fallada"], Period: 1},
		{PlayerID: f.players[1], ActionID: f.actions["Tiro Libre"], Period: 2},
		{PlayerID: f.players[1], ActionID: f.actions["Falta Personal"], Period: 2},
	}
	for _, p := range plays {
		_, _, err := f.store.RecordAction(ctx, coach, m.ID, p)
		require.NoError(t, err)
	}
	_, _, err := f.store.RecordOpponentPoints(ctx, coach, m.ID, match.Play{Points: 2, Period: 2})
	require.NoError(t, err)

	stats, err := f.store.Stats(ctx, coach, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TeamScore)
	assert.Equal(t, 2, stats.OpponentScore)
	require.Len(t, stats.Players, 2)
	assert.Equal(t, 2, stats.Players[0].Points)
	assert.Equal(t, 1, stats.Players[0].ShotsMissed)
	assert.Equal(t, 1, stats.Players[1].Fouls)
	assert.Equal(t, 2, stats.Periods[2].Them)

	finished, err := f.store.Finish(ctx, coach, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusFinished, finished.Status)
	assert.Equal(t, 3, finished.ResultUs)

	_, _, err = f.store.RecordOpponentPoints(ctx, coach, m.ID, match.Play{Points: 1, Period: 4})
	assert.ErrorIs(t, err, match.ErrFinished)
	_, err = f.store.Finish(ctx, coach, m.ID)
	assert.ErrorIs(t, err, match.ErrFinished)
}

func TestStatsKeepRecordedPointsAfterActionEdit(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := f.newMatch(t, f.players[0])

	_, _, err := f.store.RecordAction(ctx, coach, m.ID, match.Play{PlayerID: f.players[0], ActionID: f.actions["Triple"], Period: 1})
	require.NoError(t, err)

	actions, err := f.games.ListActions(ctx, coach.UserID)
	require.NoError(t, err)
	var triple game.Action
	for _, a := range actions {
		if a.ID == f.actions["Triple"] {
			triple = a
		}
	}
	require.NotZero(t, triple.ID)
	_, err = f.games.UpdateAction(ctx, coach, triple.ID, game.ActionInput{
		Name:       triple.Name,
		Value:      triple.Value,
		IsPositive: triple.IsPositive,
		Section:    triple.Section,
		ScoreValue: 2,
		Color:      triple.Color,
	})
	require.NoError(t, err)

	got, err := f.store.Get(ctx, coach, m.ID)
	require.NoError(t, err)
	stats, err := f.store.Stats(ctx, coach, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ResultUs)
	assert.Equal(t, got.ResultUs, stats.TeamScore)
	assert.Equal(t, 3, stats.Players[0].Points)

	events, err := f.store.Events(ctx, coach, m.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].ScoreValue)

	_, score, err := f.store.Undo(ctx, coach, m.ID, match.UndoFilter{})
	require.NoError(t, err)
	assert.Equal(t, match.Score{}, score)
}

func TestCountsByAction(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m1 := f.newMatch(t, f.players[0], f.players[1])
	m2 := f.newMatch(t, f.players[0])

	for _, mid := range []int64{m1.ID, m2.ID} {
		_, _, err := f.store.RecordAction(ctx, coach, mid, match.Play{PlayerID: f.players[0], ActionID: f.actions["Tapón"], Period: 1})
		require.NoError(t, err)
	}
	_, _, err := f.store.RecordOpponentPoints(ctx, coach, m1.ID, match.Play{Points: 1, Period: 1})
	require.NoError(t, err)

	tallies, appearances, err := f.store.CountsByAction(ctx, []int64{m1.ID, m2.ID})
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, 2, tallies[0].Count)
	assert.Equal(t, 2, appearances[f.players[0]])
	assert.Equal(t, 1, appearances[f.players[1]])

	tallies, appearances, err = f.store.CountsByAction(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tallies)
	assert.Empty(t, appearances)
}

func TestDeleteNeedsCreatorOrOwner(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := f.newMatch(t, f.players[0])

	assert.ErrorIs(t, f.store.Delete(ctx, stranger, m.ID), identity.ErrForbidden)
	require.NoError(t, f.store.Delete(ctx, coach, m.ID))
	_, err := f.store.Get(ctx, coach, m.ID)
	assert.ErrorIs(t, err, match.ErrNotFound)
}
