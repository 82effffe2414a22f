package game_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory database with two coaches.
func setupTestDB(t *testing.T) (game.GameStore, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, email, name, created_at) VALUES (1, 'coach@example.com', 'Coach', 0), (2, 'other@example.com', 'Other', 0)`)
	require.NoError(t, err)

	return game.New(db), db, teardown
}

var (
	coach = identity.Identity{UserID: 1, Email: "coach@example.com"}
	other = identity.Identity{UserID: 2, Email: "other@example.com"}
)

func intPtr(v int) *int { return &v }

func TestCreateActionPlacement(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	in := game.ActionInput{Name: "Canasta", Value: 2, IsPositive: true, Section: scoring.SectionOffense, ScoreValue: 2}
	first, err := store.CreateAction(ctx, coach, in)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Row)
	assert.Equal(t, 0, first.Col)
	assert.Equal(t, "#6c757d", first.Color)

	second, err := store.CreateAction(ctx, coach, in)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Col)

	in.Row, in.Col = intPtr(0), intPtr(0)
	_, err = store.CreateAction(ctx, coach, in)
	assert.ErrorIs(t, err, game.ErrCellOccupied)

	in.Row, in.Col = intPtr(3), intPtr(2)
	placed, err := store.CreateAction(ctx, coach, in)
	require.NoError(t, err)
	assert.Equal(t, 3, placed.Row)

	// Another coach has an independent grid.
	in.Row, in.Col = nil, nil
	theirs, err := store.CreateAction(ctx, other, in)
	require.NoError(t, err)
	assert.Equal(t, 0, theirs.Col)

	_, err = store.CreateAction(ctx, identity.Identity{}, in)
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)
}

func TestUpdateActionRelocatesOnBlockChange(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.CreateAction(ctx, coach, game.ActionInput{Name: "Robo", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)
	_, err = store.CreateAction(ctx, coach, game.ActionInput{Name: "Tapón", Value: 1, IsPositive: true, Section: scoring.SectionDefense})
	require.NoError(t, err)

	updated, err := store.UpdateAction(ctx, coach, a.ID, game.ActionInput{Name: "Robo", Value: 1.5, IsPositive: true, Section: scoring.SectionDefense})
	require.NoError(t, err)
	assert.Equal(t, scoring.SectionDefense, updated.Section)
	assert.Equal(t, 0, updated.Row)
	assert.Equal(t, 1, updated.Col)
	assert.Equal(t, 1.5, updated.Value)

	_, err = store.UpdateAction(ctx, other, a.ID, game.ActionInput{Name: "Hijack", Section: scoring.SectionOffense})
	assert.ErrorIs(t, err, identity.ErrForbidden)
}

func TestMoveAction(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	in := game.ActionInput{Name: "A", Value: 1, IsPositive: true, Section: scoring.SectionOffense}
	a, err := store.CreateAction(ctx, coach, in)
	require.NoError(t, err)
	in.Name = "B"
	b, err := store.CreateAction(ctx, coach, in)
	require.NoError(t, err)

	_, err = store.MoveAction(ctx, coach, a.ID, b.Row, b.Col, false)
	assert.ErrorIs(t, err, game.ErrCellOccupied)

	actions, err := store.MoveAction(ctx, coach, a.ID, b.Row, b.Col, true)
	require.NoError(t, err)
	cells := map[int64]int{}
	for _, act := range actions {
		cells[act.ID] = act.Col
	}
	assert.Equal(t, 1, cells[a.ID])
	assert.Equal(t, 0, cells[b.ID])

	actions, err = store.MoveAction(ctx, coach, b.ID, 4, 2, false)
	require.NoError(t, err)
	for _, act := range actions {
		if act.ID == b.ID {
			assert.Equal(t, 4, act.Row)
			assert.Equal(t, 2, act.Col)
		}
	}

	_, err = store.MoveAction(ctx, other, a.ID, 0, 0, false)
	assert.ErrorIs(t, err, identity.ErrForbidden)
	_, err = store.MoveAction(ctx, coach, 999, 0, 0, false)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestNormalizeHealsInvalidCells(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO action_definitions (user_id, name, value, is_positive, section, grid_row, grid_col)
		VALUES (1, 'A', 1, 1, 'offense', 0, 0), (1, 'B', 1, 1, 'offense', 0, 5)`)
	require.NoError(t, err)

	moved, err := store.Normalize(ctx, coach)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	actions, err := store.ListActions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, 1, actions[1].Col)

	moved, err = store.Normalize(ctx, coach)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestUpdateValuesOnlyTouchesOwnActions(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	mine, err := store.CreateAction(ctx, coach, game.ActionInput{Name: "A", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)
	theirs, err := store.CreateAction(ctx, other, game.ActionInput{Name: "B", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)

	require.NoError(t, store.UpdateValues(ctx, coach, map[int64]float64{mine.ID: 2.5, theirs.ID: 9}))

	got, err := store.GetAction(ctx, coach, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Value)
	got, err = store.GetAction(ctx, other, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Value)
}

func TestDeleteActionInUse(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.CreateAction(ctx, coach, game.ActionInput{Name: "A", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)
	b, err := store.CreateAction(ctx, coach, game.ActionInput{Name: "B", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO teams (id, name, category, user_id, created_at) VALUES (1, 'Infantil', 'U14', 1, 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO players (id, team_id, name, dorsal) VALUES (1, 1, 'Ana', 4)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO matches (id, team_id, user_id, opponent, match_date) VALUES (1, 1, 1, 'Rival', 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO match_events (match_id, player_id, action_id, created_at) VALUES (1, 1, ?, 0)`, a.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteAction(ctx, coach, a.ID), game.ErrActionInUse)
	assert.ErrorIs(t, store.DeleteAction(ctx, other, b.ID), identity.ErrForbidden)
	require.NoError(t, store.DeleteAction(ctx, coach, b.ID))
	assert.ErrorIs(t, store.DeleteAction(ctx, coach, b.ID), game.ErrNotFound)
}

func TestRankings(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.CreateAction(ctx, coach, game.ActionInput{Name: "Asistencia", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)
	b, err := store.CreateAction(ctx, coach, game.ActionInput{Name: "Rebote", Value: 1, IsPositive: true, Section: scoring.SectionDefense})
	require.NoError(t, err)
	foreign, err := store.CreateAction(ctx, other, game.ActionInput{Name: "X", Value: 1, IsPositive: true, Section: scoring.SectionOffense})
	require.NoError(t, err)

	r, err := store.CreateRanking(ctx, coach, game.RankingInput{Name: "Combo", ActionIDs: []int64{a.ID, b.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, game.ContextMatch, r.Context)
	assert.Equal(t, "trophy", r.Icon)
	assert.Equal(t, []int64{a.ID, b.ID}, r.ActionIDs)

	_, err = store.CreateRanking(ctx, coach, game.RankingInput{Name: "Bad", ActionIDs: []int64{foreign.ID}})
	assert.ErrorIs(t, err, game.ErrForeignAction)

	updated, err := store.UpdateRanking(ctx, coach, r.ID, game.RankingInput{Name: "Pases", Icon: "magic", Context: "session", ActionIDs: []int64{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, game.ContextSession, updated.Context)

	got, err := store.GetRanking(ctx, coach, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pases", got.Name)
	assert.Equal(t, []int64{a.ID}, got.ActionIDs)

	_, err = store.GetRanking(ctx, other, r.ID)
	assert.ErrorIs(t, err, identity.ErrForbidden)

	list, err := store.ListRankings(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteRanking(ctx, coach, r.ID))
	_, err = store.GetRanking(ctx, coach, r.ID)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestInstallDefaults(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	has, err := store.HasActions(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.InstallDefaults(ctx, 1))
	require.NoError(t, store.InstallDefaults(ctx, 1), "second install is a no-op")

	actions, err := store.ListActions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, actions, 14)

	seen := map[game.Cell]bool{}
	for _, a := range actions {
		assert.False(t, seen[a.Cell()], "cell %v used twice", a.Cell())
		seen[a.Cell()] = true
	}

	rankings, err := store.ListRankings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rankings, 5)
	assert.Equal(t, "MVP (Valoración)", rankings[0].Name)
	assert.Len(t, rankings[0].ActionIDs, 14)
	assert.Equal(t, "El Pulpo", rankings[1].Name)
	assert.Len(t, rankings[1].ActionIDs, 2)
	assert.Equal(t, "Máximo Anotador", rankings[4].Name)
	assert.Len(t, rankings[4].ActionIDs, 3)
}
