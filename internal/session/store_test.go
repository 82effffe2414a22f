package session_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	coach    = identity.Identity{UserID: 1, Email: "coach@example.com"}
	stranger = identity.Identity{UserID: 2, Email: "stranger@example.com"}
)

type fixture struct {
	store   session.SessionStore
	teams   team.TeamStore
	db      *sql.DB
	teamID  int64
	players []int64
}

// setupTestDB creates a team with three players and one drill.
func setupTestDB(t *testing.T) (*fixture, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = db.Exec(`INSERT INTO users (id, email, name, created_at) VALUES (1, 'coach@example.com', 'Coach', 0), (2, 'stranger@example.com', 'Stranger', 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO drills (id, title, posted_at, user_id) VALUES (1, 'Tiro en 1 minuto', 0, 1), (2, 'Sprint', 0, 1)`)
	require.NoError(t, err)

	teams := team.New(db)
	tm, err := teams.Create(ctx, coach, team.TeamInput{Name: "Minibasket"})
	require.NoError(t, err)

	f := &fixture{store: session.New(db, teams), teams: teams, db: db, teamID: tm.ID}
	for i, name := range []string{"Ana", "Bea", "Carla"} {
		p, err := teams.AddPlayer(ctx, coach, tm.ID, team.PlayerInput{Name: name, Dorsal: i + 4})
		require.NoError(t, err)
		f.players = append(f.players, p.ID)
	}
	return f, teardown
}

func TestStartMarksEveryonePresent(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := f.store.Start(ctx, stranger, f.teamID, 0)
	assert.ErrorIs(t, err, identity.ErrForbidden)
	_, err = f.store.Start(ctx, coach, f.teamID, 99)
	assert.ErrorIs(t, err, session.ErrPlanNotFound)

	sess, err := f.store.Start(ctx, coach, f.teamID, 0)
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, sess.Status)

	detail, err := f.store.Get(ctx, coach, sess.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Players, 3)
	for _, id := range f.players {
		assert.True(t, detail.Attendance[id])
	}

	require.NoError(t, f.store.SetAttendance(ctx, coach, sess.ID, f.players[1], false))
	assert.ErrorIs(t, f.store.SetAttendance(ctx, coach, sess.ID, 999, true), session.ErrNoAttendance)

	detail, err = f.store.Get(ctx, coach, sess.ID)
	require.NoError(t, err)
	assert.False(t, detail.Attendance[f.players[1]])

	_, err = f.store.Get(ctx, stranger, sess.ID)
	assert.ErrorIs(t, err, identity.ErrForbidden)
}

func TestSaveDrillResultsRecomputes(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	sess, err := f.store.Start(ctx, coach, f.teamID, 0)
	require.NoError(t, err)
	ana, bea, carla := f.players[0], f.players[1], f.players[2]

	scored, err := f.store.SaveDrillResults(ctx, coach, sess.ID, 1, scoring.HigherWins, []scoring.RawResult{
		{PlayerID: ana, RawScore: 3}, {PlayerID: bea, RawScore: 7}, {PlayerID: carla, RawScore: 5},
	})
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, bea, scored[0].PlayerID)
	assert.Equal(t, 15, scored[0].Points)

	// Saving the same drill again replaces the previous results.
	_, err = f.store.SaveDrillResults(ctx, coach, sess.ID, 1, scoring.LowerWins, []scoring.RawResult{
		{PlayerID: ana, RawScore: 3}, {PlayerID: bea, RawScore: 7},
	})
	require.NoError(t, err)
	_, err = f.store.SaveDrillResults(ctx, coach, sess.ID, 2, scoring.LowerWins, []scoring.RawResult{
		{PlayerID: carla, RawScore: 9.5},
	})
	require.NoError(t, err)

	detail, err := f.store.Get(ctx, coach, sess.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Scores, 3)

	points, err := f.store.TeamPoints(ctx, f.teamID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{ana: 15, bea: 14, carla: 15}, points)

	t.Run("validation", func(t *testing.T) {
		_, err := f.store.SaveDrillResults(ctx, coach, sess.ID, 1, "fastest", nil)
		assert.ErrorIs(t, err, scoring.ErrInvalidCriterion)
		_, err = f.store.SaveDrillResults(ctx, coach, sess.ID, 1, scoring.HigherWins, []scoring.RawResult{{PlayerID: ana}, {PlayerID: ana}})
		assert.ErrorIs(t, err, scoring.ErrDuplicatePlayer)
		_, err = f.store.SaveDrillResults(ctx, coach, sess.ID, 1, scoring.HigherWins, []scoring.RawResult{{PlayerID: 999}})
		assert.ErrorIs(t, err, session.ErrForeignPlayer)
		_, err = f.store.SaveDrillResults(ctx, coach, sess.ID, 42, scoring.HigherWins, []scoring.RawResult{{PlayerID: ana}})
		assert.ErrorIs(t, err, session.ErrDrillNotFound)
	})

	t.Run("failed saves keep previous results", func(t *testing.T) {
		points, err := f.store.TeamPoints(ctx, f.teamID)
		require.NoError(t, err)
		assert.Equal(t, 15, points[ana])
	})
}

func TestLatePlayerAndFinish(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	sess, err := f.store.Start(ctx, coach, f.teamID, 0)
	require.NoError(t, err)

	late, err := f.store.AddLatePlayer(ctx, coach, sess.ID, session.LatePlayerInput{Name: "Dani", Dorsal: 11})
	require.NoError(t, err)
	assert.Equal(t, f.teamID, late.TeamID)

	detail, err := f.store.Get(ctx, coach, sess.ID)
	require.NoError(t, err)
	assert.True(t, detail.Attendance[late.ID])

	players, err := f.teams.ListPlayers(ctx, coach, f.teamID)
	require.NoError(t, err)
	assert.Len(t, players, 4)

	finished, err := f.store.Finish(ctx, coach, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusFinished, finished.Status)

	_, err = f.store.Finish(ctx, coach, sess.ID)
	assert.ErrorIs(t, err, session.ErrFinished)
	assert.ErrorIs(t, f.store.SetAttendance(ctx, coach, sess.ID, late.ID, false), session.ErrFinished)

	sessions, err := f.store.ListForTeam(ctx, coach, f.teamID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	require.NoError(t, f.store.Delete(ctx, coach, sess.ID))
	_, err = f.store.Get(ctx, coach, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStartWithPlan(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := f.db.Exec(`INSERT INTO training_plans (id, name, plan_date, user_id) VALUES (7, 'Plan', 0, 1)`)
	require.NoError(t, err)

	sess, err := f.store.Start(ctx, coach, f.teamID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.PlanID)

	_, err = f.db.Exec(`DELETE FROM training_plans WHERE id = 7`)
	require.NoError(t, err)
	detail, err := f.store.Get(ctx, coach, sess.ID)
	require.NoError(t, err)
	assert.Zero(t, detail.Session.PlanID, "plan deletion detaches the session")
}
