package ranking_test

import (
	"context"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
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
	svc      *ranking.Service
	games    game.GameStore
	matches  match.MatchStore
	sessions session.SessionStore
	teams    team.TeamStore
	teamID   int64
	players  []int64
	actions  map[string]int64
	rankings map[string]int64
}

func setupTestDB(t *testing.T) (*fixture, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = db.Exec(`INSERT INTO users (id, email, name, created_at) VALUES (1, 'coach@example.com', 'Coach', 0), (2, 'stranger@example.com', 'Stranger', 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO drills (id, title, posted_at, user_id) VALUES (1, 'Tiros libres', 0, 1)`)
	require.NoError(t, err)

	f := &fixture{games: game.New(db), teams: team.New(db), actions: map[string]int64{}, rankings: map[string]int64{}}
	f.matches = match.New(db, f.teams)
	f.sessions = session.New(db, f.teams)
	f.svc = ranking.NewService(f.games, f.matches, f.sessions, f.teams)

	require.NoError(t, f.games.InstallDefaults(ctx, coach.UserID))
	actions, err := f.games.ListActions(ctx, coach.UserID)
	require.NoError(t, err)
	for _, a := range actions {
		f.actions[a.Name] = a.ID
	}
	rankings, err := f.games.ListRankings(ctx, coach.UserID)
	require.NoError(t, err)
	for _, r := range rankings {
		f.rankings[r.Name] = r.ID
	}

	tm, err := f.teams.Create(ctx, coach, team.TeamInput{Name: "Infantil"})
	require.NoError(t, err)
	f.teamID = tm.ID
	for i, name := range []string{"Ana", "Bea", "Carla", "Dani"} {
		p, err := f.teams.AddPlayer(ctx, coach, tm.ID, team.PlayerInput{Name: name, Dorsal: i + 4})
		require.NoError(t, err)
		f.players = append(f.players, p.ID)
	}
	return f, teardown
}

func (f *fixture) record(t *testing.T, matchID, playerID int64, action string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		_, _, err := f.matches.RecordAction(context.Background(), coach, matchID, match.Play{PlayerID: playerID, ActionID: f.actions[action], Period: 1})
		require.NoError(t, err)
	}
}

func TestMatchBoardCountsIngredients(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	m1, err := f.matches.Create(ctx, coach, match.CreateInput{TeamID: f.teamID, Opponent: "A", Roster: f.players[:2]})
	require.NoError(t, err)
	m2, err := f.matches.Create(ctx, coach, match.CreateInput{TeamID: f.teamID, Opponent: "B", Roster: f.players[:1]})
	require.NoError(t, err)

	f.record(t, m1.ID, f.players[0], "Rebote Ataque", 1)
	f.record(t, m1.ID, f.players[1], "Rebote Defensa", 3)
	f.record(t, m1.ID, f.players[1], "Asistencia", 5)
	f.record(t, m2.ID, f.players[0], "Rebote Defensa", 3)

	board, err := f.svc.Board(ctx, coach, f.rankings["El Pulpo"], ranking.Query{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{m1.ID, m2.ID}, board.MatchIDs)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, f.players[0], board.Entries[0].PlayerID)
	assert.Equal(t, 4.0, board.Entries[0].Points)
	assert.Equal(t, 3.0, board.Entries[1].Points)

	// Ana played two matches, Bea one.
	board, err = f.svc.Board(ctx, coach, f.rankings["El Pulpo"], ranking.Query{Average: true})
	require.NoError(t, err)
	assert.Equal(t, f.players[1], board.Entries[0].PlayerID)
	assert.Equal(t, 3.0, board.Entries[0].Points)
	assert.Equal(t, 2.0, board.Entries[1].Points)

	board, err = f.svc.Board(ctx, coach, f.rankings["El Pulpo"], ranking.Query{MatchIDs: []int64{m1.ID}})
	require.NoError(t, err)
	assert.Equal(t, f.players[1], board.Entries[0].PlayerID)

	_, err = f.svc.Board(ctx, coach, f.rankings["El Pulpo"], ranking.Query{MatchIDs: []int64{999}})
	assert.ErrorIs(t, err, ranking.ErrMatchNotFound)

	_, err = f.svc.Board(ctx, stranger, f.rankings["El Pulpo"], ranking.Query{})
	assert.ErrorIs(t, err, identity.ErrForbidden)
}

func TestSessionRankings(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	sess, err := f.sessions.Start(ctx, coach, f.teamID, 0)
	require.NoError(t, err)
	_, err = f.sessions.SaveDrillResults(ctx, coach, sess.ID, 1, scoring.HigherWins, []scoring.RawResult{
		{PlayerID: f.players[2], RawScore: 9},
		{PlayerID: f.players[0], RawScore: 7},
		{PlayerID: f.players[1], RawScore: 3},
	})
	require.NoError(t, err)

	entries, err := f.svc.TeamRanking(ctx, coach, f.teamID)
	require.NoError(t, err)
	require.Len(t, entries, 3, "players without session scores are not ranked")
	assert.Equal(t, f.players[2], entries[0].PlayerID)
	assert.Equal(t, float64(scoring.MaxPoints), entries[0].Points)
	for _, e := range entries {
		assert.NotEqual(t, f.players[3], e.PlayerID)
	}

	_, err = f.svc.TeamRanking(ctx, stranger, f.teamID)
	assert.ErrorIs(t, err, identity.ErrForbidden)

	def, err := f.games.CreateRanking(ctx, coach, game.RankingInput{Name: "Entreno", Context: string(game.ContextSession)})
	require.NoError(t, err)
	_, err = f.svc.Board(ctx, coach, def.ID, ranking.Query{})
	assert.ErrorIs(t, err, ranking.ErrTeamRequired)
	board, err := f.svc.Board(ctx, coach, def.ID, ranking.Query{TeamID: f.teamID})
	require.NoError(t, err)
	assert.Equal(t, entries, board.Entries)

	// Default visibility shows the top three scorers.
	public, err := f.svc.PublicRanking(ctx, f.teamID)
	require.NoError(t, err)
	assert.Len(t, public.Entries, 3)
	assert.Zero(t, public.Hidden)

	_, err = f.teams.UpdateSettings(ctx, coach, f.teamID, team.SettingsInput{Name: "Infantil", Mode: "percent", TopPct: 50})
	require.NoError(t, err)
	public, err = f.svc.PublicRanking(ctx, f.teamID)
	require.NoError(t, err)
	assert.Len(t, public.Entries, 2)
}

func TestPublicRankingSkipsUnscoredPlayers(t *testing.T) {
	f, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	public, err := f.svc.PublicRanking(ctx, f.teamID)
	require.NoError(t, err)
	assert.Empty(t, public.Entries)
	assert.Zero(t, public.Hidden)

	sess, err := f.sessions.Start(ctx, coach, f.teamID, 0)
	require.NoError(t, err)
	_, err = f.sessions.SaveDrillResults(ctx, coach, sess.ID, 1, scoring.HigherWins, []scoring.RawResult{
		{PlayerID: f.players[3], RawScore: 10},
	})
	require.NoError(t, err)

	public, err = f.svc.PublicRanking(ctx, f.teamID)
	require.NoError(t, err)
	require.Len(t, public.Entries, 1)
	assert.Equal(t, f.players[3], public.Entries[0].PlayerID)
	assert.Equal(t, float64(scoring.MaxPoints), public.Entries[0].Points)
	assert.Zero(t, public.Hidden)
}
