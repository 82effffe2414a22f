package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{
		"users", "invitations", "teams", "team_staff", "players", "drills", "tags",
		"training_plans", "training_items", "training_sessions", "session_scores",
		"action_definitions", "ranking_definitions", "matches", "match_events", "site_config",
	} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_ForeignKeysEnabled(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	_, err = db.Exec(`INSERT INTO players (team_id, name, dorsal) VALUES (999, 'Ghost', 0)`)
	assert.Error(t, err, "inserting a player for a missing team should violate the foreign key")
}

func TestMigrate_AppliesLedgerOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basket.db")

	db, teardown, err := InitDB(path, "", "")
	require.NoError(t, err)

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE version_id > 0").Scan(&applied))
	teardown()

	db, teardown, err = InitDB(path, "", "")
	require.NoError(t, err)
	defer teardown()

	require.NoError(t, Migrate(context.Background(), db))

	var afterRestart int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE version_id > 0").Scan(&afterRestart))
	assert.Equal(t, applied, afterRestart, "re-running the ledger must not re-apply versions")
}
