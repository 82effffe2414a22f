package plan_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	coach = identity.Identity{UserID: 1, Email: "coach@example.com"}
	other = identity.Identity{UserID: 2, Email: "other@example.com"}
)

// setupTestDB creates an in-memory database with two coaches and three drills.
// Drill 3 is private to the other coach.
func setupTestDB(t *testing.T) (plan.PlanStore, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, email, name, created_at) VALUES (1, 'coach@example.com', 'Coach', 0), (2, 'other@example.com', 'Other', 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO drills (id, title, posted_at, is_public, user_id) VALUES
		(1, 'Rueda', 0, 1, 2), (2, 'Tiro libre', 0, 1, 2), (3, 'Secreto', 0, 0, 2)`)
	require.NoError(t, err)

	return plan.New(db), db, teardown
}

func TestParseBlocks(t *testing.T) {
	assert.Equal(t, []string{"Calentamiento", "Tiro"}, plan.ParseBlocks(" Calentamiento, ,Tiro,"))
	assert.Empty(t, plan.ParseBlocks(""))
}

func TestCreateRemembersBlocks(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p, err := store.Create(ctx, coach, plan.Input{Name: "Martes", Date: "2025-03-04", Blocks: "Calentamiento , Tiro"})
	require.NoError(t, err)
	assert.Equal(t, "Calentamiento,Tiro", p.Structure)
	assert.Equal(t, "2025-03-04", p.Date.Format("2006-01-02"))
	assert.False(t, p.IsPublic)

	var blocks string
	require.NoError(t, db.QueryRow("SELECT last_blocks_config FROM users WHERE id = 1").Scan(&blocks))
	assert.Equal(t, "Calentamiento,Tiro", blocks)

	_, err = store.Create(ctx, coach, plan.Input{Name: "Jueves", Date: "2025-03-06"})
	require.NoError(t, err)

	plans, err := store.ListForOwner(ctx, coach)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Jueves", plans[0].Name)

	plans, err = store.ListForOwner(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestItemsAndOrdering(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p, err := store.Create(ctx, coach, plan.Input{Name: "Sesión", Blocks: "Calentamiento,Tiro"})
	require.NoError(t, err)

	tiro, err := store.AddItem(ctx, coach, p.ID, 2, "Tiro")
	require.NoError(t, err)
	assert.Equal(t, 1, tiro.Order)
	assert.Equal(t, plan.DefaultItemDuration, tiro.Duration)

	warm1, err := store.AddItem(ctx, coach, p.ID, 1, "Calentamiento")
	require.NoError(t, err)
	warm2, err := store.AddItem(ctx, coach, p.ID, 2, "Calentamiento")
	require.NoError(t, err)
	assert.Equal(t, 2, warm2.Order)

	_, err = store.AddItem(ctx, coach, p.ID, 3, "Tiro")
	assert.ErrorIs(t, err, plan.ErrDrillNotFound, "private drill of another coach")
	_, err = store.AddItem(ctx, coach, p.ID, 1, " ")
	assert.ErrorIs(t, err, plan.ErrEmptyBlock)
	_, err = store.AddItem(ctx, other, p.ID, 1, "Tiro")
	assert.ErrorIs(t, err, identity.ErrForbidden)

	require.NoError(t, store.UpdateItemDuration(ctx, coach, tiro.ID, 25))
	assert.ErrorIs(t, store.UpdateItemDuration(ctx, coach, tiro.ID, 0), plan.ErrInvalidDuration)
	assert.ErrorIs(t, store.UpdateItemDuration(ctx, coach, tiro.ID, 601), plan.ErrInvalidDuration)
	assert.ErrorIs(t, store.UpdateItemDuration(ctx, other, tiro.ID, 5), identity.ErrForbidden)

	got, err := store.Get(ctx, coach, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, []int64{warm1.ID, warm2.ID, tiro.ID}, []int64{got.Items[0].ID, got.Items[1].ID, got.Items[2].ID})
	assert.Equal(t, "Rueda", got.Items[0].DrillTitle)
	assert.Equal(t, 45, got.TotalMinutes)

	planID, err := store.DeleteItem(ctx, coach, warm1.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, planID)
	_, err = store.DeleteItem(ctx, coach, warm1.ID)
	assert.ErrorIs(t, err, plan.ErrItemNotFound)
}

func TestSortItemsUnknownBlocksLast(t *testing.T) {
	items := []plan.Item{
		{ID: 1, BlockName: "Extra", Order: 1},
		{ID: 2, BlockName: "Tiro", Order: 2},
		{ID: 3, BlockName: "Tiro", Order: 1},
		{ID: 4, BlockName: "Calentamiento", Order: 1},
	}
	plan.SortItems(items, []string{"Calentamiento", "Tiro"})
	assert.Equal(t, []int64{4, 3, 2, 1}, []int64{items[0].ID, items[1].ID, items[2].ID, items[3].ID})
}

func TestVisibilityUpdateDuplicateDelete(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p, err := store.Create(ctx, coach, plan.Input{Name: "Base", Blocks: "Tiro"})
	require.NoError(t, err)
	_, err = store.AddItem(ctx, coach, p.ID, 1, "Tiro")
	require.NoError(t, err)

	_, err = store.Get(ctx, other, p.ID)
	assert.ErrorIs(t, err, identity.ErrForbidden)

	updated, err := store.Update(ctx, coach, p.ID, plan.Input{Name: "Base pública", Blocks: "Tiro,Físico", IsPublic: true})
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)
	assert.Len(t, updated.Items, 1)

	shared, err := store.Get(ctx, other, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Base pública", shared.Name)

	_, err = store.Update(ctx, other, p.ID, plan.Input{Name: "hack"})
	assert.ErrorIs(t, err, identity.ErrForbidden)
	_, err = store.Duplicate(ctx, other, p.ID)
	assert.ErrorIs(t, err, identity.ErrForbidden)

	dup, err := store.Duplicate(ctx, coach, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Base pública (Copia)", dup.Name)
	assert.False(t, dup.IsPublic)
	require.Len(t, dup.Items, 1)
	assert.Equal(t, dup.ID, dup.Items[0].PlanID)

	require.NoError(t, store.Delete(ctx, coach, p.ID))
	_, err = store.Get(ctx, coach, p.ID)
	assert.ErrorIs(t, err, plan.ErrNotFound)

	_, err = store.Get(ctx, coach, dup.ID)
	require.NoError(t, err, "the copy is independent")
}
