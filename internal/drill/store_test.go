package drill_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/drill"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = identity.Identity{UserID: 1, Email: "admin@example.com", IsAdmin: true}
	coach = identity.Identity{UserID: 2, Email: "coach@example.com"}
	guest = identity.Identity{}
)

// setupTestDB creates an in-memory database with an admin and a coach.
func setupTestDB(t *testing.T) (drill.DrillStore, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, email, name, is_admin, created_at) VALUES
		(1, 'admin@example.com', 'Admin', 1, 0),
		(2, 'coach@example.com', 'Coach', 0, 0)`)
	require.NoError(t, err)

	return drill.New(db), db, teardown
}

func titles(drills []drill.Drill) []string {
	out := make([]string, len(drills))
	for i, d := range drills {
		out[i] = d.Title
	}
	return out
}

func linkInput(title, link string, public bool, tags ...int64) drill.Input {
	return drill.Input{Title: title, MediaType: drill.MediaLink, ExternalLink: link, IsPublic: public, PrimaryTagIDs: tags}
}

func TestCreateRules(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.Create(ctx, guest, linkInput("x", "https://a", true))
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)

	_, err = store.Create(ctx, coach, drill.Input{Title: "Video", MediaType: drill.MediaVideoFile, MediaFile: "v.mp4"})
	assert.ErrorIs(t, err, identity.ErrForbidden)

	_, err = store.Create(ctx, coach, drill.Input{Title: "No link", MediaType: drill.MediaLink})
	assert.ErrorIs(t, err, drill.ErrMissingLink)

	video, err := store.Create(ctx, admin, drill.Input{Title: "Video", MediaType: drill.MediaVideoFile, MediaFile: "v.mp4", ExternalLink: "ignored"})
	require.NoError(t, err)
	assert.Empty(t, video.ExternalLink)
	assert.Equal(t, "v.mp4", video.MediaFile)
}

func TestListVisibilityAndFilters(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	tiro, err := store.CreateTag(ctx, admin, "Tiro")
	require.NoError(t, err)
	pase, err := store.CreateTag(ctx, admin, "Pase")
	require.NoError(t, err)

	adminPublic, err := store.Create(ctx, admin, linkInput("Rueda de tiro", "https://a", true, tiro.ID))
	require.NoError(t, err)
	_, err = store.Create(ctx, admin, linkInput("Secreto", "https://b", false))
	require.NoError(t, err)
	_, err = store.Create(ctx, coach, linkInput("Pase picado", "https://c", true, pase.ID))
	require.NoError(t, err)
	_, err = store.Create(ctx, coach, linkInput("Mi borrador", "https://d", false, tiro.ID))
	require.NoError(t, err)

	t.Run("anonymous sees public drills only", func(t *testing.T) {
		drills, err := store.List(ctx, guest, drill.ListFilter{SortBy: drill.SortNameAsc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Pase picado", "Rueda de tiro"}, titles(drills))
	})

	t.Run("coach sees own private drills", func(t *testing.T) {
		drills, err := store.List(ctx, coach, drill.ListFilter{SortBy: drill.SortNameAsc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mi borrador", "Pase picado", "Rueda de tiro"}, titles(drills))
	})

	t.Run("filter types are OR'ed", func(t *testing.T) {
		drills, err := store.List(ctx, coach, drill.ListFilter{FilterTypes: []string{drill.FilterMyPrivate, drill.FilterOthers}, SortBy: drill.SortNameAsc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mi borrador", "Rueda de tiro"}, titles(drills))
	})

	t.Run("filter types are ignored for visitors", func(t *testing.T) {
		drills, err := store.List(ctx, guest, drill.ListFilter{FilterTypes: []string{drill.FilterMyPrivate}})
		require.NoError(t, err)
		assert.Len(t, drills, 2)
	})

	t.Run("query is case insensitive", func(t *testing.T) {
		drills, err := store.List(ctx, coach, drill.ListFilter{Query: "TIRO"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Rueda de tiro"}, titles(drills))
	})

	t.Run("primary tags", func(t *testing.T) {
		drills, err := store.List(ctx, coach, drill.ListFilter{PrimaryTagIDs: []int64{tiro.ID}, SortBy: drill.SortNameAsc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mi borrador", "Rueda de tiro"}, titles(drills))
		require.Len(t, drills[1].PrimaryTags, 1)
		assert.Equal(t, "Tiro", drills[1].PrimaryTags[0].Name)
	})

	t.Run("favorites", func(t *testing.T) {
		on, err := store.ToggleFavorite(ctx, coach, adminPublic.ID)
		require.NoError(t, err)
		assert.True(t, on)

		drills, err := store.List(ctx, coach, drill.ListFilter{FilterTypes: []string{drill.FilterFavorites}})
		require.NoError(t, err)
		require.Len(t, drills, 1)
		assert.True(t, drills[0].IsFavorite)
		assert.Equal(t, 1, drills[0].Favorites)

		drills, err = store.List(ctx, guest, drill.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, "Rueda de tiro", drills[0].Title, "most favorited first by default")

		off, err := store.ToggleFavorite(ctx, coach, adminPublic.ID)
		require.NoError(t, err)
		assert.False(t, off)
	})
}

func TestSortByViews(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.Create(ctx, coach, linkInput("A", "https://a", true))
	require.NoError(t, err)
	_, err = store.Create(ctx, coach, linkInput("B", "https://b", true))
	require.NoError(t, err)
	_, err = db.Exec("UPDATE drills SET views = 10 WHERE id = ?", a.ID)
	require.NoError(t, err)

	drills, err := store.List(ctx, coach, drill.ListFilter{SortBy: drill.SortViewsDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles(drills))

	drills, err = store.List(ctx, coach, drill.ListFilter{SortBy: drill.SortDateDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, titles(drills))
}

func TestGetUpdateDeleteDuplicate(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	tag, err := store.CreateTag(ctx, admin, "Bote")
	require.NoError(t, err)
	private, err := store.Create(ctx, coach, linkInput("Privado", "https://p", false, tag.ID))
	require.NoError(t, err)

	_, err = store.Get(ctx, guest, private.ID)
	assert.ErrorIs(t, err, drill.ErrNotFound)
	got, err := store.Get(ctx, coach, private.ID)
	require.NoError(t, err)
	assert.Len(t, got.PrimaryTags, 1)

	updated, err := store.Update(ctx, admin, private.ID, drill.Input{Title: "Ahora público", IsPublic: true, CoverImage: "cover.jpg"})
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, "cover.jpg", updated.CoverImage)
	assert.Empty(t, updated.PrimaryTags)

	other := identity.Identity{UserID: 3, Email: "x@example.com"}
	_, err = store.Update(ctx, other, private.ID, drill.Input{Title: "hack"})
	assert.ErrorIs(t, err, identity.ErrForbidden)

	_, err = store.Update(ctx, coach, private.ID, drill.Input{Title: "Con tag", IsPublic: true, PrimaryTagIDs: []int64{tag.ID}})
	require.NoError(t, err)

	dup, err := store.Duplicate(ctx, coach, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "Con tag (Copia)", dup.Title)
	assert.False(t, dup.IsPublic)
	assert.Equal(t, "https://p", dup.ExternalLink)
	assert.Equal(t, "cover.jpg", dup.CoverImage)
	assert.Len(t, dup.PrimaryTags, 1)

	deleted, err := store.Delete(ctx, coach, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "cover.jpg", deleted.CoverImage)

	referenced, err := store.IsFileReferenced(ctx, "cover.jpg")
	require.NoError(t, err)
	assert.True(t, referenced, "the copy still uses the cover")

	_, err = store.Delete(ctx, coach, dup.ID)
	require.NoError(t, err)
	referenced, err = store.IsFileReferenced(ctx, "cover.jpg")
	require.NoError(t, err)
	assert.False(t, referenced)
}

func TestRecordViewOncePerIP(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	d, err := store.Create(ctx, coach, linkInput("A", "https://a", true))
	require.NoError(t, err)

	counted, err := store.RecordView(ctx, d.ID, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, counted)
	counted, err = store.RecordView(ctx, d.ID, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, counted)
	counted, err = store.RecordView(ctx, d.ID, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, counted)

	got, err := store.Get(ctx, guest, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)

	_, err = store.RecordView(ctx, 999, "10.0.0.1")
	assert.ErrorIs(t, err, drill.ErrNotFound)
}

func TestTags(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreateTag(ctx, coach, "Tiro")
	assert.ErrorIs(t, err, identity.ErrForbidden)

	tag, err := store.CreateTag(ctx, admin, "  Tiro ")
	require.NoError(t, err)
	assert.Equal(t, "Tiro", tag.Name)

	_, err = store.CreateTag(ctx, admin, "Tiro")
	assert.ErrorIs(t, err, drill.ErrTagExists)
	_, err = store.CreateTag(ctx, admin, " ")
	assert.ErrorIs(t, err, drill.ErrEmptyTag)

	require.NoError(t, store.DeleteTag(ctx, admin, tag.ID))
	assert.ErrorIs(t, store.DeleteTag(ctx, admin, tag.ID), drill.ErrTagNotFound)

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestImport(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	existing, err := store.Create(ctx, coach, linkInput("Ya existe", "https://youtu.be/abc", true))
	require.NoError(t, err)

	csv := strings.Join([]string{
		"link,title,tags",
		`https://youtu.be/abc,Ignored title,"tiro, PASE"`,
		`https://youtu.be/new,Nuevo ejercicio,"bote,bote,rebote"`,
		`https://youtu.be/short,Solo dos`,
		`,Sin link,tiro`,
		`https://youtu.be/empty,Sin tags," , "`,
		`https://youtu.be/many,Demasiados,"a,b,c,d,e,f"`,
	}, "\n")

	_, err = store.Import(ctx, coach, strings.NewReader(csv))
	assert.ErrorIs(t, err, identity.ErrForbidden)

	report, err := store.Import(ctx, admin, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Rejected, 4)
	assert.Equal(t, 4, report.Rejected[0].Line)
	assert.Equal(t, "empty link", report.Rejected[1].Reason)
	assert.Equal(t, "no tags", report.Rejected[2].Reason)
	assert.Equal(t, 7, report.Rejected[3].Line)

	got, err := store.Get(ctx, coach, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ya existe", got.Title)
	require.Len(t, got.PrimaryTags, 2)
	assert.Equal(t, "Pase", got.PrimaryTags[0].Name)
	assert.Equal(t, "Tiro", got.PrimaryTags[1].Name)

	drills, err := store.List(ctx, guest, drill.ListFilter{Query: "nuevo"})
	require.NoError(t, err)
	require.Len(t, drills, 1)
	assert.Equal(t, "Importado automáticamente", drills[0].Description)
	assert.Equal(t, admin.UserID, drills[0].OwnerID)
	assert.Len(t, drills[0].PrimaryTags, 2)

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 4)
}
