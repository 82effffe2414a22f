package drill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// New creates a new DrillStore.
func New(db *sql.DB) DrillStore {
	return &store{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectDrill = `
	SELECT d.id, d.title, d.description, d.posted_at, d.media_type, d.media_file, d.external_link,
		d.cover_image, d.is_public, d.views, d.user_id,
		(SELECT COUNT(*) FROM favorites f WHERE f.drill_id = d.id) AS favs
	FROM drills d`

func scanDrill(row interface{ Scan(...any) error }) (Drill, error) {
	var (
		d      Drill
		posted int64
		link   sql.NullString
		media  string
	)
	err := row.Scan(&d.ID, &d.Title, &d.Description, &posted, &media, &d.MediaFile, &link,
		&d.CoverImage, &d.IsPublic, &d.Views, &d.OwnerID, &d.Favorites)
	if err != nil {
		return d, err
	}
	d.PostedAt = time.Unix(posted, 0)
	d.MediaType = MediaType(media)
	d.ExternalLink = link.String
	d.PrimaryTags = []Tag{}
	d.SecondaryTags = []Tag{}
	return d, nil
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// List returns the drills visible to the caller: public ones plus their own.
func (s *store) List(ctx context.Context, actor identity.Identity, f ListFilter) ([]Drill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := []string{"(d.is_public = 1 OR d.user_id = ?)"}
	args := []any{actor.UserID}

	if !actor.Anonymous() && len(f.FilterTypes) > 0 {
		var or []string
		for _, ft := range f.FilterTypes {
			switch ft {
			case FilterMyPrivate:
				or = append(or, "(d.user_id = ? AND d.is_public = 0)")
				args = append(args, actor.UserID)
			case FilterMyPublic:
				or = append(or, "(d.user_id = ? AND d.is_public = 1)")
				args = append(args, actor.UserID)
			case FilterOthers:
				or = append(or, "(d.user_id != ? AND d.is_public = 1)")
				args = append(args, actor.UserID)
			case FilterFavorites:
				or = append(or, "d.id IN (SELECT drill_id FROM favorites WHERE user_id = ?)")
				args = append(args, actor.UserID)
			}
		}
		if len(or) > 0 {
			where = append(where, "("+strings.Join(or, " OR ")+")")
		}
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(lower(d.title) LIKE ? OR lower(d.description) LIKE ?)")
		term := "%" + strings.ToLower(q) + "%"
		args = append(args, term, term)
	}

	if len(f.PrimaryTagIDs) > 0 {
		where = append(where, "d.id IN (SELECT drill_id FROM drill_primary_tags WHERE tag_id IN ("+placeholders(len(f.PrimaryTagIDs))+"))")
		args = append(args, int64Args(f.PrimaryTagIDs)...)
	}

	var order string
	switch f.SortBy {
	case SortViewsDesc:
		order = "d.views DESC, d.id DESC"
	case SortNameAsc:
		order = "d.title COLLATE NOCASE ASC, d.id"
	case SortDateAsc:
		order = "d.posted_at ASC, d.id"
	case SortDateDesc:
		order = "d.posted_at DESC, d.id DESC"
	default:
		order = "favs DESC, d.posted_at DESC, d.id DESC"
	}

	rows, err := s.db.QueryContext(ctx, selectDrill+" WHERE "+strings.Join(where, " AND ")+" ORDER BY "+order, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	drills := []Drill{}
	for rows.Next() {
		d, err := scanDrill(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		drills = append(drills, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, s.db, drills); err != nil {
		return nil, err
	}
	if err := s.attachFavorites(ctx, actor, drills); err != nil {
		return nil, err
	}
	return drills, nil
}

// attachTags loads primary and secondary tags for a batch of drills.
func (s *store) attachTags(ctx context.Context, q querier, drills []Drill) error {
	if len(drills) == 0 {
		return nil
	}
	index := make(map[int64]int, len(drills))
	ids := make([]int64, len(drills))
	for i, d := range drills {
		index[d.ID] = i
		ids[i] = d.ID
	}

	for _, table := range []string{"drill_primary_tags", "drill_secondary_tags"} {
		rows, err := q.QueryContext(ctx, `
			SELECT x.drill_id, t.id, t.name FROM `+table+` x
			JOIN tags t ON t.id = x.tag_id
			WHERE x.drill_id IN (`+placeholders(len(ids))+`)
			ORDER BY t.name`, int64Args(ids)...)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		for rows.Next() {
			var (
				drillID int64
				tag     Tag
			)
			if err := rows.Scan(&drillID, &tag.ID, &tag.Name); err != nil {
				rows.Close()
				return err
			}
			d := &drills[index[drillID]]
			if table == "drill_primary_tags" {
				d.PrimaryTags = append(d.PrimaryTags, tag)
			} else {
				d.SecondaryTags = append(d.SecondaryTags, tag)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) attachFavorites(ctx context.Context, actor identity.Identity, drills []Drill) error {
	if actor.Anonymous() || len(drills) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT drill_id FROM favorites WHERE user_id = ?", actor.UserID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	favs := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		favs[id] = true
	}
	for i := range drills {
		drills[i].IsFavorite = favs[drills[i].ID]
	}
	return rows.Err()
}

func getDrill(ctx context.Context, q querier, id int64) (*Drill, error) {
	d, err := scanDrill(q.QueryRowContext(ctx, selectDrill+" WHERE d.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &d, nil
}

func visible(d *Drill, actor identity.Identity) bool {
	return d.IsPublic || (!actor.Anonymous() && d.OwnerID == actor.UserID)
}

// Get loads a drill. Private drills are only visible to their owner.
func (s *store) Get(ctx context.Context, actor identity.Identity, id int64) (*Drill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := getDrill(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !visible(d, actor) {
		return nil, ErrNotFound
	}
	one := []Drill{*d}
	if err := s.attachTags(ctx, s.db, one); err != nil {
		return nil, err
	}
	if err := s.attachFavorites(ctx, actor, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Create adds a drill owned by the caller. Uploaded videos are reserved to administrators.
func (s *store) Create(ctx context.Context, actor identity.Identity, in Input) (*Drill, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if in.MediaType == MediaVideoFile && !actor.IsAdmin {
		return nil, identity.ErrForbidden
	}
	link := strings.TrimSpace(in.ExternalLink)
	if in.MediaType == MediaLink && link == "" {
		return nil, ErrMissingLink
	}
	if in.MediaType != MediaLink {
		link = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d := Drill{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		PostedAt:     time.Now(),
		MediaType:    in.MediaType,
		MediaFile:    in.MediaFile,
		ExternalLink: link,
		CoverImage:   in.CoverImage,
		IsPublic:     in.IsPublic,
		OwnerID:      actor.UserID,
	}
	if d.ID, err = insertDrill(ctx, tx, &d); err != nil {
		return nil, err
	}
	if err := setTags(ctx, tx, "drill_primary_tags", d.ID, in.PrimaryTagIDs); err != nil {
		return nil, err
	}
	if err := setTags(ctx, tx, "drill_secondary_tags", d.ID, in.SecondaryTagIDs); err != nil {
		return nil, err
	}

	created, err := getDrill(ctx, tx, d.ID)
	if err != nil {
		return nil, err
	}
	one := []Drill{*created}
	if err := s.attachTags(ctx, tx, one); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Created drill", "drillID", d.ID, "type", d.MediaType, "owner", d.OwnerID)
	return &one[0], nil
}

func insertDrill(ctx context.Context, q querier, d *Drill) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO drills (title, description, posted_at, media_type, media_file, external_link, cover_image, is_public, views, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		d.Title, d.Description, d.PostedAt.Unix(), d.MediaType, d.MediaFile,
		sql.NullString{String: d.ExternalLink, Valid: d.ExternalLink != ""},
		d.CoverImage, d.IsPublic, d.OwnerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert drill: %w", err)
	}
	return res.LastInsertId()
}

// setTags replaces a tag association. Unknown tag ids are skipped.
func setTags(ctx context.Context, q querier, table string, drillID int64, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE drill_id = ?", drillID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO `+table+` (drill_id, tag_id)
			SELECT ?, id FROM tags WHERE id = ?`, drillID, tagID)
		if err != nil {
			return fmt.Errorf("failed to tag drill: %w", err)
		}
	}
	return nil
}

// editable loads a drill the caller may modify: the owner or an administrator.
func editable(ctx context.Context, q querier, actor identity.Identity, id int64) (*Drill, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	d, err := getDrill(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrAdmin(d.OwnerID) {
		return nil, identity.ErrForbidden
	}
	return d, nil
}

// Update edits the text, visibility and tags of a drill. A non-empty CoverImage replaces the cover.
func (s *store) Update(ctx context.Context, actor identity.Identity, id int64, in Input) (*Drill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d, err := editable(ctx, tx, actor, id)
	if err != nil {
		return nil, err
	}
	cover := d.CoverImage
	if in.CoverImage != "" {
		cover = in.CoverImage
	}
	_, err = tx.ExecContext(ctx, "UPDATE drills SET title = ?, description = ?, is_public = ?, cover_image = ? WHERE id = ?",
		strings.TrimSpace(in.Title), in.Description, in.IsPublic, cover, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update drill: %w", err)
	}
	if err := setTags(ctx, tx, "drill_primary_tags", id, in.PrimaryTagIDs); err != nil {
		return nil, err
	}
	if err := setTags(ctx, tx, "drill_secondary_tags", id, in.SecondaryTagIDs); err != nil {
		return nil, err
	}

	updated, err := getDrill(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	one := []Drill{*updated}
	if err := s.attachTags(ctx, tx, one); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Delete removes a drill and returns it so the caller can clean up its files.
func (s *store) Delete(ctx context.Context, actor identity.Identity, id int64) (*Drill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := editable(ctx, s.db, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM drills WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to delete drill: %w", err)
	}
	log.Info("Deleted drill", "drillID", id, "by", actor.UserID)
	return d, nil
}

// Duplicate copies a drill into a private draft owned by the caller.
func (s *store) Duplicate(ctx context.Context, actor identity.Identity, id int64) (*Drill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	src, err := editable(ctx, tx, actor, id)
	if err != nil {
		return nil, err
	}
	cp := *src
	cp.Title = src.Title + " (Copia)"
	cp.IsPublic = false
	cp.OwnerID = actor.UserID
	cp.PostedAt = time.Now()
	if cp.ID, err = insertDrill(ctx, tx, &cp); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO drill_primary_tags (drill_id, tag_id)
		SELECT ?, tag_id FROM drill_primary_tags WHERE drill_id = ?`, cp.ID, src.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to copy tags: %w", err)
	}

	dup, err := getDrill(ctx, tx, cp.ID)
	if err != nil {
		return nil, err
	}
	one := []Drill{*dup}
	if err := s.attachTags(ctx, tx, one); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// viewWindow is how long a visitor's view is remembered.
const viewWindow = 24 * time.Hour

// RecordView counts a view unless the same IP already viewed the drill inside the window.
func (s *store) RecordView(ctx context.Context, id int64, ip string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now()
	var seen int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM drill_views WHERE drill_id = ? AND ip_address = ? AND viewed_at > ?`,
		id, ip, now.Add(-viewWindow).Unix()).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	if seen > 0 {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, "UPDATE drills SET views = views + 1 WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to count view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO drill_views (drill_id, ip_address, viewed_at) VALUES (?, ?, ?)", id, ip, now.Unix()); err != nil {
		return false, fmt.Errorf("failed to record view: %w", err)
	}
	return true, tx.Commit()
}

// ToggleFavorite flips the caller's favorite mark and returns the new state.
func (s *store) ToggleFavorite(ctx context.Context, actor identity.Identity, id int64) (bool, error) {
	if err := actor.Require(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := getDrill(ctx, s.db, id)
	if err != nil {
		return false, err
	}
	if !visible(d, actor) {
		return false, ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = ? AND drill_id = ?", actor.UserID, id)
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO favorites (user_id, drill_id) VALUES (?, ?)", actor.UserID, id); err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

// IsFileReferenced reports whether any drill still uses an uploaded file as media or cover.
func (s *store) IsFileReferenced(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drills WHERE media_file = ? OR cover_image = ?", name, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return n > 0, nil
}
