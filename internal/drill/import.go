package drill

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// Capitalize upper-cases the first letter of a tag name and lower-cases the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// parseImportTags splits the tag column, normalising and deduplicating the names.
func parseImportTags(field string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, raw := range strings.Split(field, ",") {
		name := Capitalize(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags
}

func isHeader(record []string) bool {
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "link" || first == "url" || first == "enlace"
}

// Import loads "link,title,tags" rows. Drills already known by link get their primary tags
// extended; new links become public link drills owned by the caller. Admin only.
func (s *store) Import(ctx context.Context, actor identity.Identity, r io.Reader) (*ImportReport, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	report := &ImportReport{Rejected: []ImportError{}}
	reject := func(line int, reason string) {
		report.Rejected = append(report.Rejected, ImportError{Line: line, Reason: reason})
	}

	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				reject(parseErr.Line, parseErr.Err.Error())
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if first && isHeader(record) {
			continue
		}
		if len(record) < 3 {
			reject(line, "expected link,title,tags")
			continue
		}

		link := strings.TrimSpace(record[0])
		title := strings.TrimSpace(record[1])
		tags := parseImportTags(record[2])
		switch {
		case link == "":
			reject(line, "empty link")
			continue
		case len(tags) == 0:
			reject(line, "no tags")
			continue
		case len(tags) > MaxImportTags:
			reject(line, fmt.Sprintf("more than %d tags", MaxImportTags))
			continue
		}
		if title == "" {
			title = link
		}

		drillID, created, err := upsertLinkDrill(ctx, tx, actor.UserID, link, title)
		if err != nil {
			return nil, err
		}
		for _, name := range tags {
			tagID, err := ensureTag(ctx, tx, name)
			if err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO drill_primary_tags (drill_id, tag_id) VALUES (?, ?)", drillID, tagID); err != nil {
				return nil, fmt.Errorf("failed to tag drill: %w", err)
			}
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Info("Imported drills", "created", report.Created, "updated", report.Updated, "rejected", len(report.Rejected))
	return report, nil
}

func upsertLinkDrill(ctx context.Context, tx *sql.Tx, ownerID int64, link, title string) (int64, bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM drills WHERE external_link = ? ORDER BY id LIMIT 1", link).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("database error: %w", err)
	}
	id, err = insertDrill(ctx, tx, &Drill{
		Title:        title,
		Description:  "Importado automáticamente",
		PostedAt:     time.Now(),
		MediaType:    MediaLink,
		ExternalLink: link,
		IsPublic:     true,
		OwnerID:      ownerID,
	})
	return id, true, err
}

func ensureTag(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	t, err := findTag(ctx, tx, name)
	if err == nil {
		return t.ID, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}
	return res.LastInsertId()
}
