package game

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

type defaultAction struct {
	name       string
	value      float64
	positive   bool
	section    string
	scoreValue int
	color      string
}

var defaultActions = []defaultAction{
	{"Tiro Libre", 1, true, scoring.SectionOffense, 1, "#198754"},
	{"Canasta", 2, true, scoring.SectionOffense, 2, "#198754"},
	{"Triple", 3, true, scoring.SectionOffense, 3, "#198754"},
	{"Asistencia", 1, true, scoring.SectionOffense, 0, "#0d6efd"},
	{"Rebote Ataque", 1, true, scoring.SectionOffense, 0, "#0d6efd"},
	{"Canasta Fallada", -0.25, false, scoring.SectionOffense, 0, "#dc3545"},
	{"Balón Perdido", -0.5, false, scoring.SectionOffense, 0, "#dc3545"},
	{"Recibo Tapón/Robo", -0.5, false, scoring.SectionOffense, 0, "#dc3545"},
	{"Rebote Defensa", 1, true, scoring.SectionDefense, 0, "#0d6efd"},
	{"Tapón", 1, true, scoring.SectionDefense, 0, "#0d6efd"},
	{"Robo", 1, true, scoring.SectionDefense, 0, "#0d6efd"},
	{"Provocar Pérdida", 1, true, scoring.SectionDefense, 0, "#0d6efd"},
	{"Gritar Presión", 1, true, scoring.SectionDefense, 0, "#6f42c1"},
	{"Falta Personal", -0.5, false, scoring.SectionDefense, 0, "#dc3545"},
}

type defaultRanking struct {
	name        string
	icon        string
	ingredients []string // nil means every default action
}

var defaultRankings = []defaultRanking{
	{"MVP (Valoración)", "star", nil},
	{"El Pulpo", "octopus", []string{"Rebote Ataque", "Rebote Defensa"}},
	{"El Muro", "shield", []string{"Tapón", "Robo", "Provocar Pérdida", "Gritar Presión"}},
	{"El Mago", "magic", []string{"Asistencia"}},
	{"Máximo Anotador", "fire", []string{"Tiro Libre", "Canasta", "Triple"}},
}

// InstallDefaults gives a new coach the standard tracker buttons and leaderboards.
// It does nothing when the owner already has actions.
func (s *store) InstallDefaults(ctx context.Context, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.InstallDefaultsTx(ctx, tx, ownerID); err != nil {
		return err
	}
	return tx.Commit()
}

// InstallDefaultsTx is InstallDefaults inside the caller's transaction. The caller commits.
func (s *store) InstallDefaultsTx(ctx context.Context, tx *sql.Tx, ownerID int64) error {
	var existing int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM action_definitions WHERE user_id = ?", ownerID).Scan(&existing); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil
	}

	layout := NewLayout(nil)
	ids := make(map[string]int64, len(defaultActions))
	all := make([]int64, 0, len(defaultActions))
	for _, d := range defaultActions {
		cell := layout.FirstFree(Block{Section: d.section, Positive: d.positive})
		a := Action{
			OwnerID: ownerID, Name: d.name, Value: d.value, IsPositive: d.positive,
			Section: d.section, ScoreValue: d.scoreValue, Color: d.color, Row: cell.Row, Col: cell.Col,
		}
		if err := insertAction(ctx, tx, &a); err != nil {
			return err
		}
		if err := layout.Place(a.ID, cell); err != nil {
			return err
		}
		ids[d.name] = a.ID
		all = append(all, a.ID)
	}

	for _, d := range defaultRankings {
		res, err := tx.ExecContext(ctx, "INSERT INTO ranking_definitions (user_id, name, icon, context) VALUES (?, ?, ?, ?)",
			ownerID, d.name, d.icon, ContextMatch)
		if err != nil {
			return fmt.Errorf("failed to create ranking %q: %w", d.name, err)
		}
		rankingID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ingredients := all
		if d.ingredients != nil {
			ingredients = make([]int64, 0, len(d.ingredients))
			for _, name := range d.ingredients {
				ingredients = append(ingredients, ids[name])
			}
		}
		if err := replaceIngredients(ctx, tx, rankingID, ownerID, ingredients); err != nil {
			return err
		}
	}

	log.Info("Installed default game config", "owner", ownerID, "actions", len(defaultActions), "rankings", len(defaultRankings))
	return nil
}
