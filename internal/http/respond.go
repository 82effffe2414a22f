package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/auth"
	"github.com/jcaplliure/EntrenadorBasket/internal/drill"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/plan"
	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/siteconfig"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
	"github.com/jcaplliure/EntrenadorBasket/internal/validation"
)

var errBadRequest = errors.New("malformed request")

// errorStatus lists the domain errors that are the caller's fault.
var errorStatus = []struct {
	err    error
	status int
}{
	{identity.ErrUnauthenticated, http.StatusUnauthorized},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{identity.ErrForbidden, http.StatusForbidden},
	{auth.ErrNotInvited, http.StatusForbidden},

	{user.ErrNotFound, http.StatusNotFound},
	{team.ErrNotFound, http.StatusNotFound},
	{team.ErrPlayerNotFound, http.StatusNotFound},
	{team.ErrStaffNotFound, http.StatusNotFound},
	{drill.ErrNotFound, http.StatusNotFound},
	{drill.ErrTagNotFound, http.StatusNotFound},
	{plan.ErrNotFound, http.StatusNotFound},
	{plan.ErrItemNotFound, http.StatusNotFound},
	{plan.ErrDrillNotFound, http.StatusNotFound},
	{session.ErrNotFound, http.StatusNotFound},
	{session.ErrDrillNotFound, http.StatusNotFound},
	{session.ErrPlanNotFound, http.StatusNotFound},
	{game.ErrNotFound, http.StatusNotFound},
	{match.ErrNotFound, http.StatusNotFound},
	{ranking.ErrMatchNotFound, http.StatusNotFound},

	{user.ErrEmailTaken, http.StatusConflict},
	{team.ErrAlreadyInvited, http.StatusConflict},
	{team.ErrInvalidTransition, http.StatusConflict},
	{team.ErrPlayerHasEvents, http.StatusConflict},
	{drill.ErrTagExists, http.StatusConflict},
	{game.ErrCellOccupied, http.StatusConflict},
	{game.ErrActionInUse, http.StatusConflict},
	{session.ErrFinished, http.StatusConflict},
	{match.ErrFinished, http.StatusConflict},
	{match.ErrNothingToUndo, http.StatusConflict},

	{errBadRequest, http.StatusBadRequest},
	{drill.ErrMissingLink, http.StatusBadRequest},
	{drill.ErrEmptyTag, http.StatusBadRequest},
	{plan.ErrInvalidDuration, http.StatusBadRequest},
	{plan.ErrEmptyBlock, http.StatusBadRequest},
	{team.ErrSelfInvite, http.StatusBadRequest},
	{session.ErrNoAttendance, http.StatusBadRequest},
	{session.ErrForeignPlayer, http.StatusBadRequest},
	{game.ErrInvalidCell, http.StatusBadRequest},
	{game.ErrForeignAction, http.StatusBadRequest},
	{match.ErrEmptyRoster, http.StatusBadRequest},
	{match.ErrForeignPlayer, http.StatusBadRequest},
	{match.ErrNotOnRoster, http.StatusBadRequest},
	{match.ErrForeignAction, http.StatusBadRequest},
	{match.ErrInvalidPoints, http.StatusBadRequest},
	{match.ErrInvalidPeriod, http.StatusBadRequest},
	{scoring.ErrInvalidCriterion, http.StatusBadRequest},
	{scoring.ErrDuplicatePlayer, http.StatusBadRequest},
	{media.ErrUnsupportedType, http.StatusBadRequest},
	{media.ErrInvalidName, http.StatusBadRequest},
	{media.ErrImageTooLarge, http.StatusBadRequest},
	{siteconfig.ErrUnknownKey, http.StatusBadRequest},
	{ranking.ErrTeamRequired, http.StatusBadRequest},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleError maps a store or service error onto an HTTP status.
func handleError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": verrs})
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			log.Debug("Request rejected", "status", e.status, "error", err)
			writeError(w, e.status, err.Error())
			return
		}
	}
	log.Error("Request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// decode reads and validates a JSON body.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return s.Validator.Struct(dst)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// idList parses a comma separated list of ids, as sent in query strings.
func idList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", errBadRequest, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formBool accepts the values HTML checkboxes and JSON-minded clients send.
func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
