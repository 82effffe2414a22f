package http

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
)

func (s *Server) ListTeamsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := s.Teams.ListForUser(r.Context(), actorFrom(r))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func (s *Server) CreateTeamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in team.TeamInput
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		t, err := s.Teams.Create(r.Context(), actorFrom(r), in)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// GetTeamHandler returns the team with its roster. The staff list is only shown to the owner.
func (s *Server) GetTeamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		t, err := s.Teams.Get(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}
		players, err := s.Teams.ListPlayers(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}
		staff := []team.Staff{}
		if t.IsOwner {
			if staff, err = s.Teams.ListStaff(r.Context(), actor, id); err != nil {
				handleError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"team": t, "players": players, "staff": staff})
	}
}

// DeleteTeamHandler removes a team and the logo and photos it leaves behind.
func (s *Server) DeleteTeamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		t, err := s.Teams.Get(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}
		players, err := s.Teams.ListPlayers(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Teams.Delete(r.Context(), actor, id); err != nil {
			handleError(w, err)
			return
		}
		files := []string{t.LogoFile}
		for _, p := range players {
			files = append(files, p.PhotoFile)
		}
		s.discard(files...)
		writeOK(w)
	}
}

// TeamSettingsHandler updates name, category and public visibility, plus an optional logo upload.
func (s *Server) TeamSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in team.SettingsInput
		logo := ""
		if isMultipart(r) {
			if err := s.parseUpload(w, r); err != nil {
				handleError(w, err)
				return
			}
			in.Name = r.FormValue("name")
			in.Category = r.FormValue("category")
			in.Mode = r.FormValue("visibility_mode")
			in.TopX, _ = strconv.Atoi(r.FormValue("visibility_top_x"))
			in.TopPct, _ = strconv.Atoi(r.FormValue("visibility_top_pct"))
			if err := s.Validator.Struct(&in); err != nil {
				handleError(w, err)
				return
			}
			if logo, err = s.saveUpload(r, "logo", "team", media.AllowedImageExt); err != nil {
				handleError(w, err)
				return
			}
		} else if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}

		actor := actorFrom(r)
		t, err := s.Teams.UpdateSettings(r.Context(), actor, id, in)
		if err != nil {
			s.discard(logo)
			handleError(w, err)
			return
		}
		if logo != "" {
			previous, err := s.Teams.SetLogo(r.Context(), actor, id, logo)
			if err != nil {
				s.discard(logo)
				handleError(w, err)
				return
			}
			s.discard(previous)
			t.LogoFile = logo
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// readPlayerInput accepts JSON or a multipart form with an optional "photo" file.
func (s *Server) readPlayerInput(w http.ResponseWriter, r *http.Request) (team.PlayerInput, string, error) {
	var in team.PlayerInput
	if !isMultipart(r) {
		return in, "", s.decode(r, &in)
	}
	if err := s.parseUpload(w, r); err != nil {
		return in, "", err
	}
	in.Name = r.FormValue("name")
	in.Dorsal, _ = strconv.Atoi(r.FormValue("dorsal"))
	if err := s.Validator.Struct(&in); err != nil {
		return in, "", err
	}
	photo, err := s.saveUpload(r, "photo", "player", media.AllowedImageExt)
	return in, photo, err
}

// attachPhoto stores a freshly uploaded player photo and drops the one it replaces.
func (s *Server) attachPhoto(r *http.Request, p *team.Player, photo string) error {
	if photo == "" {
		return nil
	}
	previous, err := s.Teams.SetPlayerPhoto(r.Context(), actorFrom(r), p.ID, photo)
	if err != nil {
		s.discard(photo)
		return err
	}
	s.discard(previous)
	p.PhotoFile = photo
	return nil
}

func (s *Server) AddPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		in, photo, err := s.readPlayerInput(w, r)
		if err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Teams.AddPlayer(r.Context(), actorFrom(r), teamID, in)
		if err != nil {
			s.discard(photo)
			handleError(w, err)
			return
		}
		if err := s.attachPhoto(r, p, photo); err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func (s *Server) UpdatePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		in, photo, err := s.readPlayerInput(w, r)
		if err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Teams.UpdatePlayer(r.Context(), actorFrom(r), id, in)
		if err != nil {
			s.discard(photo)
			handleError(w, err)
			return
		}
		if err := s.attachPhoto(r, p, photo); err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) DeletePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		p, err := s.Teams.DeletePlayer(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		s.discard(p.PhotoFile)
		writeOK(w)
	}
}

// InviteStaffHandler invites an assistant coach and announces it on Slack.
func (s *Server) InviteStaffHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		var in struct {
			Email string `json:"email" validate:"required,email,max=120"`
			Role  string `json:"role" validate:"max=50"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		staff, err := s.Teams.Invite(r.Context(), actor, teamID, in.Email, in.Role)
		if err != nil {
			handleError(w, err)
			return
		}

		t, err := s.Teams.Get(r.Context(), actor, teamID)
		if err != nil {
			log.Error("Failed to load team for invite notification", "teamID", teamID, "error", err)
		} else if err := s.Notifier.StaffInvited(t, staff, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify staff invite", "teamID", teamID, "error", err)
		}
		writeJSON(w, http.StatusCreated, staff)
	}
}

func (s *Server) RemoveStaffHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		staffID, err := pathID(r, "staffID")
		if err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		staff, err := s.Teams.ListStaff(r.Context(), actor, teamID)
		if err != nil {
			handleError(w, err)
			return
		}
		found := false
		for _, st := range staff {
			if st.ID == staffID {
				found = true
				break
			}
		}
		if !found {
			handleError(w, team.ErrStaffNotFound)
			return
		}

		removed, err := s.Teams.RemoveStaff(r.Context(), actor, staffID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, removed)
	}
}

func (s *Server) PendingInvitesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invites, err := s.Teams.PendingInvites(r.Context(), actorFrom(r))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invites)
	}
}

// AnswerInviteHandler accepts or rejects a staff invitation addressed to the caller.
func (s *Server) AnswerInviteHandler(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		answer := s.Teams.RejectInvite
		if accept {
			answer = s.Teams.AcceptInvite
		}
		staff, err := answer(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, staff)
	}
}
