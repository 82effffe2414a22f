package http

import (
	"net/http"
	"strings"

	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/siteconfig"
)

func (s *Server) ListSiteConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.SiteConfig.Entries(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// UpdateSiteConfigHandler sets one key from an uploaded image or a plain URL value.
// A replaced uploaded asset is removed from disk.
func (s *Server) UpdateSiteConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var key, value string
		if isMultipart(r) {
			if err := s.parseUpload(w, r); err != nil {
				handleError(w, err)
				return
			}
			key = r.FormValue("key")
			if !siteconfig.IsKnown(key) {
				handleError(w, siteconfig.ErrUnknownKey)
				return
			}
			name, err := s.saveUpload(r, "file", "config_"+key, media.AllowedImageExt)
			if err != nil {
				handleError(w, err)
				return
			}
			value = name
			if value == "" {
				value = r.FormValue("value")
			}
		} else {
			var in struct {
				Key   string `json:"key" validate:"required"`
				Value string `json:"value" validate:"required,url"`
			}
			if err := s.decode(r, &in); err != nil {
				handleError(w, err)
				return
			}
			key, value = in.Key, in.Value
		}
		if value == "" {
			handleError(w, errMissingFile)
			return
		}

		previous, err := s.SiteConfig.Set(r.Context(), actorFrom(r), key, value)
		if err != nil {
			if !strings.HasPrefix(value, "http") {
				s.discard(value)
			}
			handleError(w, err)
			return
		}
		if previous != "" && previous != value && !strings.HasPrefix(previous, "http") {
			s.discard(previous)
		}
		writeJSON(w, http.StatusOK, siteconfig.Entry{Key: siteconfig.Key{Name: key}, Value: value, URL: siteconfig.URL(value)})
	}
}

func (s *Server) ListInvitationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitations, err := s.Users.ListInvitations(r.Context(), actorFrom(r))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invitations)
	}
}

func (s *Server) CreateInvitationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email string `json:"email" validate:"required,email,max=120"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		if err := s.Users.Invite(r.Context(), actorFrom(r), in.Email); err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "email": in.Email})
	}
}

func (s *Server) DeleteInvitationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Users.DeleteInvitation(r.Context(), actorFrom(r), r.PathValue("email")); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}
