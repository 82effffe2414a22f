package http

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/drill"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
)

func formIDs(values []string) []int64 {
	var ids []int64
	for _, v := range values {
		more, err := idList(v)
		if err != nil {
			continue
		}
		ids = append(ids, more...)
	}
	return ids
}

// readDrillInput accepts either a JSON body or the multipart form the library page posts.
// Uploaded files are saved and their names set on the input.
func (s *Server) readDrillInput(w http.ResponseWriter, r *http.Request, creating bool) (drill.Input, error) {
	var in drill.Input
	multipart := isMultipart(r)
	if multipart {
		if err := s.parseUpload(w, r); err != nil {
			return in, err
		}
		in.Title = r.FormValue("title")
		in.Description = r.FormValue("description")
		in.MediaType = drill.MediaType(r.FormValue("media_type"))
		in.ExternalLink = r.FormValue("external_link")
		in.IsPublic = formBool(r.FormValue("is_public"))
		in.PrimaryTagIDs = formIDs(r.MultipartForm.Value["primary_tags"])
		in.SecondaryTagIDs = formIDs(r.MultipartForm.Value["secondary_tags"])
	} else if err := decodeJSON(r, &in); err != nil {
		return in, err
	}
	// The media of an existing drill cannot change.
	if !creating && in.MediaType == "" {
		in.MediaType = drill.MediaLink
	}
	if err := s.Validator.Struct(&in); err != nil {
		return in, err
	}
	if !multipart {
		if creating && in.MediaType != drill.MediaLink {
			return in, errMissingFile
		}
		return in, nil
	}

	var err error
	if creating {
		switch in.MediaType {
		case drill.MediaImage:
			in.MediaFile, err = s.saveUpload(r, "media_file", "drill", media.AllowedImageExt)
		case drill.MediaPDF:
			in.MediaFile, err = s.saveUpload(r, "media_file", "drill", media.AllowedDocExt)
		case drill.MediaVideoFile:
			if !actorFrom(r).IsAdmin {
				return in, identity.ErrForbidden
			}
			in.MediaFile, err = s.saveUpload(r, "media_file", "video", media.AllowedVideoExt)
		}
		if err != nil {
			return in, err
		}
		if in.MediaType != drill.MediaLink && in.MediaFile == "" {
			return in, errMissingFile
		}
	}
	if in.CoverImage, err = s.saveUpload(r, "cover_image", "cover", media.AllowedImageExt); err != nil {
		s.discard(in.MediaFile)
		return in, err
	}
	return in, nil
}

func (s *Server) ListDrillsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := drill.ListFilter{
			Query:         q.Get("q"),
			PrimaryTagIDs: formIDs(q["tag"]),
			FilterTypes:   q["filter"],
			SortBy:        q.Get("sort"),
		}
		drills, err := s.Drills.List(r.Context(), actorFrom(r), filter)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, drills)
	}
}

func (s *Server) CreateDrillHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := s.readDrillInput(w, r, true)
		if err != nil {
			handleError(w, err)
			return
		}
		d, err := s.Drills.Create(r.Context(), actorFrom(r), in)
		if err != nil {
			s.discard(in.MediaFile, in.CoverImage)
			handleError(w, err)
			return
		}
		s.Metrics.IncDrillsCreated()
		writeJSON(w, http.StatusCreated, d)
	}
}

// GetDrillHandler returns a drill and counts the visit once per address and day.
func (s *Server) GetDrillHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		d, err := s.Drills.Get(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		counted, err := s.Drills.RecordView(r.Context(), id, s.clientIP(r))
		if err != nil {
			log.Error("Failed to record drill view", "drillID", id, "error", err)
		} else if counted {
			d.Views++
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) UpdateDrillHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		actor := actorFrom(r)
		before, err := s.Drills.Get(r.Context(), actor, id)
		if err != nil {
			handleError(w, err)
			return
		}
		in, err := s.readDrillInput(w, r, false)
		if err != nil {
			handleError(w, err)
			return
		}
		d, err := s.Drills.Update(r.Context(), actor, id, in)
		if err != nil {
			s.discard(in.CoverImage)
			handleError(w, err)
			return
		}
		if in.CoverImage != "" && before.CoverImage != in.CoverImage {
			s.removeUnreferenced(r.Context(), before.CoverImage)
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) DeleteDrillHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		d, err := s.Drills.Delete(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		s.removeUnreferenced(r.Context(), d.MediaFile, d.CoverImage)
		writeOK(w)
	}
}

// DuplicateDrillHandler copies a visible drill into the caller's private library.
func (s *Server) DuplicateDrillHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		d, err := s.Drills.Duplicate(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		s.Metrics.IncDrillsCreated()
		writeJSON(w, http.StatusCreated, d)
	}
}

func (s *Server) FavoriteDrillHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		on, err := s.Drills.ToggleFavorite(r.Context(), actorFrom(r), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": on})
	}
}

// CheckLinkHandler checks an external link. Failures are reported in the body, never as errors.
func (s *Server) CheckLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			URL string `json:"url"`
		}
		if err := decodeJSON(r, &in); err != nil {
			handleError(w, err)
			return
		}
		status := metrics.LinkOK
		if s.Validator.Var("url", in.URL, "required,url") != nil || !s.Links.Check(r.Context(), in.URL) {
			status = metrics.LinkError
		}
		s.Metrics.IncLinkChecks(status)
		log.Debug("Checked link", "url", in.URL, "status", status)
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}

func (s *Server) ListTagsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := s.Drills.ListTags(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func (s *Server) CreateTagHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name string `json:"name" validate:"required,max=50"`
		}
		if err := s.decode(r, &in); err != nil {
			handleError(w, err)
			return
		}
		tag, err := s.Drills.CreateTag(r.Context(), actorFrom(r), in.Name)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tag)
	}
}

func (s *Server) DeleteTagHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, err)
			return
		}
		if err := s.Drills.DeleteTag(r.Context(), actorFrom(r), id); err != nil {
			handleError(w, err)
			return
		}
		writeOK(w)
	}
}

// ImportDrillsHandler loads link drills from an uploaded CSV file.
func (s *Server) ImportDrillsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.parseUpload(w, r); err != nil {
			handleError(w, err)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			handleError(w, errMissingFile)
			return
		}
		defer f.Close()

		report, err := s.Drills.Import(r.Context(), actorFrom(r), f)
		if err != nil {
			handleError(w, err)
			return
		}
		s.Metrics.IncImportRows(metrics.ImportCreated, report.Created)
		s.Metrics.IncImportRows(metrics.ImportUpdated, report.Updated)
		s.Metrics.IncImportRows(metrics.ImportRejected, len(report.Rejected))
		log.Info("Imported drills", "created", report.Created, "updated", report.Updated, "rejected", len(report.Rejected))
		writeJSON(w, http.StatusOK, report)
	}
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
