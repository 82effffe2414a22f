package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
)

var errMissingFile = fmt.Errorf("%w: file upload required", errBadRequest)

// parseUpload reads a multipart body capped at the configured upload size.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.Cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: upload larger than %d MB", errBadRequest, s.Cfg.MaxUploadMB)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// saveUpload stores the file posted under field. Images are recompressed to JPEG, anything
// else accepted by allowed is kept as is. An absent file yields an empty name.
func (s *Server) saveUpload(r *http.Request, field, prefix string, allowed func(string) bool) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer f.Close()

	if !allowed(hdr.Filename) {
		log.Warn("Rejected upload", "field", field, "filename", hdr.Filename)
		return "", media.ErrUnsupportedType
	}
	if media.AllowedImageExt(hdr.Filename) {
		return s.Media.SaveImage(prefix, f)
	}
	return s.Media.SaveRaw(prefix, strings.ToLower(filepath.Ext(hdr.Filename)), f)
}

// discard removes files written for a request that then failed.
func (s *Server) discard(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := s.Media.Remove(name); err != nil {
			log.Error("Failed to remove upload", "file", name, "error", err)
		}
	}
}

// removeUnreferenced deletes drill files no remaining drill points to. Duplicated drills
// share their media with the source.
func (s *Server) removeUnreferenced(ctx context.Context, names ...string) {
	for _, name := range names {
		if name == "" || strings.HasPrefix(name, "http") {
			continue
		}
		used, err := s.Drills.IsFileReferenced(ctx, name)
		if err != nil {
			log.Error("Failed to check file references", "file", name, "error", err)
			continue
		}
		if !used {
			s.discard(name)
		}
	}
}
