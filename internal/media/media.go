// Package media stores uploaded files under the uploads directory with generated names.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxWidth    = 1200
	MaxHeight   = 1200
	JPEGQuality = 75

	// MaxPixels caps the declared canvas of an upload before it is decoded.
	MaxPixels = 40_000_000
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidName     = errors.New("invalid file name")
	ErrImageTooLarge   = errors.New("image dimensions too large")
)

var (
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
	docExts   = map[string]bool{".pdf": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".m4v": true}
)

func ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// AllowedImageExt reports whether name looks like an image the store can decode.
func AllowedImageExt(name string) bool { return imageExts[ext(name)] }

// AllowedDocExt reports whether name is a PDF.
func AllowedDocExt(name string) bool { return docExts[ext(name)] }

// AllowedVideoExt reports whether name is a supported video container.
func AllowedVideoExt(name string) bool { return videoExts[ext(name)] }

// Store writes uploads into a single directory.
type Store struct {
	dir string
}

// New creates the uploads directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Path resolves a stored file name. Names with directory parts are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

func generatedName(prefix, extension string) string {
	return fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), extension)
}

// SaveImage decodes an uploaded image, shrinks it and stores it as JPEG.
// Images declaring more than MaxPixels are rejected without decoding the pixel data.
func (s *Store) SaveImage(prefix string, r io.Reader) (string, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		log.Warn("Rejected oversized image", "width", cfg.Width, "height", cfg.Height)
		return "", ErrImageTooLarge
	}

	img, format, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	name := generatedName(prefix, ".jpg")
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	out := CompressImage(img)
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	log.Debug("Image stored", "name", name, "format", format, "width", out.Bounds().Dx(), "height", out.Bounds().Dy())
	return name, nil
}

// SaveRaw copies a file as is, keeping its lowercased extension.
func (s *Store) SaveRaw(prefix, extension string, r io.Reader) (string, error) {
	extension = strings.ToLower(extension)
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	name := generatedName(prefix, extension)
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	log.Debug("File stored", "name", name, "bytes", n)
	return name, nil
}

// Remove deletes a stored file. Missing files and empty names are not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// CompressImage flattens img onto white and scales it to fit MaxWidth x MaxHeight,
// keeping the aspect ratio. Smaller images keep their size.
func CompressImage(img image.Image) image.Image {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), MaxWidth, MaxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Fit returns the largest size within maxW x maxH with the aspect ratio of w x h,
// never larger than w x h.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}
