package drill

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("drill not found")
	ErrMissingLink = errors.New("link drills need an external link")
	ErrTagExists   = errors.New("tag already exists")
	ErrTagNotFound = errors.New("tag not found")
	ErrEmptyTag    = errors.New("tag name is empty")
)

// MediaType is the kind of content a drill carries.
type MediaType string

const (
	MediaLink      MediaType = "link"
	MediaImage     MediaType = "image"
	MediaPDF       MediaType = "pdf"
	MediaVideoFile MediaType = "video_file"
)

// Tag classifies drills.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Drill is an entry of the exercise library.
type Drill struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PostedAt      time.Time `json:"posted_at"`
	MediaType     MediaType `json:"media_type"`
	MediaFile     string    `json:"media_file,omitempty"`
	ExternalLink  string    `json:"external_link,omitempty"`
	CoverImage    string    `json:"cover_image,omitempty"`
	IsPublic      bool      `json:"is_public"`
	Views         int       `json:"views"`
	OwnerID       int64     `json:"owner_id"`
	PrimaryTags   []Tag     `json:"primary_tags"`
	SecondaryTags []Tag     `json:"secondary_tags"`
	Favorites     int       `json:"favorites"`
	IsFavorite    bool      `json:"is_favorite"`
}

// Input creates or edits a drill. Stored file names are filled in by the upload handler.
type Input struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description" validate:"max=5000"`
	MediaType       MediaType `json:"media_type" validate:"oneof=link image pdf video_file"`
	ExternalLink    string    `json:"external_link" validate:"omitempty,url"`
	IsPublic        bool      `json:"is_public"`
	PrimaryTagIDs   []int64   `json:"primary_tags"`
	SecondaryTagIDs []int64   `json:"secondary_tags"`
	MediaFile       string    `json:"-"`
	CoverImage      string    `json:"-"`
}

// Filter types, OR'ed together when several are requested.
const (
	FilterMyPrivate = "my_private"
	FilterMyPublic  = "my_public"
	FilterOthers    = "others"
	FilterFavorites = "favorites"
)

// Sort orders accepted by List.
const (
	SortViewsDesc = "views_desc"
	SortFavsDesc  = "favs_desc"
	SortNameAsc   = "name_asc"
	SortDateAsc   = "date_asc"
	SortDateDesc  = "date_desc"
)

// ListFilter narrows the library listing.
type ListFilter struct {
	Query         string
	PrimaryTagIDs []int64
	FilterTypes   []string
	SortBy        string
}

// MaxImportTags caps the tags accepted on one CSV import row.
const MaxImportTags = 5

// ImportReport summarises a CSV import.
type ImportReport struct {
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Rejected []ImportError `json:"rejected"`
}

// ImportError is a rejected CSV line.
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// store handles drill library database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
