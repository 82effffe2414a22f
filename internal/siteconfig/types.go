package siteconfig

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
)

var ErrUnknownKey = errors.New("unknown site config key")

// UploadsPath is where uploaded assets are served from.
const UploadsPath = "/static/uploads/"

// Key is a configurable card background or hover icon.
type Key struct {
	Name  string `json:"key"`
	Label string `json:"label"`
}

// Keys lists every configurable key in display order.
var Keys = []Key{
	{"tiktok_bg", "Fondo TikTok"},
	{"instagram_bg", "Fondo Instagram"},
	{"facebook_bg", "Fondo Facebook"},
	{"pdf_bg", "Fondo PDF"},
	{"generic_bg", "Fondo Link Web"},
	{"youtube_overlay", "Icono Hover YouTube"},
	{"image_overlay", "Icono Hover Imagen"},
	{"pdf_overlay", "Icono Hover PDF"},
	{"tiktok_overlay", "Icono Hover TikTok"},
	{"instagram_overlay", "Icono Hover Instagram"},
	{"facebook_overlay", "Icono Hover Facebook"},
	{"generic_overlay", "Icono Hover Link Web"},
}

// Defaults are written by SeedDefaults for keys that have no value yet.
var Defaults = map[string]string{
	"tiktok_bg":         "https://placehold.co/600x400/000000/FFF?text=TikTok",
	"instagram_bg":      "https://placehold.co/600x400/E1306C/FFF?text=Instagram",
	"facebook_bg":       "https://placehold.co/600x400/1877F2/FFF?text=Facebook",
	"pdf_bg":            "https://placehold.co/600x400/dc3545/FFF?text=PDF",
	"generic_bg":        "https://placehold.co/600x400/6c757d/FFF?text=Web",
	"youtube_overlay":   "https://placehold.co/64x64/FFD43B/000?text=%E2%96%B6",
	"image_overlay":     "https://placehold.co/64x64/FFD43B/000?text=%F0%9F%94%8D",
	"pdf_overlay":       "https://placehold.co/64x64/FFD43B/000?text=PDF",
	"tiktok_overlay":    "https://placehold.co/64x64/FFD43B/000?text=%23",
	"instagram_overlay": "https://placehold.co/64x64/FFD43B/000?text=%23",
	"facebook_overlay":  "https://placehold.co/64x64/FFD43B/000?text=%23",
	"generic_overlay":   "https://placehold.co/64x64/FFD43B/000?text=%F0%9F%94%8D",
}

// IsKnown reports whether name is a configurable key.
func IsKnown(name string) bool {
	for _, k := range Keys {
		if k.Name == name {
			return true
		}
	}
	return false
}

// URL turns a stored value into something a browser can load. Absolute URLs are kept,
// file names are served from the uploads directory.
func URL(value string) string {
	switch {
	case value == "":
		return ""
	case strings.HasPrefix(value, "http"):
		return value
	default:
		return UploadsPath + value
	}
}

// Entry is a key with its current value, as shown on the admin page.
type Entry struct {
	Key
	Value string `json:"value"`
	URL   string `json:"url"`
}

type store struct {
	db *sql.DB
	mu sync.RWMutex
}
