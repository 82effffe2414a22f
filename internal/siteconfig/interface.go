package siteconfig

import (
	"context"

	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
)

// ConfigStore defines the interface for the site-wide appearance settings.
type ConfigStore interface {
	// All returns every stored value by key, resolved with URL.
	All(ctx context.Context) (map[string]string, error)
	Entries(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, actor identity.Identity, key, value string) (string, error)
	SeedDefaults(ctx context.Context) (int, error)
}
