// Package migrations holds the versioned schema ledger applied by goose at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
