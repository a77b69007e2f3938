// Package migrations holds the versioned postgres schema applied by goose.
package migrations

import "embed"

// FS contains every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
