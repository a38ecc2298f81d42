// Package schema holds the MongoDB migrations of the record and execution collections.
package schema

import (
	"embed"

	"github.com/Sokol111/match-events/pkg/persistence/mongo/migrations"
)

//go:embed files/*.json
var files embed.FS

// Source returns the embedded migrations.
func Source() migrations.Source {
	return migrations.Source{FS: files, Dir: "files"}
}
