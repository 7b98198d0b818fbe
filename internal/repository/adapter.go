// Package repository selects and constructs the snapshot persistence backend.
package repository

import (
	"database/sql"
	"strings"

	"github.com/ulasbyzdvr/is-takip/internal/ports"
	"github.com/ulasbyzdvr/is-takip/internal/repository/file"
	"github.com/ulasbyzdvr/is-takip/internal/repository/sqlite"
)

// Backend carries the resources a snapshot repository can be built from.
// The file backend uses Path, the sqlite backend uses DB.
type Backend struct {
	DB   *sql.DB
	Path string
}

// factoryRegistry holds all storage factories / Registre de toutes les factories de stockage
// No switch statements - just a map lookup / Pas de switch - juste une recherche dans la map
var factoryRegistry = map[string]func(Backend) ports.SnapshotRepository{
	"file": func(b Backend) ports.SnapshotRepository {
		return file.NewSnapshotRepository(b.Path)
	},
	"sqlite": func(b Backend) ports.SnapshotRepository {
		return sqlite.NewSnapshotRepository(b.DB)
	},
	"sqlite3": func(b Backend) ports.SnapshotRepository {
		return sqlite.NewSnapshotRepository(b.DB)
	},
}

// NewSnapshotRepository creates the repository for the configured storage
// type, defaulting to the file backend.
func NewSnapshotRepository(storageType string, backend Backend) ports.SnapshotRepository {
	factory := factoryRegistry[strings.ToLower(storageType)]
	if factory == nil {
		factory = factoryRegistry["file"]
	}
	return factory(backend)
}
