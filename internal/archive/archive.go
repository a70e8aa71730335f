// Package archive stores named project documents.
//
// Two backends implement core.ProjectArchive:
//
//   - Postgres, for deployments that already run a database (pgx pool)
//   - SQLite, a single local file with WAL enabled (modernc.org/sqlite, no cgo)
//
// Both create their table on open. Documents are stored as the snapshot JSON
// accepted by the project validator; they are re-validated when loaded.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/classroster/internal/core"
)

// Driver names accepted by Open.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects and tunes a backend.
type Options struct {
	Driver string
	URL    string // postgres connection string
	Path   string // sqlite database file

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Open returns the configured backend, or nil for DriverNone.
func Open(ctx context.Context, opts Options) (core.ProjectArchive, error) {
	switch opts.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverPostgres:
		pg, err := OpenPostgres(ctx, opts)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case DriverSQLite:
		lite, err := OpenSQLite(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", opts.Driver)
	}
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", core.ErrProjectNotFound, name)
}
