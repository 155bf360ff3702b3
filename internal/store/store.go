// Package store persists analysis runs so results can be audited and
// compared across billing cycles. SQLite is the default backend; Postgres
// is available for shared deployments.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/claimsight/denials-cli/internal/config"
	"github.com/claimsight/denials-cli/internal/model"
)

// ErrNotFound reports that no run matched the requested ID.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source string          `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open builds a Store from configuration. Driver "none" yields a nil
// store; callers treat that as persistence disabled.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "denials.db"
		}
		return NewSQLite(path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
