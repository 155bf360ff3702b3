package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/claimsight/denials-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL,
	params     JSONB NOT NULL,
	result     JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal params")
	}
	var resultJSON []byte
	if run.Result != nil {
		resultJSON, err = json.Marshal(run.Result)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal result")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, status, params, result, error, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Source, string(run.Status), paramsJSON, resultJSON, run.Error, run.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, status, params, result, error, created_at FROM runs WHERE id = $1`,
		runID,
	)
	return scanPgRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, params, result, error, created_at FROM runs WHERE ($1 = '' OR status = $1) AND ($2 = '' OR source = $2) ORDER BY created_at DESC LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, query, string(filter.Status), filter.Source, limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var paramsJSON []byte
	var resultJSON []byte

	err := row.Scan(&r.ID, &r.Source, &r.Status, &paramsJSON, &resultJSON, &r.Error, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if err := json.Unmarshal(paramsJSON, &r.Params); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal params")
	}
	if len(resultJSON) > 0 {
		r.Result = &model.AnalysisResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}
