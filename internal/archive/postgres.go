package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/classroster/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS roster_projects (
    name          TEXT PRIMARY KEY,
    data          JSONB NOT NULL,
    student_count INTEGER NOT NULL,
    group_count   INTEGER NOT NULL,
    size_bytes    INTEGER NOT NULL,
    saved_from    TEXT NOT NULL DEFAULT '',
    saved_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_roster_projects_saved_at ON roster_projects (saved_at DESC);
`

// Postgres is a project archive backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies the connection and creates the table.
func OpenPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse archive URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, rec core.ProjectRecord) error {
	const query = `
		INSERT INTO roster_projects (name, data, student_count, group_count, size_bytes, saved_from, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			data = EXCLUDED.data,
			student_count = EXCLUDED.student_count,
			group_count = EXCLUDED.group_count,
			size_bytes = EXCLUDED.size_bytes,
			saved_from = EXCLUDED.saved_from,
			saved_at = EXCLUDED.saved_at
	`
	_, err := p.pool.Exec(ctx, query,
		rec.Name, rec.Data, rec.Students, rec.Groups, len(rec.Data), rec.SavedFrom, rec.SavedAt,
	)
	return err
}

func (p *Postgres) Load(ctx context.Context, name string) (core.ProjectRecord, error) {
	const query = `
		SELECT name, data, student_count, group_count, saved_from, saved_at
		FROM roster_projects
		WHERE name = $1
	`
	var rec core.ProjectRecord
	err := p.pool.QueryRow(ctx, query, name).Scan(
		&rec.Name, &rec.Data, &rec.Students, &rec.Groups, &rec.SavedFrom, &rec.SavedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ProjectRecord{}, notFound(name)
	}
	if err != nil {
		return core.ProjectRecord{}, err
	}
	return rec, nil
}

func (p *Postgres) List(ctx context.Context) ([]core.ProjectSummary, error) {
	const query = `
		SELECT name, student_count, group_count, size_bytes, saved_at
		FROM roster_projects
		ORDER BY saved_at DESC, name
	`
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.ProjectSummary{}
	for rows.Next() {
		var s core.ProjectSummary
		if err := rows.Scan(&s.Name, &s.Students, &s.Groups, &s.SizeBytes, &s.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM roster_projects WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(name)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
