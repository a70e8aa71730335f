package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/classroster/internal/core"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS roster_projects (
    name          TEXT PRIMARY KEY,
    data          BLOB NOT NULL,
    student_count INTEGER NOT NULL,
    group_count   INTEGER NOT NULL,
    size_bytes    INTEGER NOT NULL,
    saved_from    TEXT NOT NULL DEFAULT '',
    saved_at      TEXT NOT NULL
);
`

// sqliteTime sorts lexically in time order.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLite is a project archive in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite archive path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	for _, p := range append(sqlitePragmas, sqliteSchema) {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, rec core.ProjectRecord) error {
	const query = `
		INSERT INTO roster_projects (name, data, student_count, group_count, size_bytes, saved_from, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			data = excluded.data,
			student_count = excluded.student_count,
			group_count = excluded.group_count,
			size_bytes = excluded.size_bytes,
			saved_from = excluded.saved_from,
			saved_at = excluded.saved_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.Name, rec.Data, rec.Students, rec.Groups, len(rec.Data), rec.SavedFrom,
		rec.SavedAt.UTC().Format(sqliteTime),
	)
	return err
}

func (s *SQLite) Load(ctx context.Context, name string) (core.ProjectRecord, error) {
	const query = `
		SELECT name, data, student_count, group_count, saved_from, saved_at
		FROM roster_projects
		WHERE name = ?
	`
	var rec core.ProjectRecord
	var savedAt string
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&rec.Name, &rec.Data, &rec.Students, &rec.Groups, &rec.SavedFrom, &savedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProjectRecord{}, notFound(name)
	}
	if err != nil {
		return core.ProjectRecord{}, err
	}
	if rec.SavedAt, err = time.Parse(sqliteTime, savedAt); err != nil {
		return core.ProjectRecord{}, fmt.Errorf("project %q: bad saved_at: %w", name, err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context) ([]core.ProjectSummary, error) {
	const query = `
		SELECT name, student_count, group_count, size_bytes, saved_at
		FROM roster_projects
		ORDER BY saved_at DESC, name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.ProjectSummary{}
	for rows.Next() {
		var sum core.ProjectSummary
		var savedAt string
		if err := rows.Scan(&sum.Name, &sum.Students, &sum.Groups, &sum.SizeBytes, &savedAt); err != nil {
			return nil, err
		}
		if sum.SavedAt, err = time.Parse(sqliteTime, savedAt); err != nil {
			return nil, fmt.Errorf("project %q: bad saved_at: %w", sum.Name, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roster_projects WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
