// Package journal keeps a SQLite log of every request glint performs.
// Only request metadata is stored. Bodies and headers are never written,
// and the URL is kept as the collection's template so values substituted
// into it (tokens in query strings, for example) stay out of the file.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/http"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	request     TEXT    NOT NULL,
	method      TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	status      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	recorded_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_run_id ON entries (run_id);
`

// Entry is one journaled request.
type Entry struct {
	ID         int64
	RunID      string
	Request    string
	Method     string
	URL        string
	Status     int
	Duration   time.Duration
	Size       int
	RecordedAt time.Time
}

// Journal is a SQLite-backed request log.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. Both "runs.db" and
// "sqlite://runs.db" are accepted.
func Open(path string) (*Journal, error) {
	dsn, err := parseDSN(path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record stores one performed request.
func (j *Journal) Record(ctx context.Context, runID string, req *collection.Request, resp *http.Response) error {
	if req == nil || resp == nil {
		return errors.New("journal: request and response are required")
	}

	method := strings.ToUpper(req.Method)
	if resp.Request != nil {
		method = resp.Request.Method
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (run_id, request, method, url, status, duration_ms, size, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, req.Name, method, req.URL, resp.StatusCode, resp.Duration.Milliseconds(), len(resp.Body),
		j.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", req.Name, err)
	}
	return nil
}

// List returns the most recent entries, newest first. A limit of zero or
// less returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, request, method, url, status, duration_ms, size, recorded_at
		FROM entries ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Request, &e.Method, &e.URL, &e.Status, &durationMs, &e.Size, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			e.RecordedAt = ts
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func parseDSN(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	if path == "" {
		return "", errors.New("journal path is empty")
	}
	return path, nil
}
