// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

const (
	dbFile = "artifacts.db"

	// timeLayout is fixed-width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// now is the clock used for run timestamps. Tests override it.
var now = time.Now

// Store writes artifact files under dir/<run-id>/ and indexes them in
// dir/artifacts.db.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the artifact store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Parallel page workers share one connection; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			pdf_path TEXT,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			batch INTEGER NOT NULL,
			stage TEXT NOT NULL,
			path TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			UNIQUE(run_id, batch, stage)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id)`,
		`CREATE TABLE IF NOT EXISTS toc_entries (
			run_id TEXT NOT NULL REFERENCES runs(id),
			page INTEGER NOT NULL,
			lines TEXT NOT NULL,
			PRIMARY KEY (run_id, page)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) Begin(ctx context.Context, doc types.Document, mode types.Mode) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, document, pdf_path, mode, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, doc.ID, doc.PDFPath, string(mode), string(types.ConversionRunning), formatTime(now()),
	)
	if err != nil {
		return "", fmt.Errorf("recording run for %s: %w", doc.ID, err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, id), 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	return id, nil
}

// Put writes content to <run-id>/<batch>-<stage>.md. Putting the same batch
// and stage twice replaces the earlier artifact.
func (s *Store) Put(ctx context.Context, runID string, batch int, stage Stage, content string) error {
	rel := filepath.Join(runID, fmt.Sprintf("%04d-%s.md", batch, stage))
	if err := os.WriteFile(filepath.Join(s.dir, rel), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", rel, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, batch, stage, path, bytes) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, batch, stage) DO UPDATE SET path = excluded.path, bytes = excluded.bytes`,
		runID, batch, string(stage), rel, len(content),
	)
	if err != nil {
		return fmt.Errorf("indexing artifact %s: %w", rel, err)
	}
	return nil
}

func (s *Store) PutTOC(ctx context.Context, runID string, page int, lines []string) error {
	encoded, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding toc lines: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO toc_entries (run_id, page, lines) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, page) DO UPDATE SET lines = excluded.lines`,
		runID, page, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("recording toc for page %d: %w", page, err)
	}
	return nil
}

func (s *Store) Finish(ctx context.Context, runID string, status types.ConversionStatus, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), msg, formatTime(now()), runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: no such run", runID)
	}
	return nil
}

// Runs lists all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, mode, status, error, started_at, finished_at FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var mode, status, started string
		var errMsg, finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Document, &mode, &status, &errMsg, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Mode = types.Mode(mode)
		r.Status = types.ConversionStatus(status)
		r.Error = errMsg.String
		r.StartedAt = parseTime(started)
		if finished.Valid {
			r.FinishedAt = parseTime(finished.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Artifacts lists a run's artifacts in batch order, then in write order.
func (s *Store) Artifacts(ctx context.Context, runID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, batch, stage, path, bytes FROM artifacts WHERE run_id = ? ORDER BY batch, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		var stage string
		if err := rows.Scan(&a.RunID, &a.Batch, &stage, &a.Path, &a.Bytes); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Stage = Stage(stage)
		out = append(out, a)
	}
	return out, rows.Err()
}

// TOC returns the table-of-contents lines recorded for a run, by page.
func (s *Store) TOC(ctx context.Context, runID string) ([]types.PageTOC, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page, lines FROM toc_entries WHERE run_id = ? ORDER BY page`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying toc entries: %w", err)
	}
	defer rows.Close()

	var out []types.PageTOC
	for rows.Next() {
		var p types.PageTOC
		var encoded string
		if err := rows.Scan(&p.Page, &encoded); err != nil {
			return nil, fmt.Errorf("scanning toc entry: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &p.Lines); err != nil {
			return nil, fmt.Errorf("decoding toc lines for page %d: %w", p.Page, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Read returns the content of a stored artifact.
func (s *Store) Read(a Artifact) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, a.Path))
	if err != nil {
		return "", fmt.Errorf("reading artifact %s: %w", a.Path, err)
	}
	return string(data), nil
}

// manifest is the YAML export of one run.
type manifest struct {
	Run       Run             `yaml:"run"`
	Artifacts []Artifact      `yaml:"artifacts"`
	TOC       []types.PageTOC `yaml:"toc,omitempty"`
}

// Export writes a YAML manifest of one run to w.
func (s *Store) Export(ctx context.Context, runID string, w io.Writer) error {
	runs, err := s.Runs(ctx)
	if err != nil {
		return err
	}
	var m manifest
	found := false
	for _, r := range runs {
		if r.ID == runID {
			m.Run, found = r, true
			break
		}
	}
	if !found {
		return fmt.Errorf("run %s not found", runID)
	}
	if m.Artifacts, err = s.Artifacts(ctx, runID); err != nil {
		return err
	}
	if m.TOC, err = s.TOC(ctx, runID); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return enc.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
