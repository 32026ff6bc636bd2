// Package storage keeps the analysis run history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/haskel/planfox/internal/learning"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is one stored analysis.
type Run struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Tasks     int             `json:"tasks"`
	ElapsedMS float64         `json:"elapsed_ms"`
	Status    string          `json:"status"`
	Summary   string          `json:"summary"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Store manages the run history database.
type Store struct {
	DBPath string
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the history database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	store := &Store{
		DBPath: absPath,
		db:     db,
		logger: logger,
	}

	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("history store opened", "path", absPath)
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	created_at TEXT NOT NULL,
	tasks INTEGER NOT NULL,
	elapsed_ms REAL NOT NULL,
	status TEXT NOT NULL,
	summary TEXT,
	result_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

CREATE TABLE IF NOT EXISTS runtime_samples (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	units REAL NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_created ON runtime_samples(created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Save stores a run together with the runtime samples it produced.
func (s *Store) Save(ctx context.Context, run *Run, samples []learning.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt.UTC().Format(time.RFC3339Nano)

	var result sql.NullString
	if len(run.Result) > 0 {
		result = sql.NullString{String: string(run.Result), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, kind, created_at, tasks, elapsed_ms, status, summary, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, createdAt, run.Tasks, run.ElapsedMS, run.Status, run.Summary, result)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, obs := range samples {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO runtime_samples (run_id, kind, units, elapsed_ns, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, string(obs.Kind), obs.Units, obs.Elapsed.Nanoseconds(), createdAt)
		if err != nil {
			return fmt.Errorf("insert runtime sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Debug("run stored", "id", run.ID, "kind", run.Kind, "samples", len(samples))
	return nil
}

// Get returns a run including its result document.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	var createdAt string
	var summary, result sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, created_at, tasks, elapsed_ms, status, summary, result_json
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Kind, &createdAt, &run.Tasks, &run.ElapsedMS, &run.Status, &summary, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp: %w", err)
	}
	run.Summary = summary.String
	if result.Valid {
		run.Result = json.RawMessage(result.String)
	}

	return &run, nil
}

// List returns up to limit runs, newest first, without result documents.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, created_at, tasks, elapsed_ms, status, summary
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var createdAt string
		var summary sql.NullString
		if err := rows.Scan(&run.ID, &run.Kind, &createdAt, &run.Tasks, &run.ElapsedMS, &run.Status, &summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		run.Summary = summary.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Samples returns the most recent limit runtime samples, oldest first, so
// they can be replayed into a learning model.
func (s *Store) Samples(ctx context.Context, limit int) ([]learning.Observation, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, units, elapsed_ns FROM (
			SELECT rowid, kind, units, elapsed_ns, created_at
			FROM runtime_samples
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, rowid ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runtime samples: %w", err)
	}
	defer rows.Close()

	var samples []learning.Observation
	for rows.Next() {
		var kind string
		var obs learning.Observation
		var elapsedNS int64
		if err := rows.Scan(&kind, &obs.Units, &elapsedNS); err != nil {
			return nil, fmt.Errorf("scan runtime sample: %w", err)
		}
		obs.Kind = learning.Kind(kind)
		obs.Elapsed = time.Duration(elapsedNS)
		samples = append(samples, obs)
	}

	return samples, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?`

	if _, err := tx.ExecContext(ctx, `DELETE FROM runtime_samples WHERE run_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune runtime samples: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return res.RowsAffected()
}
