// Package history keeps past scan runs in a local SQLite database so cost
// trends can be compared between runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"finlint/internal/models"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// ErrNoRuns is returned when the store holds no matching run.
var ErrNoRuns = errors.New("no recorded runs")

// Run is one recorded scan.
type Run struct {
	ID               string    `json:"id"`
	Root             string    `json:"root"`
	CreatedAt        time.Time `json:"created_at"`
	FilesScanned     int       `json:"files_scanned"`
	FindingsCount    int       `json:"findings_count"`
	PerExecutionCost float64   `json:"total_per_execution_cost"`
	MonthlyCost      float64   `json:"total_monthly_cost"`
}

// Store persists runs and their findings.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		root TEXT NOT NULL,
		created_at TEXT NOT NULL,
		files_scanned INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		file_path TEXT NOT NULL,
		line_number INTEGER NOT NULL,
		rule_id TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		per_execution_cost REAL NOT NULL DEFAULT 0,
		monthly_cost REAL NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Record stores a batch report under its run id.
func (s *Store) Record(ctx context.Context, root string, report *models.BatchReport) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	created := timeNow().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, created_at, files_scanned) VALUES (?, ?, ?, ?)`,
		report.RunID, root, created.Format(timeLayout), report.FilesScanned)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO findings
		(run_id, file_path, line_number, rule_id, category, severity, per_execution_cost, monthly_cost, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing finding insert: %w", err)
	}
	defer stmt.Close()

	run := Run{ID: report.RunID, Root: root, CreatedAt: created, FilesScanned: report.FilesScanned}
	for _, f := range report.Findings() {
		var perExec, monthly float64
		if f.CostEstimate != nil {
			perExec, monthly = f.CostEstimate.PerExecutionCost, f.CostEstimate.MonthlyCost
		}
		_, err := stmt.ExecContext(ctx, report.RunID, f.FilePath, f.LineNumber, f.RuleID,
			string(f.Category), f.Severity.String(), perExec, monthly, Fingerprint(f))
		if err != nil {
			return Run{}, fmt.Errorf("inserting finding: %w", err)
		}
		run.FindingsCount++
		run.PerExecutionCost += perExec
		run.MonthlyCost += monthly
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

const runColumns = `
	SELECT r.id, r.root, r.created_at, r.files_scanned,
		COUNT(f.id), COALESCE(SUM(f.per_execution_cost), 0), COALESCE(SUM(f.monthly_cost), 0)
	FROM runs r
	LEFT JOIN findings f ON f.run_id = r.id`

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		runColumns+` GROUP BY r.seq ORDER BY r.seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Previous returns the run over the same root recorded most recently
// before runID.
func (s *Store) Previous(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, runColumns+`
		WHERE r.seq < (SELECT seq FROM runs WHERE id = ?)
		AND r.root = (SELECT root FROM runs WHERE id = ?)
		GROUP BY r.seq ORDER BY r.seq DESC LIMIT 1`, runID, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	return run, err
}

// Fingerprints returns the finding fingerprints of a run.
func (s *Store) Fingerprints(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint FROM findings WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying fingerprints: %w", err)
	}
	defer rows.Close()

	var prints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		prints = append(prints, fp)
	}
	return prints, rows.Err()
}

// Compare computes the trend from the previous run to run.
func (s *Store) Compare(ctx context.Context, run Run) (Trend, error) {
	prev, err := s.Previous(ctx, run.ID)
	if errors.Is(err, ErrNoRuns) {
		return FirstRun(run.MonthlyCost), nil
	}
	if err != nil {
		return Trend{}, err
	}
	before, err := s.Fingerprints(ctx, prev.ID)
	if err != nil {
		return Trend{}, err
	}
	after, err := s.Fingerprints(ctx, run.ID)
	if err != nil {
		return Trend{}, err
	}
	return Compute(prev.MonthlyCost, run.MonthlyCost, before, after), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var created string
	if err := row.Scan(&run.ID, &run.Root, &created, &run.FilesScanned,
		&run.FindingsCount, &run.PerExecutionCost, &run.MonthlyCost); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run time %q: %w", created, err)
	}
	run.CreatedAt = t
	return run, nil
}

// Fingerprint identifies a finding across runs independent of line shifts.
func Fingerprint(f models.Finding) string {
	h := xxhash.New()
	h.WriteString(f.FilePath)
	h.WriteString("|")
	h.WriteString(f.RuleID)
	h.WriteString("|")
	h.WriteString(f.LineContent)
	return fmt.Sprintf("%016x", h.Sum64())
}
