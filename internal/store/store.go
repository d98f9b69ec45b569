// Package store keeps the history of validation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/store/migrations"
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// timeFormat has fixed width so started_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one processed file.
type Run struct {
	ID               string
	File             string
	ReportPath       string
	StartedAt        time.Time
	Duration         time.Duration
	Status           string
	Version          string
	Level            string
	PartnerID        string
	ErrorCount       int
	WarningCount     int
	TransactionCount int
	SegmentCount     int

	// Failure holds the parse error for files that could not be parsed.
	Failure string
}

// DiagnosticRecord is a stored finding.
type DiagnosticRecord struct {
	Seq         int
	Transaction string
	validation.ValidationResult
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite has a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// NewRun starts a run record for a file with a fresh UUID.
func NewRun(file string) Run {
	return Run{ID: uuid.NewString(), File: file, StartedAt: time.Now().UTC()}
}

// RecordRun stores a run with its transactions and diagnostics in one
// database transaction. result may be nil for files that failed to parse;
// run.Failure should then say why.
func (s *Store) RecordRun(ctx context.Context, run Run, result *parser.Result) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if result != nil {
		run.Status = string(result.Status)
		run.Version = result.Version
		run.Level = result.Level
		run.PartnerID = result.PartnerID
		run.ErrorCount = result.Summary.ErrorCount
		run.WarningCount = result.Summary.WarningCount
		run.TransactionCount = len(result.Transactions)
		run.SegmentCount = result.Metrics.SegmentsProcessed
	} else if run.Status == "" {
		run.Status = string(parser.StatusFailed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, file, report_path, started_at, duration_ms, status, version, level,
			partner_id, error_count, warning_count, transaction_count, segment_count, failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.File, run.ReportPath, run.StartedAt.UTC().Format(timeFormat), run.Duration.Milliseconds(),
		run.Status, run.Version, run.Level, run.PartnerID, run.ErrorCount, run.WarningCount,
		run.TransactionCount, run.SegmentCount, run.Failure)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if result != nil {
		for i, t := range result.Transactions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (run_id, seq, type, control_number, status, error_count,
					warning_count, document_id, total_amount)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, i, t.Type, t.ControlNumber, string(t.Status), t.ErrorCount, t.WarningCount,
				t.Business.DocumentID, t.Business.TotalAmount)
			if err != nil {
				return fmt.Errorf("inserting transaction %s: %w", t.ControlNumber, err)
			}
		}

		for i, d := range result.Diagnostics {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO diagnostics (run_id, seq, severity, rule, message, transaction_control,
					segment_id, segment_position, element_position, element_id, value)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, i, string(d.Severity), d.Rule, d.Message, d.Transaction, d.SegmentID,
				nullInt(d.SegmentPosition), nullInt(d.ElementPosition), d.ElementID, d.Value)
			if err != nil {
				return fmt.Errorf("inserting diagnostic %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

const runColumns = `id, file, report_path, started_at, duration_ms, status, version, level,
	partner_id, error_count, warning_count, transaction_count, segment_count, failure`

// ListRuns returns the most recent runs, newest first. limit <= 0 returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Diagnostics returns the stored findings of a run in report order.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, severity, rule, message, transaction_control, segment_id,
			segment_position, element_position, element_id, value
		FROM diagnostics WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}
	defer rows.Close()

	var out []DiagnosticRecord
	for rows.Next() {
		var (
			d                  DiagnosticRecord
			severity           string
			segPos, elementPos sql.NullInt64
		)
		if err := rows.Scan(&d.Seq, &severity, &d.Rule, &d.Message, &d.Transaction, &d.SegmentID,
			&segPos, &elementPos, &d.ElementID, &d.Value); err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		d.Severity = validation.Severity(severity)
		if segPos.Valid {
			d.SegmentPosition = validation.Position(int(segPos.Int64))
		}
		if elementPos.Valid {
			d.ElementPosition = validation.Position(int(elementPos.Int64))
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RuleCounts returns how often each rule fired across all runs.
func (s *Store) RuleCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rule, COUNT(*) FROM diagnostics GROUP BY rule`)
	if err != nil {
		return nil, fmt.Errorf("querying rule counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, fmt.Errorf("scanning rule count: %w", err)
		}
		counts[rule] = n
	}
	return counts, rows.Err()
}

// DeleteRun removes a run and, through the foreign keys, its transactions
// and diagnostics.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		durationMs int64
	)
	err := row.Scan(&run.ID, &run.File, &run.ReportPath, &startedAt, &durationMs, &run.Status,
		&run.Version, &run.Level, &run.PartnerID, &run.ErrorCount, &run.WarningCount,
		&run.TransactionCount, &run.SegmentCount, &run.Failure)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scanning run: %w", err)
	}

	if run.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return run, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
