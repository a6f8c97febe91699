package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite ledger.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets history read while a run is writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the submissions table and its indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		request_id TEXT NOT NULL,
		request_version TEXT NOT NULL,
		case_id TEXT NOT NULL DEFAULT '',
		reporter TEXT NOT NULL,
		user_name TEXT NOT NULL,
		report_date TEXT NOT NULL,
		clinical_report_version INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error_code TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_request ON submissions(request_id, request_version);
	CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Record appends a submission to the ledger
func (s *SQLiteStore) Record(ctx context.Context, sub *Submission) error {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			run_id, request_id, request_version, case_id, reporter, user_name,
			report_date, clinical_report_version, outcome, error_code, message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sub.RunID,
		sub.RequestID,
		sub.RequestVersion,
		sub.CaseID,
		sub.Reporter,
		sub.User,
		sub.ReportDate,
		sub.ClinicalReportVersion,
		string(sub.Outcome),
		sub.ErrorCode,
		sub.Message,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	// Get the inserted ID
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	sub.ID = id
	sub.CreatedAt = now

	return nil
}

// List returns submissions newest first
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, sub)
	}

	return result, rows.Err()
}

// Count returns the total number of submissions
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
