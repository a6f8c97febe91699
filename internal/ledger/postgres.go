package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
// It expects the schema to already exist (created via migrations).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// OpenPostgresStore connects with driver ("postgres" for lib/pq, "pgx" for
// the pgx stdlib adapter) and returns a store over the connection.
func OpenPostgresStore(ctx context.Context, driver, dsn string) (*PostgresStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A CLI run needs very few connections
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Record appends a submission to the ledger
func (s *PostgresStore) Record(ctx context.Context, sub *Submission) error {
	query := `
		INSERT INTO submissions (
			run_id, request_id, request_version, case_id, reporter, user_name,
			report_date, clinical_report_version, outcome, error_code, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
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
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}

	return nil
}

// List returns submissions newest first
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Submission, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
