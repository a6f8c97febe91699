// Package ledger keeps a local record of every submission run.
package ledger

import (
	"context"
	"time"
)

// Outcome is how a submission run ended
type Outcome string

const (
	OutcomeSubmitted    Outcome = "submitted"
	OutcomeDryRun       Outcome = "dry_run"
	OutcomeReportExists Outcome = "report_exists"
	OutcomeFailed       Outcome = "failed"
)

// Submission is one ledger row
type Submission struct {
	ID                    int64     `json:"id,omitempty"`
	RunID                 string    `json:"run_id"`
	RequestID             string    `json:"request_id"`
	RequestVersion        string    `json:"request_version"`
	CaseID                string    `json:"case_id,omitempty"`
	Reporter              string    `json:"reporter"`
	User                  string    `json:"user"`
	ReportDate            string    `json:"report_date"`
	ClinicalReportVersion int       `json:"clinical_report_version,omitempty"`
	Outcome               Outcome   `json:"outcome"`
	ErrorCode             string    `json:"error_code,omitempty"`
	Message               string    `json:"message,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// Store defines the interface for ledger storage operations.
type Store interface {
	// Record appends a submission; ID and CreatedAt are filled in.
	Record(ctx context.Context, submission *Submission) error

	// List returns submissions newest first.
	List(ctx context.Context, limit, offset int) ([]*Submission, error)

	Count(ctx context.Context) (int64, error)

	Close() error
}

// NopStore discards everything
type NopStore struct{}

func (NopStore) Record(context.Context, *Submission) error { return nil }

func (NopStore) List(context.Context, int, int) ([]*Submission, error) { return nil, nil }

func (NopStore) Count(context.Context) (int64, error) { return 0, nil }

func (NopStore) Close() error { return nil }

const selectColumns = `id, run_id, request_id, request_version, case_id, reporter, user_name,
	report_date, clinical_report_version, outcome, error_code, message, created_at`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(s scanner) (*Submission, error) {
	sub := &Submission{}
	var outcome string

	err := s.Scan(
		&sub.ID, &sub.RunID, &sub.RequestID, &sub.RequestVersion, &sub.CaseID,
		&sub.Reporter, &sub.User, &sub.ReportDate, &sub.ClinicalReportVersion,
		&outcome, &sub.ErrorCode, &sub.Message, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Outcome = Outcome(outcome)
	return sub, nil
}
