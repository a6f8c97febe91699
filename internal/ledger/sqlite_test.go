package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negneg-eq-submitter/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger", "test.db"))
	require.NoError(t, err)
	return store
}

func testSubmission(outcome Outcome) *Submission {
	return &Submission{
		RunID:          uuid.NewString(),
		RequestID:      "12345",
		RequestVersion: "1",
		CaseID:         "12345-1",
		Reporter:       "Joe Bloggs",
		User:           "jbloggs",
		ReportDate:     "2024-03-01",
		Outcome:        outcome,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.Equal(t, dbPath, store.Path())
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	first := testSubmission(OutcomeSubmitted)
	first.ClinicalReportVersion = 1
	require.NoError(t, store.Record(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := testSubmission(OutcomeFailed)
	second.ErrorCode = domain.ErrUnexpectedCode
	second.Message = "Summary of Findings creation failed: response status code != 201"
	require.NoError(t, store.Record(ctx, second))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	subs, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	// newest first
	assert.Equal(t, second.RunID, subs[0].RunID)
	assert.Equal(t, OutcomeFailed, subs[0].Outcome)
	assert.Equal(t, domain.ErrUnexpectedCode, subs[0].ErrorCode)
	assert.Equal(t, first.RunID, subs[1].RunID)
	assert.Equal(t, 1, subs[1].ClinicalReportVersion)
	assert.Equal(t, "Joe Bloggs", subs[1].Reporter)
	assert.Equal(t, "2024-03-01", subs[1].ReportDate)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.RunID, page[0].RunID)
}

func TestSQLiteStore_DuplicateRunID(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	sub := testSubmission(OutcomeDryRun)
	require.NoError(t, store.Record(ctx, sub))

	dup := *sub
	assert.Error(t, store.Record(ctx, &dup))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, testSubmission(OutcomeReportExists)))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	subs, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, OutcomeReportExists, subs[0].Outcome)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	store, err := NewStore(ctx, domain.LedgerConfig{Driver: "none"}, logger)
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, store)
	assert.NoError(t, store.Record(ctx, testSubmission(OutcomeDryRun)))

	store, err = NewStore(ctx, domain.LedgerConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "l.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	store.Close()

	_, err = NewStore(ctx, domain.LedgerConfig{Driver: "mysql"}, logger)
	assert.Error(t, err)
}
