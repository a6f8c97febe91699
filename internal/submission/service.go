// Package submission runs the NegNeg workflow: validate the inputs, build
// both records, check the case on the CIP-API and file the records.
package submission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/negneg-eq-submitter/internal/domain"
	"github.com/negneg-eq-submitter/internal/ledger"
	"github.com/negneg-eq-submitter/internal/logging"
	"github.com/negneg-eq-submitter/internal/report"
	"github.com/negneg-eq-submitter/internal/validation"
)

// Record names used in validation errors
const (
	RecordFamilyLevelQuestions = "Family Level Questions"
	RecordExitQuestionnaire    = "Exit Questionnaire"
	RecordClinicalReport       = "Summary of Findings"
)

// Request holds the operator's inputs for one run
type Request struct {
	Reporter              string
	User                  string
	Date                  string
	InterpretationRequest string
	DryRun                bool
}

// Result describes a completed run
type Result struct {
	RunID                 string                    `json:"run_id"`
	Case                  domain.CaseReference      `json:"case"`
	CaseID                string                    `json:"case_id"`
	Outcome               ledger.Outcome            `json:"outcome"`
	ClinicalReportVersion int                       `json:"clinical_report_version,omitempty"`
	ExitQuestionnaire     *domain.ExitQuestionnaire `json:"exit_questionnaire"`
	ClinicalReport        *domain.ClinicalReport    `json:"clinical_report"`
}

// Service orchestrates a submission run
type Service struct {
	api       domain.CaseAPI
	validator domain.RecordValidator
	ledger    ledger.Store
	logger    *logrus.Logger
	now       func() time.Time
}

// NewService creates a new submission service. A nil store disables the ledger.
func NewService(api domain.CaseAPI, validator domain.RecordValidator, store ledger.Store, logger *logrus.Logger) *Service {
	if store == nil {
		store = ledger.NopStore{}
	}
	return &Service{
		api:       api,
		validator: validator,
		ledger:    store,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one submission. The first failure aborts the run; nothing
// already filed is rolled back. Every run is written to the ledger,
// whatever its outcome.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, result.RunID)
	log := logging.FromContext(ctx, s.logger)

	err := s.run(ctx, log, req, result)

	switch {
	case err == nil && req.DryRun:
		result.Outcome = ledger.OutcomeDryRun
	case err == nil:
		result.Outcome = ledger.OutcomeSubmitted
	case errors.Is(err, domain.ErrReportExists):
		result.Outcome = ledger.OutcomeReportExists
	default:
		result.Outcome = ledger.OutcomeFailed
	}

	s.record(ctx, log, req, result, err)

	if err != nil {
		log.WithFields(logrus.Fields{
			"outcome":    result.Outcome,
			"error_kind": domain.KindOf(err).String(),
		}).WithError(err).Debug("Submission run aborted")
		return result, err
	}

	log.WithFields(logrus.Fields{
		"outcome":                 result.Outcome,
		"case_id":                 result.CaseID,
		"clinical_report_version": result.ClinicalReportVersion,
	}).Info("Submission run completed")
	return result, nil
}

func (s *Service) run(ctx context.Context, log *logrus.Entry, req Request, result *Result) error {
	// Step 1: operator inputs
	if err := checkRequired(req); err != nil {
		return err
	}
	date, err := domain.ParseReportDate(req.Date)
	if err != nil {
		return err
	}
	if err := domain.CheckReportDate(date, s.now()); err != nil {
		return err
	}
	ref, err := domain.ParseCaseReference(req.InterpretationRequest)
	if err != nil {
		return err
	}
	result.Case = ref
	reportDate := date.Format(domain.DateLayout)

	// Step 2: exit questionnaire, which needs nothing from the remote side
	flqs := report.NewFamilyLevelQuestions()
	if err := validation.Check(s.validator, RecordFamilyLevelQuestions, flqs); err != nil {
		return err
	}
	eq := report.NewExitQuestionnaire(reportDate, req.Reporter, flqs)
	if err := validation.Check(s.validator, RecordExitQuestionnaire, eq); err != nil {
		return err
	}
	result.ExitQuestionnaire = eq

	// Step 3: remote case
	if err := s.api.Authenticate(ctx); err != nil {
		return err
	}
	ir, err := s.api.GetInterpretationRequest(ctx, ref)
	if err != nil {
		return err
	}
	if ir.HasClinicalReport() {
		log.WithField("interpretation_request", ref.String()).Warn("Clinical report already exists, nothing submitted")
		return domain.ErrReportExists
	}
	details, err := report.ExtractCaseDetails(ir)
	if err != nil {
		return err
	}
	result.CaseID = details.CaseID

	// Step 4: summary of findings
	cr := report.NewClinicalReport(report.ClinicalReportInput{
		User:             req.User,
		ReportingDate:    reportDate,
		Case:             ref,
		GenomeAssembly:   details.GenomeAssembly,
		SoftwareVersions: details.SoftwareVersions,
	})
	if err := validation.Check(s.validator, RecordClinicalReport, cr); err != nil {
		return err
	}
	result.ClinicalReport = cr

	if req.DryRun {
		log.WithField("case_id", details.CaseID).Info("Dry run, records built and validated but not submitted")
		return nil
	}

	// Step 5: file both records
	version, err := s.api.PostClinicalReport(ctx, details.CaseID, cr)
	if err != nil {
		return err
	}
	result.ClinicalReportVersion = version
	log.WithFields(logrus.Fields{
		"case_id":                 details.CaseID,
		"clinical_report_version": version,
	}).Info("Summary of findings created")

	if err := s.api.PutExitQuestionnaire(ctx, ref, version, eq); err != nil {
		return err
	}
	log.WithField("interpretation_request", ref.String()).Info("Exit questionnaire uploaded")

	return nil
}

func checkRequired(req Request) error {
	switch {
	case req.Reporter == "":
		return domain.NewInputError("Reporter name is required")
	case req.User == "":
		return domain.NewInputError("CIP-API user name is required")
	case req.Date == "":
		return domain.NewInputError("Report date is required")
	case req.InterpretationRequest == "":
		return domain.NewInputError("Interpretation request ID is required")
	}
	return nil
}

// record writes the run to the ledger. A ledger failure is logged and does
// not change the run's result.
func (s *Service) record(ctx context.Context, log *logrus.Entry, req Request, result *Result, runErr error) {
	sub := &ledger.Submission{
		RunID:                 result.RunID,
		RequestID:             result.Case.RequestID,
		RequestVersion:        result.Case.RequestVersion,
		CaseID:                result.CaseID,
		Reporter:              req.Reporter,
		User:                  req.User,
		ReportDate:            req.Date,
		ClinicalReportVersion: result.ClinicalReportVersion,
		Outcome:               result.Outcome,
	}
	if sub.RequestID == "" {
		sub.RequestID = req.InterpretationRequest
	}
	if runErr != nil {
		var e *domain.Error
		if errors.As(runErr, &e) {
			sub.ErrorCode = e.Code
			sub.Message = e.Message
		} else {
			sub.ErrorCode = domain.ErrInternal
			sub.Message = runErr.Error()
		}
	}

	if err := s.ledger.Record(ctx, sub); err != nil {
		log.WithError(err).Warn("Failed to record submission in ledger")
	}
}
