package domain

import (
	"context"
)

// ValidationOutcome is the pass/fail result of validating one record
type ValidationOutcome struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages,omitempty"`
}

// RecordValidator checks a record against its schema
type RecordValidator interface {
	Validate(record interface{}) ValidationOutcome
}

// CaseAPI is the remote case-management service the records are filed with
type CaseAPI interface {
	Authenticate(ctx context.Context) error
	GetInterpretationRequest(ctx context.Context, ref CaseReference) (*InterpretationRequest, error)
	// PostClinicalReport files the summary of findings and returns the
	// clinical report version the exit questionnaire must be attached to.
	PostClinicalReport(ctx context.Context, caseID string, report *ClinicalReport) (int, error)
	PutExitQuestionnaire(ctx context.Context, ref CaseReference, reportVersion int, eq *ExitQuestionnaire) error
}
