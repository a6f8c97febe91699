// Package report builds the fixed-content exit questionnaire and summary of
// findings records for cases with no tier 1 or 2 variants.
package report

import (
	"encoding/json"

	"github.com/negneg-eq-submitter/internal/domain"
)

// NewFamilyLevelQuestions returns the answer block used by every NegNeg report
func NewFamilyLevelQuestions() domain.FamilyLevelQuestions {
	return domain.FamilyLevelQuestions{
		CaseSolvedFamily:    domain.CaseSolvedNo,
		SegregationQuestion: domain.SegregationNo,
		AdditionalComments:  domain.NoTierOneOrTwoVariants,
	}
}

// NewExitQuestionnaire composes the exit questionnaire from the report date,
// the reporter and the family-level answers.
func NewExitQuestionnaire(eventDate, reporter string, flqs domain.FamilyLevelQuestions) *domain.ExitQuestionnaire {
	return &domain.ExitQuestionnaire{
		EventDate:                  eventDate,
		Reporter:                   reporter,
		FamilyLevelQuestions:       flqs,
		VariantGroupLevelQuestions: []domain.VariantGroupLevelQuestions{},
	}
}

// ClinicalReportInput carries the values a summary of findings is built from
type ClinicalReportInput struct {
	User             string
	ReportingDate    string
	Case             domain.CaseReference
	GenomeAssembly   string
	SoftwareVersions map[string]string
}

// NewClinicalReport builds the summary of findings
func NewClinicalReport(in ClinicalReportInput) *domain.ClinicalReport {
	return &domain.ClinicalReport{
		InterpretationRequestID:              in.Case.RequestID,
		InterpretationRequestVersion:         in.Case.Version(),
		InterpretationRequestAnalysisVersion: in.Case.RequestVersion,
		ReportingDate:                        in.ReportingDate,
		User:                                 in.User,
		CandidateVariants:                    []json.RawMessage{},
		CandidateStructuralVariants:          []json.RawMessage{},
		GenomicInterpretation:                domain.NoTierOneOrTwoVariants,
		ReferenceDatabasesVersions:           map[string]string{domain.GenomeAssemblyKey: in.GenomeAssembly},
		SoftwareVersions:                     in.SoftwareVersions,
		SupportingEvidence:                   []string{},
		References:                           []string{},
	}
}
