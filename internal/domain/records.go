package domain

import "encoding/json"

// Fixed answers for a case with no tier 1 or 2 variants. The enum values
// are lower case in the reports models.
const (
	NoTierOneOrTwoVariants = "No tier 1 or 2 variants detected"
	CaseSolvedNo           = "no"
	SegregationNo          = "no"
	GenomeAssemblyKey      = "genomeAssembly"
)

// FamilyLevelQuestions holds the family-level answers of an exit questionnaire
type FamilyLevelQuestions struct {
	CaseSolvedFamily    string `json:"caseSolvedFamily" validate:"required,oneof=yes no partially unknown"`
	SegregationQuestion string `json:"segregationQuestion" validate:"required,oneof=yes no"`
	AdditionalComments  string `json:"additionalComments" validate:"required"`
}

// VariantGroupLevelQuestions is one group-level answer block. NegNeg
// reports never carry any.
type VariantGroupLevelQuestions struct {
	VariantGroup int             `json:"variantGroup"`
	Answers      json.RawMessage `json:"answers,omitempty"`
}

// ExitQuestionnaire is the rare disease exit questionnaire record
type ExitQuestionnaire struct {
	EventDate                  string                       `json:"eventDate" validate:"required,datetime=2006-01-02"`
	Reporter                   string                       `json:"reporter" validate:"required"`
	FamilyLevelQuestions       FamilyLevelQuestions         `json:"familyLevelQuestions"`
	VariantGroupLevelQuestions []VariantGroupLevelQuestions `json:"variantGroupLevelQuestions" validate:"array"`
}

// ClinicalReport is the summary of findings record
type ClinicalReport struct {
	InterpretationRequestID              string            `json:"interpretationRequestId" validate:"required,numeric"`
	InterpretationRequestVersion         int               `json:"interpretationRequestVersion" validate:"min=1"`
	InterpretationRequestAnalysisVersion string            `json:"interpretationRequestAnalysisVersion" validate:"required,numeric"`
	ReportingDate                        string            `json:"reportingDate" validate:"required,datetime=2006-01-02"`
	User                                 string            `json:"user" validate:"required"`
	CandidateVariants                    []json.RawMessage `json:"candidateVariants" validate:"array"`
	CandidateStructuralVariants          []json.RawMessage `json:"candidateStructuralVariants" validate:"array"`
	GenomicInterpretation                string            `json:"genomicInterpretation" validate:"required"`
	ReferenceDatabasesVersions           map[string]string `json:"referenceDatabasesVersions" validate:"required,dive,required"`
	SoftwareVersions                     map[string]string `json:"softwareVersions" validate:"required"`
	SupportingEvidence                   []string          `json:"supportingEvidence" validate:"array"`
	References                           []string          `json:"references" validate:"array"`
}

// InterpretationRequest is the subset of the CIP-API case document the
// submitter reads.
type InterpretationRequest struct {
	CaseID            string            `json:"case_id"`
	Assembly          string            `json:"assembly"`
	InterpretedGenome json.RawMessage   `json:"interpreted_genome"`
	ClinicalReport    []json.RawMessage `json:"clinical_report"`
}

// HasClinicalReport reports whether a summary of findings was already filed
func (ir *InterpretationRequest) HasClinicalReport() bool {
	return len(ir.ClinicalReport) > 0
}
