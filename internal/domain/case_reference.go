package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var caseReferencePattern = regexp.MustCompile(`^\d+-\d+$`)

// CaseReference identifies one version of an interpretation request, e.g. 12345-1
type CaseReference struct {
	RequestID      string `json:"request_id"`
	RequestVersion string `json:"request_version"`
}

// ParseCaseReference splits an "id-version" string into its parts.
func ParseCaseReference(s string) (CaseReference, error) {
	if !caseReferencePattern.MatchString(s) {
		return CaseReference{}, NewInputError("Interpretation request ID doesn't match the format 11111-1, please check entry")
	}
	parts := strings.SplitN(s, "-", 2)

	// The version is sent as a number, so it must fit in an int
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return CaseReference{}, NewInputError(fmt.Sprintf("Interpretation request version %s is out of range, please check entry", parts[1]))
	}
	return CaseReference{RequestID: parts[0], RequestVersion: parts[1]}, nil
}

// Version returns the numeric request version. It is 0 only for a
// reference that did not come from ParseCaseReference.
func (c CaseReference) Version() int {
	v, err := strconv.Atoi(c.RequestVersion)
	if err != nil {
		return 0
	}
	return v
}

// String renders the reference in its "id-version" form
func (c CaseReference) String() string {
	return fmt.Sprintf("%s-%s", c.RequestID, c.RequestVersion)
}
