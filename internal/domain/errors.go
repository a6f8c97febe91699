package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a failure so callers can choose how to react.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInput
	KindValidation
	KindTransport
	KindConflict
	KindData
	KindConfig
)

// String returns the kind's name
func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindConflict:
		return "conflict"
	case KindData:
		return "data"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrInvalidRecord  = "INVALID_RECORD"
	ErrExternalAPI    = "EXTERNAL_API_ERROR"
	ErrUnexpectedCode = "UNEXPECTED_STATUS"
	ErrAuthentication = "AUTHENTICATION_ERROR"
	ErrReportPresent  = "REPORT_EXISTS"
	ErrMissingField   = "MISSING_FIELD"
	ErrConfiguration  = "CONFIGURATION_ERROR"
	ErrInternal       = "INTERNAL_ERROR"
)

// Error is the standardized error returned by every stage of a submission run
type Error struct {
	Kind      ErrorKind `json:"kind"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg = msg + "\n" + strings.Join(e.Details, "\n")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code so sentinel errors work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Kind == e.Kind
}

// NewError creates a new Error with timestamp
func NewError(kind ErrorKind, code, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Err:       cause,
	}
}

// NewInputError reports bad user input such as a malformed date or identifier
func NewInputError(message string) *Error {
	return NewError(KindInput, ErrInvalidInput, message, nil)
}

// NewRecordError reports a record that failed schema validation
func NewRecordError(message string, details []string) *Error {
	e := NewError(KindValidation, ErrInvalidRecord, message, nil)
	e.Details = details
	return e
}

// NewTransportError reports a network failure talking to the remote API
func NewTransportError(message string, cause error) *Error {
	return NewError(KindTransport, ErrExternalAPI, message, cause)
}

// NewDataError reports a fetched document that lacks an expected field
func NewDataError(message string, cause error) *Error {
	return NewError(KindData, ErrMissingField, message, cause)
}

// NewConfigError reports invalid configuration
func NewConfigError(message string, cause error) *Error {
	return NewError(KindConfig, ErrConfiguration, message, cause)
}

// ErrReportExists is returned when the case already carries a clinical report
var ErrReportExists = &Error{
	Kind:    KindConflict,
	Code:    ErrReportPresent,
	Message: "A clinical report already exists for this interpretation request",
}

// StatusError reports a response whose HTTP status differs from the expected one
type StatusError struct {
	Step     string
	Expected int
	Actual   int
	Body     string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: response status code %d != %d", e.Step, e.Actual, e.Expected)
}

// NewStatusError wraps a status mismatch as a transport error
func NewStatusError(step string, expected, actual int, body string) *Error {
	msg := fmt.Sprintf("%s failed: response status code != %d", step, expected)
	e := NewError(KindTransport, ErrUnexpectedCode, msg, &StatusError{
		Step:     step,
		Expected: expected,
		Actual:   actual,
		Body:     body,
	})
	if actual == 401 || actual == 403 {
		e.Code = ErrAuthentication
	}
	return e
}

// KindOf returns the kind of err, or KindInternal for untyped errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
