package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		kind     ErrorKind
		code     string
		expected string
	}{
		{
			name:     "Input error",
			err:      NewInputError("Not a valid date: 'AAAAA'."),
			kind:     KindInput,
			code:     ErrInvalidInput,
			expected: "Not a valid date: 'AAAAA'.",
		},
		{
			name:     "Record error with details",
			err:      NewRecordError("Invalid Exit Questionnaire object created as described below:", []string{"reporter: required"}),
			kind:     KindValidation,
			code:     ErrInvalidRecord,
			expected: "Invalid Exit Questionnaire object created as described below:\nreporter: required",
		},
		{
			name:     "Transport error with cause",
			err:      NewTransportError("GET interpretation request", fmt.Errorf("connection refused")),
			kind:     KindTransport,
			code:     ErrExternalAPI,
			expected: "GET interpretation request: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, tt.err.Kind)
			}

			if tt.err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, tt.err.Code)
			}

			if time.Since(tt.err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", tt.err.Timestamp)
			}

			if tt.err.Error() != tt.expected {
				t.Errorf("Expected error string %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	err := NewStatusError("Summary of Findings creation", 201, 500, "boom")

	if err.Kind != KindTransport {
		t.Errorf("Expected transport kind, got %s", err.Kind)
	}
	if err.Code != ErrUnexpectedCode {
		t.Errorf("Expected code %s, got %s", ErrUnexpectedCode, err.Code)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatal("Expected StatusError in chain")
	}
	if statusErr.Expected != 201 || statusErr.Actual != 500 {
		t.Errorf("Unexpected status pair %d/%d", statusErr.Expected, statusErr.Actual)
	}

	authErr := NewStatusError("Authentication", 200, 401, "")
	if authErr.Code != ErrAuthentication {
		t.Errorf("Expected code %s for 401, got %s", ErrAuthentication, authErr.Code)
	}
}

func TestErrReportExists(t *testing.T) {
	wrapped := fmt.Errorf("run 12345-1: %w", ErrReportExists)

	if !errors.Is(wrapped, ErrReportExists) {
		t.Error("Expected wrapped error to match ErrReportExists")
	}
	if KindOf(wrapped) != KindConflict {
		t.Errorf("Expected conflict kind, got %s", KindOf(wrapped))
	}
	if errors.Is(NewInputError("x"), ErrReportExists) {
		t.Error("Input error must not match ErrReportExists")
	}
}

func TestKindOf_Untyped(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("Expected untyped errors to be internal")
	}
}
