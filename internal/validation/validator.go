// Package validation checks records against the schema rules declared in
// their struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/negneg-eq-submitter/internal/domain"
)

// SchemaValidator implements domain.RecordValidator on top of validator/v10
type SchemaValidator struct {
	validate *validator.Validate
}

// NewSchemaValidator creates a validator that reports JSON field names and
// understands the "array" rule (a list that must serialise as [] rather
// than null).
func NewSchemaValidator() *SchemaValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("array", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		return field.Kind() == reflect.Slice && !field.IsNil()
	}, true)

	return &SchemaValidator{validate: v}
}

// Validate checks record and returns a pass/fail outcome with field-level messages
func (s *SchemaValidator) Validate(record interface{}) domain.ValidationOutcome {
	err := s.validate.Struct(record)
	if err == nil {
		return domain.ValidationOutcome{Valid: true}
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return domain.ValidationOutcome{Messages: []string{invalid.Error()}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationOutcome{Messages: []string{err.Error()}}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return domain.ValidationOutcome{Messages: messages}
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), namespaceRoot(fe))
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", field)
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of [%s]", field, fe.Value(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s: %q is not a date in YYYY-MM-DD format", field, fe.Value())
	case "numeric":
		return fmt.Sprintf("%s: %q is not numeric", field, fe.Value())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "array":
		return fmt.Sprintf("%s: must be a list, got null", field)
	default:
		return fmt.Sprintf("%s: failed on the '%s' rule", field, fe.Tag())
	}
}

// namespaceRoot returns the leading "Type." segment of a field namespace
func namespaceRoot(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i+1]
	}
	return ""
}

// Check validates record and converts a failed outcome into a record error
// naming the object, e.g. "Family Level Questions".
func Check(v domain.RecordValidator, name string, record interface{}) error {
	outcome := v.Validate(record)
	if outcome.Valid {
		return nil
	}
	return domain.NewRecordError(
		fmt.Sprintf("Invalid %s object created as described below:", name),
		outcome.Messages,
	)
}
