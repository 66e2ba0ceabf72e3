package validation

import (
	"fmt"

	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/jsonpointer"
)

// ErrInvalidInput is returned when a document or instance cannot be read as JSON.
const ErrInvalidInput = errors.Error("invalid input")

// Error represents a validation error and the location in the validated value where it occurred.
type Error struct {
	// Rule identifies the kind of failure, one of the Rule constants.
	Rule string
	// Location points at the offending value. The empty pointer is the value itself.
	Location jsonpointer.JSONPointer
	// KeywordLocation is the schema location of the failing keyword, when known.
	KeywordLocation string
	Message         string
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	location := string(e.Location)
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("[%s] %s", location, e.Message)
}

// Validation rules.
const (
	RuleInvalidSyntax  = "validation-invalid-syntax"
	RuleInvalidSchema  = "validation-invalid-schema"
	RuleTypeMismatch   = "validation-type-mismatch"
	RuleRequiredField  = "validation-required-field"
	RuleAllowedValues  = "validation-allowed-values"
	RuleInvalidFormat  = "validation-invalid-format"
	RuleInvalidValue   = "validation-invalid-value"
	RuleInvalidDialect = "validation-invalid-dialect"
)
