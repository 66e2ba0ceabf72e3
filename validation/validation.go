// Package validation checks generated schema documents against their meta-schema and validates
// instances against generated documents.
package validation

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	jsValidator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/speakeasy-api/dtoschema/jsonpointer"
	"golang.org/x/text/message"
)

const schemaResource = "schema.json"

var (
	metaMu      sync.Mutex
	metaSchemas = map[string]*jsValidator.Schema{}
)

// metaSchema compiles the meta-schema for a dialect once. Only the dialects bundled with the
// validator can be compiled; nothing is fetched.
func metaSchema(dialect string) (*jsValidator.Schema, error) {
	metaMu.Lock()
	defer metaMu.Unlock()

	if s, ok := metaSchemas[dialect]; ok {
		return s, nil
	}

	s, err := jsValidator.NewCompiler().Compile(dialect)
	if err != nil {
		return nil, err
	}
	metaSchemas[dialect] = s
	return s, nil
}

// ValidateSchema checks a schema document against the meta-schema it declares in "$schema".
// It returns nil when the document is valid.
func ValidateSchema(r io.Reader, opts ...Option) []error {
	o := NewOptions(opts...)

	doc, err := jsValidator.UnmarshalJSON(r)
	if err != nil {
		return []error{syntaxError("schema", err)}
	}

	dialect := o.Dialect
	if m, ok := doc.(map[string]any); ok {
		if declared, ok := m["$schema"].(string); ok && declared != "" {
			dialect = declared
		}
	}

	meta, err := metaSchema(dialect)
	if err != nil {
		return []error{&Error{
			Rule:     RuleInvalidDialect,
			Location: "/$schema",
			Message:  fmt.Sprintf("unsupported dialect %q: %s", dialect, err.Error()),
		}}
	}

	return collect(meta.Validate(doc), o.printer())
}

// ValidateInstance validates an instance against a schema document.
// It returns nil when the instance is valid.
func ValidateInstance(schemaDoc io.Reader, instance io.Reader, opts ...Option) []error {
	o := NewOptions(opts...)

	doc, err := jsValidator.UnmarshalJSON(schemaDoc)
	if err != nil {
		return []error{syntaxError("schema", err)}
	}

	inst, err := jsValidator.UnmarshalJSON(instance)
	if err != nil {
		return []error{syntaxError("instance", err)}
	}

	c := jsValidator.NewCompiler()
	c.DefaultDraft(draftFor(o.Dialect))
	if o.AssertFormat {
		c.AssertFormat()
	}
	if err := c.AddResource(schemaResource, doc); err != nil {
		return []error{&Error{Rule: RuleInvalidSchema, Message: err.Error()}}
	}

	s, err := c.Compile(schemaResource)
	if err != nil {
		var schemaErr *jsValidator.SchemaValidationError
		if errors.As(err, &schemaErr) {
			if errs := collect(schemaErr.Err, o.printer()); len(errs) > 0 {
				return errs
			}
		}
		return []error{&Error{Rule: RuleInvalidSchema, Message: err.Error()}}
	}

	return collect(s.Validate(inst), o.printer())
}

func draftFor(dialect string) *jsValidator.Draft {
	switch strings.TrimSuffix(dialect, "#") {
	case "https://json-schema.org/draft/2019-09/schema":
		return jsValidator.Draft2019
	case "http://json-schema.org/draft-07/schema":
		return jsValidator.Draft7
	default:
		return jsValidator.Draft2020
	}
}

func syntaxError(what string, err error) error {
	return &Error{
		Rule:    RuleInvalidSyntax,
		Message: ErrInvalidInput.Wrapf("%s is not valid json: %s", what, err.Error()).Error(),
	}
}

// collect flattens a validation failure into its root causes.
func collect(err error, printer *message.Printer) []error {
	if err == nil {
		return nil
	}

	var validationErr *jsValidator.ValidationError
	if !errors.As(err, &validationErr) {
		return []error{&Error{Rule: RuleInvalidValue, Message: err.Error()}}
	}

	errs := rootCauses(validationErr, printer)
	SortValidationErrors(errs)
	return errs
}

func rootCauses(err *jsValidator.ValidationError, printer *message.Printer) []error {
	if len(err.Causes) == 0 {
		return []error{newError(err, printer)}
	}

	var errs []error
	for _, cause := range err.Causes {
		errs = append(errs, rootCauses(cause, printer)...)
	}
	return errs
}

func newError(err *jsValidator.ValidationError, printer *message.Printer) *Error {
	e := &Error{
		Rule:     RuleInvalidValue,
		Location: jsonpointer.PartsToJSONPointer(err.InstanceLocation),
		Message:  err.ErrorKind.LocalizedString(printer),
	}
	if path := err.ErrorKind.KeywordPath(); len(path) > 0 {
		e.KeywordLocation = string(jsonpointer.PartsToJSONPointer(path))
	}

	switch err.ErrorKind.(type) {
	case *kind.Type:
		e.Rule = RuleTypeMismatch
	case *kind.Required:
		e.Rule = RuleRequiredField
	case *kind.Enum, *kind.Const:
		e.Rule = RuleAllowedValues
	case *kind.Format:
		e.Rule = RuleInvalidFormat
	}

	return e
}

// SortValidationErrors sorts the provided validation errors by location, then rule, then message.
// Errors that are not validation errors keep their order after every validation error.
func SortValidationErrors(allErrors []error) {
	slices.SortStableFunc(allErrors, func(a, b error) int {
		var aErr, bErr *Error
		aOK, bOK := errors.As(a, &aErr), errors.As(b, &bErr)
		switch {
		case aOK && !bOK:
			return -1
		case !aOK && bOK:
			return 1
		case !aOK && !bOK:
			return 0
		}
		return compareValidationErrors(aErr, bErr)
	})
}

func compareValidationErrors(a, b *Error) int {
	if c := strings.Compare(string(a.Location), string(b.Location)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Rule, b.Rule); c != 0 {
		return c
	}
	return strings.Compare(a.Message, b.Message)
}
