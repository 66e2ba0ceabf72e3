// Package jsonpointer provides JSONPointer an implementation of RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
package jsonpointer

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/speakeasy-api/dtoschema/errors"
)

const (
	// ErrNotFound is returned when the target is not found.
	ErrNotFound = errors.Error("not found")
	// ErrInvalidPath is returned when the path is invalid.
	ErrInvalidPath = errors.Error("invalid path")
	// ErrValidation is returned when the jsonpointer is invalid.
	ErrValidation = errors.Error("validation error")
)

// JSONPointer represents a JSON Pointer value as defined by RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
type JSONPointer string

// Validate will validate the JSONPointer is valid as per RFC6901.
func (j JSONPointer) Validate() error {
	_, err := j.getNavigationStack()
	if err != nil {
		return ErrValidation.Wrap(err)
	}
	return nil
}

// KeyNavigable is implemented by ordered or custom maps to allow navigation by key.
type KeyNavigable interface {
	NavigateWithKey(key string) (any, error)
}

// GetTarget will evaluate the JSONPointer against the source and return the target.
// The source may be built from maps with string keys, slices, and types implementing KeyNavigable.
func GetTarget(source any, pointer JSONPointer) (any, error) {
	stack, err := pointer.getNavigationStack()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}

	currentPath := ""
	target := source

	for _, part := range stack {
		currentPath += "/" + part.Value

		target, err = getTarget(target, part, currentPath)
		if err != nil {
			return nil, err
		}
	}

	return target, nil
}

// PartsToJSONPointer will convert the exploded parts of a JSONPointer to a JSONPointer.
func PartsToJSONPointer(parts []string) JSONPointer {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(escape(part))
	}
	return JSONPointer(sb.String())
}

// EscapeString escapes a string for use as a reference token in a JSON pointer according to RFC6901.
// It replaces "~" with "~0" and "/" with "~1".
func EscapeString(s string) string {
	return escape(s)
}

func escape(part string) string {
	return strings.ReplaceAll(strings.ReplaceAll(part, "~", "~0"), "/", "~1")
}

func getTarget(source any, part navigationPart, currentPath string) (any, error) {
	if source == nil {
		return nil, ErrNotFound.Wrap(fmt.Errorf("source is nil at %s", currentPath))
	}

	// index-looking tokens are valid keys too, e.g. a property named "0"
	if kn, ok := source.(KeyNavigable); ok {
		value, err := kn.NavigateWithKey(part.unescapeValue())
		if err != nil {
			return nil, ErrNotFound.Wrap(err)
		}
		return value, nil
	}

	sourceVal := reflect.Indirect(reflect.ValueOf(source))

	switch sourceVal.Kind() {
	case reflect.Map:
		return getMapTarget(sourceVal, part, currentPath)
	case reflect.Slice, reflect.Array:
		return getSliceTarget(sourceVal, part, currentPath)
	default:
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected map or slice, got %s at %s", sourceVal.Kind(), currentPath))
	}
}

func getMapTarget(sourceVal reflect.Value, part navigationPart, currentPath string) (any, error) {
	if sourceVal.Type().Key().Kind() != reflect.String {
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected map key to be string, got %s at %s", sourceVal.Type().Key().Kind(), currentPath))
	}

	key := reflect.ValueOf(part.unescapeValue()).Convert(sourceVal.Type().Key())

	target := sourceVal.MapIndex(key)
	if !target.IsValid() {
		return nil, ErrNotFound.Wrap(fmt.Errorf("key %s not found in map at %s", part.unescapeValue(), currentPath))
	}

	return target.Interface(), nil
}

func getSliceTarget(sourceVal reflect.Value, part navigationPart, currentPath string) (any, error) {
	if part.Type != partTypeIndex {
		return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected index, got %s at %s", part.Type, currentPath))
	}

	index := part.getIndex()

	if index < 0 || index >= sourceVal.Len() {
		return nil, ErrNotFound.Wrap(fmt.Errorf("index %d out of range for slice/array of length %d at %s", index, sourceVal.Len(), currentPath))
	}

	return sourceVal.Index(index).Interface(), nil
}
