// Package references models the value of a JSON Schema "$ref" keyword.
package references

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/speakeasy-api/dtoschema/jsonpointer"
)

// Reference is a URI reference, optionally carrying a JSON pointer fragment.
type Reference string

var _ fmt.Stringer = (*Reference)(nil)

// Root references the whole document the reference appears in.
const Root Reference = "#"

// Local creates a document-local reference to the location identified by parts, e.g. ["$defs", "PersonData"].
func Local(parts ...string) Reference {
	return Reference("#" + string(jsonpointer.PartsToJSONPointer(parts)))
}

func (r Reference) GetURI() string {
	uri, _, _ := strings.Cut(string(r), "#")
	return strings.TrimSpace(uri)
}

func (r Reference) HasJSONPointer() bool {
	return strings.Contains(string(r), "#")
}

// IsLocal reports whether the reference points into the document it appears in.
func (r Reference) IsLocal() bool {
	return r.HasJSONPointer() && r.GetURI() == ""
}

func (r Reference) GetJSONPointer() jsonpointer.JSONPointer {
	_, fragment, found := strings.Cut(string(r), "#")
	if !found {
		return ""
	}

	pointer := strings.TrimSpace(fragment)

	// URL decode the JSON pointer to handle percent-encoded characters
	// like %25 (which represents %)
	if decoded, err := url.PathUnescape(pointer); err == nil {
		pointer = decoded
	}

	return jsonpointer.JSONPointer(pointer)
}

func (r Reference) Validate() error {
	if r == "" {
		return errors.New("reference must not be empty")
	}

	uri := r.GetURI()

	if uri != "" {
		if _, err := url.Parse(uri); err != nil {
			return fmt.Errorf("invalid reference URI: %w", err)
		}
	}

	if r.HasJSONPointer() {
		if err := r.GetJSONPointer().Validate(); err != nil {
			return fmt.Errorf("invalid reference JSON pointer: %w", err)
		}
	}

	return nil
}

func (r Reference) String() string {
	return string(r)
}
