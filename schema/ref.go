package schema

import (
	"github.com/speakeasy-api/dtoschema/references"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

// RefSchema points at a data class definition rendered elsewhere in the document.
// It accepts annotations only and, like ObjectSchema, is never consolidated.
type RefSchema struct {
	base
	identity string
	ref      references.Reference
}

var _ SingleTypeSchema = (*RefSchema)(nil)

// NewRef returns a reference to the definition of the data class identified by identity.
func NewRef(identity string, ref references.Reference) *RefSchema {
	return &RefSchema{
		base:     newBase(TypeObject, GroupAnnotation),
		identity: identity,
		ref:      ref,
	}
}

// Identity returns the identity of the referenced data class.
func (r *RefSchema) Identity() string {
	return r.identity
}

// Reference returns the "$ref" value.
func (r *RefSchema) Reference() references.Reference {
	return r.ref
}

// ApplyType is a no-op: the referenced definition carries the type.
func (r *RefSchema) ApplyType() Schema {
	return r
}

func (r *RefSchema) Apply(keyword string, value any) (Result, error) {
	if err := r.apply(keyword, value); err != nil {
		return Result{}, err
	}
	return applied(r), nil
}

func (r *RefSchema) Consolidatable() bool {
	return false
}

func (r *RefSchema) ToMap(bool) *sequencedmap.Map[string, any] {
	m := sequencedmap.New(sequencedmap.NewElem[string, any](KeywordRef, r.ref.String()))
	r.keywords.render(m)
	return m
}
