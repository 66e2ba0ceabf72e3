package schema

import (
	"slices"

	"github.com/speakeasy-api/dtoschema/references"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

// Definitions tells data-class objects whether they are rendered in place or as a reference.
type Definitions interface {
	// Pointer returns the reference to use for a class that is rendered once under "$defs",
	// or false when the class is rendered in place.
	Pointer(identity string) (references.Reference, bool)
}

// ObjectSchema is the full schema of a data class.
//
// It never takes part in union consolidation: merging its properties and required keys
// with sibling types would be ambiguous.
type ObjectSchema struct {
	base
	identity string
	defs     Definitions
}

var _ SingleTypeSchema = (*ObjectSchema)(nil)

// NewObject returns a bare object schema for the data class identified by identity.
func NewObject(identity string) *ObjectSchema {
	return &ObjectSchema{
		base:     newBase(TypeObject),
		identity: identity,
	}
}

// Identity returns the identity of the data class the schema describes.
func (o *ObjectSchema) Identity() string {
	return o.identity
}

// AttachDefinitions makes nested renders of the schema consult defs.
func (o *ObjectSchema) AttachDefinitions(defs Definitions) *ObjectSchema {
	o.defs = defs
	return o
}

func (o *ObjectSchema) ApplyType() Schema {
	o.typed = true
	return o
}

func (o *ObjectSchema) Apply(keyword string, value any) (Result, error) {
	if err := o.apply(keyword, value); err != nil {
		return Result{}, err
	}
	return applied(o), nil
}

// SetProperty adds or replaces a declared property, keeping declaration order.
func (o *ObjectSchema) SetProperty(name string, s Schema) *ObjectSchema {
	props := o.Properties()
	if props == nil {
		props = sequencedmap.New[string, Schema]()
		o.keywords.set(GroupTypeSpecific, KeywordProperties, props)
	}
	props.Set(name, s)
	return o
}

// Properties returns the declared properties, or nil when none are set.
func (o *ObjectSchema) Properties() *sequencedmap.Map[string, Schema] {
	v, ok := o.keywords.get(KeywordProperties)
	if !ok {
		return nil
	}
	props, _ := v.(*sequencedmap.Map[string, Schema])
	return props
}

// SetRequired sets the names of the properties that must be present.
// An empty list removes nothing and renders nothing.
func (o *ObjectSchema) SetRequired(names []string) *ObjectSchema {
	if len(names) == 0 {
		return o
	}
	o.keywords.set(GroupTypeSpecific, KeywordRequired, slices.Clone(names))
	return o
}

// Required returns the names of the required properties.
func (o *ObjectSchema) Required() []string {
	v, _ := o.keywords.get(KeywordRequired)
	names, _ := v.([]string)
	return names
}

func (o *ObjectSchema) Consolidatable() bool {
	return false
}

// ToMap renders the class body, or a reference to it when nested and the class lives under "$defs".
func (o *ObjectSchema) ToMap(nested bool) *sequencedmap.Map[string, any] {
	if nested && o.defs != nil {
		if ref, ok := o.defs.Pointer(o.identity); ok {
			return sequencedmap.New(sequencedmap.NewElem[string, any](KeywordRef, ref.String()))
		}
	}
	return o.render()
}

// SimpleObjectSchema is a plain JSON object without declared properties, e.g. an associative array.
// Unlike ObjectSchema it can be consolidated with sibling types in a union.
type SimpleObjectSchema struct {
	base
}

var _ SingleTypeSchema = (*SimpleObjectSchema)(nil)

// NewSimpleObject returns a bare simple object schema.
func NewSimpleObject() *SimpleObjectSchema {
	s := &SimpleObjectSchema{base: newBase(TypeObject)}
	s.rejected = []string{KeywordProperties}
	return s
}

func (s *SimpleObjectSchema) ApplyType() Schema {
	s.typed = true
	return s
}

func (s *SimpleObjectSchema) Apply(keyword string, value any) (Result, error) {
	if err := s.apply(keyword, value); err != nil {
		return Result{}, err
	}
	return applied(s), nil
}

func (s *SimpleObjectSchema) Consolidatable() bool {
	return true
}

func (s *SimpleObjectSchema) ToMap(bool) *sequencedmap.Map[string, any] {
	return s.render()
}
