package schema

import (
	"fmt"
	"slices"

	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

// Schema is a node that renders to a JSON Schema mapping and accepts keywords uniformly.
type Schema interface {
	// ApplyType locks the type discriminator into the rendered output. It is idempotent.
	ApplyType() Schema
	// Apply sets a keyword, reporting which node or nodes accepted it.
	Apply(keyword string, value any) (Result, error)
	// Keyword returns the value of a keyword previously applied.
	Keyword(keyword string) (any, bool)
	// Supports reports whether Apply would accept the keyword.
	Supports(keyword string) bool
	// ToMap renders the node. nested is false only for the document root and definition bodies.
	ToMap(nested bool) *sequencedmap.Map[string, any]
}

// SingleTypeSchema is a Schema with a fixed type discriminator.
type SingleTypeSchema interface {
	Schema
	Type() DataType
	// Typed reports whether ApplyType has been called.
	Typed() bool
	// Consolidatable reports whether the node can be merged with siblings into a multi-valued "type".
	Consolidatable() bool
}

// Outcome describes how a keyword operation resolved.
type Outcome int

const (
	// Applied means every node addressed accepted the operation.
	Applied Outcome = iota
	// Single means exactly one union constituent accepted the operation.
	Single
	// Ambiguous means more than one, but not every, union constituent accepted the operation.
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Single:
		return "single"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is returned by keyword operations.
//
// For Applied the Schema is the receiver, for Single it is the one constituent that accepted
// the operation, and for Ambiguous Schema is nil. Operations forwarded by a union also report
// every accepting constituent in Matches.
type Result struct {
	Outcome Outcome
	Schema  Schema
	Matches []SingleTypeSchema
}

// IsAmbiguous reports whether callers need to handle a set of matches rather than a single schema.
func (r Result) IsAmbiguous() bool {
	return r.Outcome == Ambiguous
}

func applied(s Schema) Result {
	return Result{Outcome: Applied, Schema: s}
}

// base holds the state shared by every single-type node.
type base struct {
	dataType DataType
	typed    bool
	keywords keywordSet
	// groups lists the keyword groups the node accepts.
	groups []KeywordGroup
	// rejected lists keywords refused even though their group is accepted.
	rejected []string
}

func newBase(dt DataType, groups ...KeywordGroup) base {
	if len(groups) == 0 {
		groups = []KeywordGroup{GroupAnnotation, GroupGeneral, GroupTypeSpecific, GroupComposition}
	}
	return base{dataType: dt, groups: groups}
}

func (b *base) Type() DataType {
	return b.dataType
}

func (b *base) Typed() bool {
	return b.typed
}

func (b *base) Keyword(keyword string) (any, bool) {
	return b.keywords.get(keyword)
}

func (b *base) Supports(keyword string) bool {
	kw, ok := lookupKeyword(keyword)
	if !ok || !slices.Contains(b.groups, kw.group) || slices.Contains(b.rejected, keyword) {
		return false
	}
	if kw.group == GroupTypeSpecific {
		return slices.Contains(kw.types, b.dataType)
	}
	return true
}

func (b *base) apply(keyword string, value any) error {
	if !b.Supports(keyword) {
		return ErrUnsupportedKeyword.Wrapf("%q is not supported by %s schemas", keyword, b.dataType)
	}
	if err := checkValue(keyword, value); err != nil {
		return err
	}

	kw, _ := lookupKeyword(keyword)
	b.keywords.set(kw.group, keyword, value)
	return nil
}

func (b *base) render() *sequencedmap.Map[string, any] {
	m := sequencedmap.New[string, any]()
	if b.typed {
		m.Set(KeywordType, string(b.dataType))
	}
	b.keywords.render(m)
	return m
}

// ScalarSchema is a null, boolean, integer, number or string schema.
type ScalarSchema struct {
	base
}

var _ SingleTypeSchema = (*ScalarSchema)(nil)

// NewNull returns a bare null schema.
func NewNull() *ScalarSchema { return &ScalarSchema{base: newBase(TypeNull)} }

// NewBoolean returns a bare boolean schema.
func NewBoolean() *ScalarSchema { return &ScalarSchema{base: newBase(TypeBoolean)} }

// NewInteger returns a bare integer schema.
func NewInteger() *ScalarSchema { return &ScalarSchema{base: newBase(TypeInteger)} }

// NewNumber returns a bare number schema.
func NewNumber() *ScalarSchema { return &ScalarSchema{base: newBase(TypeNumber)} }

// NewString returns a bare string schema.
func NewString() *ScalarSchema { return &ScalarSchema{base: newBase(TypeString)} }

func (s *ScalarSchema) ApplyType() Schema {
	s.typed = true
	return s
}

func (s *ScalarSchema) Apply(keyword string, value any) (Result, error) {
	if err := s.apply(keyword, value); err != nil {
		return Result{}, err
	}
	return applied(s), nil
}

func (s *ScalarSchema) Consolidatable() bool {
	return true
}

func (s *ScalarSchema) ToMap(bool) *sequencedmap.Map[string, any] {
	return s.render()
}

// New returns a fresh, untyped, keyword-free node for the data type.
// Objects are represented by SimpleObjectSchema since no properties are declared.
func New(dt DataType) (SingleTypeSchema, error) {
	switch dt {
	case TypeNull:
		return NewNull(), nil
	case TypeBoolean:
		return NewBoolean(), nil
	case TypeInteger:
		return NewInteger(), nil
	case TypeNumber:
		return NewNumber(), nil
	case TypeString:
		return NewString(), nil
	case TypeArray:
		return NewArray(), nil
	case TypeObject:
		return NewSimpleObject(), nil
	default:
		return nil, fmt.Errorf("unknown data type %q", dt)
	}
}

// TypesOf returns the data types a schema can take: its own type, or the types of a union's constituents.
func TypesOf(s Schema) []DataType {
	switch v := s.(type) {
	case *UnionSchema:
		types := make([]DataType, 0, len(v.constituents))
		for _, c := range v.constituents {
			types = append(types, c.Type())
		}
		return types
	case SingleTypeSchema:
		return []DataType{v.Type()}
	default:
		return nil
	}
}

// Arrays returns the array nodes of a schema: the schema itself, or a union's array constituents.
func Arrays(s Schema) []*ArraySchema {
	switch v := s.(type) {
	case *ArraySchema:
		return []*ArraySchema{v}
	case *UnionSchema:
		var arrays []*ArraySchema
		for _, c := range v.constituents {
			if a, ok := c.(*ArraySchema); ok {
				arrays = append(arrays, a)
			}
		}
		return arrays
	default:
		return nil
	}
}
