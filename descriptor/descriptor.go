// Package descriptor models the already reflected facts about data classes that the generator
// turns into JSON Schema: classes, their properties, declared types, attributes and rules.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

const (
	// ErrUnknownClass is returned when a catalog has no class with the requested identity.
	ErrUnknownClass = errors.Error("unknown class")
	// ErrUnknownIdentity is returned when a type expression names neither a class nor an enum.
	ErrUnknownIdentity = errors.Error("unknown identity")
	// ErrInvalidCatalog is returned when a catalog document is malformed.
	ErrInvalidCatalog = errors.Error("invalid catalog")
	// ErrInvalidTypeExpression is returned when a type expression cannot be parsed.
	ErrInvalidTypeExpression = errors.Error("invalid type expression")
	// ErrInvalidRule is returned when a rule string cannot be parsed.
	ErrInvalidRule = errors.Error("invalid rule")
)

// ScalarKind is a reflected scalar type.
type ScalarKind string

const (
	ScalarNull     ScalarKind = "null"
	ScalarBool     ScalarKind = "bool"
	ScalarInt      ScalarKind = "int"
	ScalarFloat    ScalarKind = "float"
	ScalarString   ScalarKind = "string"
	ScalarObject   ScalarKind = "object"
	ScalarDateTime ScalarKind = "datetime"
	ScalarDate     ScalarKind = "date"
)

// Kind discriminates a Type.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindDataClass
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindDataClass:
		return "data class"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is one declared type of a property.
type Type struct {
	Kind Kind
	// Scalar is set for KindScalar.
	Scalar ScalarKind
	// Elem is the element type for KindArray, nil when the element type is unknown.
	Elem *Type
	// Identity names the class for KindDataClass and the enum for KindEnum.
	Identity string
	// Backing is the scalar kind of the enum values for KindEnum.
	Backing ScalarKind
}

// Scalar returns a scalar type.
func Scalar(kind ScalarKind) Type {
	return Type{Kind: KindScalar, Scalar: kind}
}

// ArrayOf returns an array type. A nil elem leaves the element type unknown.
func ArrayOf(elem *Type) Type {
	return Type{Kind: KindArray, Elem: elem}
}

// DataClass returns the type of a property holding an instance of the class identified by identity.
func DataClass(identity string) Type {
	return Type{Kind: KindDataClass, Identity: identity}
}

// EnumOf returns the type of a property holding a case of the enum identified by identity.
func EnumOf(identity string, backing ScalarKind) Type {
	return Type{Kind: KindEnum, Identity: identity, Backing: backing}
}

// String returns the type expression for the type.
func (t Type) String() string {
	switch t.Kind {
	case KindScalar:
		return string(t.Scalar)
	case KindArray:
		if t.Elem == nil {
			return "array"
		}
		return "array<" + t.Elem.String() + ">"
	default:
		return t.Identity
	}
}

// Override forces the top-level JSON type of a property.
type Override struct {
	// From is the type being replaced. Empty means array.
	From schema.DataType
	To   schema.DataType
}

// Source returns the type being replaced.
func (o Override) Source() schema.DataType {
	if o.From == "" {
		return schema.TypeArray
	}
	return o.From
}

// Attributes are the documentation facts attached to a property.
type Attributes struct {
	Title       string
	Description string
	Examples    []any
	Deprecated  bool
	ReadOnly    bool
	WriteOnly   bool
	Override    *Override
	// Custom holds vendor extension annotations, every key prefixed with "x-".
	Custom *sequencedmap.Map[string, any]
}

// Rule is a validation rule in its parsed "name:arg1,arg2" form.
type Rule struct {
	Name string
	Args []string
}

func (r Rule) String() string {
	if len(r.Args) == 0 {
		return r.Name
	}
	return r.Name + ":" + strings.Join(r.Args, ",")
}

// rulesWithSingleArgument keep commas inside their only argument.
var rulesWithSingleArgument = map[string]bool{
	"regex":     true,
	"not_regex": true,
}

// ParseRule parses a rule string such as "between:1,10" or "regex:/^[a-z,]+$/".
func ParseRule(s string) (Rule, error) {
	s = strings.TrimSpace(s)
	name, args, hasArgs := strings.Cut(s, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Rule{}, ErrInvalidRule.Wrapf("rule %q has no name", s)
	}

	r := Rule{Name: name}
	if !hasArgs {
		return r, nil
	}

	if rulesWithSingleArgument[name] {
		r.Args = []string{args}
		return r, nil
	}

	for _, arg := range strings.Split(args, ",") {
		r.Args = append(r.Args, strings.TrimSpace(arg))
	}
	return r, nil
}

// Property is a declared property of a data class.
type Property struct {
	Name string
	// Types lists the declared types in declaration order.
	Types    []Type
	Nullable bool
	// Optional properties are left out of "required".
	Optional   bool
	Default    any
	HasDefault bool
	Attributes Attributes
	Rules      []Rule
}

// DataClassType returns the class type when the property declares exactly one data class type.
func (p *Property) DataClassType() (Type, bool) {
	if len(p.Types) != 1 || p.Types[0].Kind != KindDataClass {
		return Type{}, false
	}
	return p.Types[0], true
}

// EnumType returns the first enum type declared by the property.
func (p *Property) EnumType() (Type, bool) {
	for _, t := range p.Types {
		if t.Kind == KindEnum {
			return t, true
		}
	}
	return Type{}, false
}

// ScalarKinds returns the scalar kinds declared by the property.
func (p *Property) ScalarKinds() []ScalarKind {
	var kinds []ScalarKind
	for _, t := range p.Types {
		if t.Kind == KindScalar {
			kinds = append(kinds, t.Scalar)
		}
	}
	return kinds
}

// ArrayTypes returns the array types declared by the property.
func (p *Property) ArrayTypes() []Type {
	var arrays []Type
	for _, t := range p.Types {
		if t.Kind == KindArray {
			arrays = append(arrays, t)
		}
	}
	return arrays
}

// Class describes a data class.
type Class struct {
	Identity    string
	Title       string
	Description string
	Properties  []Property
}

// Enum describes a backed enum.
type Enum struct {
	Identity string
	Backing  ScalarKind
	Cases    []any
}

// Catalog gives the generator access to reflected classes and enums.
type Catalog interface {
	Class(identity string) (*Class, error)
	Enum(identity string) (*Enum, error)
}
