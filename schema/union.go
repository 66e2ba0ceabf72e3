package schema

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

// UnionSchema is a schema that accepts any of its constituents.
//
// When every constituent is consolidatable the union renders as a single mapping with a
// multi-valued "type"; otherwise it renders as an "anyOf" of self-typed constituents.
// The union owns annotation keywords itself and forwards every other keyword to its constituents.
type UnionSchema struct {
	constituents []SingleTypeSchema
	annotations  keywordSet
}

var _ Schema = (*UnionSchema)(nil)

// NewUnion returns a union without constituents.
func NewUnion() *UnionSchema {
	return &UnionSchema{}
}

// BuildConstituents sets the already resolved candidates as constituents.
// A nullable union gains exactly one null constituent, however many candidates are null.
func (u *UnionSchema) BuildConstituents(candidates []SingleTypeSchema, nullable bool) *UnionSchema {
	constituents := make([]SingleTypeSchema, 0, len(candidates)+1)
	hasNull := false

	for _, c := range candidates {
		if c.Type() == TypeNull {
			if hasNull {
				continue
			}
			hasNull = true
		}
		constituents = append(constituents, c)
	}

	if nullable && !hasNull {
		constituents = append(constituents, NewNull())
	}

	return u.BuildConstituentsFromSchemas(constituents)
}

// BuildConstituentsFromSchemas sets pre-built constituents and decides how they will render.
// Constituents of a union that cannot be consolidated are typed now so every "anyOf" entry describes itself.
// Typing of consolidatable constituents is left to rendering.
func (u *UnionSchema) BuildConstituentsFromSchemas(schemas []SingleTypeSchema) *UnionSchema {
	u.constituents = slices.Clone(schemas)

	if !u.CanConsolidate() {
		for _, c := range u.constituents {
			c.ApplyType()
		}
	}

	return u
}

// Constituents returns the constituents in declaration order.
func (u *UnionSchema) Constituents() []SingleTypeSchema {
	return slices.Clone(u.constituents)
}

// CanConsolidate reports whether no constituent is a full data-class object or reference.
func (u *UnionSchema) CanConsolidate() bool {
	return !slices.ContainsFunc(u.constituents, func(c SingleTypeSchema) bool {
		return !c.Consolidatable()
	})
}

// ApplyType is a no-op: a union has no type of its own.
func (u *UnionSchema) ApplyType() Schema {
	return u
}

// Supports reports whether the union owns the keyword or any constituent accepts it.
func (u *UnionSchema) Supports(keyword string) bool {
	if IsAnnotation(keyword) {
		return true
	}
	return slices.ContainsFunc(u.constituents, func(c SingleTypeSchema) bool {
		return c.Supports(keyword)
	})
}

// Keyword returns an annotation owned by the union, or the value held by the first constituent that has the keyword.
func (u *UnionSchema) Keyword(keyword string) (any, bool) {
	if IsAnnotation(keyword) {
		return u.annotations.get(keyword)
	}
	for _, c := range u.constituents {
		if v, ok := c.Keyword(keyword); ok {
			return v, true
		}
	}
	return nil, false
}

// Apply sets annotations on the union itself and forwards any other keyword to the constituents.
func (u *UnionSchema) Apply(keyword string, value any) (Result, error) {
	return u.apply(keyword, value, false)
}

// SupportsLocal is Supports limited to the union's own annotations and its consolidatable constituents.
func (u *UnionSchema) SupportsLocal(keyword string) bool {
	if IsAnnotation(keyword) {
		return true
	}
	return slices.ContainsFunc(u.constituents, func(c SingleTypeSchema) bool {
		return c.Consolidatable() && c.Supports(keyword)
	})
}

// ApplyLocal is Apply without forwarding to data-class objects and references.
// Their bodies are class definitions shared by every property holding the class.
func (u *UnionSchema) ApplyLocal(keyword string, value any) (Result, error) {
	return u.apply(keyword, value, true)
}

func (u *UnionSchema) apply(keyword string, value any, local bool) (Result, error) {
	if IsAnnotation(keyword) {
		if err := checkValue(keyword, value); err != nil {
			return Result{}, err
		}
		u.annotations.set(GroupAnnotation, keyword, value)
		return applied(u), nil
	}

	fw, err := Forward(u, func(c SingleTypeSchema) (Result, error) {
		if local && !c.Consolidatable() {
			return Result{}, ErrUnsupportedKeyword.Wrapf("%q is not applied to a shared %s definition", keyword, c.Type())
		}
		return c.Apply(keyword, value)
	})
	if err != nil {
		return Result{}, fmt.Errorf("keyword %q: %w", keyword, err)
	}

	return fw.result(u), nil
}

// SetItems forwards the items schema to the array constituents.
func (u *UnionSchema) SetItems(items Schema) (Result, error) {
	fw, err := Forward(u, func(c SingleTypeSchema) (*ArraySchema, error) {
		a, ok := c.(*ArraySchema)
		if !ok {
			return nil, ErrUnsupportedKeyword.Wrapf("%q is not supported by %s schemas", KeywordItems, c.Type())
		}
		return a.SetItems(items), nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("keyword %q: %w", KeywordItems, err)
	}

	return fw.result(u), nil
}

// ToMap renders the consolidated form when possible and the "anyOf" form otherwise.
// Constituents sharing a type but not their keywords cannot merge and also render as "anyOf".
func (u *UnionSchema) ToMap(bool) *sequencedmap.Map[string, any] {
	if u.CanConsolidate() && !u.hasConflicts() {
		return u.consolidated()
	}
	return u.anyOf()
}

// hasConflicts reports whether two constituents of the same type render different keywords.
func (u *UnionSchema) hasConflicts() bool {
	seen := make(map[DataType][]byte, len(u.constituents))

	for _, c := range u.constituents {
		m := c.ToMap(true)
		m.Delete(KeywordType)
		body, err := m.MarshalJSON()
		if err != nil {
			return true
		}

		prev, ok := seen[c.Type()]
		if !ok {
			seen[c.Type()] = body
			continue
		}
		if !bytes.Equal(prev, body) {
			return true
		}
	}

	return false
}

func (u *UnionSchema) consolidated() *sequencedmap.Map[string, any] {
	m := sequencedmap.New[string, any]()
	u.annotations.render(m)

	types := make([]string, 0, len(u.constituents))
	for _, c := range u.constituents {
		if t := string(c.Type()); !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	m.Set(KeywordType, types)

	var nots []*sequencedmap.Map[string, any]

	for _, c := range u.constituents {
		for name, value := range c.ToMap(true).All() {
			switch name {
			case KeywordType:
				continue
			case KeywordNot:
				if not, ok := value.(*sequencedmap.Map[string, any]); ok {
					nots = append(nots, not)
				}
			}
			m.Set(name, value)
		}
	}

	if len(nots) > 1 {
		merged := sequencedmap.New[string, any]()
		for _, not := range nots {
			sequencedmap.Merge(merged, not)
		}
		m.Set(KeywordNot, merged)
	}

	return m
}

func (u *UnionSchema) anyOf() *sequencedmap.Map[string, any] {
	m := sequencedmap.New[string, any]()
	u.annotations.render(m)

	entries := make([]any, 0, len(u.constituents))
	for _, c := range u.constituents {
		entries = append(entries, selfTyped(c))
	}
	m.Set(KeywordAnyOf, entries)

	return m
}

// selfTyped renders c with its "type", whether or not ApplyType was called on it.
func selfTyped(c SingleTypeSchema) *sequencedmap.Map[string, any] {
	rendered := c.ToMap(true)
	if c.Typed() || rendered.Has(KeywordRef) {
		return rendered
	}

	m := sequencedmap.New[string, any]()
	m.Set(KeywordType, string(c.Type()))
	for name, value := range rendered.All() {
		m.Set(name, value)
	}
	return m
}
