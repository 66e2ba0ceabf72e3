package schema

import "github.com/speakeasy-api/dtoschema/sequencedmap"

// ArraySchema is an array schema with an optional items schema.
type ArraySchema struct {
	base
}

var _ SingleTypeSchema = (*ArraySchema)(nil)

// NewArray returns a bare array schema.
func NewArray() *ArraySchema {
	return &ArraySchema{base: newBase(TypeArray)}
}

func (a *ArraySchema) ApplyType() Schema {
	a.typed = true
	return a
}

func (a *ArraySchema) Apply(keyword string, value any) (Result, error) {
	if err := a.apply(keyword, value); err != nil {
		return Result{}, err
	}
	return applied(a), nil
}

// SetItems sets the schema every array element must satisfy.
func (a *ArraySchema) SetItems(items Schema) *ArraySchema {
	a.keywords.set(GroupTypeSpecific, KeywordItems, items)
	return a
}

// Items returns the items schema, or nil when none is set.
func (a *ArraySchema) Items() Schema {
	v, ok := a.keywords.get(KeywordItems)
	if !ok {
		return nil
	}
	items, _ := v.(Schema)
	return items
}

func (a *ArraySchema) Consolidatable() bool {
	return true
}

func (a *ArraySchema) ToMap(bool) *sequencedmap.Map[string, any] {
	return a.render()
}
