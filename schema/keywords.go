package schema

import (
	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

const (
	// ErrUnsupportedKeyword is returned when a keyword is applied to a schema that does not accept it.
	ErrUnsupportedKeyword = errors.Error("unsupported keyword")
	// ErrInvalidKeywordValue is returned when a keyword value has the wrong shape.
	ErrInvalidKeywordValue = errors.Error("invalid keyword value")
)

// keywordSet stores keyword values per group, each group in insertion order.
type keywordSet struct {
	groups [groupCount]*sequencedmap.Map[string, any]
}

func (k *keywordSet) set(group KeywordGroup, name string, value any) {
	if k.groups[group] == nil {
		k.groups[group] = sequencedmap.New[string, any]()
	}
	k.groups[group].Set(name, value)
}

func (k *keywordSet) get(name string) (any, bool) {
	for _, g := range k.groups {
		if v, ok := g.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (k *keywordSet) render(dst *sequencedmap.Map[string, any]) {
	for _, g := range k.groups {
		for name, value := range g.All() {
			dst.Set(name, renderValue(value))
		}
	}
}

// renderValue converts nested schemas to their rendered mappings and leaves plain values untouched.
func renderValue(value any) any {
	switch v := value.(type) {
	case Schema:
		return v.ToMap(true)
	case []Schema:
		out := make([]any, 0, len(v))
		for _, s := range v {
			out = append(out, s.ToMap(true))
		}
		return out
	case *sequencedmap.Map[string, Schema]:
		out := sequencedmap.New[string, any]()
		for name, s := range v.All() {
			out.Set(name, s.ToMap(true))
		}
		return out
	default:
		return value
	}
}

// checkValue validates the shape of values for keywords that hold schemas or names.
func checkValue(name string, value any) error {
	switch name {
	case KeywordItems, KeywordContains, KeywordPropertyNames:
		if _, ok := value.(Schema); !ok {
			return ErrInvalidKeywordValue.Wrapf("%s must be a schema, got %T", name, value)
		}
	case KeywordAdditionalProperties, KeywordNot:
		switch value.(type) {
		case Schema, bool, *sequencedmap.Map[string, any]:
		default:
			return ErrInvalidKeywordValue.Wrapf("%s must be a schema, a boolean or a mapping, got %T", name, value)
		}
	case KeywordAllOf, KeywordAnyOf, KeywordOneOf, KeywordPrefixItems:
		if _, ok := value.([]Schema); !ok {
			return ErrInvalidKeywordValue.Wrapf("%s must be a list of schemas, got %T", name, value)
		}
	case KeywordProperties:
		if _, ok := value.(*sequencedmap.Map[string, Schema]); !ok {
			return ErrInvalidKeywordValue.Wrapf("%s must be an ordered map of schemas, got %T", name, value)
		}
	case KeywordRequired:
		if _, ok := value.([]string); !ok {
			return ErrInvalidKeywordValue.Wrapf("%s must be a list of property names, got %T", name, value)
		}
	case KeywordEnum, KeywordExamples:
		if _, ok := value.([]any); !ok {
			return ErrInvalidKeywordValue.Wrapf("%s must be a list, got %T", name, value)
		}
	}
	return nil
}
