package generator

import (
	"fmt"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/schema"
)

// ClassResolver resolves data classes to schemas.
type ClassResolver interface {
	ResolveClass(identity string) (schema.SingleTypeSchema, error)
}

// TypeResolver maps declared types to bare, keyword-free schemas.
type TypeResolver struct {
	classes ClassResolver
}

// NewTypeResolver returns a resolver delegating data classes to classes.
func NewTypeResolver(classes ClassResolver) *TypeResolver {
	return &TypeResolver{classes: classes}
}

// Resolve returns an untyped schema for t. Enums resolve to their backing scalar.
func (r *TypeResolver) Resolve(t descriptor.Type) (schema.SingleTypeSchema, error) {
	switch t.Kind {
	case descriptor.KindScalar:
		return resolveScalar(t.Scalar)
	case descriptor.KindArray:
		return schema.NewArray(), nil
	case descriptor.KindDataClass:
		if r.classes == nil {
			return nil, ErrUnsupportedType.Wrapf("data class %q cannot be resolved without a schema tree", t.Identity)
		}
		return r.classes.ResolveClass(t.Identity)
	case descriptor.KindEnum:
		switch t.Backing {
		case descriptor.ScalarString, descriptor.ScalarInt:
			return resolveScalar(t.Backing)
		default:
			return nil, ErrUnsupportedType.Wrapf("enum %q is backed by %q", t.Identity, t.Backing)
		}
	default:
		return nil, ErrUnsupportedType.Wrapf("%s", t.Kind)
	}
}

func resolveScalar(kind descriptor.ScalarKind) (schema.SingleTypeSchema, error) {
	switch kind {
	case descriptor.ScalarNull:
		return schema.NewNull(), nil
	case descriptor.ScalarBool:
		return schema.NewBoolean(), nil
	case descriptor.ScalarInt:
		return schema.NewInteger(), nil
	case descriptor.ScalarFloat:
		return schema.NewNumber(), nil
	case descriptor.ScalarString, descriptor.ScalarDateTime, descriptor.ScalarDate:
		return schema.NewString(), nil
	case descriptor.ScalarObject:
		return schema.NewSimpleObject(), nil
	default:
		return nil, ErrUnsupportedType.Wrapf("scalar %q", kind)
	}
}

// ResolveProperty resolves every declared type of p. Several types, or a nullable type, resolve to a
// union holding exactly one null constituent; a union left with a single constituent collapses to it.
func (r *TypeResolver) ResolveProperty(p *descriptor.Property) (schema.Schema, error) {
	if len(p.Types) == 0 {
		return nil, ErrUnsupportedType.Wrapf("property %q declares no type", p.Name)
	}

	candidates := make([]schema.SingleTypeSchema, 0, len(p.Types))
	for _, t := range p.Types {
		s, err := r.Resolve(t)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t, err)
		}
		candidates = append(candidates, s)
	}

	if len(candidates) == 1 && !p.Nullable {
		return candidates[0], nil
	}

	u := schema.NewUnion().BuildConstituents(candidates, p.Nullable)
	if constituents := u.Constituents(); len(constituents) == 1 {
		return constituents[0], nil
	}
	return u, nil
}
