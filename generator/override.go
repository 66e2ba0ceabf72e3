package generator

import (
	"log/slog"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/schema"
)

// ApplyOverride forces the top-level type of a schema.
//
// A single-type schema of the overridden type is replaced by a fresh, typed schema of the target type.
// In a union every constituent of the overridden type is replaced by a fresh, untyped schema and the
// union decides again whether it can be consolidated. Schemas holding no constituent of the overridden
// type are returned unchanged. Replaced schemas lose their keywords, so the override runs before any
// keyword is applied.
func ApplyOverride(s schema.Schema, o descriptor.Override) (schema.Schema, error) {
	out, _, err := applyOverride(s, o)
	return out, err
}

func applyOverride(s schema.Schema, o descriptor.Override) (schema.Schema, bool, error) {
	from := o.Source()
	if from == o.To {
		return s, false, nil
	}

	switch v := s.(type) {
	case *schema.UnionSchema:
		constituents := v.Constituents()
		replaced := false

		for i, c := range constituents {
			if c.Type() != from {
				continue
			}
			fresh, err := schema.New(o.To)
			if err != nil {
				return nil, false, ErrUnsupportedType.Wrap(err)
			}
			constituents[i] = fresh
			replaced = true
		}

		if !replaced {
			return s, false, nil
		}
		return v.BuildConstituentsFromSchemas(constituents), true, nil

	case schema.SingleTypeSchema:
		if v.Type() != from {
			return s, false, nil
		}
		fresh, err := schema.New(o.To)
		if err != nil {
			return nil, false, ErrUnsupportedType.Wrap(err)
		}
		return fresh.ApplyType(), true, nil

	default:
		return s, false, nil
	}
}

func overrideStage(s schema.Schema, ctx *Context) (schema.Schema, error) {
	o := *ctx.Property.Attributes.Override

	out, replaced, err := applyOverride(s, o)
	if err != nil {
		return nil, err
	}
	if replaced {
		ctx.Logger.Debug("type override applied", slog.String("property", ctx.Property.Name), slog.String("from", string(o.Source())), slog.String("to", string(o.To)))
	}
	return out, nil
}
