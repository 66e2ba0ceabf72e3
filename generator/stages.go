package generator

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/rules"
	"github.com/speakeasy-api/dtoschema/schema"
)

// Stage names.
const (
	StageResolve     = "resolve"
	StageSetup       = "setup"
	StageOverride    = "override"
	StageAnnotations = "annotations"
	StageEnum        = "enum"
	StageDateTime    = "datetime"
	StageItems       = "items"
	StageRules       = "rules"
)

// Formats applied to date and time strings.
const (
	FormatDateTime = "date-time"
	FormatDate     = "date"
)

// DefaultStages returns the property pipeline.
//
// The override replaces schemas wholesale and runs before any keyword stage. The items stage runs after
// the union is constituted so it reaches array constituents of consolidated unions. A property holding
// a data class stops after resolution: its schema is the class definition or a reference to it.
func DefaultStages() []Stage {
	return []Stage{
		{Name: StageResolve, Apply: Resolve, Final: isDataClassProperty},
		{Name: StageSetup, Apply: Setup},
		{Name: StageOverride, When: hasOverride, Apply: overrideStage},
		{Name: StageAnnotations, Apply: ApplyAnnotations},
		{Name: StageEnum, When: isEnumProperty, Apply: ApplyEnum},
		{Name: StageDateTime, When: isDateProperty, Apply: ApplyDateTimeFormat},
		{Name: StageItems, When: hasArrays, Apply: ApplyArrayItems},
		{Name: StageRules, When: hasRules, Apply: ApplyRules},
	}
}

func isDataClassProperty(_ schema.Schema, ctx *Context) bool {
	_, ok := ctx.Property.DataClassType()
	return ok
}

func hasOverride(_ schema.Schema, ctx *Context) bool {
	return ctx.Property.Attributes.Override != nil
}

func isEnumProperty(_ schema.Schema, ctx *Context) bool {
	_, ok := ctx.Property.EnumType()
	return ok
}

func isDateProperty(_ schema.Schema, ctx *Context) bool {
	return dateFormat(ctx.Property.ScalarKinds()) != ""
}

func hasArrays(s schema.Schema, _ *Context) bool {
	return len(schema.Arrays(s)) > 0
}

func hasRules(_ schema.Schema, ctx *Context) bool {
	return len(ctx.Property.Rules) > 0
}

// Resolve builds the bare schema of the property's declared types.
func Resolve(_ schema.Schema, ctx *Context) (schema.Schema, error) {
	return ctx.Resolver.ResolveProperty(ctx.Property)
}

// Setup types single-type schemas. Unions type their constituents themselves.
func Setup(s schema.Schema, _ *Context) (schema.Schema, error) {
	if _, ok := s.(*schema.UnionSchema); ok {
		return s, nil
	}
	return s.ApplyType(), nil
}

// ApplyAnnotations applies the documentation attributes and the default value.
func ApplyAnnotations(s schema.Schema, ctx *Context) (schema.Schema, error) {
	p := ctx.Property
	a := p.Attributes

	apply := func(keyword string, value any) error {
		if _, err := s.Apply(keyword, value); err != nil {
			return fmt.Errorf("%s: %w", keyword, err)
		}
		return nil
	}

	var errs []error

	if a.Title != "" {
		errs = append(errs, apply(schema.KeywordTitle, a.Title))
	}
	if a.Description != "" {
		errs = append(errs, apply(schema.KeywordDescription, a.Description))
	}
	if p.HasDefault {
		errs = append(errs, apply(schema.KeywordDefault, p.Default))
	}
	if len(a.Examples) > 0 {
		errs = append(errs, apply(schema.KeywordExamples, slices.Clone(a.Examples)))
	}
	if a.Deprecated {
		errs = append(errs, apply(schema.KeywordDeprecated, true))
	}
	if a.ReadOnly {
		errs = append(errs, apply(schema.KeywordReadOnly, true))
	}
	if a.WriteOnly {
		errs = append(errs, apply(schema.KeywordWriteOnly, true))
	}
	for name, value := range a.Custom.All() {
		errs = append(errs, apply(name, value))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyEnum restricts the property to the cases of its enum. A nullable property also accepts null.
func ApplyEnum(s schema.Schema, ctx *Context) (schema.Schema, error) {
	t, _ := ctx.Property.EnumType()

	values, err := enumValues(t, ctx.Catalog)
	if err != nil {
		return nil, err
	}
	if _, err := applyLocal(s, schema.KeywordEnum, withNull(s, values)); err != nil {
		return nil, err
	}
	return s, nil
}

func enumValues(t descriptor.Type, catalog descriptor.Catalog) ([]any, error) {
	e, err := catalog.Enum(t.Identity)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.Cases), nil
}

// withNull adds null to enum values when the schema accepts null.
func withNull(s schema.Schema, values []any) []any {
	if !slices.Contains(schema.TypesOf(s), schema.TypeNull) || slices.Contains(values, nil) {
		return values
	}
	return append(values, nil)
}

// ApplyDateTimeFormat sets the format of date and date-time strings.
func ApplyDateTimeFormat(s schema.Schema, ctx *Context) (schema.Schema, error) {
	if _, err := applyLocal(s, schema.KeywordFormat, dateFormat(ctx.Property.ScalarKinds())); err != nil {
		return nil, err
	}
	return s, nil
}

func dateFormat(kinds []descriptor.ScalarKind) string {
	switch {
	case slices.Contains(kinds, descriptor.ScalarDateTime):
		return FormatDateTime
	case slices.Contains(kinds, descriptor.ScalarDate):
		return FormatDate
	default:
		return ""
	}
}

// ApplyArrayItems sets the items schema of each array node from the element type it was declared with.
// Array constituents of a union are matched to the declared types by position. Arrays introduced by an
// override have no declared element type and get no items.
func ApplyArrayItems(s schema.Schema, ctx *Context) (schema.Schema, error) {
	switch v := s.(type) {
	case *schema.ArraySchema:
		for _, t := range ctx.Property.ArrayTypes() {
			if t.Elem != nil {
				return s, setItems(v, *t.Elem, ctx)
			}
		}
	case *schema.UnionSchema:
		declared := constituentTypes(ctx.Property)
		for i, c := range v.Constituents() {
			a, ok := c.(*schema.ArraySchema)
			if !ok || i >= len(declared) || declared[i].Kind != descriptor.KindArray || declared[i].Elem == nil {
				continue
			}
			if err := setItems(a, *declared[i].Elem, ctx); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func setItems(a *schema.ArraySchema, elem descriptor.Type, ctx *Context) error {
	items, err := resolveItems(elem, ctx)
	if err != nil {
		return fmt.Errorf("items %s: %w", elem, err)
	}
	a.SetItems(items)
	return nil
}

// constituentTypes lists the declared types in the order of the union constituents built from them:
// repeated null types collapse into the first one.
func constituentTypes(p *descriptor.Property) []descriptor.Type {
	types := make([]descriptor.Type, 0, len(p.Types))
	hasNull := false

	for _, t := range p.Types {
		if t.Kind == descriptor.KindScalar && t.Scalar == descriptor.ScalarNull {
			if hasNull {
				continue
			}
			hasNull = true
		}
		types = append(types, t)
	}

	return types
}

// resolveItems builds a typed element schema, descending into nested arrays.
func resolveItems(t descriptor.Type, ctx *Context) (schema.Schema, error) {
	s, err := ctx.Resolver.Resolve(t)
	if err != nil {
		return nil, err
	}
	s.ApplyType()

	switch t.Kind {
	case descriptor.KindArray:
		if t.Elem == nil {
			break
		}
		items, err := resolveItems(*t.Elem, ctx)
		if err != nil {
			return nil, err
		}
		if a, ok := s.(*schema.ArraySchema); ok {
			a.SetItems(items)
		}
	case descriptor.KindEnum:
		values, err := enumValues(t, ctx.Catalog)
		if err != nil {
			return nil, err
		}
		if _, err := s.Apply(schema.KeywordEnum, values); err != nil {
			return nil, err
		}
	case descriptor.KindScalar:
		if format := dateFormat([]descriptor.ScalarKind{t.Scalar}); format != "" {
			if _, err := s.Apply(schema.KeywordFormat, format); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// ApplyRules applies the keywords translated from the property's rules. Each candidate keyword is
// applied only when the schema supports it; rules without a translation are skipped.
func ApplyRules(s schema.Schema, ctx *Context) (schema.Schema, error) {
	translator := ctx.Rules
	if translator == nil {
		translator = rules.TranslatorFunc(rules.Translate)
	}

	for _, rule := range ctx.Property.Rules {
		facts, err := translator.Translate(rule)
		if err != nil {
			if errors.Is(err, rules.ErrUnknownRule) {
				ctx.Logger.Debug("ignoring unknown rule", slog.String("property", ctx.Property.Name), slog.String("rule", rule.Name))
				continue
			}
			return nil, err
		}

		for _, fact := range facts {
			if !supportsLocal(s, fact.Keyword) {
				continue
			}

			value := fact.Value
			if fact.Keyword == schema.KeywordEnum {
				if values, ok := value.([]any); ok {
					value = withNull(s, slices.Clone(values))
				}
			}

			res, err := applyLocal(s, fact.Keyword, value)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", rule, err)
			}
			if res.IsAmbiguous() {
				ctx.Logger.Debug("rule applied to several constituents", slog.String("property", ctx.Property.Name), slog.String("rule", rule.Name), slog.String("keyword", fact.Keyword), slog.Int("matches", len(res.Matches)))
			}
		}
	}

	return s, nil
}

// supportsLocal reports whether a property-level keyword can be applied to s without touching a
// data-class object or reference.
func supportsLocal(s schema.Schema, keyword string) bool {
	switch v := s.(type) {
	case *schema.UnionSchema:
		return v.SupportsLocal(keyword)
	case schema.SingleTypeSchema:
		return v.Consolidatable() && v.Supports(keyword)
	default:
		return s.Supports(keyword)
	}
}

// applyLocal applies a property-level keyword. Class definitions are shared by every property
// holding the class, so data-class objects and references never receive it.
func applyLocal(s schema.Schema, keyword string, value any) (schema.Result, error) {
	switch v := s.(type) {
	case *schema.UnionSchema:
		return v.ApplyLocal(keyword, value)
	case schema.SingleTypeSchema:
		if !v.Consolidatable() {
			return schema.Result{}, schema.ErrUnsupportedKeyword.Wrapf("%q is not applied to a shared %s definition", keyword, v.Type())
		}
	}
	return s.Apply(keyword, value)
}
