// Package generator turns data class descriptors into JSON Schema documents.
//
// Every property runs through a pipeline of stages that resolve its declared types to a schema and
// then apply keywords derived from its attributes and rules. Nested data classes are resolved through
// a SchemaTree that guarantees each class is derived once per document, however often, and however
// recursively, it is referenced.
package generator

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/jsonpointer"
	"github.com/speakeasy-api/dtoschema/references"
	"github.com/speakeasy-api/dtoschema/rules"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

const (
	// ErrUnsupportedType is returned when a declared type has no schema representation.
	ErrUnsupportedType = errors.Error("unsupported type")
	// ErrRecursionRegistrationConflict is returned when a class is completed inconsistently with its registration.
	ErrRecursionRegistrationConflict = errors.Error("recursion registration conflict")
	// ErrDanglingReference is returned when a generated document holds a "$ref" it cannot resolve.
	ErrDanglingReference = errors.Error("dangling reference")
)

// DefaultDialect is the meta-schema generated documents declare.
const DefaultDialect = "https://json-schema.org/draft/2020-12/schema"

// Option configures a Generator.
type Option func(g *Generator)

// WithLogger sets the logger receiving debug records about the generation.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithDialect sets the "$schema" of generated documents.
func WithDialect(dialect string) Option {
	return func(g *Generator) {
		g.dialect = dialect
	}
}

// WithoutDialect leaves "$schema" out of generated documents.
func WithoutDialect() Option {
	return func(g *Generator) {
		g.dialect = ""
	}
}

// WithStages replaces the property pipeline.
func WithStages(stages ...Stage) Option {
	return func(g *Generator) {
		g.stages = stages
	}
}

// WithRuleTranslator sets the translator of validation rules.
func WithRuleTranslator(t rules.Translator) Option {
	return func(g *Generator) {
		g.rules = t
	}
}

// Generator generates JSON Schema documents for the classes of a catalog.
// A Generator is safe for concurrent use; every call to Generate uses its own SchemaTree.
type Generator struct {
	catalog descriptor.Catalog
	logger  *slog.Logger
	dialect string
	stages  []Stage
	rules   rules.Translator
}

// New returns a generator for the classes of catalog.
func New(catalog descriptor.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: catalog,
		logger:  slog.New(slog.DiscardHandler),
		dialect: DefaultDialect,
		stages:  DefaultStages(),
		rules:   rules.NewRegistry(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	return g
}

// Document is a generated JSON Schema document.
type Document struct {
	// Identity is the identity of the root class.
	Identity string
	// Schema is the root class schema.
	Schema *schema.ObjectSchema
	// Definitions holds the other classes referenced more than once, keyed by definition name.
	Definitions *sequencedmap.Map[string, *schema.ObjectSchema]
	// Classes counts the distinct classes the document describes.
	Classes int

	rendered *sequencedmap.Map[string, any]
}

// Map returns the rendered document: "$schema" first, then the root class, then "$defs".
func (d *Document) Map() *sequencedmap.Map[string, any] {
	return d.rendered
}

// MarshalJSON renders the document as JSON.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.rendered.MarshalJSON()
}

// MarshalYAML renders the document as YAML.
func (d *Document) MarshalYAML() (any, error) {
	return d.rendered.MarshalYAML()
}

// Generate builds the document describing the class identified by identity.
func (g *Generator) Generate(identity string) (*Document, error) {
	run := &generation{g: g}
	run.tree = NewSchemaTree(g.catalog, run.buildClass, g.logger)
	run.resolver = NewTypeResolver(run.tree)
	run.pipeline = NewPipeline(g.stages...)

	s, err := run.tree.ResolveClass(identity)
	if err != nil {
		return nil, err
	}
	root, ok := s.(*schema.ObjectSchema)
	if !ok {
		return nil, ErrRecursionRegistrationConflict.Wrapf("class %q resolved to %T", identity, s)
	}

	doc := &Document{
		Identity:    identity,
		Schema:      root,
		Definitions: run.tree.Definitions(),
		Classes:     run.tree.Len(),
	}
	doc.rendered = g.render(doc)

	if err := checkReferences(doc.rendered); err != nil {
		return nil, fmt.Errorf("class %q: %w", identity, err)
	}

	g.logger.Debug("generated document", slog.String("class", identity), slog.Int("classes", doc.Classes), slog.Int("definitions", doc.Definitions.Len()))

	return doc, nil
}

func (g *Generator) render(doc *Document) *sequencedmap.Map[string, any] {
	m := sequencedmap.New[string, any]()
	if g.dialect != "" {
		m.Set(schema.KeywordSchema, g.dialect)
	}

	sequencedmap.Merge(m, doc.Schema.ToMap(false))

	if doc.Definitions.Len() > 0 {
		defs := sequencedmap.New[string, any]()
		for name, def := range doc.Definitions.All() {
			defs.Set(name, def.ToMap(false))
		}
		m.Set(schema.KeywordDefs, defs)
	}

	return m
}

// generation is the state of one Generate call.
type generation struct {
	g        *Generator
	tree     *SchemaTree
	resolver *TypeResolver
	pipeline *Pipeline
}

func (r *generation) buildClass(cls *descriptor.Class) (*schema.ObjectSchema, error) {
	obj := schema.NewObject(cls.Identity)
	obj.ApplyType()

	if cls.Title != "" {
		if _, err := obj.Apply(schema.KeywordTitle, cls.Title); err != nil {
			return nil, err
		}
	}
	if cls.Description != "" {
		if _, err := obj.Apply(schema.KeywordDescription, cls.Description); err != nil {
			return nil, err
		}
	}

	var required []string

	for i := range cls.Properties {
		p := &cls.Properties[i]

		s, err := r.pipeline.Run(&Context{
			Class:    cls,
			Property: p,
			Catalog:  r.g.catalog,
			Resolver: r.resolver,
			Rules:    r.g.rules,
			Logger:   r.g.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}

		obj.SetProperty(p.Name, s)
		if !p.Optional && !p.HasDefault {
			required = append(required, p.Name)
		}
	}

	obj.SetRequired(required)

	return obj, nil
}

// checkReferences verifies that every "$ref" in the document points at a location inside it.
func checkReferences(doc *sequencedmap.Map[string, any]) error {
	c := &refChecker{doc: doc}
	c.schema(doc, nil)
	return errors.Join(c.errs...)
}

type refChecker struct {
	doc  *sequencedmap.Map[string, any]
	errs []error
}

func (c *refChecker) schema(v any, path []string) {
	m, ok := v.(*sequencedmap.Map[string, any])
	if !ok {
		return
	}

	for key, value := range m.All() {
		at := append(slices.Clone(path), key)

		switch key {
		case schema.KeywordRef:
			ref, _ := value.(string)
			if err := resolveLocal(c.doc, references.Reference(ref)); err != nil {
				c.errs = append(c.errs, fmt.Errorf("%s: %w", jsonpointer.PartsToJSONPointer(at), err))
			}
		case schema.KeywordProperties, schema.KeywordPatternProperties, schema.KeywordDefs:
			if named, ok := value.(*sequencedmap.Map[string, any]); ok {
				for name, sub := range named.All() {
					c.schema(sub, append(slices.Clone(at), name))
				}
			}
		case schema.KeywordAllOf, schema.KeywordAnyOf, schema.KeywordOneOf, schema.KeywordPrefixItems:
			if list, ok := value.([]any); ok {
				for i, sub := range list {
					c.schema(sub, append(slices.Clone(at), strconv.Itoa(i)))
				}
			}
		case schema.KeywordItems, schema.KeywordContains, schema.KeywordNot, schema.KeywordAdditionalProperties, schema.KeywordPropertyNames:
			c.schema(value, at)
		}
	}
}

func resolveLocal(doc *sequencedmap.Map[string, any], ref references.Reference) error {
	if err := ref.Validate(); err != nil {
		return ErrDanglingReference.Wrap(err)
	}
	if !ref.IsLocal() {
		return ErrDanglingReference.Wrapf("%q is not a local reference", ref)
	}
	if _, err := jsonpointer.GetTarget(doc, ref.GetJSONPointer()); err != nil {
		return ErrDanglingReference.Wrapf("%q: %s", ref, strings.TrimSpace(err.Error()))
	}
	return nil
}
