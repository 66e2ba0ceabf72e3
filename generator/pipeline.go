package generator

import (
	"fmt"
	"log/slog"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/rules"
	"github.com/speakeasy-api/dtoschema/schema"
)

// Context carries what the stages of a pipeline run may consult for one property.
type Context struct {
	Class    *descriptor.Class
	Property *descriptor.Property
	Catalog  descriptor.Catalog
	Resolver *TypeResolver
	Rules    rules.Translator
	Logger   *slog.Logger
}

// Stage is one step of the per-property pipeline.
type Stage struct {
	Name string
	// When reports whether the stage runs. A nil When always runs.
	When func(s schema.Schema, ctx *Context) bool
	// Apply returns the transformed schema. The first stage receives a nil schema.
	Apply func(s schema.Schema, ctx *Context) (schema.Schema, error)
	// Final reports, after Apply, whether the remaining stages are skipped.
	Final func(s schema.Schema, ctx *Context) bool
}

// Pipeline runs an ordered sequence of stages over a property.
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns a pipeline running stages in the given order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Run executes the stages for ctx.Property and returns the final schema.
func (p *Pipeline) Run(ctx *Context) (schema.Schema, error) {
	if ctx.Logger == nil {
		ctx.Logger = slog.New(slog.DiscardHandler)
	}

	var s schema.Schema

	for _, stage := range p.stages {
		if stage.When != nil && !stage.When(s, ctx) {
			continue
		}

		next, err := stage.Apply(s, ctx)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", stage.Name, err)
		}
		s = next

		if stage.Final != nil && stage.Final(s, ctx) {
			ctx.Logger.Debug("pipeline stopped", slog.String("property", ctx.Property.Name), slog.String("stage", stage.Name))
			break
		}
	}

	if s == nil {
		return nil, ErrUnsupportedType.Wrapf("property %q resolved to no schema", ctx.Property.Name)
	}

	return s, nil
}
