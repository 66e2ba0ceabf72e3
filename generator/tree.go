package generator

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/references"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

// ClassBuilder builds the full schema of a class, resolving nested classes through the tree.
type ClassBuilder func(cls *descriptor.Class) (*schema.ObjectSchema, error)

type slotState int

const (
	slotPending slotState = iota
	slotComplete
)

type slot struct {
	identity string
	name     string
	state    slotState
	schema   *schema.ObjectSchema
	// refs counts the references handed out after the first resolution.
	refs int
}

// SchemaTree is the registry of the classes met during one generation call.
//
// A class is registered before its properties are built, so any later resolution of the same class,
// including from one of its own properties, yields a reference instead of a second derivation.
// It is not safe for concurrent use.
type SchemaTree struct {
	catalog descriptor.Catalog
	build   ClassBuilder
	logger  *slog.Logger

	slots map[string]*slot
	order []*slot
	names map[string]struct{}
	root  *slot
}

var (
	_ ClassResolver      = (*SchemaTree)(nil)
	_ schema.Definitions = (*SchemaTree)(nil)
)

// NewSchemaTree returns an empty tree. The first class resolved becomes the document root.
func NewSchemaTree(catalog descriptor.Catalog, build ClassBuilder, logger *slog.Logger) *SchemaTree {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SchemaTree{
		catalog: catalog,
		build:   build,
		logger:  logger,
		slots:   map[string]*slot{},
		names:   map[string]struct{}{},
	}
}

// ResolveClass returns the full schema of a class the first time it is met and a reference to it afterwards.
func (t *SchemaTree) ResolveClass(identity string) (schema.SingleTypeSchema, error) {
	if s, ok := t.slots[identity]; ok {
		s.refs++
		t.logger.Debug("reusing class definition", slog.String("class", identity), slog.Int("refs", s.refs), slog.Bool("pending", s.state == slotPending))
		return schema.NewRef(identity, t.reference(s)), nil
	}

	cls, err := t.catalog.Class(identity)
	if err != nil {
		return nil, err
	}

	s := t.register(identity)
	t.logger.Debug("registered class", slog.String("class", identity), slog.String("name", s.name))

	obj, err := t.build(cls)
	if err != nil {
		return nil, fmt.Errorf("class %q: %w", identity, err)
	}

	if err := t.Finalize(identity, obj); err != nil {
		return nil, err
	}

	return obj, nil
}

func (t *SchemaTree) register(identity string) *slot {
	s := &slot{identity: identity, state: slotPending}
	if t.root == nil {
		t.root = s
	} else {
		s.name = t.uniqueName(identity)
	}

	t.slots[identity] = s
	t.order = append(t.order, s)
	return s
}

// Finalize completes the slot registered for identity with its built schema.
func (t *SchemaTree) Finalize(identity string, obj *schema.ObjectSchema) error {
	s, ok := t.slots[identity]
	switch {
	case !ok:
		return ErrRecursionRegistrationConflict.Wrapf("class %q was never registered", identity)
	case s.state != slotPending:
		return ErrRecursionRegistrationConflict.Wrapf("class %q is already complete", identity)
	case obj == nil || obj.Identity() != identity:
		return ErrRecursionRegistrationConflict.Wrapf("class %q was completed with a schema for another class", identity)
	}

	s.schema = obj.AttachDefinitions(t)
	s.state = slotComplete
	return nil
}

// uniqueName derives a definition name from the last segment of the identity.
func (t *SchemaTree) uniqueName(identity string) string {
	base := identity
	if i := strings.LastIndexAny(identity, `\/.:`); i >= 0 && i < len(identity)-1 {
		base = identity[i+1:]
	}

	name := base
	for n := 2; ; n++ {
		if _, taken := t.names[name]; !taken {
			break
		}
		name = base + strconv.Itoa(n)
	}

	t.names[name] = struct{}{}
	return name
}

func (t *SchemaTree) reference(s *slot) references.Reference {
	if s == t.root {
		return references.Root
	}
	return references.Local(schema.KeywordDefs, s.name)
}

// Pointer returns the reference to a class that is referenced at least once. Such classes are
// rendered once, the root in place and any other under "$defs".
func (t *SchemaTree) Pointer(identity string) (references.Reference, bool) {
	s, ok := t.slots[identity]
	if !ok || s.refs == 0 {
		return "", false
	}
	return t.reference(s), true
}

// Root returns the schema of the first class resolved, or nil.
func (t *SchemaTree) Root() *schema.ObjectSchema {
	if t.root == nil {
		return nil
	}
	return t.root.schema
}

// Definitions returns the completed classes rendered under "$defs", keyed by definition name in registration order.
func (t *SchemaTree) Definitions() *sequencedmap.Map[string, *schema.ObjectSchema] {
	defs := sequencedmap.New[string, *schema.ObjectSchema]()
	for _, s := range t.order {
		if s == t.root || s.refs == 0 || s.state != slotComplete {
			continue
		}
		defs.Set(s.name, s.schema)
	}
	return defs
}

// Len returns the number of registered classes.
func (t *SchemaTree) Len() int {
	return len(t.order)
}
