package descriptor

import (
	"slices"
	"sync"
)

// MemoryCatalog is a Catalog backed by in-memory descriptors. It is safe for concurrent reads.
type MemoryCatalog struct {
	mu      sync.RWMutex
	classes map[string]*Class
	enums   map[string]*Enum
	order   []string
}

var _ Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog returns a catalog holding the given classes and enums.
func NewMemoryCatalog(classes []*Class, enums []*Enum) (*MemoryCatalog, error) {
	c := &MemoryCatalog{
		classes: make(map[string]*Class, len(classes)),
		enums:   make(map[string]*Enum, len(enums)),
	}
	for _, e := range enums {
		if err := c.AddEnum(e); err != nil {
			return nil, err
		}
	}
	for _, cls := range classes {
		if err := c.AddClass(cls); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddClass registers a class. Identities are unique across classes and enums.
func (c *MemoryCatalog) AddClass(cls *Class) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdentity(cls.Identity); err != nil {
		return err
	}
	c.classes[cls.Identity] = cls
	c.order = append(c.order, cls.Identity)
	return nil
}

// AddEnum registers an enum. Identities are unique across classes and enums.
func (c *MemoryCatalog) AddEnum(e *Enum) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdentity(e.Identity); err != nil {
		return err
	}
	c.enums[e.Identity] = e
	return nil
}

func (c *MemoryCatalog) checkIdentity(identity string) error {
	if identity == "" {
		return ErrInvalidCatalog.Wrapf("identity is empty")
	}
	_, isClass := c.classes[identity]
	_, isEnum := c.enums[identity]
	if isClass || isEnum {
		return ErrInvalidCatalog.Wrapf("identity %q is declared more than once", identity)
	}
	return nil
}

func (c *MemoryCatalog) Class(identity string) (*Class, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cls, ok := c.classes[identity]
	if !ok {
		return nil, ErrUnknownClass.Wrapf("%q", identity)
	}
	return cls, nil
}

func (c *MemoryCatalog) Enum(identity string) (*Enum, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.enums[identity]
	if !ok {
		return nil, ErrUnknownIdentity.Wrapf("enum %q", identity)
	}
	return e, nil
}

// Classes returns the class identities in registration order.
func (c *MemoryCatalog) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.order)
}

// Lookup resolves an identity to the type of a property holding it.
func (c *MemoryCatalog) Lookup(identity string) (Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.classes[identity]; ok {
		return DataClass(identity), true
	}
	if e, ok := c.enums[identity]; ok {
		return EnumOf(identity, e.Backing), true
	}
	return Type{}, false
}
