package descriptor

import (
	"fmt"
	"io"
	"strings"

	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
	"github.com/speakeasy-api/dtoschema/system"
	"gopkg.in/yaml.v3"
)

type catalogDocument struct {
	Enums   []enumDocument  `yaml:"enums"`
	Classes []classDocument `yaml:"classes"`
}

type enumDocument struct {
	Identity string `yaml:"identity"`
	Backing  string `yaml:"backing"`
	Cases    []any  `yaml:"cases"`
}

type classDocument struct {
	Identity    string             `yaml:"identity"`
	Title       string             `yaml:"title"`
	Description string             `yaml:"description"`
	Properties  []propertyDocument `yaml:"properties"`
}

type propertyDocument struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	Optional    bool              `yaml:"optional"`
	Default     yaml.Node         `yaml:"default"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Examples    []any             `yaml:"examples"`
	Deprecated  bool              `yaml:"deprecated"`
	ReadOnly    bool              `yaml:"readOnly"`
	WriteOnly   bool              `yaml:"writeOnly"`
	Override    *overrideDocument `yaml:"override"`
	Extensions  yaml.Node         `yaml:"extensions"`
	Rules       []string          `yaml:"rules"`
}

type overrideDocument struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Load reads YAML or JSON catalog documents from the host file system and merges them into one catalog.
func Load(paths ...string) (*MemoryCatalog, error) {
	return LoadFS(&system.FileSystem{}, paths...)
}

// LoadFS reads catalog documents from fsys and merges them into one catalog.
// Type expressions may name any class or enum declared in any of the documents.
func LoadFS(fsys system.VirtualFS, paths ...string) (*MemoryCatalog, error) {
	if len(paths) == 0 {
		return nil, ErrInvalidCatalog.Wrapf("no catalog documents given")
	}

	docs := make([]catalogDocument, 0, len(paths))
	for _, path := range paths {
		doc, err := decodeFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog at path %q: %w", path, err)
		}
		docs = append(docs, doc)
	}

	return build(docs...)
}

func decodeFile(fsys system.VirtualFS, path string) (catalogDocument, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return catalogDocument{}, err
	}
	defer f.Close()

	return decode(f)
}

// LoadYAML reads a YAML or JSON catalog document listing "enums" and "classes".
// Type expressions may name any class or enum declared in the same document.
func LoadYAML(r io.Reader) (*MemoryCatalog, error) {
	doc, err := decode(r)
	if err != nil {
		return nil, err
	}
	return build(doc)
}

func decode(r io.Reader) (catalogDocument, error) {
	var doc catalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, ErrInvalidCatalog.Wrapf("document is empty")
		}
		return doc, ErrInvalidCatalog.Wrap(err)
	}
	return doc, nil
}

func build(docs ...catalogDocument) (*MemoryCatalog, error) {
	c, err := NewMemoryCatalog(nil, nil)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		for _, ed := range doc.Enums {
			e, err := ed.toEnum()
			if err != nil {
				return nil, err
			}
			if err := c.AddEnum(e); err != nil {
				return nil, err
			}
		}
	}

	// Every identity is registered before any type expression is parsed so classes can refer to
	// classes declared after them, including themselves.
	var (
		classDocs []classDocument
		classes   []*Class
	)
	for _, doc := range docs {
		for _, cd := range doc.Classes {
			cls := &Class{Identity: cd.Identity, Title: cd.Title, Description: cd.Description}
			if err := c.AddClass(cls); err != nil {
				return nil, err
			}
			classDocs = append(classDocs, cd)
			classes = append(classes, cls)
		}
	}

	for i, cd := range classDocs {
		for _, pd := range cd.Properties {
			p, err := pd.toProperty(c)
			if err != nil {
				return nil, fmt.Errorf("class %q property %q: %w", cd.Identity, pd.Name, err)
			}
			classes[i].Properties = append(classes[i].Properties, p)
		}
	}

	return c, nil
}

func (ed enumDocument) toEnum() (*Enum, error) {
	backing, ok := scalarNames[strings.ToLower(ed.Backing)]
	if !ok || (backing != ScalarString && backing != ScalarInt) {
		return nil, ErrInvalidCatalog.Wrapf("enum %q: backing type must be string or int, got %q", ed.Identity, ed.Backing)
	}

	for _, c := range ed.Cases {
		switch c.(type) {
		case string:
			if backing != ScalarString {
				return nil, ErrInvalidCatalog.Wrapf("enum %q: case %v does not match backing type %s", ed.Identity, c, backing)
			}
		case int:
			if backing != ScalarInt {
				return nil, ErrInvalidCatalog.Wrapf("enum %q: case %v does not match backing type %s", ed.Identity, c, backing)
			}
		default:
			return nil, ErrInvalidCatalog.Wrapf("enum %q: case %v is neither a string nor an int", ed.Identity, c)
		}
	}

	return &Enum{Identity: ed.Identity, Backing: backing, Cases: ed.Cases}, nil
}

func (pd propertyDocument) toProperty(identities Identities) (Property, error) {
	if pd.Name == "" {
		return Property{}, ErrInvalidCatalog.Wrapf("property name is empty")
	}

	expr, err := ParseType(pd.Type, identities)
	if err != nil {
		return Property{}, err
	}

	p := Property{
		Name:     pd.Name,
		Types:    expr.Types,
		Nullable: expr.Nullable,
		Optional: pd.Optional,
		Attributes: Attributes{
			Title:       pd.Title,
			Description: pd.Description,
			Examples:    pd.Examples,
			Deprecated:  pd.Deprecated,
			ReadOnly:    pd.ReadOnly,
			WriteOnly:   pd.WriteOnly,
		},
	}

	if !pd.Default.IsZero() {
		var v any
		if err := pd.Default.Decode(&v); err != nil {
			return Property{}, ErrInvalidCatalog.Wrap(err)
		}
		p.Default = v
		p.HasDefault = true
	}

	if pd.Override != nil {
		o, err := pd.Override.toOverride()
		if err != nil {
			return Property{}, err
		}
		p.Attributes.Override = o
	}

	custom, err := decodeExtensions(&pd.Extensions)
	if err != nil {
		return Property{}, err
	}
	p.Attributes.Custom = custom

	for _, rs := range pd.Rules {
		r, err := ParseRule(rs)
		if err != nil {
			return Property{}, err
		}
		p.Rules = append(p.Rules, r)
	}

	return p, nil
}

func (od overrideDocument) toOverride() (*Override, error) {
	to, ok := schema.ParseDataType(od.To)
	if !ok {
		return nil, ErrInvalidCatalog.Wrapf("override target %q is not a JSON type", od.To)
	}

	o := &Override{To: to}
	if od.From != "" {
		from, ok := schema.ParseDataType(od.From)
		if !ok {
			return nil, ErrInvalidCatalog.Wrapf("override source %q is not a JSON type", od.From)
		}
		o.From = from
	}
	return o, nil
}

// decodeExtensions reads the extension mapping keeping the document order of its keys.
func decodeExtensions(node *yaml.Node) (*sequencedmap.Map[string, any], error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, ErrInvalidCatalog.Wrapf("extensions must be a mapping at line %d", node.Line)
	}

	m := sequencedmap.New[string, any]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !strings.HasPrefix(key, "x-") {
			return nil, ErrInvalidCatalog.Wrapf("extension %q must be prefixed with x- at line %d", key, node.Content[i].Line)
		}

		var v any
		if err := node.Content[i+1].Decode(&v); err != nil {
			return nil, ErrInvalidCatalog.Wrap(err)
		}
		m.Set(key, v)
	}
	return m, nil
}
