package generator_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/generator"
	"github.com/speakeasy-api/dtoschema/rules"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	subjectClass = `App\Data\Subject`
	artistClass  = `App\Data\Artist`
	statusEnum   = `App\Enums\Status`
)

var (
	stringType = descriptor.Scalar(descriptor.ScalarString)
	intType    = descriptor.Scalar(descriptor.ScalarInt)
	statusType = descriptor.EnumOf(statusEnum, descriptor.ScalarString)
	artistType = descriptor.DataClass(artistClass)
)

func artist() *descriptor.Class {
	return &descriptor.Class{
		Identity:   artistClass,
		Properties: []descriptor.Property{{Name: "name", Types: []descriptor.Type{stringType}}},
	}
}

func newCatalog(t *testing.T, classes ...*descriptor.Class) *descriptor.MemoryCatalog {
	t.Helper()

	c, err := descriptor.NewMemoryCatalog(
		append(classes, artist()),
		[]*descriptor.Enum{{Identity: statusEnum, Backing: descriptor.ScalarString, Cases: []any{"draft", "published"}}},
	)
	require.NoError(t, err)
	return c
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// generateProperty renders the schema of a single property of a generated class.
func generateProperty(t *testing.T, p descriptor.Property, opts ...generator.Option) string {
	t.Helper()

	catalog := newCatalog(t, &descriptor.Class{Identity: subjectClass, Properties: []descriptor.Property{p}})

	doc, err := generator.New(catalog, opts...).Generate(subjectClass)
	require.NoError(t, err)

	s, ok := doc.Schema.Properties().Get(p.Name)
	require.True(t, ok)
	return marshal(t, s.ToMap(true))
}

func TestGenerator_Generate_Property_Success(t *testing.T) {
	t.Parallel()

	untypedArray := descriptor.ArrayOf(nil)

	tests := []struct {
		name     string
		property descriptor.Property
		expected string
	}{
		{
			name:     "array of strings",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.ArrayOf(&stringType)}},
			expected: `{"type":"array","items":{"type":"string"}}`,
		},
		{
			name:     "arrays with different element types",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.ArrayOf(&intType), descriptor.ArrayOf(&stringType)}},
			expected: `{"anyOf":[{"type":"array","items":{"type":"integer"}},{"type":"array","items":{"type":"string"}}]}`,
		},
		{
			name: "nullable arrays with different element types around a scalar",
			property: descriptor.Property{
				Name:     "value",
				Types:    []descriptor.Type{descriptor.ArrayOf(&intType), stringType, descriptor.ArrayOf(&stringType)},
				Nullable: true,
			},
			expected: `{"anyOf":[{"type":"array","items":{"type":"integer"}},{"type":"string"},{"type":"array","items":{"type":"string"}},{"type":"null"}]}`,
		},
		{
			name:     "arrays with the same element type",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.ArrayOf(&intType), descriptor.ArrayOf(&intType)}},
			expected: `{"type":["array"],"items":{"type":"integer"}}`,
		},
		{
			name:     "array with unknown items",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{untypedArray}},
			expected: `{"type":"array"}`,
		},
		{
			name: "nullable array overridden to object",
			property: descriptor.Property{
				Name:       "value",
				Types:      []descriptor.Type{untypedArray},
				Nullable:   true,
				Attributes: descriptor.Attributes{Override: &descriptor.Override{To: schema.TypeObject}},
			},
			expected: `{"type":["object","null"]}`,
		},
		{
			name: "array overridden to object keeps later annotations",
			property: descriptor.Property{
				Name:       "value",
				Types:      []descriptor.Type{descriptor.ArrayOf(&stringType)},
				Attributes: descriptor.Attributes{Title: "Meta", Override: &descriptor.Override{To: schema.TypeObject}},
			},
			expected: `{"type":"object","title":"Meta"}`,
		},
		{
			name: "override of another type is a no-op",
			property: descriptor.Property{
				Name:       "value",
				Types:      []descriptor.Type{stringType},
				Attributes: descriptor.Attributes{Override: &descriptor.Override{To: schema.TypeObject}},
			},
			expected: `{"type":"string"}`,
		},
		{
			name:     "nullable union",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{stringType, intType}, Nullable: true},
			expected: `{"type":["string","integer","null"]}`,
		},
		{
			name:     "nullable scalar",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{intType}, Nullable: true},
			expected: `{"type":["integer","null"]}`,
		},
		{
			name:     "nullable scalar declared twice",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{intType, descriptor.Scalar(descriptor.ScalarNull)}, Nullable: true},
			expected: `{"type":["integer","null"]}`,
		},
		{
			name:     "nullable data class",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{artistType}, Nullable: true},
			expected: `{"anyOf":[{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]},{"type":"null"}]}`,
		},
		{
			name:     "data class",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{artistType}},
			expected: `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:     "data class ignores property annotations",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{artistType}, Attributes: descriptor.Attributes{Title: "Artist"}},
			expected: `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:     "data class or string",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{artistType, stringType}, Attributes: descriptor.Attributes{Title: "Artist"}},
			expected: `{"title":"Artist","anyOf":[{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]},{"type":"string"}]}`,
		},
		{
			name:     "date time",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.Scalar(descriptor.ScalarDateTime)}},
			expected: `{"type":"string","format":"date-time"}`,
		},
		{
			name:     "nullable date",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.Scalar(descriptor.ScalarDate)}, Nullable: true},
			expected: `{"type":["string","null"],"format":"date"}`,
		},
		{
			name:     "enum",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{statusType}},
			expected: `{"type":"string","enum":["draft","published"]}`,
		},
		{
			name:     "nullable enum",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{statusType}, Nullable: true},
			expected: `{"type":["string","null"],"enum":["draft","published",null]}`,
		},
		{
			name:     "array of enums",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.ArrayOf(&statusType)}},
			expected: `{"type":"array","items":{"type":"string","enum":["draft","published"]}}`,
		},
		{
			name:     "array of data classes",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.ArrayOf(&artistType)}},
			expected: `{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}}`,
		},
		{
			name:     "nullable array reaches items through the union",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{descriptor.ArrayOf(&stringType)}, Nullable: true},
			expected: `{"type":["array","null"],"items":{"type":"string"}}`,
		},
		{
			name: "annotations",
			property: descriptor.Property{
				Name:       "value",
				Types:      []descriptor.Type{stringType},
				Default:    "guest",
				HasDefault: true,
				Attributes: descriptor.Attributes{
					Title:       "Name",
					Description: "Display name",
					Examples:    []any{"Ada"},
					Deprecated:  true,
					ReadOnly:    true,
				},
			},
			expected: `{"type":"string","title":"Name","description":"Display name","default":"guest","examples":["Ada"],"deprecated":true,"readOnly":true}`,
		},
		{
			name:     "union annotations",
			property: descriptor.Property{Name: "value", Types: []descriptor.Type{stringType, intType}, Attributes: descriptor.Attributes{Description: "Either"}},
			expected: `{"description":"Either","type":["string","integer"]}`,
		},
		{
			name: "rules",
			property: descriptor.Property{
				Name:  "value",
				Types: []descriptor.Type{stringType},
				Rules: []descriptor.Rule{{Name: "min", Args: []string{"3"}}, {Name: "max", Args: []string{"10"}}, {Name: "email"}},
			},
			expected: `{"type":"string","minLength":3,"maxLength":10,"format":"email"}`,
		},
		{
			name: "rule finds its constituent",
			property: descriptor.Property{
				Name:     "value",
				Types:    []descriptor.Type{stringType},
				Nullable: true,
				Rules:    []descriptor.Rule{{Name: "regex", Args: []string{"/^a/"}}},
			},
			expected: `{"type":["string","null"],"pattern":"^a"}`,
		},
		{
			name: "unknown and presence rules are skipped",
			property: descriptor.Property{
				Name:  "value",
				Types: []descriptor.Type{intType},
				Rules: []descriptor.Rule{{Name: "required"}, {Name: "exists", Args: []string{"users", "id"}}},
			},
			expected: `{"type":"integer"}`,
		},
		{
			name: "in rule on nullable string",
			property: descriptor.Property{
				Name:     "value",
				Types:    []descriptor.Type{stringType},
				Nullable: true,
				Rules:    []descriptor.Rule{{Name: "in", Args: []string{"a", "b"}}},
			},
			expected: `{"type":["string","null"],"enum":["a","b",null]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			actual := generateProperty(t, tt.property)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestGenerator_Generate_Required_Success(t *testing.T) {
	t.Parallel()

	catalog := newCatalog(t, &descriptor.Class{
		Identity:    subjectClass,
		Title:       "Subject",
		Description: "A subject",
		Properties: []descriptor.Property{
			{Name: "id", Types: []descriptor.Type{intType}},
			{Name: "nickname", Types: []descriptor.Type{stringType}, Optional: true},
			{Name: "role", Types: []descriptor.Type{stringType}, Default: "member", HasDefault: true},
			{Name: "email", Types: []descriptor.Type{stringType}, Nullable: true},
		},
	})

	doc, err := generator.New(catalog, generator.WithoutDialect()).Generate(subjectClass)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "email"}, doc.Schema.Required())
	assert.Equal(t,
		`{"type":"object","title":"Subject","description":"A subject","properties":{"id":{"type":"integer"},"nickname":{"type":"string"},"role":{"type":"string","default":"member"},"email":{"type":["string","null"]}},"required":["id","email"]}`,
		marshal(t, doc),
	)
}

func TestGenerator_Generate_SelfReference_Success(t *testing.T) {
	t.Parallel()

	const nodeClass = `App\Data\Node`

	catalog := newCatalog(t, &descriptor.Class{
		Identity: nodeClass,
		Properties: []descriptor.Property{
			{Name: "value", Types: []descriptor.Type{intType}},
			{Name: "next", Types: []descriptor.Type{descriptor.DataClass(nodeClass)}, Nullable: true},
			{Name: "children", Types: []descriptor.Type{descriptor.ArrayOf(&descriptor.Type{Kind: descriptor.KindDataClass, Identity: nodeClass})}, Optional: true},
		},
	})

	doc, err := generator.New(catalog, generator.WithoutDialect()).Generate(nodeClass)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Classes)
	assert.Equal(t, 0, doc.Definitions.Len())
	assert.Equal(t,
		`{"type":"object","properties":{"value":{"type":"integer"},"next":{"anyOf":[{"$ref":"#"},{"type":"null"}]},"children":{"type":"array","items":{"$ref":"#"}}},"required":["value","next"]}`,
		marshal(t, doc),
	)
}

func TestGenerator_Generate_SharedClass_Success(t *testing.T) {
	t.Parallel()

	const albumClass = `App\Data\Album`

	catalog := newCatalog(t, &descriptor.Class{
		Identity: albumClass,
		Properties: []descriptor.Property{
			{Name: "lead", Types: []descriptor.Type{artistType}},
			{Name: "backup", Types: []descriptor.Type{artistType}, Nullable: true},
		},
	})

	doc, err := generator.New(catalog).Generate(albumClass)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Classes)
	assert.Equal(t, 1, doc.Definitions.Len())
	assert.Equal(t,
		`{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object","properties":{"lead":{"$ref":"#/$defs/Artist"},"backup":{"anyOf":[{"$ref":"#/$defs/Artist"},{"type":"null"}]}},"required":["lead","backup"],"$defs":{"Artist":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}}}`,
		marshal(t, doc),
	)
}

func TestGenerator_Generate_SharedClassKeepsDefinition_Success(t *testing.T) {
	t.Parallel()

	const expected = `{"type":"object","properties":{` +
		`"a":{"anyOf":[{"$ref":"#/$defs/Artist"},{"type":"string","enum":["x","y"],"minLength":1}]},` +
		`"b":{"$ref":"#/$defs/Artist"},` +
		`"c":{"anyOf":[{"type":"string","enum":["draft","published"]},{"$ref":"#/$defs/Artist"}]}},` +
		`"required":["a","b","c"],` +
		`"$defs":{"Artist":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}}}`

	withRules := descriptor.Property{
		Name:  "a",
		Types: []descriptor.Type{artistType, stringType},
		Rules: []descriptor.Rule{{Name: "in", Args: []string{"x", "y"}}, {Name: "min", Args: []string{"1"}}},
	}
	plain := descriptor.Property{Name: "b", Types: []descriptor.Type{artistType}}
	withEnum := descriptor.Property{Name: "c", Types: []descriptor.Type{statusType, artistType}}

	tests := []struct {
		name       string
		properties []descriptor.Property
	}{
		{name: "keywords reach the definition first", properties: []descriptor.Property{withRules, plain, withEnum}},
		{name: "plain reference reaches the definition first", properties: []descriptor.Property{plain, withRules, withEnum}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			catalog := newCatalog(t, &descriptor.Class{Identity: subjectClass, Properties: tt.properties})

			doc, err := generator.New(catalog, generator.WithoutDialect()).Generate(subjectClass)
			require.NoError(t, err)

			def, ok := doc.Definitions.Get("Artist")
			require.True(t, ok)
			assert.Equal(t, `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`, marshal(t, def.ToMap(false)))

			for _, p := range []string{"a", "b", "c"} {
				s, ok := doc.Schema.Properties().Get(p)
				require.True(t, ok)
				assert.NotContains(t, marshal(t, s.ToMap(true)), `"minProperties"`)
			}

			if tt.properties[0].Name == "a" {
				assert.Equal(t, expected, marshal(t, doc))
			}
		})
	}
}

func TestGenerator_Generate_DefinitionNameClash_Success(t *testing.T) {
	t.Parallel()

	const (
		otherArtistClass = `Vendor\Models\Artist`
		bandClass        = `App\Data\Band`
	)

	otherArtist := descriptor.DataClass(otherArtistClass)
	catalog := newCatalog(t,
		&descriptor.Class{
			Identity: bandClass,
			Properties: []descriptor.Property{
				{Name: "a", Types: []descriptor.Type{artistType}},
				{Name: "b", Types: []descriptor.Type{otherArtist}},
				{Name: "c", Types: []descriptor.Type{artistType}},
				{Name: "d", Types: []descriptor.Type{otherArtist}},
			},
		},
		&descriptor.Class{Identity: otherArtistClass, Properties: []descriptor.Property{{Name: "id", Types: []descriptor.Type{intType}}}},
	)

	doc, err := generator.New(catalog, generator.WithoutDialect()).Generate(bandClass)
	require.NoError(t, err)

	var names []string
	for name := range doc.Definitions.Keys() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"Artist", "Artist2"}, names)

	b, ok := doc.Schema.Properties().Get("b")
	require.True(t, ok)
	assert.Equal(t, `{"$ref":"#/$defs/Artist2"}`, marshal(t, b.ToMap(true)))
}

func TestGenerator_Generate_Dialect_Success(t *testing.T) {
	t.Parallel()

	catalog := newCatalog(t)

	tests := []struct {
		name     string
		opts     []generator.Option
		expected string
	}{
		{
			name:     "default dialect",
			expected: `{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:     "custom dialect",
			opts:     []generator.Option{generator.WithDialect("https://json-schema.org/draft/2019-09/schema")},
			expected: `{"$schema":"https://json-schema.org/draft/2019-09/schema","type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
		{
			name:     "no dialect",
			opts:     []generator.Option{generator.WithoutDialect()},
			expected: `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := generator.New(catalog, tt.opts...).Generate(artistClass)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, marshal(t, doc))
		})
	}
}

func TestGenerator_Generate_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		identity      string
		classes       []*descriptor.Class
		opts          []generator.Option
		expectedError error
	}{
		{
			name:          "unknown class",
			identity:      `App\Data\Missing`,
			expectedError: descriptor.ErrUnknownClass,
		},
		{
			name:     "unknown nested class",
			identity: subjectClass,
			classes: []*descriptor.Class{{
				Identity:   subjectClass,
				Properties: []descriptor.Property{{Name: "value", Types: []descriptor.Type{descriptor.DataClass(`App\Data\Missing`)}}},
			}},
			expectedError: descriptor.ErrUnknownClass,
		},
		{
			name:     "property without types",
			identity: subjectClass,
			classes: []*descriptor.Class{{
				Identity:   subjectClass,
				Properties: []descriptor.Property{{Name: "value"}},
			}},
			expectedError: generator.ErrUnsupportedType,
		},
		{
			name:     "enum backed by a float",
			identity: subjectClass,
			classes: []*descriptor.Class{{
				Identity:   subjectClass,
				Properties: []descriptor.Property{{Name: "value", Types: []descriptor.Type{descriptor.EnumOf(statusEnum, descriptor.ScalarFloat)}}},
			}},
			expectedError: generator.ErrUnsupportedType,
		},
		{
			name:     "invalid rule argument",
			identity: subjectClass,
			classes: []*descriptor.Class{{
				Identity:   subjectClass,
				Properties: []descriptor.Property{{Name: "value", Types: []descriptor.Type{stringType}, Rules: []descriptor.Rule{{Name: "min", Args: []string{"three"}}}}},
			}},
			expectedError: rules.ErrInvalidRuleArgument,
		},
		{
			name:     "keyword rejected by the schema",
			identity: subjectClass,
			classes: []*descriptor.Class{{
				Identity: subjectClass,
				Properties: []descriptor.Property{{
					Name:  "value",
					Types: []descriptor.Type{stringType},
					Rules: []descriptor.Rule{{Name: "custom"}},
				}},
			}},
			opts: []generator.Option{generator.WithRuleTranslator(rules.TranslatorFunc(func(descriptor.Rule) ([]rules.Fact, error) {
				return []rules.Fact{{Keyword: schema.KeywordEnum, Value: "not a list"}}, nil
			}))},
			expectedError: schema.ErrInvalidKeywordValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			catalog := newCatalog(t, tt.classes...)

			doc, err := generator.New(catalog, tt.opts...).Generate(tt.identity)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, tt.expectedError), "expected %v, got %v", tt.expectedError, err)
		})
	}
}

func TestGenerator_WithStages_Success(t *testing.T) {
	t.Parallel()

	comment := generator.Stage{
		Name: "comment",
		Apply: func(s schema.Schema, ctx *generator.Context) (schema.Schema, error) {
			if _, err := s.Apply(schema.KeywordComment, "from "+ctx.Class.Identity); err != nil {
				return nil, err
			}
			return s, nil
		},
	}

	actual := generateProperty(t,
		descriptor.Property{Name: "value", Types: []descriptor.Type{stringType}},
		generator.WithStages(append(generator.DefaultStages(), comment)...),
	)
	assert.Equal(t, `{"type":"string","$comment":"from App\\Data\\Subject"}`, actual)
}

func TestGenerator_WithLogger_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	actual := generateProperty(t,
		descriptor.Property{
			Name:  "value",
			Types: []descriptor.Type{intType, descriptor.Scalar(descriptor.ScalarFloat), stringType},
			Rules: []descriptor.Rule{{Name: "min", Args: []string{"1"}}, {Name: "unheard_of"}},
		},
		generator.WithLogger(logger),
	)

	assert.Equal(t, `{"type":["integer","number","string"],"minimum":1,"minLength":1}`, actual)
	assert.Contains(t, buf.String(), `"msg":"registered class"`)
	assert.Contains(t, buf.String(), `"msg":"rule applied to several constituents"`)
	assert.Contains(t, buf.String(), `"msg":"ignoring unknown rule"`)
	assert.Contains(t, buf.String(), `"msg":"generated document"`)
}

func TestDocument_MarshalYAML_Success(t *testing.T) {
	t.Parallel()

	doc, err := generator.New(newCatalog(t), generator.WithoutDialect()).Generate(artistClass)
	require.NoError(t, err)

	node, err := doc.MarshalYAML()
	require.NoError(t, err)
	assert.NotNil(t, node)
	assert.Equal(t, 3, doc.Map().Len())
}
