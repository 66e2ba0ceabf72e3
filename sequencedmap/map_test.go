package sequencedmap

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMap_Set_PreservesOrder_Success(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		keys         []string
		expectedKeys []string
	}{
		{
			name:         "insertion order",
			keys:         []string{"type", "title", "minimum"},
			expectedKeys: []string{"type", "title", "minimum"},
		},
		{
			name:         "repeated key keeps first position",
			keys:         []string{"type", "title", "type"},
			expectedKeys: []string{"type", "title"},
		},
		{
			name:         "no keys",
			keys:         nil,
			expectedKeys: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := New[string, int]()
			for i, k := range tt.keys {
				m.Set(k, i)
			}

			assert.Equal(t, tt.expectedKeys, slices.Collect(m.Keys()))
			assert.Equal(t, len(tt.expectedKeys), m.Len())
		})
	}
}

func TestMap_Set_ReplacesValue_Success(t *testing.T) {
	t.Parallel()

	m := New(NewElem("a", 1), NewElem("b", 2))
	m.Set("a", 10)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, []int{10, 2}, slices.Collect(m.Values()))
}

func TestMap_Delete_Success(t *testing.T) {
	t.Parallel()

	m := New(NewElem("a", 1), NewElem("b", 2), NewElem("c", 3))
	m.Delete("b")
	m.Delete("missing")

	assert.False(t, m.Has("b"))
	assert.Equal(t, []string{"a", "c"}, slices.Collect(m.Keys()))
}

func TestMap_All_MutationDuringIteration_Success(t *testing.T) {
	t.Parallel()

	m := New(NewElem("a", 1), NewElem("b", 2))

	var seen []string
	for k := range m.All() {
		seen = append(seen, k)
		if k == "a" {
			m.Set("z", 26)
		}
	}

	assert.Equal(t, []string{"a", "b"}, seen, "elements added during iteration are not visited")
	assert.True(t, m.Has("z"))
}

func TestMap_NilSafe_Success(t *testing.T) {
	t.Parallel()

	var m *Map[string, int]

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, Len(m))
	assert.False(t, m.Has("a"))
	assert.Equal(t, 0, m.GetOrZero("a"))
	assert.Empty(t, slices.Collect(m.Keys()))

	b, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestMap_MarshalJSON_Success(t *testing.T) {
	t.Parallel()

	inner := New(NewElem[string, any]("minimum", 1))
	m := New(
		NewElem[string, any]("type", []any{"integer", "null"}),
		NewElem[string, any]("title", "Age"),
		NewElem[string, any]("not", inner),
	)

	b, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"type":["integer","null"],"title":"Age","not":{"minimum":1}}`, string(b))
}

func TestMap_MarshalYAML_Success(t *testing.T) {
	t.Parallel()

	m := New(
		NewElem[string, any]("type", "object"),
		NewElem[string, any]("required", []string{"b", "a"}),
		NewElem[string, any]("properties", New(
			NewElem[string, any]("b", New(NewElem[string, any]("type", "string"))),
			NewElem[string, any]("a", New(NewElem[string, any]("type", "integer"))),
		)),
	)

	out, err := yaml.Marshal(m)
	require.NoError(t, err)

	expected := `type: object
required:
    - b
    - a
properties:
    b:
        type: string
    a:
        type: integer
`
	assert.Equal(t, expected, string(out))
}

func TestMap_NavigateWithKey(t *testing.T) {
	t.Parallel()

	m := New(NewElem[string, any]("Person", 1))

	v, err := m.NavigateWithKey("Person")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = m.NavigateWithKey("Missing")
	require.Error(t, err)

	_, err = New[int, int]().NavigateWithKey("1")
	require.Error(t, err)
}

func TestFrom_Merge_Success(t *testing.T) {
	t.Parallel()

	src := New(NewElem("a", 1), NewElem("b", 2))
	copied := From(src.All())
	copied.Set("a", 100)

	assert.Equal(t, 1, src.GetOrZero("a"), "From produces an independent map")

	dst := New(NewElem("b", 0), NewElem("c", 3))
	Merge(dst, src)

	assert.Equal(t, []string{"b", "c", "a"}, slices.Collect(dst.Keys()))
	assert.Equal(t, []int{2, 3, 1}, slices.Collect(dst.Values()))
}
