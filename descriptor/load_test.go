package descriptor_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
enums:
  - identity: App\Enums\Genre
    backing: string
    cases: [rock, jazz]
classes:
  - identity: App\Data\Artist
    title: Artist
    properties:
      - name: name
        type: string
        rules: ["required", "max:120"]
      - name: mentor
        type: '?App\Data\Artist'
        optional: true
      - name: songs
        type: array<App\Data\Song>
  - identity: App\Data\Song
    description: A recorded song.
    properties:
      - name: title
        type: string
        title: Title
        examples: [Blue in Green]
        extensions:
          x-order: 1
          x-label: song title
      - name: genre
        type: App\Enums\Genre
        default: jazz
      - name: tags
        type: '?array'
        override:
          to: object
      - name: released
        type: datetime|null
        default: null
        readOnly: true
`

func TestLoadYAML_Success(t *testing.T) {
	t.Parallel()

	c, err := descriptor.LoadYAML(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{`App\Data\Artist`, `App\Data\Song`}, c.Classes())

	artist, err := c.Class(`App\Data\Artist`)
	require.NoError(t, err)
	assert.Equal(t, "Artist", artist.Title)
	require.Len(t, artist.Properties, 3)

	name := artist.Properties[0]
	assert.Equal(t, []descriptor.Rule{{Name: "required"}, {Name: "max", Args: []string{"120"}}}, name.Rules)

	mentor := artist.Properties[1]
	assert.True(t, mentor.Nullable)
	assert.True(t, mentor.Optional)
	assert.Equal(t, []descriptor.Type{descriptor.DataClass(`App\Data\Artist`)}, mentor.Types)

	songType := descriptor.DataClass(`App\Data\Song`)
	assert.Equal(t, []descriptor.Type{descriptor.ArrayOf(&songType)}, artist.Properties[2].Types)

	song, err := c.Class(`App\Data\Song`)
	require.NoError(t, err)
	assert.Equal(t, "A recorded song.", song.Description)
	require.Len(t, song.Properties, 4)

	title := song.Properties[0]
	assert.Equal(t, "Title", title.Attributes.Title)
	assert.Equal(t, []any{"Blue in Green"}, title.Attributes.Examples)
	require.NotNil(t, title.Attributes.Custom)
	assert.Equal(t, []string{"x-order", "x-label"}, slices.Collect(title.Attributes.Custom.Keys()))
	assert.Equal(t, 1, title.Attributes.Custom.GetOrZero("x-order"))

	genre := song.Properties[1]
	assert.Equal(t, []descriptor.Type{descriptor.EnumOf(`App\Enums\Genre`, descriptor.ScalarString)}, genre.Types)
	assert.True(t, genre.HasDefault)
	assert.Equal(t, "jazz", genre.Default)

	tags := song.Properties[2]
	require.NotNil(t, tags.Attributes.Override)
	assert.Equal(t, schema.TypeObject, tags.Attributes.Override.To)
	assert.Equal(t, schema.TypeArray, tags.Attributes.Override.Source())

	released := song.Properties[3]
	assert.True(t, released.Nullable)
	assert.True(t, released.HasDefault)
	assert.Nil(t, released.Default)
	assert.True(t, released.Attributes.ReadOnly)

	genreEnum, err := c.Enum(`App\Enums\Genre`)
	require.NoError(t, err)
	assert.Equal(t, []any{"rock", "jazz"}, genreEnum.Cases)
}

func TestLoad_Success(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := descriptor.Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Classes(), 2)

	_, err = descriptor.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFS_Success(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"enums.yaml": {Data: []byte("enums:\n  - identity: App\\Enums\\Genre\n    backing: string\n    cases: [rock, jazz]\n")},
		"song.yaml": {Data: []byte(`
classes:
  - identity: App\Data\Song
    properties:
      - name: genre
        type: App\Enums\Genre
      - name: artist
        type: App\Data\Artist
`)},
		"artist.yaml": {Data: []byte(`
classes:
  - identity: App\Data\Artist
    properties:
      - name: name
        type: string
`)},
	}

	c, err := descriptor.LoadFS(fsys, "enums.yaml", "song.yaml", "artist.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Data\Song`, `App\Data\Artist`}, c.Classes())

	song, err := c.Class(`App\Data\Song`)
	require.NoError(t, err)
	require.Len(t, song.Properties, 2)
	assert.Equal(t, descriptor.KindEnum, song.Properties[0].Types[0].Kind)
	assert.Equal(t, descriptor.KindDataClass, song.Properties[1].Types[0].Kind)
}

func TestLoadFS_Error(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("classes:\n  - identity: App\\Data\\Song\n")},
		"b.yaml": {Data: []byte("classes:\n  - identity: App\\Data\\Song\n")},
	}

	tests := []struct {
		name        string
		paths       []string
		expectedErr string
	}{
		{name: "no documents", paths: nil, expectedErr: "no catalog documents"},
		{name: "missing document", paths: []string{"c.yaml"}, expectedErr: `"c.yaml"`},
		{name: "identity declared twice", paths: []string{"a.yaml", "b.yaml"}, expectedErr: "Song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := descriptor.LoadFS(fsys, tt.paths...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestLoadYAML_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		yaml          string
		expectedError error
	}{
		{
			name:          "empty document",
			yaml:          ``,
			expectedError: descriptor.ErrInvalidCatalog,
		},
		{
			name:          "unknown field",
			yaml:          "classes:\n  - identity: A\n    fields: []\n",
			expectedError: descriptor.ErrInvalidCatalog,
		},
		{
			name:          "duplicate identity",
			yaml:          "classes:\n  - identity: A\n  - identity: A\n",
			expectedError: descriptor.ErrInvalidCatalog,
		},
		{
			name:          "unknown identity in type",
			yaml:          "classes:\n  - identity: A\n    properties:\n      - name: b\n        type: B\n",
			expectedError: descriptor.ErrUnknownIdentity,
		},
		{
			name:          "float backed enum",
			yaml:          "enums:\n  - identity: E\n    backing: float\n    cases: [1.5]\n",
			expectedError: descriptor.ErrInvalidCatalog,
		},
		{
			name:          "case does not match backing",
			yaml:          "enums:\n  - identity: E\n    backing: int\n    cases: [a]\n",
			expectedError: descriptor.ErrInvalidCatalog,
		},
		{
			name:          "override to unknown type",
			yaml:          "classes:\n  - identity: A\n    properties:\n      - name: b\n        type: array\n        override: {to: map}\n",
			expectedError: descriptor.ErrInvalidCatalog,
		},
		{
			name:          "extension without prefix",
			yaml:          "classes:\n  - identity: A\n    properties:\n      - name: b\n        type: int\n        extensions: {order: 1}\n",
			expectedError: descriptor.ErrInvalidCatalog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := descriptor.LoadYAML(strings.NewReader(tt.yaml))
			require.Error(t, err)
			require.ErrorIs(t, err, tt.expectedError)
		})
	}
}
