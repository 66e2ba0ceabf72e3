package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/speakeasy-api/dtoschema/cmd/dtoschema/commands/cmdutil"
	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/generator"
	"github.com/speakeasy-api/dtoschema/json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Apply adds the schema commands to the provided root command
func Apply(rootCmd *cobra.Command) {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(classesCmd)
}

// loadCatalog merges the catalog documents named by args, or reads a single document from stdin.
func loadCatalog(args []string) (*descriptor.MemoryCatalog, error) {
	path := cmdutil.InputFileFromArgs(args)
	if !cmdutil.IsStdin(path) {
		return descriptor.Load(args...)
	}
	if len(args) > 1 {
		return nil, errors.New("stdin cannot be combined with other catalog documents")
	}

	r, err := cmdutil.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return descriptor.LoadYAML(r)
}

// render writes a document in the requested format.
func render(w io.Writer, doc *generator.Document, format string, indent int) error {
	switch format {
	case FormatJSON:
		return json.Encode(w, doc, indent)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(max(indent, 2))
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q, expected %s or %s", format, FormatJSON, FormatYAML)
	}
}

// fileName derives an output file name from a class identity, e.g. App.Data.Song.schema.json.
func fileName(identity, format string) string {
	name := strings.NewReplacer(`\`, ".", "/", ".", ":", ".").Replace(strings.Trim(identity, `\/`))
	return name + ".schema." + format
}
