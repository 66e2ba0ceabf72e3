package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/speakeasy-api/dtoschema/cmd/dtoschema/commands/cmdutil"
	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/generator"
	"github.com/speakeasy-api/dtoschema/json"
	"github.com/speakeasy-api/dtoschema/validation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type generateOptions struct {
	classes   []string
	format    string
	indent    int
	outDir    string
	validate  bool
	dialect   string
	noDialect bool
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate [catalog...]",
	Short: "Generate JSON Schema documents for data classes",
	Long: `Generate a JSON Schema document for each data class described in a catalog.

The catalog is a YAML or JSON document listing enums and classes with their
properties, declared types, documentation attributes and validation rules.
Several catalog documents may be given; they are merged and may refer to each
other's classes and enums. Every class is generated unless --class is given.

Nested classes referenced more than once are emitted once under "$defs".

Documents are written to stdout, or one file per class with --out.
Use '-' as the only catalog argument, or pipe it, to read from stdin:
  cat catalog.yaml | dtoschema generate --class 'App\Data\Song'`,
	Args: cmdutil.StdinOrFileArgs(1, -1),
	Run:  runGenerate,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&genOpts.classes, "class", "c", nil, "class identity to generate (can be repeated, default: every class)")
	generateCmd.Flags().StringVarP(&genOpts.format, "format", "f", FormatJSON, "output format: json or yaml")
	generateCmd.Flags().IntVar(&genOpts.indent, "indent", 2, "indentation width, 0 writes compact json")
	generateCmd.Flags().StringVarP(&genOpts.outDir, "out", "o", "", "write one file per class to this directory instead of stdout")
	generateCmd.Flags().BoolVar(&genOpts.validate, "validate", false, "check every document against its meta-schema")
	generateCmd.Flags().StringVar(&genOpts.dialect, "dialect", generator.DefaultDialect, "value of \"$schema\"")
	generateCmd.Flags().BoolVar(&genOpts.noDialect, "no-dialect", false, "leave \"$schema\" out of the documents")
}

func runGenerate(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := cmdutil.Logger(cmd)

	catalog, err := loadCatalog(args)
	if err != nil {
		cmdutil.Die(err)
	}

	outputs, err := generateSchemas(ctx, catalog, genOpts, logger)
	if err != nil {
		cmdutil.Die(err)
	}

	if err := writeOutputs(outputs, genOpts.format, genOpts.outDir, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		cmdutil.Die(err)
	}
}

type output struct {
	identity string
	file     string
	data     []byte
}

// generateSchemas generates the requested classes concurrently. Outputs keep the order of the classes.
func generateSchemas(ctx context.Context, catalog *descriptor.MemoryCatalog, opts generateOptions, logger *slog.Logger) ([]output, error) {
	identities := opts.classes
	if len(identities) == 0 {
		identities = catalog.Classes()
	}
	if len(identities) == 0 {
		return nil, errors.New("catalog declares no classes")
	}

	genOptions := []generator.Option{generator.WithLogger(logger)}
	if opts.dialect != "" {
		genOptions = append(genOptions, generator.WithDialect(opts.dialect))
	}
	if opts.noDialect {
		genOptions = append(genOptions, generator.WithoutDialect())
	}
	gen := generator.New(catalog, genOptions...)

	outputs := make([]output, len(identities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, identity := range identities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			doc, err := gen.Generate(identity)
			if err != nil {
				return err
			}

			if opts.validate {
				var buf bytes.Buffer
				if err := json.Encode(&buf, doc, 0); err != nil {
					return err
				}
				if errs := validation.ValidateSchema(&buf); len(errs) > 0 {
					return fmt.Errorf("class %q generated an invalid document:\n%s", identity, cmdutil.FormatErrors(errs))
				}
			}

			var buf bytes.Buffer
			if err := render(&buf, doc, opts.format, opts.indent); err != nil {
				return fmt.Errorf("class %q: %w", identity, err)
			}

			outputs[i] = output{identity: identity, file: fileName(identity, opts.format), data: buf.Bytes()}
			logger.Debug("rendered document", slog.String("class", identity), slog.Int("bytes", buf.Len()))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// writeOutputs writes each document to its own file in outDir, or every document to w in order.
func writeOutputs(outputs []output, format, outDir string, w, status io.Writer) error {
	if outDir == "" {
		for i, out := range outputs {
			if i > 0 && format == FormatYAML {
				if _, err := io.WriteString(w, "---\n"); err != nil {
					return err
				}
			}
			if _, err := w.Write(out.data); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, out := range outputs {
		path := filepath.Join(outDir, out.file)
		if err := os.WriteFile(path, out.data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(status, "Generated %s: %s\n", out.identity, path)
	}
	return nil
}
