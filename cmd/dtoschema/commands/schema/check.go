package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/speakeasy-api/dtoschema/cmd/dtoschema/commands/cmdutil"
	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/generator"
	"github.com/speakeasy-api/dtoschema/json"
	"github.com/speakeasy-api/dtoschema/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	checkClass        string
	checkAssertFormat bool
)

var checkCmd = &cobra.Command{
	Use:   "check <catalog> <instance>",
	Short: "Validate a payload against the schema generated for a class",
	Long: `Generate the schema of a class and validate a YAML or JSON payload against it.

Validation errors are reported with the location of the offending value.
Formats such as date-time and email are annotations unless --assert-format is set.

Either the catalog or the instance may be read from stdin with '-', but not both.`,
	Args: cobra.ExactArgs(2),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkClass, "class", "c", "", "class identity to validate against (required)")
	checkCmd.Flags().BoolVar(&checkAssertFormat, "assert-format", false, "treat format keywords as assertions")
	_ = checkCmd.MarkFlagRequired("class")
}

func runCheck(cmd *cobra.Command, args []string) {
	catalogPath, instancePath := args[0], args[1]
	if cmdutil.IsStdin(catalogPath) && cmdutil.IsStdin(instancePath) {
		cmdutil.Dief("Error: only one of catalog and instance can be read from stdin")
	}

	catalog, err := loadCatalog([]string{catalogPath})
	if err != nil {
		cmdutil.Die(err)
	}

	instance, err := cmdutil.OpenInput(instancePath)
	if err != nil {
		cmdutil.Die(err)
	}
	defer instance.Close()

	var opts []validation.Option
	if checkAssertFormat {
		opts = append(opts, validation.WithFormatAssertion())
	}

	errs, err := checkInstance(catalog, checkClass, instance, cmdutil.Logger(cmd), opts...)
	if err != nil {
		cmdutil.Die(err)
	}

	out := cmd.OutOrStdout()
	if len(errs) == 0 {
		fmt.Fprintf(out, "✅ %s is valid against %s\n", instancePath, checkClass)
		return
	}

	fmt.Fprintf(out, "❌ %s is invalid against %s\n", instancePath, checkClass)
	fmt.Fprint(out, cmdutil.FormatErrors(errs))
	cmdutil.Dief("Validation failed with %d error(s)", len(errs))
}

// checkInstance validates instance against the schema generated for identity.
// The returned error covers generation and decoding failures; validation failures are returned as errs.
func checkInstance(catalog descriptor.Catalog, identity string, instance io.Reader, logger *slog.Logger, opts ...validation.Option) ([]error, error) {
	doc, err := generator.New(catalog, generator.WithLogger(logger)).Generate(identity)
	if err != nil {
		return nil, err
	}

	var schemaBuf bytes.Buffer
	if err := json.Encode(&schemaBuf, doc, 0); err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.NewDecoder(instance).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("instance is empty")
		}
		return nil, fmt.Errorf("failed to parse instance: %w", err)
	}

	var instanceBuf bytes.Buffer
	if err := json.YAMLToJSON(&node, 0, &instanceBuf); err != nil {
		return nil, fmt.Errorf("failed to convert instance: %w", err)
	}
	logger.Debug("validating instance", slog.String("class", identity), slog.Int("bytes", instanceBuf.Len()))

	errs := validation.ValidateInstance(&schemaBuf, &instanceBuf, opts...)
	validation.SortValidationErrors(errs)
	return errs, nil
}
