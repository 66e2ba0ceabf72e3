package schema

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/speakeasy-api/dtoschema/cmd/dtoschema/commands/cmdutil"
	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/spf13/cobra"
)

var classesCmd = &cobra.Command{
	Use:   "classes [catalog...]",
	Short: "List the data classes declared in a catalog",
	Args:  cmdutil.StdinOrFileArgs(1, -1),
	Run: func(cmd *cobra.Command, args []string) {
		catalog, err := loadCatalog(args)
		if err != nil {
			cmdutil.Die(err)
		}
		if err := listClasses(cmd.OutOrStdout(), catalog); err != nil {
			cmdutil.Die(err)
		}
	},
}

// listClasses prints each class identity with its property count in registration order.
func listClasses(w io.Writer, catalog *descriptor.MemoryCatalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tPROPERTIES\tTITLE")

	for _, identity := range catalog.Classes() {
		cls, err := catalog.Class(identity)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", cls.Identity, len(cls.Properties), cls.Title)
	}

	return tw.Flush()
}
