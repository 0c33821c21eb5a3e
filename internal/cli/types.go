package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var typesJSON bool

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List registered boot image types in probe order",
	RunE:  runTypes,
}

func init() {
	typesCmd.Flags().BoolVar(&typesJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	reg, err := loadToolkit()
	if err != nil {
		return err
	}

	entries := reg.Entries()
	if typesJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tTYPE\tUNPACK\tPACK")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Type, e.Unpack, e.Pack)
	}
	return w.Flush()
}
