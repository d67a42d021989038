package cli

import (
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the raw susceptibility export",
	Long: `Reads the raw export (xlsx or csv), prunes columns to the keep list,
normalises result, sex and age values and writes the cleaned table.

Rows with a missing, unrecognized or incomplete value are dropped and
counted; a quality assessment and warning summary are printed at the end.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return current.clean(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
