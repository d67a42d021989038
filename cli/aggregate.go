package cli

import (
	"github.com/spf13/cobra"
)

var byOrganism bool

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Compute resistance rates per antibiotic",
	Long: `Reads the cleaned table and writes one row per antibiotic with R/S/I
counts, the resistance rate and its Wilson confidence interval, sorted by
rate descending.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return current.aggregate(byOrganism)
	},
}

func init() {
	aggregateCmd.Flags().BoolVar(&byOrganism, "by-organism", false, "also write the organism/antibiotic summary")
	rootCmd.AddCommand(aggregateCmd)
}
