package cli

import (
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Identify first-line treatments and multi-drug resistant organisms",
	RunE: func(_ *cobra.Command, _ []string) error {
		return current.analyze()
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
