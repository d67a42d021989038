package cli

import (
	"github.com/spf13/cobra"
)

var figuresPNG bool

var figuresCmd = &cobra.Command{
	Use:   "figures",
	Short: "Render the report charts",
	Long: `Writes SVG bar charts of the highest resistance rates, the organism
distribution and the most effective antibiotics. With --png (or
AMR_FIGURES_PNG=true) each chart is also rasterized with headless Chrome.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return current.figures(cmd.Context(), figuresPNG || current.cfg.FiguresPNG)
	},
}

func init() {
	figuresCmd.Flags().BoolVar(&figuresPNG, "png", false, "also write PNG files (needs Chrome)")
	rootCmd.AddCommand(figuresCmd)
}
