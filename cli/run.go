package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var skipFigures bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage in order",
	Long: `Runs clean, aggregate, analyze and figures in order. The first failing
stage stops the run; later stages never see a partial result.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&skipFigures, "skip-figures", false, "stop after the analysis tables")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	a := current
	a.logger.Info("=== AMR pipeline starting ===")

	if err := a.clean(cmd.OutOrStdout()); err != nil {
		return err
	}
	if err := a.aggregate(true); err != nil {
		return err
	}
	if err := a.analyze(); err != nil {
		return err
	}
	if skipFigures {
		a.logger.Info("[run] Figures skipped")
	} else if err := a.figures(cmd.Context(), a.cfg.FiguresPNG); err != nil {
		return err
	}

	a.logger.Info("=== Done. Outputs written under %s and %s ===", filepath.Dir(a.cfg.SummaryPath), a.cfg.FiguresDir)
	return nil
}
