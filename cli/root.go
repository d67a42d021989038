// Package cli wires the pipeline stages into the amr command.
package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/storage"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

var (
	envFile      string
	pipelinePath string
	verbose      bool
)

// newLogger is swapped out by tests.
var newLogger = utils.NewLoggerLevel

var rootCmd = &cobra.Command{
	Use:   "amr",
	Short: "Clean and summarise antimicrobial susceptibility data",
	Long: `amr turns a lab export of antimicrobial susceptibility tests into a cleaned
table, per-antibiotic resistance rates with Wilson confidence intervals,
clinical summary tables and report figures.

Each stage reads the previous stage's output file, so stages can be run
one at a time or all together with "amr run".`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default .env)")
	rootCmd.PersistentFlags().StringVar(&pipelinePath, "pipeline", "", "pipeline YAML overriding the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// app is what every stage needs, built once per invocation.
type app struct {
	cfg      *config.Config
	pipeline *config.Pipeline
	logger   *utils.Logger
	reader   storage.TableReader
	store    storage.Store
}

var current *app

func setup(_ *cobra.Command, _ []string) error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, found := config.Load(envFiles...)

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := newLogger(level).With("run_id", uuid.NewString())
	if !found {
		logger.Debug("[config] No .env file loaded, using process environment")
	}

	path := pipelinePath
	if path == "" {
		path = cfg.PipelinePath
	}
	p, err := config.LoadPipeline(path)
	if err != nil {
		return err
	}

	current = &app{
		cfg:      cfg,
		pipeline: p,
		logger:   logger,
		reader:   storage.FileReader{Sheet: cfg.Sheet},
		store:    storage.CSVStore{},
	}
	return nil
}

// Execute runs the command line and flushes the logger.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if current != nil {
		current.logger.Sync()
	}
	return err
}
