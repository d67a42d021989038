package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rouhat/antimicrobial-resistance-analysis/renderer"
	"github.com/rouhat/antimicrobial-resistance-analysis/services"
)

// clean reads the raw export, writes the cleaned table and prints the
// quality assessment to out.
func (a *app) clean(out io.Writer) error {
	logger := a.logger.With("stage", "clean")
	logger.Info("[clean] Reading %s", a.cfg.RawPath)

	table, err := a.reader.ReadTable(a.cfg.RawPath)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}

	isolates, report, err := services.NewCleaner(a.pipeline, logger).Clean(table)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}

	if err := a.store.WriteIsolates(a.cfg.CleanedPath, isolates); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	logger.Info("[clean] Saved %d rows to %s", len(isolates), a.cfg.CleanedPath)

	quality := services.NewQualityService(logger)
	quality.Print(out, quality.Generate(isolates, report))

	if n := report.Warnings(); n > 0 {
		logger.Warn("[clean] %d row(s) dropped: %d unrecognized, %d missing result, %d incomplete",
			n, report.Unrecognized, report.Missing, report.Incomplete)
	}
	return nil
}

// aggregate summarises the cleaned table per antibiotic and, optionally,
// per organism and antibiotic.
func (a *app) aggregate(byOrganism bool) error {
	logger := a.logger.With("stage", "aggregate")

	isolates, err := a.store.ReadIsolates(a.cfg.CleanedPath)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	agg := services.NewAggregator(a.pipeline, logger)
	summaries, err := agg.Aggregate(isolates)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	if err := a.store.WriteSummary(a.cfg.SummaryPath, summaries, false); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	logger.Info("[aggregate] Saved %d antibiotic(s) to %s", len(summaries), a.cfg.SummaryPath)

	if !byOrganism {
		return nil
	}
	pairs, err := agg.AggregateByOrganism(isolates)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	if err := a.store.WriteSummary(a.cfg.OrganismSummaryPath, pairs, true); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	logger.Info("[aggregate] Saved %d organism/antibiotic pair(s) to %s", len(pairs), a.cfg.OrganismSummaryPath)
	return nil
}

// analyze derives the first-line and multi-drug resistance tables.
func (a *app) analyze() error {
	logger := a.logger.With("stage", "analyze")

	summaries, err := a.store.ReadSummary(a.cfg.SummaryPath)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	isolates, err := a.store.ReadIsolates(a.cfg.CleanedPath)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	analyzer := services.NewAnalyzer(a.pipeline, logger)
	if err := a.store.WriteFirstLine(a.cfg.FirstLinePath, analyzer.FirstLine(summaries)); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if err := a.store.WriteMDR(a.cfg.MDRPath, analyzer.MDR(isolates)); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	logger.Info("[analyze] Saved %s and %s", a.cfg.FirstLinePath, a.cfg.MDRPath)
	return nil
}

// figures renders the report charts, rasterizing them when png is set.
func (a *app) figures(ctx context.Context, png bool) error {
	logger := a.logger.With("stage", "figures")

	summaries, err := a.store.ReadSummary(a.cfg.SummaryPath)
	if err != nil {
		return fmt.Errorf("figures: %w", err)
	}
	isolates, err := a.store.ReadIsolates(a.cfg.CleanedPath)
	if err != nil {
		return fmt.Errorf("figures: %w", err)
	}

	var raster renderer.PNGRenderer
	if png {
		r := renderer.NewRasterizer(renderer.RasterizerOptions{
			ChromeBin:  a.cfg.ChromeBin,
			Timeout:    time.Duration(a.cfg.RenderTimeout) * time.Second,
			MaxRetries: a.cfg.MaxRetries,
			RetryDelay: time.Duration(a.cfg.RetryBaseDelay) * time.Millisecond,
		}, logger)
		if err := r.Start(ctx); err != nil {
			return fmt.Errorf("figures: %w", err)
		}
		defer r.Close()
		raster = r
	}

	charts := renderer.Charts(summaries, services.OrganismCounts(isolates))
	paths, err := renderer.NewGenerator(a.cfg.FiguresDir, raster, logger).Write(ctx, charts)
	if err != nil {
		return fmt.Errorf("figures: %w", err)
	}
	logger.Info("[figures] Wrote %d file(s) to %s", len(paths), a.cfg.FiguresDir)
	return nil
}
