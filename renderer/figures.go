package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rouhat/antimicrobial-resistance-analysis/models"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

// Bars per antibiotic chart.
const (
	TopN            = 20
	SensitivityTopN = 15
)

// PNGRenderer rasterizes an SVG document.
type PNGRenderer interface {
	PNG(ctx context.Context, name string, svg []byte) ([]byte, error)
}

// Generator writes the report figures into a directory.
type Generator struct {
	dir    string
	png    PNGRenderer
	logger *utils.Logger
}

// NewGenerator creates a Generator. png may be nil, in which case only SVG
// files are written.
func NewGenerator(dir string, png PNGRenderer, logger *utils.Logger) *Generator {
	return &Generator{dir: dir, png: png, logger: logger}
}

// Charts builds the standard figure set.
func Charts(summaries []models.ResistanceSummary, organisms []models.Count) []BarChart {
	return []BarChart{
		ResistanceChart(summaries, TopN),
		OrganismChart(organisms),
		SensitivityChart(summaries, SensitivityTopN),
	}
}

// Write renders every chart and returns the paths written.
func (g *Generator) Write(ctx context.Context, charts []BarChart) ([]string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create figures dir: %w", err)
	}

	var written []string
	for _, c := range charts {
		if len(c.Bars) == 0 {
			g.logger.Warn("[figures] %s has no data, skipped", c.Name)
			continue
		}

		svg, err := c.SVG()
		if err != nil {
			return written, err
		}
		path := filepath.Join(g.dir, c.Name+".svg")
		if err := writeFile(path, svg); err != nil {
			return written, err
		}
		written = append(written, path)
		g.logger.Info("[figures] Saved %s", path)

		if g.png == nil {
			continue
		}
		img, err := g.png.PNG(ctx, c.Name, svg)
		if err != nil {
			return written, err
		}
		path = filepath.Join(g.dir, c.Name+".png")
		if err := writeFile(path, img); err != nil {
			return written, err
		}
		written = append(written, path)
		g.logger.Info("[figures] Saved %s", path)
	}
	return written, nil
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	// CreateTemp uses 0600 and the rename keeps it.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
