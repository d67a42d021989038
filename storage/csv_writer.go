package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rouhat/antimicrobial-resistance-analysis/models"
)

// CSVWriter writes one table to a temporary file next to its destination
// and renames it into place on Commit, so readers never see a partial file
// and a failed run leaves the previous output untouched.
type CSVWriter struct {
	path      string
	file      *os.File
	writer    *csv.Writer
	committed bool
}

// NewCSVWriter creates the temporary file and writes the header row.
// Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("csv: create temp file for %q: %w", path, err)
	}
	// CreateTemp uses 0600 and the rename keeps it.
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("csv: chmod temp file for %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &CSVWriter{path: path, file: f, writer: w}, nil
}

// Write appends one row.
func (c *CSVWriter) Write(row []string) error {
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	return nil
}

// Commit flushes the rows and atomically replaces the destination file.
func (c *CSVWriter) Commit() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("csv: flush %q: %w", c.path, err)
	}
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("csv: close %q: %w", c.path, err)
	}
	if err := os.Rename(c.file.Name(), c.path); err != nil {
		return fmt.Errorf("csv: replace %q: %w", c.path, err)
	}
	c.committed = true
	return nil
}

// Close discards the temporary file unless Commit succeeded. Safe to defer.
func (c *CSVWriter) Close() error {
	if c.committed {
		return nil
	}
	_ = c.file.Close()
	return os.Remove(c.file.Name())
}

// writeTable is the common body of every table writer.
func writeTable(path string, header []string, rows [][]string) error {
	w, err := NewCSVWriter(path, header)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Commit()
}

// CSVStore reads and writes the pipeline's comma-separated tables.
type CSVStore struct{}

// WriteIsolates writes the cleaned table in input order.
func (CSVStore) WriteIsolates(path string, isolates []models.Isolate) error {
	rows := make([][]string, 0, len(isolates))
	for _, iso := range isolates {
		id := ""
		if iso.IsolateID > 0 {
			id = strconv.Itoa(iso.IsolateID)
		}
		rows = append(rows, []string{
			id, iso.Organism, iso.Antibiotic, string(iso.Result), iso.Age, iso.Sex, iso.SpecimenType,
		})
	}
	return writeTable(path, models.CleanedColumns, rows)
}

// WriteSummary writes aggregate rows in the order given. With byOrganism
// the organism column is prepended.
func (CSVStore) WriteSummary(path string, summaries []models.ResistanceSummary, byOrganism bool) error {
	header := models.SummaryColumns
	if byOrganism {
		header = append([]string{"organism"}, models.SummaryColumns...)
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		row := []string{
			s.Antibiotic,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Resistant),
			strconv.Itoa(s.Sensitive),
			strconv.Itoa(s.Intermediate),
			formatFloat(s.ResistanceRate),
			formatFloat(s.CILower),
			formatFloat(s.CIUpper),
		}
		if byOrganism {
			row = append([]string{s.Organism}, row...)
		}
		rows = append(rows, row)
	}
	return writeTable(path, header, rows)
}

// WriteFirstLine writes the first-line treatment table.
func (CSVStore) WriteFirstLine(path string, treatments []models.FirstLineTreatment) error {
	rows := make([][]string, 0, len(treatments))
	for _, t := range treatments {
		rows = append(rows, []string{
			t.Antibiotic,
			strconv.Itoa(t.Total),
			formatFloat(t.SensitivityRate),
			formatFloat(t.EffectivenessScore),
		})
	}
	return writeTable(path, []string{"antibiotic", "total", "sensitivity_rate", "effectiveness_score"}, rows)
}

// WriteMDR writes the multi-drug resistant organism table.
func (CSVStore) WriteMDR(path string, organisms []models.MDROrganism) error {
	rows := make([][]string, 0, len(organisms))
	for _, o := range organisms {
		rows = append(rows, []string{
			o.Organism,
			strconv.Itoa(o.ResistantAntibiotics),
			strconv.Itoa(o.Tests),
		})
	}
	return writeTable(path, []string{"organism", "resistant_antibiotics", "tests"}, rows)
}

// formatFloat renders the shortest representation that parses back to f.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
