package storage

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rouhat/antimicrobial-resistance-analysis/models"
)

// ReadIsolates loads a cleaned table. The antibiotic and result columns are
// required and every result must be canonical; anything else means the
// file was not produced by the cleaner and is reported as models.ErrContract.
// The isolate column is optional; blank ids read as zero.
func (CSVStore) ReadIsolates(path string) ([]models.Isolate, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	t, err := buildTable(path, records)
	if err != nil {
		return nil, err
	}

	idx := columnIndex(t.Header)
	if err := requireColumns(path, idx, "antibiotic", "result"); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrContract, err)
	}

	isolates := make([]models.Isolate, 0, len(t.Rows))
	for i, row := range t.Rows {
		res, ok := models.ParseResult(cell(row, idx, "result"))
		if !ok {
			return nil, fmt.Errorf("%w: %s row %d: result %q is not canonical",
				models.ErrContract, path, i+2, cell(row, idx, "result"))
		}
		abx := cell(row, idx, "antibiotic")
		if abx == "" {
			return nil, fmt.Errorf("%w: %s row %d: empty antibiotic", models.ErrContract, path, i+2)
		}
		var id int
		if raw := cell(row, idx, "isolate"); raw != "" {
			id, err = strconv.Atoi(raw)
			if err != nil || id < 1 {
				return nil, fmt.Errorf("%w: %s row %d: isolate %q is not a positive integer",
					models.ErrContract, path, i+2, raw)
			}
		}
		isolates = append(isolates, models.Isolate{
			IsolateID:    id,
			Organism:     cell(row, idx, "organism"),
			Antibiotic:   abx,
			Result:       res,
			Age:          cell(row, idx, "age"),
			Sex:          cell(row, idx, "sex"),
			SpecimenType: cell(row, idx, "specimen_type"),
		})
	}
	return isolates, nil
}

// ReadSummary loads a per-antibiotic summary table written by WriteSummary.
// A header-only table is valid and yields no rows.
func (CSVStore) ReadSummary(path string) ([]models.ResistanceSummary, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w: no header row", path, models.ErrEmptyInput)
	}

	idx := columnIndex(records[0])
	if err := requireColumns(path, idx, models.SummaryColumns...); err != nil {
		return nil, err
	}

	t, err := buildTable(path, records)
	if errors.Is(err, models.ErrEmptyInput) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.ResistanceSummary, 0, len(t.Rows))
	for i, row := range t.Rows {
		var (
			s    = models.ResistanceSummary{Organism: cell(row, idx, "organism"), Antibiotic: cell(row, idx, "antibiotic")}
			errs []error
		)
		s.Total, errs = parseInt(row, idx, "total", errs)
		s.Resistant, errs = parseInt(row, idx, "resistant", errs)
		s.Sensitive, errs = parseInt(row, idx, "sensitive", errs)
		s.Intermediate, errs = parseInt(row, idx, "intermediate", errs)
		s.ResistanceRate, errs = parseFloat(row, idx, "resistance_rate", errs)
		s.CILower, errs = parseFloat(row, idx, "ci_lower", errs)
		s.CIUpper, errs = parseFloat(row, idx, "ci_upper", errs)
		if len(errs) > 0 {
			return nil, fmt.Errorf("csv: %s row %d: %w", path, i+2, errs[0])
		}
		out = append(out, s)
	}
	return out, nil
}

func parseInt(row []string, idx map[string]int, col string, errs []error) (int, []error) {
	n, err := strconv.Atoi(cell(row, idx, col))
	if err != nil {
		return 0, append(errs, fmt.Errorf("column %s: %w", col, err))
	}
	return n, errs
}

func parseFloat(row []string, idx map[string]int, col string, errs []error) (float64, []error) {
	f, err := strconv.ParseFloat(cell(row, idx, col), 64)
	if err != nil {
		return 0, append(errs, fmt.Errorf("column %s: %w", col, err))
	}
	return f, errs
}
