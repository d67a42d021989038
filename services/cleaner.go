package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/models"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

// Cleaner turns a raw AST table into canonical Isolate records.
type Cleaner struct {
	pipeline *config.Pipeline
	logger   *utils.Logger
}

// NewCleaner creates a Cleaner for the given pipeline configuration.
func NewCleaner(p *config.Pipeline, logger *utils.Logger) *Cleaner {
	return &Cleaner{pipeline: p, logger: logger}
}

// candidate is one long-format row before normalization.
type candidate struct {
	isolate                      int
	organism, antibiotic, result string
	age, sex, specimen           string
}

// columns is the resolved header of a raw table.
type columns struct {
	index      map[string]int // canonical kept column -> position
	antibiotic []wideColumn   // wide layout only
	dropped    []string
	wide       bool
}

type wideColumn struct {
	pos  int
	name string
}

// Clean validates the header, prunes columns, melts wide tables and
// normalizes every row. Rows with blank, unrecognized or incomplete values
// are dropped and counted in the report. The table is not modified.
func (c *Cleaner) Clean(t *models.Table) ([]models.Isolate, *models.CleanReport, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, nil, models.ErrEmptyInput
	}

	cols, err := c.resolve(t)
	if err != nil {
		return nil, nil, err
	}
	if len(cols.dropped) > 0 {
		c.logger.Info("[cleaner] Dropping %d column(s) not on the keep list: %s",
			len(cols.dropped), strings.Join(cols.dropped, ", "))
	}

	report := &models.CleanReport{
		RawRows:        len(t.Rows),
		DroppedColumns: cols.dropped,
		UnknownCodes:   make(map[string]int),
	}

	result := make([]models.Isolate, 0, len(t.Rows))
	for i, row := range t.Rows {
		for _, cand := range cols.melt(row, i+1) {
			report.LongRows++
			iso, ok := c.normalise(cand, report)
			if ok {
				result = append(result, iso)
			}
		}
	}
	report.Kept = len(result)

	c.logger.Info("[cleaner] Cleaned %d → %d test rows (unrecognized %d, missing %d, incomplete %d)",
		report.LongRows, report.Kept, report.Unrecognized, report.Missing, report.Incomplete)
	for _, code := range sortedKeys(report.UnknownCodes) {
		c.logger.Warn("[cleaner] Unrecognized result code %q dropped %d time(s)", code, report.UnknownCodes[code])
	}

	if len(result) == 0 {
		return nil, report, fmt.Errorf("%s: %w", t.Source, models.ErrNoValidRows)
	}
	return result, report, nil
}

// resolve maps raw headers onto canonical names and decides the layout.
func (c *Cleaner) resolve(t *models.Table) (*columns, error) {
	p := c.pipeline
	cols := &columns{index: make(map[string]int)}

	canonical := make([]string, len(t.Header))
	for i, h := range t.Header {
		key := config.HeaderKey(h)
		if alias, ok := p.ColumnAliases[key]; ok {
			key = alias
		}
		canonical[i] = key
	}

	var wide []wideColumn
	for i, h := range t.Header {
		if p.Keeps(canonical[i]) {
			continue
		}
		if name, ok := c.wideAntibiotic(h); ok {
			wide = append(wide, wideColumn{pos: i, name: name})
		}
	}

	hasResult := contains(canonical, "result")
	switch p.Layout {
	case config.LayoutWide:
		cols.wide = true
	case config.LayoutAuto:
		cols.wide = !hasResult && len(wide) > 0
	}

	isWide := make(map[int]bool, len(wide))
	if cols.wide {
		cols.antibiotic = wide
		for _, w := range wide {
			isWide[w.pos] = true
		}
	}

	for i, key := range canonical {
		if isWide[i] {
			continue
		}
		if !p.Keeps(key) {
			cols.dropped = append(cols.dropped, t.Header[i])
			continue
		}
		if _, dup := cols.index[key]; dup {
			cols.dropped = append(cols.dropped, t.Header[i])
			continue
		}
		cols.index[key] = i
	}

	var missing []string
	if cols.wide {
		if _, ok := cols.index["organism"]; !ok {
			missing = append(missing, "organism")
		}
		if len(cols.antibiotic) == 0 {
			missing = append(missing, fmt.Sprintf("antibiotic columns (\"<panel>%s<name>\" or prefixed %s)",
				p.WideSeparator, strings.Join(p.WidePrefixes, "/")))
		}
	} else {
		for _, req := range config.RequiredColumns {
			if _, ok := cols.index[req]; !ok {
				missing = append(missing, req)
			}
		}
	}
	if len(missing) > 0 {
		return nil, &models.MissingColumnError{Source: t.Source, Columns: missing}
	}
	return cols, nil
}

// wideAntibiotic reports whether a raw header names an antibiotic column of
// a wide table, and the antibiotic it names.
func (c *Cleaner) wideAntibiotic(header string) (string, bool) {
	p := c.pipeline
	if i := strings.Index(header, p.WideSeparator); i >= 0 {
		name := config.CollapseSpace(header[i+len(p.WideSeparator):])
		return name, name != ""
	}
	for _, prefix := range p.WidePrefixes {
		if prefix != "" && strings.HasPrefix(header, prefix) {
			return config.CollapseSpace(strings.ReplaceAll(header, "_", " ")), true
		}
	}
	return "", false
}

// melt expands one raw row into long-format candidates that share the
// row's isolate ordinal.
func (cols *columns) melt(row []string, isolate int) []candidate {
	base := candidate{
		isolate:  isolate,
		organism: cols.cell(row, "organism"),
		age:      cols.cell(row, "age"),
		sex:      cols.cell(row, "sex"),
		specimen: cols.cell(row, "specimen_type"),
	}
	if !cols.wide {
		base.antibiotic = cols.cell(row, "antibiotic")
		base.result = cols.cell(row, "result")
		return []candidate{base}
	}

	out := make([]candidate, 0, len(cols.antibiotic))
	for _, w := range cols.antibiotic {
		cand := base
		cand.antibiotic = w.name
		if w.pos < len(row) {
			cand.result = row[w.pos]
		}
		out = append(out, cand)
	}
	return out
}

func (cols *columns) cell(row []string, name string) string {
	i, ok := cols.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// normalise applies the normalization tables to one candidate and records
// why it was dropped, if it was.
func (c *Cleaner) normalise(cand candidate, report *models.CleanReport) (models.Isolate, bool) {
	code := config.ResultKey(cand.result)
	if code == "" {
		report.Missing++
		return models.Isolate{}, false
	}

	organism := config.CollapseSpace(cand.organism)
	antibiotic := c.normaliseAntibiotic(cand.antibiotic)
	if organism == "" || antibiotic == "" {
		report.Incomplete++
		c.logger.Debug("[cleaner] Dropping incomplete row: organism=%q antibiotic=%q", organism, antibiotic)
		return models.Isolate{}, false
	}

	canonical, ok := c.pipeline.ResultCodes[code]
	if !ok {
		report.Unrecognized++
		report.UnknownCodes[code]++
		return models.Isolate{}, false
	}

	return models.Isolate{
		IsolateID:    cand.isolate,
		Organism:     organism,
		Antibiotic:   antibiotic,
		Result:       models.Result(canonical),
		Age:          normaliseAge(cand.age),
		Sex:          c.normaliseSex(cand.sex),
		SpecimenType: config.CollapseSpace(cand.specimen),
	}, true
}

func (c *Cleaner) normaliseAntibiotic(s string) string {
	name := config.CollapseSpace(s)
	if alias, ok := c.pipeline.AntibioticAliases[strings.ToLower(name)]; ok {
		return alias
	}
	return name
}

func (c *Cleaner) normaliseSex(s string) string {
	if v, ok := c.pipeline.SexCodes[config.ResultKey(s)]; ok {
		return v
	}
	return config.CollapseSpace(s)
}

// normaliseAge renders whole-number ages without a decimal part, so "34.0"
// from a spreadsheet becomes "34". Anything else is kept as text.
func normaliseAge(s string) string {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
