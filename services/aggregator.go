package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/models"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

// Aggregator computes per-antibiotic resistance summaries.
type Aggregator struct {
	pipeline *config.Pipeline
	logger   *utils.Logger
	z        float64
}

// NewAggregator creates an Aggregator using the pipeline's confidence level
// and minimum group size.
func NewAggregator(p *config.Pipeline, logger *utils.Logger) *Aggregator {
	return &Aggregator{pipeline: p, logger: logger, z: zScore(p.Confidence)}
}

// spellings counts the variants of one grouped name.
type spellings map[string]int

func (s spellings) add(name string) {
	s[config.CollapseSpace(name)]++
}

// best is the most frequent spelling, ties going to the smallest, so the
// choice does not depend on row order.
func (s spellings) best() string {
	best, n := "", 0
	for name, c := range s {
		if c > n || (c == n && name < best) {
			best, n = name, c
		}
	}
	return best
}

// bucket accumulates one group.
type bucket struct {
	organism   spellings
	antibiotic spellings
	rows       int
	counts     map[models.Result]int
}

func newBucket() *bucket {
	return &bucket{
		organism:   spellings{},
		antibiotic: spellings{},
		counts:     make(map[models.Result]int, len(models.Results)),
	}
}

func (b *bucket) add(iso models.Isolate, byOrganism bool) {
	b.rows++
	b.counts[iso.Result]++
	b.antibiotic.add(iso.Antibiotic)
	if byOrganism {
		b.organism.add(iso.Organism)
	}
}

// Aggregate groups isolates by antibiotic and returns summaries sorted by
// resistance rate descending, then antibiotic name.
func (a *Aggregator) Aggregate(isolates []models.Isolate) ([]models.ResistanceSummary, error) {
	return a.aggregate(isolates, false)
}

// AggregateByOrganism groups by organism and antibiotic, sorted by rate
// descending, then organism, then antibiotic.
func (a *Aggregator) AggregateByOrganism(isolates []models.Isolate) ([]models.ResistanceSummary, error) {
	return a.aggregate(isolates, true)
}

func (a *Aggregator) aggregate(isolates []models.Isolate, byOrganism bool) ([]models.ResistanceSummary, error) {
	groups := make(map[string]*bucket)
	for i, iso := range isolates {
		if _, ok := models.ParseResult(string(iso.Result)); !ok {
			return nil, fmt.Errorf("%w: record %d has result %q", models.ErrContract, i, iso.Result)
		}
		key := groupKey(iso.Antibiotic)
		if byOrganism {
			key = groupKey(iso.Organism) + "\x00" + key
		}
		b, ok := groups[key]
		if !ok {
			b = newBucket()
			groups[key] = b
		}
		b.add(iso, byOrganism)
	}

	out := make([]models.ResistanceSummary, 0, len(groups))
	skipped := 0
	for _, b := range groups {
		s, err := a.summarise(b)
		if err != nil {
			return nil, err
		}
		if s.Total < a.pipeline.MinTests {
			skipped++
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ResistanceRate != out[j].ResistanceRate {
			return out[i].ResistanceRate > out[j].ResistanceRate
		}
		if out[i].Organism != out[j].Organism {
			return out[i].Organism < out[j].Organism
		}
		return out[i].Antibiotic < out[j].Antibiotic
	})

	if skipped > 0 {
		a.logger.Info("[aggregator] %d group(s) below min_tests=%d not reported", skipped, a.pipeline.MinTests)
	}
	a.logger.Info("[aggregator] Summarised %d tests into %d group(s)", len(isolates), len(out))
	return out, nil
}

// summarise turns a bucket into a summary row and checks its invariants.
func (a *Aggregator) summarise(b *bucket) (models.ResistanceSummary, error) {
	s := models.ResistanceSummary{
		Organism:     b.organism.best(),
		Antibiotic:   b.antibiotic.best(),
		Resistant:    b.counts[models.Resistant],
		Sensitive:    b.counts[models.Sensitive],
		Intermediate: b.counts[models.Intermediate],
	}
	s.Total = s.Resistant + s.Sensitive + s.Intermediate

	if s.Total == 0 || s.Total != b.rows {
		return s, fmt.Errorf("%w: group %q has %d rows but category counts sum to %d",
			models.ErrInconsistent, s.Antibiotic, b.rows, s.Total)
	}

	s.ResistanceRate = float64(s.Resistant) / float64(s.Total)
	s.CILower, s.CIUpper = WilsonInterval(s.Resistant, s.Total, a.z)
	return s, nil
}

// groupKey is the case- and whitespace-insensitive form of a name.
func groupKey(s string) string {
	return strings.ToLower(config.CollapseSpace(s))
}
