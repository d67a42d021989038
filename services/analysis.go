package services

import (
	"math"
	"sort"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/models"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

// Analyzer derives clinical tables from the summary and cleaned records.
type Analyzer struct {
	pipeline *config.Pipeline
	logger   *utils.Logger
}

func NewAnalyzer(p *config.Pipeline, logger *utils.Logger) *Analyzer {
	return &Analyzer{pipeline: p, logger: logger}
}

// FirstLine lists antibiotics with enough tests whose sensitivity rate
// reaches the first-line threshold, most sensitive first. The effectiveness
// score is the sensitivity percentage weighted by ln(1+total).
func (a *Analyzer) FirstLine(summaries []models.ResistanceSummary) []models.FirstLineTreatment {
	out := make([]models.FirstLineTreatment, 0)
	for _, s := range summaries {
		if s.Total < a.pipeline.FirstLineMinTests {
			continue
		}
		rate := s.SensitivityRate()
		if rate < a.pipeline.FirstLineThreshold {
			continue
		}
		out = append(out, models.FirstLineTreatment{
			Antibiotic:         s.Antibiotic,
			Total:              s.Total,
			SensitivityRate:    rate,
			EffectivenessScore: rate * 100 * math.Log1p(float64(s.Total)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SensitivityRate != out[j].SensitivityRate {
			return out[i].SensitivityRate > out[j].SensitivityRate
		}
		return out[i].Antibiotic < out[j].Antibiotic
	})

	a.logger.Info("[analysis] %d antibiotic(s) qualify as first-line (sensitivity >= %.0f%%, n >= %d)",
		len(out), a.pipeline.FirstLineThreshold*100, a.pipeline.FirstLineMinTests)
	return out
}

// MDR lists organisms resistant to at least mdr_threshold distinct
// antibiotics, most resistant first.
func (a *Analyzer) MDR(isolates []models.Isolate) []models.MDROrganism {
	type tally struct {
		names     spellings
		tests     int
		resistant map[string]struct{}
	}
	byOrganism := make(map[string]*tally)

	for _, iso := range isolates {
		key := groupKey(iso.Organism)
		t, ok := byOrganism[key]
		if !ok {
			t = &tally{names: spellings{}, resistant: make(map[string]struct{})}
			byOrganism[key] = t
		}
		t.names.add(iso.Organism)
		t.tests++
		if iso.Result == models.Resistant {
			t.resistant[groupKey(iso.Antibiotic)] = struct{}{}
		}
	}

	out := make([]models.MDROrganism, 0)
	for _, t := range byOrganism {
		if len(t.resistant) < a.pipeline.MDRThreshold {
			continue
		}
		out = append(out, models.MDROrganism{
			Organism:             t.names.best(),
			ResistantAntibiotics: len(t.resistant),
			Tests:                t.tests,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ResistantAntibiotics != out[j].ResistantAntibiotics {
			return out[i].ResistantAntibiotics > out[j].ResistantAntibiotics
		}
		return out[i].Organism < out[j].Organism
	})

	a.logger.Info("[analysis] %d organism(s) resistant to >= %d antibiotics", len(out), a.pipeline.MDRThreshold)
	return out
}

// OrganismCounts tallies isolates per organism, most frequent first.
// Spellings that differ only in case or spacing are merged.
func OrganismCounts(isolates []models.Isolate) []models.Count {
	names := make(map[string]spellings)
	counts := make(map[string]int)
	for _, iso := range distinctIsolates(isolates) {
		key := groupKey(iso.Organism)
		if names[key] == nil {
			names[key] = spellings{}
		}
		names[key].add(iso.Organism)
		counts[key]++
	}

	byName := make(map[string]int, len(counts))
	for key, n := range counts {
		byName[names[key].best()] = n
	}
	return rankCounts(byName, 0)
}

// distinctIsolates keeps the first record of every isolate, in input
// order. Records without an isolate id each count as their own isolate.
func distinctIsolates(isolates []models.Isolate) []models.Isolate {
	seen := make(map[int]bool)
	out := make([]models.Isolate, 0, len(isolates))
	for _, iso := range isolates {
		if iso.IsolateID > 0 {
			if seen[iso.IsolateID] {
				continue
			}
			seen[iso.IsolateID] = true
		}
		out = append(out, iso)
	}
	return out
}
