package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/models"
)

func TestAnalyzerFirstLine(t *testing.T) {
	a := NewAnalyzer(testPipeline(t, "first_line_min_tests: 10"), newTestLogger())
	summaries := []models.ResistanceSummary{
		{Antibiotic: "Ampicillin", Total: 15, Resistant: 13, Sensitive: 2},
		{Antibiotic: "Meropenem", Total: 12, Sensitive: 12},
		{Antibiotic: "Vancomycin", Total: 10, Sensitive: 9, Intermediate: 1},
		{Antibiotic: "Nitrofurantoin", Total: 5, Sensitive: 5},
		{Antibiotic: "Amikacin", Total: 12, Sensitive: 12},
	}

	got := a.FirstLine(summaries)
	require.Len(t, got, 3)

	assert.Equal(t, "Amikacin", got[0].Antibiotic, "ties sorted by name")
	assert.Equal(t, "Meropenem", got[1].Antibiotic)
	assert.Equal(t, "Vancomycin", got[2].Antibiotic)
	assert.InDelta(t, 0.9, got[2].SensitivityRate, 1e-12)
	assert.InDelta(t, 100*math.Log1p(12), got[0].EffectivenessScore, 1e-9)
}

func TestAnalyzerMDR(t *testing.T) {
	a := NewAnalyzer(config.DefaultPipeline(), newTestLogger())
	isolates := []models.Isolate{
		iso("E. coli", "Ampicillin", models.Resistant),
		iso("E. coli", "ampicillin", models.Resistant),
		iso("E. coli", "Ciprofloxacin", models.Resistant),
		iso("E. coli", "Ceftriaxone", models.Resistant),
		iso("E. coli", "Meropenem", models.Sensitive),
		iso("K. pneumoniae", "Ampicillin", models.Resistant),
		iso("K. pneumoniae", "Gentamicin", models.Resistant),
		iso("K. pneumoniae", "Ceftriaxone", models.Intermediate),
		iso("A. baumannii", "Ampicillin", models.Resistant),
		iso("A. baumannii", "Ciprofloxacin", models.Resistant),
		iso("A. baumannii", "Ceftriaxone", models.Resistant),
		iso("A. baumannii", "Meropenem", models.Resistant),
	}

	got := a.MDR(isolates)
	assert.Equal(t, []models.MDROrganism{
		{Organism: "A. baumannii", ResistantAntibiotics: 4, Tests: 4},
		{Organism: "E. coli", ResistantAntibiotics: 3, Tests: 5},
	}, got)
}

func TestAnalyzerEmpty(t *testing.T) {
	a := NewAnalyzer(config.DefaultPipeline(), newTestLogger())
	assert.Empty(t, a.FirstLine(nil))
	assert.Empty(t, a.MDR(nil))
}

func TestOrganismCounts(t *testing.T) {
	isolates := []models.Isolate{
		iso("E. coli", "Ampicillin", models.Resistant),
		iso("e.  coli", "Meropenem", models.Sensitive),
		iso("Klebsiella", "Ampicillin", models.Resistant),
		iso("Acinetobacter", "Ampicillin", models.Resistant),
	}

	got := OrganismCounts(isolates)
	want := []models.Count{
		{Label: "E. coli", N: 2},
		{Label: "Acinetobacter", N: 1},
		{Label: "Klebsiella", N: 1},
	}
	assert.Equal(t, want, got)
	assert.Empty(t, OrganismCounts(nil))
}

func TestOrganismCountsDistinctIsolates(t *testing.T) {
	isolates := []models.Isolate{
		{IsolateID: 1, Organism: "E. coli", Antibiotic: "Ampicillin", Result: models.Resistant},
		{IsolateID: 1, Organism: "E. coli", Antibiotic: "Meropenem", Result: models.Sensitive},
		{IsolateID: 2, Organism: "E. coli", Antibiotic: "Ampicillin", Result: models.Sensitive},
		{IsolateID: 3, Organism: "S. aureus", Antibiotic: "Vancomycin", Result: models.Sensitive},
		{IsolateID: 3, Organism: "S. aureus", Antibiotic: "Oxacillin", Result: models.Resistant},
	}

	assert.Equal(t, []models.Count{{Label: "E. coli", N: 2}, {Label: "S. aureus", N: 1}}, OrganismCounts(isolates))
}
