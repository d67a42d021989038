package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/models"
)

func iso(organism, antibiotic string, r models.Result) models.Isolate {
	return models.Isolate{Organism: organism, Antibiotic: antibiotic, Result: r}
}

func sampleIsolates() []models.Isolate {
	var out []models.Isolate
	add := func(org, abx string, r models.Result, n int) {
		for i := 0; i < n; i++ {
			out = append(out, iso(org, abx, r))
		}
	}
	add("E. coli", "Ampicillin", models.Resistant, 8)
	add("E. coli", "Ampicillin", models.Sensitive, 2)
	add("K. pneumoniae", "Ampicillin", models.Resistant, 5)
	add("E. coli", "Meropenem", models.Sensitive, 12)
	add("S. aureus", "Vancomycin", models.Sensitive, 9)
	add("S. aureus", "Vancomycin", models.Intermediate, 1)
	add("E. coli", "Ciprofloxacin", models.Resistant, 4)
	add("E. coli", "Ciprofloxacin", models.Intermediate, 2)
	add("E. coli", "Ciprofloxacin", models.Sensitive, 2)
	add("S. aureus", "Oxacillin", models.Resistant, 1)
	add("S. aureus", "Oxacillin", models.Sensitive, 1)
	return out
}

func TestAggregatorAmpicillinScenario(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())
	isolates := []models.Isolate{
		iso("E. coli", "Ampicillin", models.Resistant),
		iso("E. coli", "Ampicillin", models.Resistant),
		iso("E. coli", "Ampicillin", models.Sensitive),
	}

	got, err := a.Aggregate(isolates)
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "Ampicillin", s.Antibiotic)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Resistant)
	assert.Equal(t, 1, s.Sensitive)
	assert.Equal(t, 0, s.Intermediate)
	assert.InDelta(t, 0.667, s.ResistanceRate, 0.001)
	assert.InDelta(t, 0.20765960080204782, s.CILower, 1e-9)
	assert.InDelta(t, 0.9385080552796038, s.CIUpper, 1e-9)
}

func TestAggregatorInvariants(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())

	got, err := a.Aggregate(sampleIsolates())
	require.NoError(t, err)
	require.Len(t, got, 5)

	for _, s := range got {
		assert.Equal(t, s.Total, s.Resistant+s.Sensitive+s.Intermediate, s.Antibiotic)
		assert.GreaterOrEqual(t, s.Total, 1)
		assert.InDelta(t, float64(s.Resistant)/float64(s.Total), s.ResistanceRate, 1e-9)
		assert.True(t, s.ResistanceRate >= 0 && s.ResistanceRate <= 1)
		assert.LessOrEqual(t, s.CILower, s.ResistanceRate, s.Antibiotic)
		assert.GreaterOrEqual(t, s.CIUpper, s.ResistanceRate, s.Antibiotic)
	}
}

func TestAggregatorOrdering(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())

	got, err := a.Aggregate(sampleIsolates())
	require.NoError(t, err)

	var names []string
	for _, s := range got {
		names = append(names, s.Antibiotic)
	}
	// Ciprofloxacin 4/8 and Oxacillin 1/2 tie at 0.5; Meropenem and Vancomycin tie at 0.
	assert.Equal(t, []string{"Ampicillin", "Ciprofloxacin", "Oxacillin", "Meropenem", "Vancomycin"}, names)
}

func TestAggregatorPermutationInvariant(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())
	isolates := sampleIsolates()

	want, err := a.Aggregate(isolates)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Isolate(nil), isolates...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := a.Aggregate(shuffled)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("permutation %d changed the summary (-want +got):\n%s", i, diff)
		}
	}
}

func TestAggregatorGroupsCaseAndSpacing(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())
	isolates := []models.Isolate{
		iso("E. coli", "AMPICILLIN", models.Resistant),
		iso("E. coli", "Ampicillin ", models.Sensitive),
		iso("E. coli", "ampicillin", models.Sensitive),
		iso("E. coli", "Ampicillin", models.Sensitive),
		iso("E. coli", "Amoxicillin  Clavulanate", models.Sensitive),
		iso("E. coli", "amoxicillin clavulanate", models.Sensitive),
	}

	got, err := a.Aggregate(isolates)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Ampicillin", got[0].Antibiotic, "most frequent spelling wins")
	assert.Equal(t, 4, got[0].Total)
	assert.Equal(t, "Amoxicillin Clavulanate", got[1].Antibiotic, "ties go to the smallest spelling")
	assert.Equal(t, 2, got[1].Total)
}

func TestAggregatorMinTests(t *testing.T) {
	a := NewAggregator(testPipeline(t, "min_tests: 10"), newTestLogger())

	got, err := a.Aggregate(sampleIsolates())
	require.NoError(t, err)

	for _, s := range got {
		assert.GreaterOrEqual(t, s.Total, 10, s.Antibiotic)
	}
	assert.Len(t, got, 3)
}

func TestAggregatorByOrganism(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())

	got, err := a.AggregateByOrganism(sampleIsolates())
	require.NoError(t, err)

	var keys []string
	for _, s := range got {
		keys = append(keys, fmt.Sprintf("%s/%s=%d", s.Organism, s.Antibiotic, s.Total))
	}
	assert.Equal(t, []string{
		"K. pneumoniae/Ampicillin=5",
		"E. coli/Ampicillin=10",
		"E. coli/Ciprofloxacin=8",
		"S. aureus/Oxacillin=2",
		"E. coli/Meropenem=12",
		"S. aureus/Vancomycin=10",
	}, keys)
}

func TestAggregatorRejectsNonCanonicalResult(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())

	_, err := a.Aggregate([]models.Isolate{iso("E. coli", "Ampicillin", "R")})
	assert.ErrorIs(t, err, models.ErrContract)
}

func TestAggregatorInconsistentBucket(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())
	b := newBucket()
	b.add(iso("E. coli", "Ampicillin", models.Resistant), false)
	b.rows++

	_, err := a.summarise(b)
	assert.ErrorIs(t, err, models.ErrInconsistent)

	_, err = a.summarise(newBucket())
	assert.ErrorIs(t, err, models.ErrInconsistent)
}

func TestAggregatorEmptyInput(t *testing.T) {
	a := NewAggregator(config.DefaultPipeline(), newTestLogger())

	got, err := a.Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSpellingsBest(t *testing.T) {
	s := spellings{}
	for _, name := range []string{"AMP", "Ampicillin", "ampicillin", "Ampicillin ", "AMP"} {
		s.add(name)
	}
	assert.Equal(t, "Ampicillin", s.best())

	tie := spellings{}
	tie.add("b")
	tie.add("B")
	assert.Equal(t, "B", tie.best())
	assert.Equal(t, "", spellings{}.best())
}
