package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()

	assert.Equal(t, LayoutAuto, p.Layout)
	assert.Equal(t, []string{"organism", "antibiotic", "result", "age", "sex", "specimen_type"}, p.KeepColumns)
	assert.Equal(t, "Resistant", p.ResultCodes["RESISTANT"])
	assert.Equal(t, "Sensitive", p.ResultCodes["SUSCEPTIBLE"])
	assert.Equal(t, "Intermediate", p.ResultCodes["I"])
	assert.Equal(t, "organism", p.ColumnAliases["organism_identified"])
	assert.Equal(t, 1, p.MinTests)
	assert.InDelta(t, 0.95, p.Confidence, 1e-12)
}

func TestParsePipelineOverrideMergesMaps(t *testing.T) {
	p, err := ParsePipeline([]byte(`
min_tests: 30
result_codes:
  "non-susceptible": Resistant
antibiotic_aliases:
  AMP: Ampicillin
`))
	require.NoError(t, err)

	assert.Equal(t, 30, p.MinTests)
	assert.Equal(t, "Resistant", p.ResultCodes["NON-SUSCEPTIBLE"])
	assert.Equal(t, "Resistant", p.ResultCodes["R"], "defaults survive the merge")
	assert.Equal(t, "Ampicillin", p.AntibioticAliases["amp"])
}

func TestParsePipelineRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"confidence", "confidence: 1.5"},
		{"layout", "layout: diagonal"},
		{"result value", "result_codes: {X: Unknown}"},
		{"keep list", "keep_columns: [organism, antibiotic]"},
		{"mdr", "mdr_threshold: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipeline([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadPipelineFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("confidence: 0.9\n"), 0o644))

	p, err := LoadPipeline(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, p.Confidence, 1e-12)

	_, err = LoadPipeline(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestHeaderKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Organism Identified", "organism_identified"},
		{"Age (years)", "age_years"},
		{"  Sample Type ", "sample_type"},
		{"_submission_time", "submission_time"},
		{"RESULT", "result"},
		{"specimen-type", "specimen_type"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeaderKey(tt.in), tt.in)
	}
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "R", ResultKey(" r "))
	assert.Equal(t, "NON SUSCEPTIBLE", ResultKey("non   susceptible"))
}
