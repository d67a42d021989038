package models

// ResistanceSummary is one aggregate row per antibiotic, or per
// organism/antibiotic pair when Organism is set.
type ResistanceSummary struct {
	Organism       string
	Antibiotic     string
	Total          int
	Resistant      int
	Sensitive      int
	Intermediate   int
	ResistanceRate float64
	CILower        float64
	CIUpper        float64
}

// SensitivityRate is the share of sensitive results.
func (s *ResistanceSummary) SensitivityRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Sensitive) / float64(s.Total)
}

// SummaryColumns is the header of the per-antibiotic summary table.
var SummaryColumns = []string{
	"antibiotic", "total", "resistant", "sensitive", "intermediate",
	"resistance_rate", "ci_lower", "ci_upper",
}

// FirstLineTreatment is an antibiotic whose sensitivity clears the
// first-line threshold.
type FirstLineTreatment struct {
	Antibiotic         string
	Total              int
	SensitivityRate    float64
	EffectivenessScore float64
}

// MDROrganism is an organism resistant to several distinct antibiotics.
type MDROrganism struct {
	Organism             string
	ResistantAntibiotics int
	Tests                int
}

// QualityReport holds the data-quality assessment printed after cleaning.
type QualityReport struct {
	RawRows             int
	Isolates            int // distinct isolates with at least one kept test
	Tests               int
	MissingDemographics float64 // percent of empty age/sex/specimen cells, per isolate
	ValidAges           int
	SpecimenTypes       []Count
	TopOrganisms        []Count
	OverallResistance   float64
	Clean               *CleanReport
}

// Count is a labelled frequency.
type Count struct {
	Label string
	N     int
}
