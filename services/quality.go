package services

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rouhat/antimicrobial-resistance-analysis/models"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

const topOrganisms = 5

type QualityService struct {
	logger *utils.Logger
}

func NewQualityService(logger *utils.Logger) *QualityService {
	return &QualityService{logger: logger}
}

// Generate assesses the cleaned records. Demographics, specimen types and
// organisms are counted once per isolate; the resistance rate is over all
// tests. report may be nil when the records were read back from disk.
func (s *QualityService) Generate(isolates []models.Isolate, report *models.CleanReport) *models.QualityReport {
	r := &models.QualityReport{Tests: len(isolates), Clean: report}
	if report != nil {
		r.RawRows = report.RawRows
	}
	if len(isolates) == 0 {
		return r
	}

	resistant := 0
	for _, iso := range isolates {
		if iso.Result == models.Resistant {
			resistant++
		}
	}
	r.OverallResistance = float64(resistant) / float64(len(isolates))

	distinct := distinctIsolates(isolates)
	r.Isolates = len(distinct)

	empty := 0
	specimens := make(map[string]int)
	for _, iso := range distinct {
		for _, v := range []string{iso.Age, iso.Sex, iso.SpecimenType} {
			if v == "" {
				empty++
			}
		}
		if age, err := strconv.ParseFloat(iso.Age, 64); err == nil && age >= 0 {
			r.ValidAges++
		}
		specimen := iso.SpecimenType
		if specimen == "" {
			specimen = "Unknown"
		}
		specimens[specimen]++
	}

	r.MissingDemographics = round2(float64(empty) / float64(len(distinct)*3) * 100)
	r.SpecimenTypes = rankCounts(specimens, 0)
	r.TopOrganisms = OrganismCounts(isolates)
	if len(r.TopOrganisms) > topOrganisms {
		r.TopOrganisms = r.TopOrganisms[:topOrganisms]
	}
	return r
}

// rankCounts sorts a frequency map by count descending, then label. A
// positive limit truncates the result.
func rankCounts(m map[string]int, limit int) []models.Count {
	out := make([]models.Count, 0, len(m))
	for label, n := range m {
		out = append(out, models.Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	goodStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Print renders the report for a terminal.
func (s *QualityService) Print(w io.Writer, r *models.QualityReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(sep))
	fmt.Fprintf(w, "%s\n", titleStyle.Render("  QUALITY ASSESSMENT"))
	fmt.Fprintf(w, "%s\n\n", titleStyle.Render(sep))

	fmt.Fprintf(w, "%s\n", sectionStyle.Render("  Overview"))
	fmt.Fprintf(w, "  %s\n", thin)
	if r.RawRows > 0 {
		fmt.Fprintf(w, "  Raw rows              : %s\n", valueStyle.Render(strconv.Itoa(r.RawRows)))
	}
	fmt.Fprintf(w, "  Isolates              : %s\n", valueStyle.Render(strconv.Itoa(r.Isolates)))
	fmt.Fprintf(w, "  Tests kept            : %s\n", valueStyle.Render(strconv.Itoa(r.Tests)))
	fmt.Fprintf(w, "  Missing demographics  : %s\n", valueStyle.Render(fmt.Sprintf("%.1f%%", r.MissingDemographics)))
	if r.Isolates > 0 {
		fmt.Fprintf(w, "  Valid age records     : %s\n", valueStyle.Render(
			fmt.Sprintf("%d/%d (%.1f%%)", r.ValidAges, r.Isolates, float64(r.ValidAges)/float64(r.Isolates)*100)))
	}
	fmt.Fprintln(w)

	if c := r.Clean; c != nil {
		fmt.Fprintf(w, "%s\n", sectionStyle.Render("  Cleaning"))
		fmt.Fprintf(w, "  %s\n", thin)
		style := goodStyle
		if c.Warnings() > 0 {
			style = warnStyle
		}
		fmt.Fprintf(w, "  Warnings              : %s\n", style.Render(strconv.Itoa(c.Warnings())))
		fmt.Fprintf(w, "    unrecognized codes  : %d\n", c.Unrecognized)
		fmt.Fprintf(w, "    missing results     : %d\n", c.Missing)
		fmt.Fprintf(w, "    incomplete rows     : %d\n", c.Incomplete)
		fmt.Fprintf(w, "  Dropped columns       : %d\n", len(c.DroppedColumns))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\n", sectionStyle.Render("  Sample type distribution"))
	fmt.Fprintf(w, "  %s\n", thin)
	printCounts(w, r.SpecimenTypes, r.Isolates)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", sectionStyle.Render(fmt.Sprintf("  Top %d organisms", topOrganisms)))
	fmt.Fprintf(w, "  %s\n", thin)
	printCounts(w, r.TopOrganisms, r.Isolates)

	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(sep))
	fmt.Fprintf(w, "  OVERALL RESISTANCE RATE: %s\n",
		warnStyle.Render(fmt.Sprintf("%.1f%%", r.OverallResistance*100)))
	fmt.Fprintf(w, "%s\n\n", titleStyle.Render(sep))
}

func printCounts(w io.Writer, counts []models.Count, total int) {
	if len(counts) == 0 || total == 0 {
		fmt.Fprintf(w, "  No data\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(w, "  %-30s %5d (%.1f%%)\n", truncate(c.Label, 28), c.N, float64(c.N)/float64(total)*100)
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
