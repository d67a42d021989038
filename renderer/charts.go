// Package renderer draws the pipeline's report figures as SVG bar charts
// and, optionally, rasterizes them to PNG with headless Chrome.
package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"

	"github.com/rouhat/antimicrobial-resistance-analysis/models"
)

const (
	colorHigh      = "#d62728"
	colorMedium    = "#ff7f0e"
	colorLow       = "#2ca02c"
	colorNeutral   = "steelblue"
	colorThreshold = "darkgreen"
)

// Bar is one horizontal bar.
type Bar struct {
	Label string
	Value float64
	Color string
	Note  string
}

// Guide is a dashed vertical reference line at Value.
type Guide struct {
	Value float64
	Color string
	Label string
}

// BarChart is a horizontal bar chart, first bar on top.
type BarChart struct {
	Name   string // file name without extension
	Title  string
	XLabel string
	Max    float64
	Bars   []Bar
	Guides []Guide
}

// ResistanceChart shows the topN most resistant antibiotics. summaries are
// expected in the aggregator's order, most resistant first.
func ResistanceChart(summaries []models.ResistanceSummary, topN int) BarChart {
	c := BarChart{
		Name:   "resistance_rates_top20",
		Title:  fmt.Sprintf("Top %d Antibiotics by Resistance Rate", topN),
		XLabel: "Resistance Rate (%)",
		Max:    100,
		Guides: []Guide{{Value: 50, Color: colorMedium}, {Value: 80, Color: colorHigh}},
	}
	for i, s := range summaries {
		if i == topN {
			break
		}
		rate := s.ResistanceRate * 100
		c.Bars = append(c.Bars, Bar{
			Label: s.Antibiotic,
			Value: rate,
			Color: rateColor(rate),
			Note:  fmt.Sprintf("%.1f%% (n=%d)", rate, s.Total),
		})
	}
	return c
}

// SensitivityChart shows the topN antibiotics with the highest sensitivity.
func SensitivityChart(summaries []models.ResistanceSummary, topN int) BarChart {
	ranked := append([]models.ResistanceSummary(nil), summaries...)
	sortBySensitivity(ranked)

	c := BarChart{
		Name:   "highest_sensitivity",
		Title:  "Most Effective Antibiotics (Highest Sensitivity)",
		XLabel: "Sensitivity Rate (%)",
		Max:    100,
		Guides: []Guide{{Value: 80, Color: colorThreshold, Label: "80% threshold"}},
	}
	for i, s := range ranked {
		if i == topN {
			break
		}
		rate := s.SensitivityRate() * 100
		c.Bars = append(c.Bars, Bar{
			Label: s.Antibiotic,
			Value: rate,
			Color: colorLow,
			Note:  fmt.Sprintf("%.1f%%", rate),
		})
	}
	return c
}

// OrganismChart shows how many isolates each organism contributed.
func OrganismChart(counts []models.Count) BarChart {
	total := 0
	max := 0
	for _, c := range counts {
		total += c.N
		if c.N > max {
			max = c.N
		}
	}

	c := BarChart{
		Name:   "organism_distribution",
		Title:  fmt.Sprintf("Bacterial Isolate Distribution (n=%d)", total),
		XLabel: "Number of Isolates",
		Max:    niceCeil(float64(max)),
	}
	for _, oc := range counts {
		c.Bars = append(c.Bars, Bar{
			Label: oc.Label,
			Value: float64(oc.N),
			Color: colorNeutral,
			Note:  fmt.Sprintf("%d (%.1f%%)", oc.N, float64(oc.N)/float64(total)*100),
		})
	}
	return c
}

func sortBySensitivity(s []models.ResistanceSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		ri, rj := s[i].SensitivityRate(), s[j].SensitivityRate()
		if ri != rj {
			return ri > rj
		}
		return s[i].Antibiotic < s[j].Antibiotic
	})
}

func rateColor(pct float64) string {
	switch {
	case pct >= 80:
		return colorHigh
	case pct >= 50:
		return colorMedium
	default:
		return colorLow
	}
}

// niceCeil rounds up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if v <= step*mag {
			return step * mag
		}
	}
	return 10 * mag
}

// Geometry, in SVG user units.
const (
	chartWidth   = 960.0
	labelWidth   = 240.0
	noteWidth    = 130.0
	barHeight    = 24.0
	barGap       = 10.0
	headerHeight = 60.0
	footerHeight = 60.0
)

type svgBar struct {
	Y, W, TextY, NoteX float64
	Label, Note, Color string
}

type svgGuide struct {
	X, LabelY    float64
	Color, Label string
}

type svgData struct {
	Width, Height    float64
	TitleX           float64
	LabelX, PlotX    float64
	PlotTop, PlotEnd float64
	AxisX, AxisY     float64
	BarHeight        float64
	Title, XLabel    string
	Bars             []svgBar
	Guides           []svgGuide
}

var svgTemplate = template.Must(template.New("chart").Funcs(template.FuncMap{
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" id="chart" width="{{num .Width}}" height="{{num .Height}}" viewBox="0 0 {{num .Width}} {{num .Height}}" font-family="Helvetica, Arial, sans-serif">
<rect width="100%" height="100%" fill="#ffffff"/>
<text x="{{num .TitleX}}" y="34" text-anchor="middle" font-size="20" font-weight="bold">{{.Title}}</text>
{{- range .Bars}}
<text x="{{num $.LabelX}}" y="{{num .TextY}}" text-anchor="end" font-size="13">{{.Label}}</text>
<rect x="{{num $.PlotX}}" y="{{num .Y}}" width="{{num .W}}" height="{{num $.BarHeight}}" fill="{{.Color}}" fill-opacity="0.7"/>
<text x="{{num .NoteX}}" y="{{num .TextY}}" font-size="12">{{.Note}}</text>
{{- end}}
{{- range .Guides}}
<line x1="{{num .X}}" y1="{{num $.PlotTop}}" x2="{{num .X}}" y2="{{num $.PlotEnd}}" stroke="{{.Color}}" stroke-width="2" stroke-dasharray="6 4" stroke-opacity="0.6"/>
{{- if .Label}}
<text x="{{num .X}}" y="{{num .LabelY}}" text-anchor="middle" font-size="12" fill="{{.Color}}">{{.Label}}</text>
{{- end}}
{{- end}}
<text x="{{num .AxisX}}" y="{{num .AxisY}}" text-anchor="middle" font-size="14" font-weight="bold">{{.XLabel}}</text>
</svg>
`))

// SVG renders the chart. The output is deterministic for a given chart.
func (c BarChart) SVG() ([]byte, error) {
	plotWidth := chartWidth - labelWidth - noteWidth - 20
	plotX := labelWidth + 10
	n := float64(len(c.Bars))
	plotEnd := headerHeight + n*(barHeight+barGap)

	max := c.Max
	if max <= 0 {
		max = 1
	}
	scale := func(v float64) float64 {
		return math.Max(0, math.Min(v, max)) / max * plotWidth
	}

	d := svgData{
		Width:     chartWidth,
		Height:    plotEnd + footerHeight,
		TitleX:    chartWidth / 2,
		LabelX:    labelWidth,
		PlotX:     plotX,
		PlotTop:   headerHeight - barGap/2,
		PlotEnd:   plotEnd,
		AxisX:     plotX + plotWidth/2,
		AxisY:     plotEnd + 40,
		BarHeight: barHeight,
		Title:     c.Title,
		XLabel:    c.XLabel,
	}
	for i, b := range c.Bars {
		y := headerHeight + float64(i)*(barHeight+barGap)
		w := scale(b.Value)
		d.Bars = append(d.Bars, svgBar{
			Y:     y,
			W:     w,
			TextY: y + barHeight*0.7,
			NoteX: plotX + w + 6,
			Label: b.Label,
			Note:  b.Note,
			Color: b.Color,
		})
	}
	for _, g := range c.Guides {
		d.Guides = append(d.Guides, svgGuide{
			X:      plotX + scale(g.Value),
			Color:  g.Color,
			Label:  g.Label,
			LabelY: plotEnd + 18,
		})
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render %s: %w", c.Name, err)
	}
	return buf.Bytes(), nil
}
