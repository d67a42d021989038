package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/rouhat/antimicrobial-resistance-analysis/models"
)

//go:embed pipeline.yaml
var defaultPipeline []byte

// Layout names the shape of the raw input table.
type Layout string

const (
	LayoutAuto Layout = "auto"
	LayoutLong Layout = "long"
	LayoutWide Layout = "wide"
)

// RequiredColumns must survive header resolution in long layout.
var RequiredColumns = []string{"organism", "antibiotic", "result"}

// Pipeline is the explicit configuration passed into every stage.
type Pipeline struct {
	Layout            Layout            `yaml:"layout"`
	KeepColumns       []string          `yaml:"keep_columns"`
	ColumnAliases     map[string]string `yaml:"column_aliases"`
	WidePrefixes      []string          `yaml:"wide_prefixes"`
	WideSeparator     string            `yaml:"wide_separator"`
	ResultCodes       map[string]string `yaml:"result_codes"`
	SexCodes          map[string]string `yaml:"sex_codes"`
	AntibioticAliases map[string]string `yaml:"antibiotic_aliases"`

	MinTests   int     `yaml:"min_tests"`
	Confidence float64 `yaml:"confidence"`

	FirstLineThreshold float64 `yaml:"first_line_threshold"`
	FirstLineMinTests  int     `yaml:"first_line_min_tests"`
	MDRThreshold       int     `yaml:"mdr_threshold"`
}

// DefaultPipeline returns the embedded defaults, already validated.
func DefaultPipeline() *Pipeline {
	p, err := ParsePipeline(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded pipeline.yaml is invalid: %v", err))
	}
	return p
}

// LoadPipeline reads path on top of the embedded defaults. An empty path
// yields the defaults.
func LoadPipeline(path string) (*Pipeline, error) {
	if path == "" {
		return ParsePipeline(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read pipeline %q: %w", path, err)
	}
	p, err := ParsePipeline(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// ParsePipeline decodes override YAML on top of the embedded defaults and
// validates the result. Map keys in the override are merged into the
// default maps.
func ParsePipeline(override []byte) (*Pipeline, error) {
	p := &Pipeline{}
	if err := yaml.Unmarshal(defaultPipeline, p); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	if len(override) > 0 {
		if err := yaml.Unmarshal(override, p); err != nil {
			return nil, fmt.Errorf("decode pipeline: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the configuration and normalizes its lookup keys so the
// stages can match raw values directly.
func (p *Pipeline) Validate() error {
	var errs []error

	switch p.Layout {
	case "":
		p.Layout = LayoutAuto
	case LayoutAuto, LayoutLong, LayoutWide:
	default:
		errs = append(errs, fmt.Errorf("layout %q must be auto, long or wide", p.Layout))
	}

	keep := make([]string, 0, len(p.KeepColumns))
	for _, c := range p.KeepColumns {
		keep = append(keep, HeaderKey(c))
	}
	p.KeepColumns = keep
	for _, req := range RequiredColumns {
		if !p.Keeps(req) {
			errs = append(errs, fmt.Errorf("keep_columns must include %q", req))
		}
	}

	aliases := make(map[string]string, len(p.ColumnAliases))
	for k, v := range p.ColumnAliases {
		aliases[HeaderKey(k)] = HeaderKey(v)
	}
	p.ColumnAliases = aliases

	if len(p.ResultCodes) == 0 {
		errs = append(errs, errors.New("result_codes must not be empty"))
	}
	codes := make(map[string]string, len(p.ResultCodes))
	for k, v := range p.ResultCodes {
		r, ok := models.ParseResult(v)
		if !ok {
			errs = append(errs, fmt.Errorf("result_codes[%s]: %q is not Resistant, Sensitive or Intermediate", k, v))
			continue
		}
		codes[ResultKey(k)] = string(r)
	}
	p.ResultCodes = codes

	sex := make(map[string]string, len(p.SexCodes))
	for k, v := range p.SexCodes {
		sex[ResultKey(k)] = strings.TrimSpace(v)
	}
	p.SexCodes = sex

	abx := make(map[string]string, len(p.AntibioticAliases))
	for k, v := range p.AntibioticAliases {
		abx[strings.ToLower(CollapseSpace(k))] = CollapseSpace(v)
	}
	p.AntibioticAliases = abx

	if p.WideSeparator == "" {
		p.WideSeparator = " - "
	}
	if p.MinTests < 1 {
		p.MinTests = 1
	}
	if p.Confidence <= 0 || p.Confidence >= 1 {
		errs = append(errs, fmt.Errorf("confidence %v must be in (0,1)", p.Confidence))
	}
	if p.FirstLineThreshold < 0 || p.FirstLineThreshold > 1 {
		errs = append(errs, fmt.Errorf("first_line_threshold %v must be in [0,1]", p.FirstLineThreshold))
	}
	if p.MDRThreshold < 1 {
		errs = append(errs, fmt.Errorf("mdr_threshold %d must be at least 1", p.MDRThreshold))
	}

	return errors.Join(errs...)
}

// Keeps reports whether the canonical column name is on the allow-list.
func (p *Pipeline) Keeps(column string) bool {
	for _, c := range p.KeepColumns {
		if c == column {
			return true
		}
	}
	return false
}

// HeaderKey canonicalizes a column header: lowercase, with every run of
// non-alphanumeric characters replaced by a single underscore.
// "Age (years)" becomes "age_years".
func HeaderKey(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}

// ResultKey is the lookup form of a raw categorical code.
func ResultKey(s string) string {
	return strings.ToUpper(CollapseSpace(s))
}

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
