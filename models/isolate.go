package models

import "strings"

// Result is the canonical susceptibility category of a single test.
type Result string

const (
	Resistant    Result = "Resistant"
	Sensitive    Result = "Sensitive"
	Intermediate Result = "Intermediate"
)

// Results lists the canonical categories in output order.
var Results = []Result{Resistant, Sensitive, Intermediate}

// ParseResult accepts only the canonical spelling of a category.
// Raw lab codes go through the cleaner's normalization table instead.
func ParseResult(s string) (Result, bool) {
	switch r := Result(strings.TrimSpace(s)); r {
	case Resistant, Sensitive, Intermediate:
		return r, true
	}
	return "", false
}

// Table is a raw tabular input exactly as read from disk.
// Header holds the first row; Rows holds every data row, padded or
// truncated to the header width.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// Isolate is one cleaned susceptibility test: a single organism tested
// against a single antibiotic. Tests melted from the same raw row share
// IsolateID, the 1-based data row they came from; zero means unknown and
// the record counts as an isolate of its own.
type Isolate struct {
	IsolateID    int
	Organism     string
	Antibiotic   string
	Result       Result
	Age          string
	Sex          string
	SpecimenType string
}

// CleanedColumns is the fixed header of the cleaned table.
var CleanedColumns = []string{"isolate", "organism", "antibiotic", "result", "age", "sex", "specimen_type"}

// CleanReport counts what the cleaner did to the raw rows.
type CleanReport struct {
	RawRows        int
	LongRows       int // rows after melting a wide layout; equals RawRows for long input
	Kept           int
	Unrecognized   int
	Missing        int
	Incomplete     int
	DroppedColumns []string
	UnknownCodes   map[string]int
}

// Warnings is the number of rows dropped for data-quality reasons.
func (r *CleanReport) Warnings() int {
	return r.Unrecognized + r.Missing + r.Incomplete
}
