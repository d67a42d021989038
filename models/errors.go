package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when an input table has no data rows.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoValidRows is returned when cleaning drops every row.
	ErrNoValidRows = errors.New("no valid rows after cleaning")
	// ErrInconsistent marks an aggregate that breaks its own invariants.
	ErrInconsistent = errors.New("internal consistency violation")
	// ErrContract marks a cleaned table that the cleaner could not have produced.
	ErrContract = errors.New("cleaned table contract violated")
)

// MissingColumnError reports required columns absent from a table header.
type MissingColumnError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Source, strings.Join(e.Columns, ", "))
}
