package analysis

import (
	"fmt"
	"strings"
)

// NoDataError indicates an analysis was requested before any table was loaded.
type NoDataError struct{}

func (e *NoDataError) Error() string { return "no table loaded; load a dataset first" }

// UnsupportedModeError indicates an unknown analysis mode.
type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("unsupported analysis mode %q (supported: %s)", e.Mode, strings.Join(ModeNames(), ", "))
}

// InsufficientColumnsError indicates a mode's column-count precondition is unmet.
type InsufficientColumnsError struct {
	Mode Mode
	Need int
	Got  int
	// Numeric is true when the count refers to numeric columns only.
	Numeric bool
}

func (e *InsufficientColumnsError) Error() string {
	kind := "columns"
	if e.Numeric {
		kind = "numeric columns"
	}
	return fmt.Sprintf("%s needs at least %d %s, got %d", e.Mode, e.Need, kind, e.Got)
}

// InsufficientRowsError indicates too few rows for the requested computation.
type InsufficientRowsError struct {
	Mode Mode
	Need int
	Got  int
}

func (e *InsufficientRowsError) Error() string {
	return fmt.Sprintf("%s needs at least %d rows, got %d", e.Mode, e.Need, e.Got)
}

// InvalidOptionError indicates a mode-specific option is out of range.
type InvalidOptionError struct {
	Option string
	Value  any
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Option, e.Value, e.Reason)
}

// InvalidRequestError indicates a malformed request, such as an empty column list.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return "invalid analysis request: " + e.Reason }
