package chart

import (
	"fmt"
	"strings"
)

// UnsupportedKindError is returned for an unknown chart kind.
type UnsupportedKindError struct{ Kind string }

func (e *UnsupportedKindError) Error() string {
	kinds := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		kinds = append(kinds, string(k))
	}
	return fmt.Sprintf("unsupported chart kind %q (use %s)", e.Kind, strings.Join(kinds, ", "))
}

// ColumnCountError is returned when a kind gets the wrong number of usable
// columns.
type ColumnCountError struct {
	Kind Kind
	Need string
	Got  int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("%s chart needs %s column(s), got %d", e.Kind, e.Need, e.Got)
}
