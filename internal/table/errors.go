package table

import (
	"fmt"
	"strings"
)

// ColumnNotFoundError indicates one or more requested column names are absent.
type ColumnNotFoundError struct {
	Names []string
}

func (e *ColumnNotFoundError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("column %q does not exist", e.Names[0])
	}
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("columns do not exist: %s", strings.Join(quoted, ", "))
}

// ColumnTypeError indicates an operation was asked to treat a column as a
// type it does not have.
type ColumnTypeError struct {
	Column string
	Want   ColumnType
	Got    ColumnType
}

func (e *ColumnTypeError) Error() string {
	return fmt.Sprintf("column %q is %s, need %s", e.Column, e.Got, e.Want)
}
