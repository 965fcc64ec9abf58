package clean

import "fmt"

// EmptyColumnError indicates a column with missing cells and no value to impute from.
type EmptyColumnError struct {
	Column string
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("column %q has no values to impute from", e.Column)
}
