// Package table holds the in-memory representation of an uploaded dataset.
//
// A Table is an ordered set of named columns of equal length. Tables are
// treated as immutable once built: operations that change values return a
// new Table that shares every untouched column with its source.
package table

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind tags the content of a single cell.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// Value is one cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{Kind: KindMissing} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text wraps a text cell.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// String renders the cell the way it is shown to users and written on export.
// Numbers use the shortest decimal form that round-trips.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindText:
		return v.Str
	default:
		return ""
	}
}

// FormatNumber renders f in its shortest round-trip decimal form ("3", "2.5").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ColumnType is the inferred type governing which statistics apply.
type ColumnType uint8

const (
	Categorical ColumnType = iota
	Numeric
)

func (t ColumnType) String() string {
	if t == Numeric {
		return "numeric"
	}
	return "categorical"
}

// MarshalText lets the type appear by name in JSON and YAML output.
func (t ColumnType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Column is a named sequence of cells.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// Floats returns the numeric cells in row order, skipping anything else.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Kind == KindNumber {
			out = append(out, v.Num)
		}
	}
	return out
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: vals}
}

var (
	// ErrDuplicateColumn indicates two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrRaggedColumns indicates columns of different lengths.
	ErrRaggedColumns = errors.New("columns have different lengths")
)

// Table is an ordered collection of equal-length, uniquely named columns.
type Table struct {
	cols  []*Column
	index map[string]int
}

// New validates the column set and builds a Table. The columns are adopted,
// not copied; callers must not modify them afterwards.
func New(cols []*Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		t.index[c.Name] = i
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("%w: %q has %d rows, %q has %d",
				ErrRaggedColumns, c.Name, c.Len(), cols[0].Name, cols[0].Len())
		}
	}
	return t, nil
}

// NumRows returns the row count (0 for a table without columns).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order. The slice is a copy; the columns are shared.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Lookup resolves every name, reporting all absent names in one error.
func (t *Table) Lookup(names ...string) ([]*Column, error) {
	out := make([]*Column, 0, len(names))
	var missing []string
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		out = append(out, c)
	}
	if len(missing) > 0 {
		return nil, &ColumnNotFoundError{Names: missing}
	}
	return out, nil
}

// Row returns the cells of row i across all columns.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Replace returns a new Table in which each given column replaces the
// existing column of the same name. Other columns are shared.
func (t *Table) Replace(repl ...*Column) (*Table, error) {
	cols := t.Columns()
	for _, r := range repl {
		i, ok := t.index[r.Name]
		if !ok {
			return nil, &ColumnNotFoundError{Names: []string{r.Name}}
		}
		cols[i] = r
	}
	return New(cols)
}
