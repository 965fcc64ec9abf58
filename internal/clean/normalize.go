package clean

import (
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// Normalize z-scores the named numeric columns using the population standard
// deviation. A zero-variance column is only centred. The returned table
// shares all other columns with t.
func Normalize(t *table.Table, columns []string) (*table.Table, error) {
	if len(columns) == 0 {
		return t, nil
	}
	cols, err := t.Lookup(columns...)
	if err != nil {
		return nil, err
	}
	repl := make([]*table.Column, 0, len(cols))
	for _, c := range cols {
		if c.Type != table.Numeric {
			return nil, &table.ColumnTypeError{Column: c.Name, Want: table.Numeric, Got: c.Type}
		}
		mean, std := stat.PopMeanStdDev(c.Floats(), nil)
		if std == 0 {
			std = 1
		}
		out := &table.Column{Name: c.Name, Type: table.Numeric, Values: make([]table.Value, c.Len())}
		for i, v := range c.Values {
			if v.Kind != table.KindNumber {
				out.Values[i] = v
				continue
			}
			out.Values[i] = table.Number((v.Num - mean) / std)
		}
		repl = append(repl, out)
	}
	return t.Replace(repl...)
}
