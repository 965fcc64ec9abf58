package clean

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// Info is the shape and per-column summary of a table.
type Info struct {
	Rows    int          `json:"rows" yaml:"rows"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name    string           `json:"name" yaml:"name"`
	Type    table.ColumnType `json:"type" yaml:"type"`
	Missing int              `json:"missing" yaml:"missing"`
}

// Names returns the column names in order.
func (i Info) Names() []string {
	out := make([]string, len(i.Columns))
	for k, c := range i.Columns {
		out[k] = c.Name
	}
	return out
}

// Describe reports the table's shape, column types and missing counts.
func Describe(t *table.Table) Info {
	info := Info{Rows: t.NumRows()}
	for _, c := range t.Columns() {
		info.Columns = append(info.Columns, ColumnInfo{Name: c.Name, Type: c.Type, Missing: c.MissingCount()})
	}
	return info
}

// ColumnStat holds per-column statistics. The numeric fields are set only
// for numeric columns with at least one value.
type ColumnStat struct {
	Name    string           `json:"name" yaml:"name"`
	Type    table.ColumnType `json:"type" yaml:"type"`
	Count   int              `json:"count" yaml:"count"`
	Missing int              `json:"missing" yaml:"missing"`
	Unique  int              `json:"unique" yaml:"unique"`
	Mean    *float64         `json:"mean,omitempty" yaml:"mean,omitempty"`
	Median  *float64         `json:"median,omitempty" yaml:"median,omitempty"`
	Std     *float64         `json:"std,omitempty" yaml:"std,omitempty"`
}

// ColumnStats computes ColumnStat for one column.
func ColumnStats(t *table.Table, name string) (ColumnStat, error) {
	cols, err := t.Lookup(name)
	if err != nil {
		return ColumnStat{}, err
	}
	c := cols[0]
	cs := ColumnStat{Name: c.Name, Type: c.Type, Missing: c.MissingCount()}
	cs.Count = c.Len() - cs.Missing

	distinct := make(map[table.Value]struct{})
	for _, v := range c.Values {
		if !v.IsMissing() {
			distinct[v] = struct{}{}
		}
	}
	cs.Unique = len(distinct)

	if c.Type != table.Numeric {
		return cs, nil
	}
	xs := c.Floats()
	if len(xs) == 0 {
		return cs, nil
	}
	mean := stat.Mean(xs, nil)
	std := 0.0
	if len(xs) > 1 {
		std = stat.StdDev(xs, nil)
	}
	med := median(xs)
	cs.Mean, cs.Median, cs.Std = &mean, &med, &std
	return cs, nil
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
