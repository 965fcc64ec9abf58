// Package clean turns a freshly ingested table into an analysis-ready one:
// exact duplicate rows are dropped, missing cells are imputed and column types
// are finalised. It also provides z-score normalization and table inspection.
package clean

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// DefaultPinned lists the columns that stay categorical whatever they contain.
var DefaultPinned = []string{"产品类别", "地区", "product category", "region"}

// Options configures Clean.
type Options struct {
	// Pinned columns are imputed and typed as categorical. Matching ignores case.
	Pinned []string
	Logger *slog.Logger
}

// DefaultOptions returns the built-in pinned set and a discarding logger.
func DefaultOptions() Options {
	return Options{Pinned: DefaultPinned}
}

// Report describes what Clean changed.
type Report struct {
	RowsBefore        int            `json:"rows_before" yaml:"rows_before"`
	RowsAfter         int            `json:"rows_after" yaml:"rows_after"`
	DuplicatesRemoved int            `json:"duplicates_removed" yaml:"duplicates_removed"`
	Imputed           map[string]int `json:"imputed,omitempty" yaml:"imputed,omitempty"`
	Coerced           []string       `json:"coerced,omitempty" yaml:"coerced,omitempty"`
	Pinned            []string       `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// Clean deduplicates, imputes and finalises column types, in that order.
// The input table is not modified. The result has no missing cells.
func Clean(t *table.Table, opt Options) (*table.Table, Report, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	rep := Report{RowsBefore: t.NumRows(), Imputed: map[string]int{}}

	deduped, err := dedupe(t)
	if err != nil {
		return nil, rep, err
	}
	rep.RowsAfter = deduped.NumRows()
	rep.DuplicatesRemoved = rep.RowsBefore - rep.RowsAfter

	pinned := pinnedSet(opt.Pinned)
	out := make([]*table.Column, 0, deduped.NumCols())
	for _, c := range deduped.Columns() {
		_, isPinned := pinned[strings.ToLower(c.Name)]
		col, n, err := impute(c, isPinned)
		if err != nil {
			return nil, rep, err
		}
		if n > 0 {
			rep.Imputed[c.Name] = n
		}
		if isPinned {
			col = forceCategorical(col)
			rep.Pinned = append(rep.Pinned, c.Name)
		} else if p := probeNumeric(col); p.ok {
			if col.Type != table.Numeric {
				rep.Coerced = append(rep.Coerced, c.Name)
			}
			col = p.column(col.Name)
		} else if col.Type == table.Numeric {
			col = forceCategorical(col)
		}
		out = append(out, col)
	}
	cleaned, err := table.New(out)
	if err != nil {
		return nil, rep, err
	}
	log.Debug("table cleaned",
		"rows_before", rep.RowsBefore,
		"rows_after", rep.RowsAfter,
		"imputed_columns", len(rep.Imputed),
		"coerced_columns", len(rep.Coerced))
	return cleaned, rep, nil
}

func pinnedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return set
}

// dedupe keeps the first occurrence of every distinct row, in order.
func dedupe(t *table.Table) (*table.Table, error) {
	n := t.NumRows()
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.Reset()
		for _, v := range t.Row(i) {
			writeKey(&b, v)
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == n {
		return t, nil
	}
	src := t.Columns()
	cols := make([]*table.Column, len(src))
	for j, c := range src {
		vals := make([]table.Value, len(keep))
		for r, i := range keep {
			vals[r] = c.Values[i]
		}
		cols[j] = &table.Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	return table.New(cols)
}

func writeKey(b *strings.Builder, v table.Value) {
	switch v.Kind {
	case table.KindNumber:
		b.WriteByte('n')
		f := v.Num
		if f == 0 {
			f = 0 // -0 and 0 are one value
		}
		b.WriteString(strconv.FormatUint(math.Float64bits(f), 16))
	case table.KindText:
		b.WriteByte('s')
		b.WriteString(strconv.Itoa(len(v.Str)))
		b.WriteByte(':')
		b.WriteString(v.Str)
	default:
		b.WriteByte('m')
	}
	b.WriteByte(0x1f)
}

// impute fills missing cells. Numeric columns get the mean of present values,
// everything else (and every pinned column) gets the mode.
func impute(c *table.Column, pinned bool) (*table.Column, int, error) {
	missing := c.MissingCount()
	if missing == 0 {
		return c, 0, nil
	}
	if missing == c.Len() {
		return nil, 0, &EmptyColumnError{Column: c.Name}
	}
	var fill table.Value
	if c.Type == table.Numeric && !pinned {
		fill = table.Number(stat.Mean(c.Floats(), nil))
	} else {
		fill = mode(c.Values)
	}
	out := c.Clone()
	for i, v := range out.Values {
		if v.IsMissing() {
			out.Values[i] = fill
		}
	}
	return out, missing, nil
}

// mode returns the most frequent present value. On ties the value that
// first reached the winning count wins.
func mode(vals []table.Value) table.Value {
	counts := make(map[table.Value]int)
	var best table.Value
	bestN := 0
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		counts[v]++
		if n := counts[v]; n > bestN {
			best, bestN = v, n
		}
	}
	return best
}

func forceCategorical(c *table.Column) *table.Column {
	out := &table.Column{Name: c.Name, Type: table.Categorical, Values: make([]table.Value, c.Len())}
	for i, v := range c.Values {
		if v.Kind == table.KindNumber {
			out.Values[i] = table.Text(table.FormatNumber(v.Num))
			continue
		}
		out.Values[i] = v
	}
	return out
}

// numericProbe is the outcome of trying to read every cell as a number.
type numericProbe struct {
	ok     bool
	values []float64
	// bad is the index of the first cell that did not parse when !ok.
	bad int
}

func (p numericProbe) column(name string) *table.Column {
	c := &table.Column{Name: name, Type: table.Numeric, Values: make([]table.Value, len(p.values))}
	for i, f := range p.values {
		c.Values[i] = table.Number(f)
	}
	return c
}

// probeNumeric succeeds iff the column is non-empty and every cell is a
// finite number or text that parses as one.
func probeNumeric(c *table.Column) numericProbe {
	if c.Len() == 0 {
		return numericProbe{bad: -1}
	}
	vals := make([]float64, c.Len())
	for i, v := range c.Values {
		switch v.Kind {
		case table.KindNumber:
			if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
				return numericProbe{bad: i}
			}
			vals[i] = v.Num
		case table.KindText:
			f, ok := parseFinite(v.Str)
			if !ok {
				return numericProbe{bad: i}
			}
			vals[i] = f
		default:
			return numericProbe{bad: i}
		}
	}
	return numericProbe{ok: true, values: vals, bad: -1}
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
