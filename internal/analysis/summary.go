package analysis

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

const topValues = 5

func summarize(ctx context.Context, cols []*table.Column, w *warnings) (*SummaryResult, error) {
	out := &SummaryResult{Columns: make([]ColumnSummary, 0, len(cols))}
	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, summarizeColumn(c, w))
	}
	return out, nil
}

func summarizeColumn(c *table.Column, w *warnings) ColumnSummary {
	nulls := c.MissingCount()
	counts := ValueCounts(c)
	cs := ColumnSummary{
		Name:     c.Name,
		Type:     c.Type,
		NonNull:  c.Len() - nulls,
		Nulls:    nulls,
		Distinct: len(counts),
	}
	if c.Type == table.Numeric {
		xs := c.Floats()
		if len(xs) == 0 {
			w.add("column %q has no values", c.Name)
			return cs
		}
		cs.Numeric = numericSummary(xs)
		return cs
	}
	if len(counts) == 0 {
		w.add("column %q has no values", c.Name)
		return cs
	}
	top := counts
	if len(top) > topValues {
		top = top[:topValues]
	}
	cs.Categorical = &CategoricalSummary{
		MostFrequent: counts[0],
		Top:          append([]ValueCount(nil), top...),
	}
	return cs
}

func numericSummary(xs []float64) *NumericSummary {
	s := sortedCopy(xs)
	lo, hi := s[0], s[len(s)-1]
	std := 0.0
	// Sample deviation; a single value or a constant column has none.
	if len(s) > 1 && lo != hi {
		std = stat.StdDev(s, nil)
	}
	return &NumericSummary{
		Mean:   stat.Mean(s, nil),
		Median: quantile(s, 0.5),
		Std:    std,
		Min:    lo,
		Max:    hi,
		Quartiles: Quartiles{
			Q1: quantile(s, 0.25),
			Q2: quantile(s, 0.5),
			Q3: quantile(s, 0.75),
		},
	}
}
