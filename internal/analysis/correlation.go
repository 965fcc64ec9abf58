package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

func correlate(cols []*table.Column, w *warnings) (*CorrelationResult, error) {
	if len(cols) < 2 {
		return nil, &InsufficientColumnsError{Mode: ModeCorrelation, Need: 2, Got: len(cols)}
	}
	num := numericOnly(cols, w)
	if len(num) < 2 {
		return nil, &InsufficientColumnsError{Mode: ModeCorrelation, Need: 2, Got: len(num), Numeric: true}
	}

	names := columnNames(num)
	m := make(map[string]map[string]float64, len(num))
	for _, n := range names {
		m[n] = make(map[string]float64, len(num))
		m[n][n] = 1
	}
	for i := 0; i < len(num); i++ {
		for j := i + 1; j < len(num); j++ {
			r, ok := pearson(num[i], num[j])
			if !ok {
				w.add("correlation of %q and %q is undefined (zero variance or too few rows); reported as 0", names[i], names[j])
			}
			m[names[i]][names[j]] = r
			m[names[j]][names[i]] = r
		}
	}
	return &CorrelationResult{Columns: names, Matrix: m}, nil
}

// pearson correlates the rows where both columns hold numbers. ok is false,
// and r is 0, when the coefficient is undefined.
func pearson(a, b *table.Column) (r float64, ok bool) {
	xs := make([]float64, 0, a.Len())
	ys := make([]float64, 0, a.Len())
	for i := range a.Values {
		va, vb := a.Values[i], b.Values[i]
		if va.Kind == table.KindNumber && vb.Kind == table.KindNumber {
			xs = append(xs, va.Num)
			ys = append(ys, vb.Num)
		}
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return 0, false
	}
	r = stat.Correlation(xs, ys, nil)
	if !isFinite(r) {
		return 0, false
	}
	// Rounding can push |r| a hair past 1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
