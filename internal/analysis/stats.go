package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func sortedCopy(xs []float64) []float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	return cp
}

// centralMoments returns the biased second, third and fourth central moments.
func centralMoments(xs []float64) (m2, m3, m4 float64) {
	n := float64(len(xs))
	mean := stat.Mean(xs, nil)
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	return m2 / n, m3 / n, m4 / n
}

// ValueCounts counts present cells by display value, ordered by count
// descending with ties in first-seen order.
func ValueCounts(c *table.Column) []ValueCount {
	idx := make(map[string]int)
	var out []ValueCount
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if v.Kind == table.KindNumber && v.Num == 0 {
			s = "0"
		}
		if i, ok := idx[s]; ok {
			out[i].Count++
			continue
		}
		idx[s] = len(out)
		out = append(out, ValueCount{Value: s, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// standardize z-scores each column of a row-major matrix in place with the
// population standard deviation. Zero-variance columns are only centred.
func standardize(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	p := len(rows[0])
	col := make([]float64, len(rows))
	for j := 0; j < p; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for _, r := range rows {
			r[j] = (r[j] - mean) / std
		}
	}
}

// numericMatrix gathers the rows where every column holds a number.
// kept lists the source row index of each returned row.
func numericMatrix(cols []*table.Column) (rows [][]float64, kept []int) {
	if len(cols) == 0 {
		return nil, nil
	}
	n := cols[0].Len()
	for i := 0; i < n; i++ {
		r := make([]float64, len(cols))
		ok := true
		for j, c := range cols {
			v := c.Values[i]
			if v.Kind != table.KindNumber {
				ok = false
				break
			}
			r[j] = v.Num
		}
		if ok {
			rows = append(rows, r)
			kept = append(kept, i)
		}
	}
	return rows, kept
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
