package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

const (
	normalAlpha     = 0.05
	minNormalSample = 8
	// MaxHistogramBins bounds the auto rule when outliers shrink the bin width.
	MaxHistogramBins = 10000
)

var (
	errTooFewValues  = fmt.Errorf("normality test needs at least %d values", minNormalSample)
	errZeroVariance  = errors.New("column has zero variance")
	errNonFiniteStat = errors.New("statistic is not finite")

	// ErrTooManyBins is returned by AutoHistogram when the range would need
	// more than MaxHistogramBins bins.
	ErrTooManyBins = fmt.Errorf("too many histogram bins (limit %d)", MaxHistogramBins)
)

func distribute(ctx context.Context, cols []*table.Column, w *warnings) (*DistributionResult, error) {
	out := &DistributionResult{Columns: make([]ColumnDistribution, 0, len(cols))}
	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Type != table.Numeric {
			out.Columns = append(out.Columns, categoricalDistribution(c))
			continue
		}
		cd := ColumnDistribution{Name: c.Name, Type: "numerical"}
		nd, err := numericDistribution(c.Floats())
		if err != nil {
			cd.Error = "cannot compute distribution statistics: " + err.Error()
			w.add("distribution of %q: %v", c.Name, err)
		} else {
			cd.Numeric = nd
		}
		out.Columns = append(out.Columns, cd)
	}
	return out, nil
}

func categoricalDistribution(c *table.Column) ColumnDistribution {
	counts := ValueCounts(c)
	return ColumnDistribution{
		Name: c.Name,
		Type: "categorical",
		Categorical: &CategoricalDistribution{
			Distribution: counts,
			TotalCount:   c.Len(),
			UniqueCount:  len(counts),
		},
	}
}

func numericDistribution(xs []float64) (*NumericDistribution, error) {
	for _, x := range xs {
		if !isFinite(x) {
			return nil, errNonFiniteStat
		}
	}
	if len(xs) < minNormalSample {
		return nil, errTooFewValues
	}
	m2, m3, m4 := centralMoments(xs)
	if m2 == 0 {
		return nil, errZeroVariance
	}
	skew := m3 / math.Pow(m2, 1.5)
	kurt := m4/(m2*m2) - 3
	p, err := normalTest(float64(len(xs)), skew, kurt+3)
	if err != nil {
		return nil, err
	}
	h, err := AutoHistogram(xs)
	if err != nil {
		return nil, err
	}
	return &NumericDistribution{
		Skewness:  skew,
		Kurtosis:  kurt,
		PValue:    p,
		IsNormal:  p > normalAlpha,
		Histogram: h,
	}, nil
}

// normalTest is D'Agostino and Pearson's omnibus test. b1 is the sample
// skewness and b2 the (non-excess) sample kurtosis.
func normalTest(n, b1, b2 float64) (float64, error) {
	zs := skewZ(n, b1)
	zk := kurtosisZ(n, b2)
	k2 := zs*zs + zk*zk
	if !isFinite(k2) {
		return 0, errNonFiniteStat
	}
	p := distuv.ChiSquared{K: 2}.Survival(k2)
	if !isFinite(p) {
		return 0, errNonFiniteStat
	}
	return p, nil
}

func skewZ(n, b1 float64) float64 {
	y := b1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

func kurtosisZ(n, b2 float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}

// AutoHistogram bins xs with numpy's "auto" rule: the smaller of the
// Sturges and Freedman-Diaconis bin widths, falling back to Sturges when the
// interquartile range is zero.
func AutoHistogram(xs []float64) (Histogram, error) {
	if len(xs) == 0 {
		return Histogram{Counts: []int{}, Edges: []float64{}}, nil
	}
	s := sortedCopy(xs)
	lo, hi := s[0], s[len(s)-1]
	n := float64(len(s))
	ptp := hi - lo

	width := ptp / (math.Log2(n) + 1)
	if iqr := quantile(s, 0.75) - quantile(s, 0.25); iqr > 0 {
		if fd := 2 * iqr * math.Pow(n, -1.0/3); fd < width {
			width = fd
		}
	}

	first, last := lo, hi
	if first == last {
		first, last = first-0.5, last+0.5
	}
	bins := 1
	if width > 0 {
		nb := math.Ceil((last - first) / width)
		if !(nb <= MaxHistogramBins) {
			return Histogram{}, ErrTooManyBins
		}
		bins = int(nb)
		if bins < 1 {
			bins = 1
		}
	}

	edges := make([]float64, bins+1)
	step := (last - first) / float64(bins)
	for i := range edges {
		edges[i] = first + float64(i)*step
	}
	edges[bins] = last

	counts := make([]int, bins)
	norm := float64(bins) / (last - first)
	for _, x := range s {
		i := int((x - first) * norm)
		if i >= bins {
			i = bins - 1
		}
		if i > 0 && x < edges[i] {
			i--
		}
		if i < bins-1 && x >= edges[i+1] {
			i++
		}
		counts[i]++
	}
	return Histogram{Counts: counts, Edges: edges}, nil
}
