package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

func TestDistributionNumericAndCategorical(t *testing.T) {
	tb := mustTable(t,
		numeric("n", 1, 2, 3, 4, 5, 6, 7, 8),
		categorical("c", "a", "b", "a", "a", "b", "c", "a", "b"),
	)
	res := run(t, tb, ModeDistribution, "n", "c")
	require.Len(t, res.Distribution.Columns, 2)

	n := res.Distribution.Columns[0]
	assert.Equal(t, "numerical", n.Type)
	assert.Empty(t, n.Error)
	require.NotNil(t, n.Numeric)
	assert.InDelta(t, 0, n.Numeric.Skewness, 1e-12)
	assert.InDelta(t, 48.5625/27.5625-3, n.Numeric.Kurtosis, 1e-12)
	assert.GreaterOrEqual(t, n.Numeric.PValue, 0.0)
	assert.LessOrEqual(t, n.Numeric.PValue, 1.0)
	assert.Equal(t, n.Numeric.PValue > 0.05, n.Numeric.IsNormal)
	assert.Equal(t, []int{2, 2, 2, 2}, n.Numeric.Histogram.Counts)
	assert.Equal(t, []float64{1, 2.75, 4.5, 6.25, 8}, n.Numeric.Histogram.Edges)

	c := res.Distribution.Columns[1]
	assert.Equal(t, "categorical", c.Type)
	require.NotNil(t, c.Categorical)
	assert.Equal(t, 8, c.Categorical.TotalCount)
	assert.Equal(t, 3, c.Categorical.UniqueCount)
	assert.Equal(t, []ValueCount{{"a", 4}, {"b", 3}, {"c", 1}}, c.Categorical.Distribution)
}

func TestDistributionErrorTaggedEntries(t *testing.T) {
	tb := mustTable(t,
		numeric("ok", 3, 1, 4, 1, 5, 9, 2, 6, 5, 3),
		numeric("flat", 2, 2, 2, 2, 2, 2, 2, 2, 2, 2),
		fewValues(),
	)

	res := run(t, tb, ModeDistribution, "ok", "flat", "few")
	cols := res.Distribution.Columns
	require.Len(t, cols, 3)
	assert.Empty(t, cols[0].Error)
	assert.NotNil(t, cols[0].Numeric)

	assert.Contains(t, cols[1].Error, "zero variance")
	assert.Nil(t, cols[1].Numeric)

	assert.Contains(t, cols[2].Error, "at least 8")
	assert.Nil(t, cols[2].Numeric)
	assert.Len(t, res.Warnings, 2)
}

// fewValues has five numbers and five missing cells.
func fewValues() *table.Column {
	c := numeric("few", 1, 2, 3, 4, 5)
	for i := 0; i < 5; i++ {
		c.Values = append(c.Values, table.Missing())
	}
	return c
}

func TestNormalTestAgreesOnNormalLikeSample(t *testing.T) {
	// A symmetric, bell-shaped sample should not be rejected.
	xs := []float64{-2, -1.5, -1, -1, -0.5, -0.5, -0.5, 0, 0, 0, 0, 0.5, 0.5, 0.5, 1, 1, 1.5, 2}
	nd, err := numericDistribution(xs)
	require.NoError(t, err)
	assert.True(t, nd.IsNormal, "p=%v", nd.PValue)

	// A heavily skewed sample should be.
	skewed := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 3, 50, 100}
	nd, err = numericDistribution(skewed)
	require.NoError(t, err)
	assert.False(t, nd.IsNormal, "p=%v", nd.PValue)
	assert.Greater(t, nd.Skewness, 0.0)
}

func TestNumericDistributionReferenceValues(t *testing.T) {
	// Reference values from scipy.stats.skew/kurtosis/normaltest and
	// numpy.histogram(bins="auto").
	xs := []float64{3.1, 2.7, 5.9, 4.4, 1.2, 8.8, 3.3, 2.2, 6.1, 4.0, 9.5, 0.4, 3.7}
	nd, err := numericDistribution(xs)
	require.NoError(t, err)
	assert.InDelta(t, 0.65079819234937, nd.Skewness, 1e-12)
	assert.InDelta(t, -0.40445368151983, nd.Kurtosis, 1e-12)
	assert.InDelta(t, 0.454374923623598, nd.PValue, 1e-9)
	assert.True(t, nd.IsNormal)

	assert.Equal(t, []int{3, 5, 1, 2, 2}, nd.Histogram.Counts)
	require.Len(t, nd.Histogram.Edges, 6)
	assert.InDelta(t, 0.4, nd.Histogram.Edges[0], 1e-12)
	assert.InDelta(t, 2.22, nd.Histogram.Edges[1], 1e-12)
	assert.InDelta(t, 9.5, nd.Histogram.Edges[5], 1e-12)
}

func TestAutoHistogram(t *testing.T) {
	h, err := AutoHistogram([]float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, h.Counts)
	assert.Equal(t, []float64{4.5, 5.5}, h.Edges)

	h, err = AutoHistogram([]float64{0, 10})
	require.NoError(t, err)
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 2, total)
	assert.Len(t, h.Edges, len(h.Counts)+1)
	assert.Equal(t, 0.0, h.Edges[0])
	assert.Equal(t, 10.0, h.Edges[len(h.Edges)-1])

	h, err = AutoHistogram(nil)
	require.NoError(t, err)
	assert.Empty(t, h.Counts)
}

func TestAutoHistogramRejectsOutlierRange(t *testing.T) {
	xs := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1e15}
	_, err := AutoHistogram(xs)
	assert.ErrorIs(t, err, ErrTooManyBins)

	_, err = AutoHistogram([]float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1e308})
	assert.ErrorIs(t, err, ErrTooManyBins)
}

func TestDistributionTagsOutlierColumn(t *testing.T) {
	tb := mustTable(t,
		numeric("spike", 0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1e15),
		numeric("ok", 3, 1, 4, 1, 5, 9, 2, 6, 5, 3),
	)
	res := run(t, tb, ModeDistribution, "spike", "ok")
	cols := res.Distribution.Columns
	require.Len(t, cols, 2)
	assert.Contains(t, cols[0].Error, "too many histogram bins")
	assert.Nil(t, cols[0].Numeric)
	assert.Empty(t, cols[1].Error)
	assert.Len(t, res.Warnings, 1)
}

func TestValueCountsMergesSignedZeros(t *testing.T) {
	c := numeric("z", 0, 0, 1)
	c.Values[1] = table.Number(math.Copysign(0, -1))
	assert.Equal(t, []ValueCount{{"0", 2}, {"1", 1}}, ValueCounts(c))
}
