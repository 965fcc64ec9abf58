package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCA(t *testing.T) {
	tb := mustTable(t,
		numeric("x", 1, 2, 3, 4, 5),
		numeric("y", 2, 1, 4, 3, 5),
		categorical("c", "a", "b", "a", "b", "a"),
	)
	res := run(t, tb, ModePCA, "x", "y", "c")
	p := res.PCA

	assert.Equal(t, []string{"x", "y"}, p.FeatureNames)
	require.Len(t, p.ExplainedVarianceRatio, 2)
	assert.InDelta(t, 0.9, p.ExplainedVarianceRatio[0], 1e-9)
	assert.InDelta(t, 0.1, p.ExplainedVarianceRatio[1], 1e-9)

	sum := 0.0
	for _, r := range p.ExplainedVarianceRatio {
		assert.GreaterOrEqual(t, r, 0.0)
		sum += r
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	require.Len(t, p.Components, 2)
	for _, comp := range p.Components {
		assert.InDelta(t, 1.0, math.Hypot(comp[0], comp[1]), 1e-9)
		maxAbs := math.Max(math.Abs(comp[0]), math.Abs(comp[1]))
		assert.True(t, comp[0] == maxAbs || comp[1] == maxAbs, "largest loading must be positive: %v", comp)
	}

	require.Len(t, p.Transformed, 5)
	for _, row := range p.Transformed {
		assert.Len(t, row, 2)
	}
	// Projections onto each component are centred.
	for c := 0; c < 2; c++ {
		s := 0.0
		for _, row := range p.Transformed {
			s += row[c]
		}
		assert.InDelta(t, 0, s, 1e-9)
	}
}

func TestPCAPreconditions(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	tb := mustTable(t, numeric("x", 1, 2), categorical("c", "a", "b"))
	_, err := e.Analyze(ctx, tb, Request{Mode: ModePCA, Columns: []string{"x", "c"}})
	var ic *InsufficientColumnsError
	assert.ErrorAs(t, err, &ic)

	one := mustTable(t, numeric("x", 1), numeric("y", 2))
	_, err = e.Analyze(ctx, one, Request{Mode: ModePCA, Columns: []string{"x", "y"}})
	var ir *InsufficientRowsError
	assert.ErrorAs(t, err, &ir)
}

func TestPCAConstantColumns(t *testing.T) {
	tb := mustTable(t, numeric("a", 3, 3, 3), numeric("b", 1, 1, 1))
	res := run(t, tb, ModePCA, "a", "b")
	assert.Equal(t, []float64{0, 0}, res.PCA.ExplainedVarianceRatio)
	assert.NotEmpty(t, res.Warnings)
}

func TestClusteringSeparatesNaturalGroups(t *testing.T) {
	tb := mustTable(t, numeric("v", 0, 0, 10, 10))
	e := NewEngine()
	req := Request{Mode: ModeClustering, Columns: []string{"v"}, Options: Options{Clusters: 2}}

	first, err := e.Analyze(context.Background(), tb, req)
	require.NoError(t, err)
	c := first.Clustering
	require.Len(t, c.Labels, 4)
	assert.Equal(t, c.Labels[0], c.Labels[1])
	assert.Equal(t, c.Labels[2], c.Labels[3])
	assert.NotEqual(t, c.Labels[0], c.Labels[2])
	assert.InDelta(t, 0, c.Inertia, 1e-12)

	low := c.Clusters[c.Labels[0]]
	high := c.Clusters[c.Labels[2]]
	assert.Equal(t, 2, low.Size)
	assert.Equal(t, 0.0, low.Centroid["v"])
	assert.Equal(t, 10.0, high.Centroid["v"])
	require.Len(t, c.Centroids, 2)
	assert.InDelta(t, -1, c.Centroids[c.Labels[0]][0], 1e-12)

	for i := 0; i < 5; i++ {
		again, err := NewEngine().Analyze(context.Background(), tb, req)
		require.NoError(t, err)
		assert.Equal(t, c.Labels, again.Clustering.Labels)
	}
}

func TestClusteringDefaultsAndErrors(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	tb := mustTable(t,
		numeric("a", 1, 2, 3, 10, 11, 12, 20, 21, 22),
		numeric("b", 1, 1, 2, 5, 5, 6, 9, 9, 8),
		categorical("c", "x", "y", "z", "x", "y", "z", "x", "y", "z"),
	)

	res, err := e.Analyze(ctx, tb, Request{Mode: ModeClustering, Columns: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Len(t, res.Clustering.Clusters, DefaultClusters)
	total := 0
	for _, cs := range res.Clustering.Clusters {
		total += cs.Size
	}
	assert.Equal(t, 9, total)

	_, err = e.Analyze(ctx, tb, Request{Mode: ModeClustering, Columns: []string{"a"}, Options: Options{Clusters: -1}})
	var io *InvalidOptionError
	assert.ErrorAs(t, err, &io)

	_, err = e.Analyze(ctx, tb, Request{Mode: ModeClustering, Columns: []string{"a"}, Options: Options{Clusters: 10}})
	var ir *InsufficientRowsError
	assert.ErrorAs(t, err, &ir)

	_, err = e.Analyze(ctx, tb, Request{Mode: ModeClustering, Columns: []string{"c"}})
	var ic *InsufficientColumnsError
	assert.ErrorAs(t, err, &ic)
}

func TestClusteringDuplicatePointsLeaveEmptyCluster(t *testing.T) {
	tb := mustTable(t, numeric("v", 5, 5, 5))
	res := run(t, tb, ModeClustering, "v")
	sizes := 0
	for _, cs := range res.Clustering.Clusters {
		sizes += cs.Size
		if cs.Size == 0 {
			assert.Nil(t, cs.Centroid)
		}
	}
	assert.Equal(t, 3, sizes)
}
