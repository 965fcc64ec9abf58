package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	num := func(name string, xs ...float64) *table.Column {
		c := &table.Column{Name: name, Type: table.Numeric}
		for _, x := range xs {
			c.Values = append(c.Values, table.Number(x))
		}
		return c
	}
	tb, err := table.New([]*table.Column{num("x", 1, 2, 3, 4, 5), num("y", 2, 1, 4, 3, 5)})
	require.NoError(t, err)
	return tb
}

func TestParseYAMLAndJSON(t *testing.T) {
	doc, err := Parse([]byte(`
requests:
  - name: spread
    mode: summary_stats
    columns: [x, y]
  - mode: clustering
    columns: [x, y]
    clusters: 2
`))
	require.NoError(t, err)
	require.Len(t, doc.Requests, 2)
	assert.Equal(t, "spread", doc.Requests[0].Name)
	assert.Equal(t, 2, doc.Requests[1].Clusters)

	doc, err = Parse([]byte(`{"requests":[{"mode":"pca","columns":["x","y"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "pca", doc.Requests[0].Mode)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"empty":          ``,
		"no requests":    `requests: []`,
		"unknown mode":   "requests:\n  - mode: regression\n    columns: [x]\n",
		"no columns":     "requests:\n  - mode: pca\n    columns: []\n",
		"bad clusters":   "requests:\n  - mode: clustering\n    columns: [x]\n    clusters: 0\n",
		"unknown field":  "requests:\n  - mode: pca\n    columns: [x]\n    colour: red\n",
		"wrong top type": `[1, 2]`,
	}
	for name, in := range tests {
		_, err := Parse([]byte(in))
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, name)
		assert.NotEmpty(t, ve.Problems, name)
	}

	_, err := Parse([]byte("requests: [unterminated"))
	assert.Error(t, err)
}

func TestRunCollectsPerRequestErrors(t *testing.T) {
	doc := &Document{Requests: []Item{
		{Name: "corr", Mode: "correlation", Columns: []string{"x", "y"}},
		{Mode: "pca", Columns: []string{"x", "missing"}},
		{Mode: "clustering", Columns: []string{"x", "y"}, Clusters: 9},
		{Mode: "summary_stats", Columns: []string{"x"}},
	}}
	entries, err := Run(context.Background(), analysis.NewEngine(), sampleTable(t), doc, nil)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "corr", entries[0].Name)
	require.NotNil(t, entries[0].Result)
	assert.InDelta(t, 0.8, entries[0].Result.Correlation.At("x", "y"), 1e-9)

	assert.Equal(t, "2-pca", entries[1].Name)
	assert.Contains(t, entries[1].Error, "missing")
	assert.Contains(t, entries[2].Error, "clustering")
	assert.Empty(t, entries[3].Error)
	assert.Equal(t, 2, Failed(entries))
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &Document{Requests: []Item{{Mode: "summary_stats", Columns: []string{"x"}}}}
	entries, err := Run(ctx, analysis.NewEngine(), sampleTable(t), doc, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, entries)
}
