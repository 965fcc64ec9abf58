package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/clean"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

func correlationResult() *analysis.Result {
	return &analysis.Result{
		Mode:    analysis.ModeCorrelation,
		Columns: []string{"x", "y", "z"},
		Correlation: &analysis.CorrelationResult{
			Columns: []string{"x", "y", "z"},
			Matrix: map[string]map[string]float64{
				"x": {"x": 1, "y": -0.8, "z": 0.1},
				"y": {"x": -0.8, "y": 1, "z": 0.5},
				"z": {"x": 0.1, "y": 0.5, "z": 1},
			},
		},
		Warnings: []string{`column "region" is categorical; skipped`},
	}
}

func summaryResult() *analysis.Result {
	return &analysis.Result{
		Mode:    analysis.ModeSummary,
		Columns: []string{"sales", "地区"},
		Summary: &analysis.SummaryResult{Columns: []analysis.ColumnSummary{
			{Name: "sales", Type: table.Numeric, NonNull: 5, Distinct: 5, Numeric: &analysis.NumericSummary{
				Mean: 3, Median: 3, Std: 1.5811, Min: 1, Max: 5, Quartiles: analysis.Quartiles{Q1: 2, Q2: 3, Q3: 4},
			}},
			{Name: "地区", Type: table.Categorical, NonNull: 5, Distinct: 2, Categorical: &analysis.CategoricalSummary{
				MostFrequent: analysis.ValueCount{Value: "华东", Count: 3},
				Top:          []analysis.ValueCount{{Value: "华东", Count: 3}, {Value: "a|b", Count: 2}},
			}},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "MD": FormatMarkdown, "yml": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	var uf *UnsupportedFormatError
	assert.ErrorAs(t, err, &uf)
}

func TestMarkdownCorrelationRanksPairs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Result(&buf, FormatMarkdown, correlationResult()))
	out := buf.String()

	assert.Contains(t, out, "[ANALYSIS: CORRELATION]")
	xy := strings.Index(out, "- x ~ y: r=-0.800")
	yz := strings.Index(out, "- y ~ z: r=0.500")
	xz := strings.Index(out, "- x ~ z: r=0.100")
	require.True(t, xy >= 0 && yz >= 0 && xz >= 0, out)
	assert.Less(t, xy, yz)
	assert.Less(t, yz, xz)
	assert.Contains(t, out, "| y | -0.800 | 1.000 | 0.500 |")
	assert.Contains(t, out, "[NOTES]\n- column \"region\" is categorical; skipped")
}

func TestMarkdownSummaryEscapesValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Result(&buf, FormatMarkdown, summaryResult()))
	out := buf.String()
	assert.Contains(t, out, "- sales: numeric (non-null 5, missing 0, distinct 5) - min 1, q1 2, median 3, q3 4, max 5")
	assert.Contains(t, out, "top: 华东(3), a/b(2)")
}

func TestTextRendersTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Result(&buf, FormatText, summaryResult()))
	out := buf.String()
	assert.Contains(t, out, "Mode: summary_stats")
	assert.Contains(t, out, "华东 (3)")
	assert.Contains(t, out, "1.581")

	buf.Reset()
	require.NoError(t, Result(&buf, FormatText, correlationResult()))
	assert.Contains(t, buf.String(), "-0.800")
	assert.Contains(t, buf.String(), "⚠ column \"region\"")
}

func TestStructuredFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Result(&buf, FormatJSON, correlationResult()))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "correlation", decoded["mode"])

	buf.Reset()
	require.NoError(t, Result(&buf, FormatYAML, summaryResult()))
	var y struct {
		Mode    string `yaml:"mode"`
		Summary struct {
			Columns []struct {
				Name string `yaml:"name"`
				Type string `yaml:"type"`
			} `yaml:"columns"`
		} `yaml:"summary"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &y))
	assert.Equal(t, "summary_stats", y.Mode)
	require.Len(t, y.Summary.Columns, 2)
	assert.Equal(t, "categorical", y.Summary.Columns[1].Type)
}

func TestDescribe(t *testing.T) {
	d := Dataset{
		File: "sales.csv",
		Info: clean.Info{Rows: 12345, Columns: []clean.ColumnInfo{
			{Name: "units", Type: table.Numeric},
			{Name: "region", Type: table.Categorical},
		}},
		Cleaning: &clean.Report{RowsBefore: 12347, RowsAfter: 12345, DuplicatesRemoved: 2, Imputed: map[string]int{"units": 1}},
	}
	var buf bytes.Buffer
	require.NoError(t, Describe(&buf, FormatMarkdown, d))
	out := buf.String()
	assert.Contains(t, out, "[DATASET SUMMARY]\nFile: sales.csv\nRows: 12,345\nColumns: 2")
	assert.Contains(t, out, "- units: numeric (missing 0)")
	assert.Contains(t, out, "- imputed units: 1 cells")

	buf.Reset()
	require.NoError(t, Describe(&buf, FormatText, d))
	assert.Contains(t, buf.String(), "2 duplicates removed")
}

func TestDescribeColumnStats(t *testing.T) {
	mean, med, std := 2.5, 2.0, 1.25
	d := Dataset{
		Info: clean.Info{Rows: 4},
		Stats: []clean.ColumnStat{
			{Name: "units", Type: table.Numeric, Count: 4, Unique: 3, Mean: &mean, Median: &med, Std: &std},
			{Name: "region", Type: table.Categorical, Count: 3, Missing: 1, Unique: 2},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Describe(&buf, FormatMarkdown, d))
	out := buf.String()
	assert.Contains(t, out, "[COLUMN STATS]\n- units: numeric, count 4, missing 0, unique 3, mean 2.5, median 2, std 1.25\n")
	assert.Contains(t, out, "- region: categorical, count 3, missing 1, unique 2\n")

	buf.Reset()
	require.NoError(t, Describe(&buf, FormatText, d))
	assert.Contains(t, buf.String(), "Median")
}

func TestBatch(t *testing.T) {
	entries := []Entry{
		{Name: "corr", Result: correlationResult()},
		{Name: "broken", Error: "column not found: nope"},
	}
	var buf bytes.Buffer
	require.NoError(t, Batch(&buf, FormatText, entries))
	assert.Contains(t, buf.String(), "=== CORR ===")
	assert.Contains(t, buf.String(), "=== BROKEN ===\nerror: column not found: nope")

	buf.Reset()
	require.NoError(t, Batch(&buf, FormatJSON, entries))
	var decoded struct {
		Results []Entry `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "column not found: nope", decoded.Results[1].Error)
}

func TestExplained(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Explained(&buf, FormatMarkdown, correlationResult(), "  x and y move in opposite directions.\n"))
	assert.True(t, strings.HasSuffix(buf.String(), "[EXPLANATION]\nx and y move in opposite directions.\n"))

	buf.Reset()
	require.NoError(t, Explained(&buf, FormatJSON, correlationResult(), "text"))
	var out struct {
		Result      map[string]any `json:"result"`
		Explanation string         `json:"explanation"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "text", out.Explanation)
	assert.Equal(t, "correlation", out.Result["mode"])
}
