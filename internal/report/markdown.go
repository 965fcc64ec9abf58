package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

func datasetMarkdown(d Dataset) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.File != "" {
		fmt.Fprintf(&b, "File: %s\n", d.File)
	}
	fmt.Fprintf(&b, "Rows: %s\n", humanize.Comma(int64(d.Info.Rows)))
	fmt.Fprintf(&b, "Columns: %d\n\n", len(d.Info.Columns))

	b.WriteString("[SCHEMA]\n")
	for _, c := range d.Info.Columns {
		fmt.Fprintf(&b, "- %s: %s (missing %d)\n", safeName(c.Name), c.Type, c.Missing)
	}
	if r := d.Cleaning; r != nil {
		b.WriteString("\n[CLEANING]\n")
		fmt.Fprintf(&b, "- rows: %d -> %d (%d duplicates removed)\n", r.RowsBefore, r.RowsAfter, r.DuplicatesRemoved)
		for _, name := range sortedKeys(r.Imputed) {
			fmt.Fprintf(&b, "- imputed %s: %d cells\n", safeName(name), r.Imputed[name])
		}
		if len(r.Coerced) > 0 {
			fmt.Fprintf(&b, "- coerced to numeric: %s\n", strings.Join(r.Coerced, ", "))
		}
		if len(r.Pinned) > 0 {
			fmt.Fprintf(&b, "- kept categorical: %s\n", strings.Join(r.Pinned, ", "))
		}
	}
	if len(d.Stats) > 0 {
		b.WriteString("\n[COLUMN STATS]\n")
		for _, c := range d.Stats {
			fmt.Fprintf(&b, "- %s: %s, count %d, missing %d, unique %d", safeName(c.Name), c.Type, c.Count, c.Missing, c.Unique)
			if c.Mean != nil {
				fmt.Fprintf(&b, ", mean %s, median %s, std %s", optNum(c.Mean), optNum(c.Median), optNum(c.Std))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func resultMarkdown(res *analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[ANALYSIS: %s]\n", strings.ToUpper(res.Mode.String()))
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(res.Columns, ", "))

	switch {
	case res.Summary != nil:
		summaryMarkdown(&b, res.Summary)
	case res.Correlation != nil:
		correlationMarkdown(&b, res.Correlation)
	case res.Distribution != nil:
		distributionMarkdown(&b, res.Distribution)
	case res.PCA != nil:
		pcaMarkdown(&b, res.PCA)
	case res.Clustering != nil:
		clusteringMarkdown(&b, res.Clustering)
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range res.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func summaryMarkdown(b *strings.Builder, s *analysis.SummaryResult) {
	b.WriteString("\n[SCHEMA]\n")
	for _, c := range s.Columns {
		fmt.Fprintf(b, "- %s: %s (non-null %d, missing %d, distinct %d)", safeName(c.Name), c.Type, c.NonNull, c.Nulls, c.Distinct)
		switch {
		case c.Numeric != nil:
			n := c.Numeric
			fmt.Fprintf(b, " - min %s, q1 %s, median %s, q3 %s, max %s, mean %s, std %s",
				num(n.Min), num(n.Quartiles.Q1), num(n.Median), num(n.Quartiles.Q3), num(n.Max), num(n.Mean), num(n.Std))
		case c.Categorical != nil && len(c.Categorical.Top) > 0:
			b.WriteString(" - top: ")
			writeCounts(b, c.Categorical.Top)
		}
		b.WriteString("\n")
	}
}

func correlationMarkdown(b *strings.Builder, c *analysis.CorrelationResult) {
	b.WriteString("\n[CORRELATIONS]\n")
	for _, p := range rankedPairs(c) {
		fmt.Fprintf(b, "- %s ~ %s: r=%.3f\n", p.a, p.b, p.r)
	}
	b.WriteString("\n[MATRIX]\n| |")
	for _, col := range c.Columns {
		fmt.Fprintf(b, " %s |", safeVal(col))
	}
	b.WriteString("\n|---|")
	for range c.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range c.Columns {
		fmt.Fprintf(b, "| %s |", safeVal(row))
		for _, col := range c.Columns {
			fmt.Fprintf(b, " %.3f |", c.At(row, col))
		}
		b.WriteString("\n")
	}
}

func distributionMarkdown(b *strings.Builder, d *analysis.DistributionResult) {
	b.WriteString("\n[DISTRIBUTIONS]\n")
	for _, c := range d.Columns {
		fmt.Fprintf(b, "- %s (%s)", safeName(c.Name), c.Type)
		switch {
		case c.Error != "":
			fmt.Fprintf(b, ": %s", c.Error)
		case c.Numeric != nil:
			n := c.Numeric
			shape := "not normal"
			if n.IsNormal {
				shape = "normal"
			}
			fmt.Fprintf(b, ": skewness %s, kurtosis %s, p=%.4f (%s); histogram %v",
				num(n.Skewness), num(n.Kurtosis), n.PValue, shape, n.Histogram.Counts)
		case c.Categorical != nil:
			fmt.Fprintf(b, ": %d values, %d distinct - ", c.Categorical.TotalCount, c.Categorical.UniqueCount)
			writeCounts(b, c.Categorical.Distribution)
		}
		b.WriteString("\n")
	}
}

func pcaMarkdown(b *strings.Builder, p *analysis.PCAResult) {
	b.WriteString("\n[COMPONENTS]\n")
	cum := 0.0
	for i, r := range p.ExplainedVarianceRatio {
		cum += r
		fmt.Fprintf(b, "- PC%d: %.1f%% of variance (cumulative %.1f%%)", i+1, r*100, cum*100)
		if i < len(p.Components) {
			b.WriteString("; loadings ")
			for j, name := range p.FeatureNames {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(b, "%s=%.3f", safeVal(name), p.Components[i][j])
			}
		}
		b.WriteString("\n")
	}
}

func clusteringMarkdown(b *strings.Builder, c *analysis.ClusteringResult) {
	fmt.Fprintf(b, "Inertia: %s\n\n[CLUSTERS]\n", num(c.Inertia))
	for _, cs := range c.Clusters {
		fmt.Fprintf(b, "- cluster %d (n=%d)", cs.Label, cs.Size)
		if cs.Centroid != nil {
			b.WriteString(": ")
			for j, name := range c.FeatureNames {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(b, "%s=%s", safeVal(name), num(cs.Centroid[name]))
			}
		}
		b.WriteString("\n")
	}
}

func writeCounts(b *strings.Builder, vcs []analysis.ValueCount) {
	const limit = 10
	for i, kv := range vcs {
		if i == limit {
			fmt.Fprintf(b, ", ... (%d more)", len(vcs)-limit)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s(%d)", safeVal(kv.Value), kv.Count)
	}
}

type pair struct {
	a, b string
	r    float64
}

// rankedPairs lists the off-diagonal pairs by |r| descending, at most 10.
func rankedPairs(c *analysis.CorrelationResult) []pair {
	var pairs []pair
	for i := 0; i < len(c.Columns); i++ {
		for j := i + 1; j < len(c.Columns); j++ {
			pairs = append(pairs, pair{a: c.Columns[i], b: c.Columns[j], r: c.At(c.Columns[i], c.Columns[j])})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].r) > math.Abs(pairs[j].r)
	})
	if len(pairs) > 10 {
		pairs = pairs[:10]
	}
	return pairs
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
