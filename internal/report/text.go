package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func datasetText(d Dataset) string {
	var b strings.Builder
	if d.File != "" {
		fmt.Fprintf(&b, "File: %s\n", d.File)
	}
	fmt.Fprintf(&b, "Rows: %s  Columns: %d\n", humanize.Comma(int64(d.Info.Rows)), len(d.Info.Columns))

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Column", "Type", "Missing"})
	for _, c := range d.Info.Columns {
		tbl.AppendRow(table.Row{safeName(c.Name), c.Type.String(), c.Missing})
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")

	if r := d.Cleaning; r != nil {
		fmt.Fprintf(&b, "Cleaning: %d -> %d rows, %d duplicates removed\n", r.RowsBefore, r.RowsAfter, r.DuplicatesRemoved)
		for _, name := range sortedKeys(r.Imputed) {
			fmt.Fprintf(&b, "  imputed %s: %d\n", name, r.Imputed[name])
		}
		if len(r.Coerced) > 0 {
			fmt.Fprintf(&b, "  coerced: %s\n", strings.Join(r.Coerced, ", "))
		}
	}
	if len(d.Stats) > 0 {
		st := newTable()
		st.AppendHeader(table.Row{"Column", "Type", "Count", "Missing", "Unique", "Mean", "Median", "Std"})
		for _, c := range d.Stats {
			st.AppendRow(table.Row{safeName(c.Name), c.Type.String(), c.Count, c.Missing, c.Unique, optNum(c.Mean), optNum(c.Median), optNum(c.Std)})
		}
		b.WriteString(st.Render())
		b.WriteString("\n")
	}
	return b.String()
}

func resultText(res *analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s\n", res.Mode)

	var tbl table.Writer
	switch {
	case res.Summary != nil:
		tbl = summaryTable(res.Summary)
	case res.Correlation != nil:
		tbl = correlationTable(res.Correlation)
	case res.Distribution != nil:
		tbl = distributionTable(res.Distribution)
	case res.PCA != nil:
		tbl = pcaTable(res.PCA)
	case res.Clustering != nil:
		fmt.Fprintf(&b, "Inertia: %s\n", num(res.Clustering.Inertia))
		tbl = clusterTable(res.Clustering)
	}
	if tbl != nil {
		b.WriteString(tbl.Render())
		b.WriteString("\n")
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "⚠ %s\n", w)
	}
	return b.String()
}

func summaryTable(s *analysis.SummaryResult) table.Writer {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Column", "Type", "Non-null", "Missing", "Distinct", "Mean", "Std", "Min", "Q1", "Median", "Q3", "Max", "Top"})
	for _, c := range s.Columns {
		row := table.Row{safeName(c.Name), c.Type.String(), c.NonNull, c.Nulls, c.Distinct}
		if n := c.Numeric; n != nil {
			row = append(row, num(n.Mean), num(n.Std), num(n.Min), num(n.Quartiles.Q1), num(n.Median), num(n.Quartiles.Q3), num(n.Max), "")
		} else {
			top := ""
			if c.Categorical != nil && c.Categorical.MostFrequent.Count > 0 {
				mf := c.Categorical.MostFrequent
				top = fmt.Sprintf("%s (%d)", mf.Value, mf.Count)
			}
			row = append(row, "", "", "", "", "", "", "", top)
		}
		tbl.AppendRow(row)
	}
	return tbl
}

func correlationTable(c *analysis.CorrelationResult) table.Writer {
	tbl := newTable()
	header := table.Row{""}
	for _, col := range c.Columns {
		header = append(header, col)
	}
	tbl.AppendHeader(header)
	for _, r := range c.Columns {
		row := table.Row{r}
		for _, col := range c.Columns {
			row = append(row, fmt.Sprintf("%.3f", c.At(r, col)))
		}
		tbl.AppendRow(row)
	}
	return tbl
}

func distributionTable(d *analysis.DistributionResult) table.Writer {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Column", "Type", "Skewness", "Kurtosis", "p-value", "Normal", "Histogram / values"})
	for _, c := range d.Columns {
		switch {
		case c.Error != "":
			tbl.AppendRow(table.Row{c.Name, c.Type, "", "", "", "", c.Error})
		case c.Numeric != nil:
			n := c.Numeric
			tbl.AppendRow(table.Row{c.Name, c.Type, num(n.Skewness), num(n.Kurtosis), fmt.Sprintf("%.4f", n.PValue), n.IsNormal, fmt.Sprint(n.Histogram.Counts)})
		case c.Categorical != nil:
			var sb strings.Builder
			writeCounts(&sb, c.Categorical.Distribution)
			tbl.AppendRow(table.Row{c.Name, c.Type, "", "", "", "", sb.String()})
		}
	}
	return tbl
}

func pcaTable(p *analysis.PCAResult) table.Writer {
	tbl := newTable()
	header := table.Row{"Component", "Explained"}
	for _, f := range p.FeatureNames {
		header = append(header, f)
	}
	tbl.AppendHeader(header)
	for i, r := range p.ExplainedVarianceRatio {
		row := table.Row{fmt.Sprintf("PC%d", i+1), fmt.Sprintf("%.1f%%", r*100)}
		if i < len(p.Components) {
			for _, v := range p.Components[i] {
				row = append(row, fmt.Sprintf("%.3f", v))
			}
		}
		tbl.AppendRow(row)
	}
	return tbl
}

func clusterTable(c *analysis.ClusteringResult) table.Writer {
	tbl := newTable()
	header := table.Row{"Cluster", "Size"}
	for _, f := range c.FeatureNames {
		header = append(header, f)
	}
	tbl.AppendHeader(header)
	for _, cs := range c.Clusters {
		row := table.Row{cs.Label, cs.Size}
		for _, f := range c.FeatureNames {
			if cs.Centroid == nil {
				row = append(row, "-")
				continue
			}
			row = append(row, num(cs.Centroid[f]))
		}
		tbl.AppendRow(row)
	}
	return tbl
}
