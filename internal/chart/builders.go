package chart

import (
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

const (
	chartWidth  = "100%"
	chartHeight = "500px"
	pieTop      = 10
	barBins     = 10
	otherLabel  = "Other"
)

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: chartWidth, Height: chartHeight})
}

func titleOpts(title string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: title})
}

func tooltip(trigger string) charts.GlobalOpts {
	return charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: trigger})
}

func scatter(title string, x, y *table.Column) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		initOpts(title), titleOpts(title), tooltip("item"),
		charts.WithXAxisOpts(opts.XAxis{Name: x.Name, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: y.Name, Type: "value"}),
	)
	data := make([]opts.ScatterData, 0, x.Len())
	for i := range x.Values {
		if x.Values[i].IsMissing() || y.Values[i].IsMissing() {
			continue
		}
		data = append(data, opts.ScatterData{Value: []any{x.Values[i].Num, y.Values[i].Num}})
	}
	sc.AddSeries(y.Name, data)
	return sc
}

// histogram bins a numeric column with the auto rule; categorical columns
// become a frequency bar chart.
func histogram(title string, c *table.Column) *charts.Bar {
	if c.Type != table.Numeric {
		return countsBar(title, c.Name, analysis.ValueCounts(c))
	}
	h, err := analysis.AutoHistogram(c.Floats())
	if err != nil {
		h = equalBins(c.Floats(), barBins)
	}
	return binsBar(title, c.Name, h)
}

func barDistribution(title string, c *table.Column) *charts.Bar {
	if c.Type != table.Numeric {
		return countsBar(title, c.Name, analysis.ValueCounts(c))
	}
	return binsBar(title, c.Name, equalBins(c.Floats(), barBins))
}

func binsBar(title, name string, h analysis.Histogram) *charts.Bar {
	labels := make([]string, len(h.Counts))
	data := make([]opts.BarData, len(h.Counts))
	for i, n := range h.Counts {
		labels[i] = fmt.Sprintf("[%s, %s)", table.FormatNumber(h.Edges[i]), table.FormatNumber(h.Edges[i+1]))
		data[i] = opts.BarData{Value: n}
	}
	if len(labels) > 0 {
		last := len(labels) - 1
		labels[last] = labels[last][:len(labels[last])-1] + "]"
	}
	return simpleBar(title, name, "count", labels, data)
}

func countsBar(title, name string, counts []analysis.ValueCount) *charts.Bar {
	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, vc := range counts {
		labels[i] = vc.Value
		data[i] = opts.BarData{Value: vc.Count}
	}
	return simpleBar(title, name, "count", labels, data)
}

func barMeans(title string, cols []*table.Column) *charts.Bar {
	labels := make([]string, len(cols))
	data := make([]opts.BarData, len(cols))
	for i, c := range cols {
		labels[i] = c.Name
		data[i] = opts.BarData{Value: mean(c.Floats())}
	}
	return simpleBar(title, "column", "mean", labels, data)
}

func simpleBar(title, xName, yName string, labels []string, data []opts.BarData) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(title), titleOpts(title), tooltip("axis"),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	bar.SetXAxis(labels).AddSeries(yName, data)
	return bar
}

// box draws one five-number box per numeric column, from summary_stats.
func box(title string, s *analysis.SummaryResult) *charts.BoxPlot {
	bp := charts.NewBoxPlot()
	bp.SetGlobalOptions(initOpts(title), titleOpts(title), tooltip("item"))
	labels := make([]string, 0, len(s.Columns))
	data := make([]opts.BoxPlotData, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Numeric == nil {
			continue
		}
		n := c.Numeric
		labels = append(labels, c.Name)
		data = append(data, opts.BoxPlotData{Name: c.Name, Value: []float64{n.Min, n.Quartiles.Q1, n.Median, n.Quartiles.Q3, n.Max}})
	}
	bp.SetXAxis(labels).AddSeries("values", data)
	return bp
}

func heatmap(title string, c *analysis.CorrelationResult) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts(title), titleOpts(title), tooltip("item"),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: c.Columns, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: c.Columns, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true), Min: -1, Max: 1,
			InRange: &opts.VisualMapInRange{Color: []string{"#2166ac", "#f7f7f7", "#b2182b"}},
			Orient:  "horizontal", Left: "center", Bottom: "2%",
		}),
	)
	data := make([]opts.HeatMapData, 0, len(c.Columns)*len(c.Columns))
	for i, a := range c.Columns {
		for j, b := range c.Columns {
			data = append(data, opts.HeatMapData{Value: []any{i, j, round3(c.At(a, b))}})
		}
	}
	hm.AddSeries("r", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "inside"}))
	return hm
}

// line plots numeric columns against x's values, or row index when x is nil.
func line(title string, x *table.Column, rows int, cols []*table.Column) *charts.Line {
	ln := charts.NewLine()
	xName := "index"
	if x != nil {
		xName = x.Name
	}
	ln.SetGlobalOptions(
		initOpts(title), titleOpts(title), tooltip("axis"),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: "category"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	labels := make([]string, rows)
	for i := range labels {
		if x != nil {
			labels[i] = x.Values[i].String()
		} else {
			labels[i] = strconv.Itoa(i)
		}
	}
	ln.SetXAxis(labels)
	for _, c := range cols {
		data := make([]opts.LineData, len(c.Values))
		for i, v := range c.Values {
			if v.IsMissing() {
				data[i] = opts.LineData{Value: nil}
				continue
			}
			data[i] = opts.LineData{Value: v.Num}
		}
		ln.AddSeries(c.Name, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	}
	return ln
}

// pie shows the 10 most frequent values; the rest are folded into "Other".
func pie(title string, c *table.Column) *charts.Pie {
	p := charts.NewPie()
	p.SetGlobalOptions(
		initOpts(title), titleOpts(title), tooltip("item"),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	counts := analysis.ValueCounts(c)
	data := make([]opts.PieData, 0, pieTop+1)
	other := 0
	for i, vc := range counts {
		if i >= pieTop {
			other += vc.Count
			continue
		}
		data = append(data, opts.PieData{Name: vc.Value, Value: vc.Count})
	}
	if other > 0 {
		data = append(data, opts.PieData{Name: otherLabel, Value: other})
	}
	p.AddSeries(c.Name, data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
	)
	return p
}

// equalBins splits [min, max] into n equal-width bins, the last one closed.
func equalBins(xs []float64, n int) analysis.Histogram {
	if len(xs) == 0 {
		return analysis.Histogram{Counts: []int{}, Edges: []float64{}}
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	h := analysis.Histogram{Counts: make([]int, n), Edges: make([]float64, n+1)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[n] = hi
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= n {
			i = n - 1
		}
		h.Counts[i]++
	}
	return h
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func round3(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 3, 64), 64)
	return v
}
