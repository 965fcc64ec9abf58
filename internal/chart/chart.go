// Package chart renders cleaned tables as standalone ECharts HTML pages.
package chart

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// Kind names a chart type.
type Kind string

const (
	KindScatter            Kind = "scatter"
	KindHistogram          Kind = "histogram"
	KindBox                Kind = "box"
	KindCorrelationHeatmap Kind = "correlation_heatmap"
	KindLine               Kind = "line"
	KindBar                Kind = "bar"
	KindPie                Kind = "pie"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindScatter, KindHistogram, KindBox, KindCorrelationHeatmap, KindLine, KindBar, KindPie}
}

// ParseKind resolves a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", &UnsupportedKindError{Kind: s}
}

// Request describes one chart.
type Request struct {
	Kind    Kind
	Columns []string
	// X optionally names the label column for line charts.
	X     string
	Title string
}

// renderable is satisfied by every go-echarts chart.
type renderable interface {
	Render(w io.Writer) error
}

// Renderer builds charts; it reuses the analysis engine for correlation and
// quartiles so charts agree with analysis output.
type Renderer struct {
	engine *analysis.Engine
}

// NewRenderer returns a Renderer. A nil engine gets the defaults.
func NewRenderer(e *analysis.Engine) *Renderer {
	if e == nil {
		e = analysis.NewEngine()
	}
	return &Renderer{engine: e}
}

// Render writes the HTML page for req to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, t *table.Table, req Request) error {
	c, err := r.build(ctx, t, req)
	if err != nil {
		return err
	}
	if err := c.Render(w); err != nil {
		return fmt.Errorf("render %s chart: %w", req.Kind, err)
	}
	return nil
}

func (r *Renderer) build(ctx context.Context, t *table.Table, req Request) (renderable, error) {
	if t == nil {
		return nil, &analysis.NoDataError{}
	}
	kind, err := ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	if len(req.Columns) == 0 {
		return nil, &ColumnCountError{Kind: kind, Need: "at least 1", Got: 0}
	}
	cols, err := t.Lookup(req.Columns...)
	if err != nil {
		return nil, err
	}
	title := req.Title

	switch kind {
	case KindScatter:
		if len(cols) != 2 {
			return nil, &ColumnCountError{Kind: kind, Need: "exactly 2", Got: len(cols)}
		}
		if err := requireNumeric(cols...); err != nil {
			return nil, err
		}
		return scatter(orDefault(title, fmt.Sprintf("%s vs %s", cols[0].Name, cols[1].Name)), cols[0], cols[1]), nil

	case KindHistogram:
		if len(cols) != 1 {
			return nil, &ColumnCountError{Kind: kind, Need: "exactly 1", Got: len(cols)}
		}
		return histogram(orDefault(title, cols[0].Name+" distribution"), cols[0]), nil

	case KindBox:
		num := numericOf(cols)
		if len(num) == 0 {
			return nil, &ColumnCountError{Kind: kind, Need: "at least 1 numeric", Got: 0}
		}
		res, err := r.engine.Analyze(ctx, t, analysis.Request{Mode: analysis.ModeSummary, Columns: names(num)})
		if err != nil {
			return nil, err
		}
		return box(orDefault(title, "Value distribution"), res.Summary), nil

	case KindCorrelationHeatmap:
		num := numericOf(cols)
		if len(num) < 2 {
			return nil, &ColumnCountError{Kind: kind, Need: "at least 2 numeric", Got: len(num)}
		}
		res, err := r.engine.Analyze(ctx, t, analysis.Request{Mode: analysis.ModeCorrelation, Columns: names(num)})
		if err != nil {
			return nil, err
		}
		return heatmap(orDefault(title, "Correlation heatmap"), res.Correlation), nil

	case KindLine:
		num := numericOf(cols)
		if len(num) == 0 {
			return nil, &ColumnCountError{Kind: kind, Need: "at least 1 numeric", Got: 0}
		}
		var x *table.Column
		if req.X != "" {
			xs, err := t.Lookup(req.X)
			if err != nil {
				return nil, err
			}
			x = xs[0]
		}
		return line(orDefault(title, "Trend"), x, t.NumRows(), num), nil

	case KindBar:
		if len(cols) == 1 {
			return barDistribution(orDefault(title, cols[0].Name+" distribution"), cols[0]), nil
		}
		num := numericOf(cols)
		if len(num) == 0 {
			return nil, &ColumnCountError{Kind: kind, Need: "at least 1 numeric", Got: 0}
		}
		return barMeans(orDefault(title, "Column means"), num), nil

	case KindPie:
		if len(cols) != 1 {
			return nil, &ColumnCountError{Kind: kind, Need: "exactly 1", Got: len(cols)}
		}
		return pie(orDefault(title, cols[0].Name+" share"), cols[0]), nil
	}
	return nil, &UnsupportedKindError{Kind: string(kind)}
}

func requireNumeric(cols ...*table.Column) error {
	for _, c := range cols {
		if c.Type != table.Numeric {
			return &table.ColumnTypeError{Column: c.Name, Want: table.Numeric, Got: c.Type}
		}
	}
	return nil
}

func numericOf(cols []*table.Column) []*table.Column {
	var out []*table.Column
	for _, c := range cols {
		if c.Type == table.Numeric {
			out = append(out, c)
		}
	}
	return out
}

func names(cols []*table.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
