// Package analysis computes summary statistics, correlation, distribution
// tests, PCA and k-means clustering over a cleaned table.
//
// The Engine is stateless between calls: every Analyze call receives the
// table it works on and never modifies it.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

const (
	DefaultClusters = 3
	DefaultSeed     = 42
	DefaultRestarts = 10
)

// Recorder observes finished analyses. The metrics package implements it.
type Recorder interface {
	ObserveAnalysis(mode string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(string, error, time.Duration) {}

// Engine runs analysis requests.
type Engine struct {
	log      *slog.Logger
	rec      Recorder
	clusters int
	seed     int64
	restarts int
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

// WithSeed fixes the k-means initialisation seed.
func WithSeed(seed int64) Option { return func(e *Engine) { e.seed = seed } }

// WithRestarts sets how many k-means initialisations are tried.
func WithRestarts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.restarts = n
		}
	}
}

// WithDefaultClusters sets k when a request does not specify one.
func WithDefaultClusters(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.clusters = k
		}
	}
}

// NewEngine returns an Engine with the given options applied over the defaults.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:      slog.New(slog.DiscardHandler),
		rec:      nopRecorder{},
		clusters: DefaultClusters,
		seed:     DefaultSeed,
		restarts: DefaultRestarts,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Analyze validates req against t and runs the requested mode.
func (e *Engine) Analyze(ctx context.Context, t *table.Table, req Request) (*Result, error) {
	start := time.Now()
	res, err := e.analyze(ctx, t, req)
	elapsed := time.Since(start)
	e.rec.ObserveAnalysis(req.Mode.String(), err, elapsed)
	if err != nil {
		e.log.Debug("analysis failed", "mode", req.Mode.String(), "error", err)
		return nil, err
	}
	e.log.Debug("analysis finished",
		"mode", req.Mode.String(),
		"columns", len(res.Columns),
		"warnings", len(res.Warnings),
		"elapsed", elapsed)
	return res, nil
}

func (e *Engine) analyze(ctx context.Context, t *table.Table, req Request) (*Result, error) {
	if t == nil {
		return nil, &NoDataError{}
	}
	if !req.Mode.Valid() {
		return nil, &UnsupportedModeError{Mode: fmt.Sprintf("%d", req.Mode)}
	}
	names := uniqueNames(req.Columns)
	if len(names) == 0 {
		return nil, &InvalidRequestError{Reason: "no columns selected"}
	}
	cols, err := t.Lookup(names...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Mode: req.Mode, Columns: names}
	w := &warnings{}
	switch req.Mode {
	case ModeSummary:
		res.Summary, err = summarize(ctx, cols, w)
	case ModeCorrelation:
		res.Correlation, err = correlate(cols, w)
	case ModeDistribution:
		res.Distribution, err = distribute(ctx, cols, w)
	case ModePCA:
		res.PCA, err = principalComponents(cols, w)
	case ModeClustering:
		k := req.Options.Clusters
		if k == 0 {
			k = e.clusters
		}
		res.Clustering, err = e.cluster(ctx, cols, k, w)
	}
	if err != nil {
		return nil, err
	}
	res.Warnings = w.list
	return res, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

type warnings struct{ list []string }

func (w *warnings) add(format string, args ...any) {
	w.list = append(w.list, fmt.Sprintf(format, args...))
}

// numericOnly keeps the numeric columns, noting each skipped one.
func numericOnly(cols []*table.Column, w *warnings) []*table.Column {
	out := make([]*table.Column, 0, len(cols))
	for _, c := range cols {
		if c.Type != table.Numeric {
			w.add("column %q is categorical; skipped", c.Name)
			continue
		}
		out = append(out, c)
	}
	return out
}

func columnNames(cols []*table.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
