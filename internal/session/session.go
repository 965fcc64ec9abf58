// Package session owns the single current-table slot of one user session.
//
// Loading a file replaces the table atomically. Every analysis takes one
// snapshot of the slot and works on it, so a concurrent load never changes
// the table underneath a running request.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/clean"
	"github.com/KaramelBytes/datalens-cli/internal/ingest"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// LoadObserver is notified about every successfully loaded table.
type LoadObserver interface {
	ObserveLoad(format string, rows int)
}

// Config holds the collaborators and policies of a Session.
type Config struct {
	Ingest  ingest.Options
	Clean   clean.Options
	Engine  *analysis.Engine
	Logger  *slog.Logger
	Loads   LoadObserver
	Timeout time.Duration
}

// Loaded describes the most recent load.
type Loaded struct {
	Name   string       `json:"name" yaml:"name"`
	Report clean.Report `json:"report" yaml:"report"`
	At     time.Time    `json:"loaded_at" yaml:"loaded_at"`
}

type slot struct {
	table *table.Table
	meta  Loaded
}

// Session holds the current cleaned table.
type Session struct {
	id  string
	cfg Config
	cur atomic.Pointer[slot]
}

// New creates an empty session.
func New(cfg Config) *Session {
	if cfg.Engine == nil {
		cfg.Engine = analysis.NewEngine()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clean.Logger == nil {
		cfg.Clean.Logger = cfg.Logger
	}
	s := &Session{id: uuid.NewString(), cfg: cfg}
	s.cfg.Logger = cfg.Logger.With("session", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Load ingests and cleans data, then makes the result the current table.
// On error the previous table stays current.
func (s *Session) Load(ctx context.Context, filename string, data []byte) (Loaded, error) {
	if err := ctx.Err(); err != nil {
		return Loaded{}, err
	}
	raw, err := ingest.Read(filename, data, s.cfg.Ingest)
	if err != nil {
		return Loaded{}, err
	}
	cleaned, rep, err := clean.Clean(raw, s.cfg.Clean)
	if err != nil {
		return Loaded{}, err
	}
	meta := Loaded{Name: filename, Report: rep, At: time.Now()}
	s.cur.Store(&slot{table: cleaned, meta: meta})
	if s.cfg.Loads != nil {
		s.cfg.Loads.ObserveLoad(formatOf(filename), cleaned.NumRows())
	}
	s.cfg.Logger.Debug("table loaded",
		"file", filename,
		"rows", cleaned.NumRows(),
		"columns", cleaned.NumCols(),
		"duplicates_removed", rep.DuplicatesRemoved)
	return meta, nil
}

// Snapshot returns the current table, or nil when nothing is loaded.
func (s *Session) Snapshot() *table.Table {
	if cur := s.cur.Load(); cur != nil {
		return cur.table
	}
	return nil
}

// Current returns metadata of the current table.
func (s *Session) Current() (Loaded, bool) {
	if cur := s.cur.Load(); cur != nil {
		return cur.meta, true
	}
	return Loaded{}, false
}

// Analyze runs req against one snapshot of the current table.
func (s *Session) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.cfg.Engine.Analyze(ctx, s.Snapshot(), req)
}

// Describe reports the shape of the current table.
func (s *Session) Describe() (clean.Info, error) {
	t := s.Snapshot()
	if t == nil {
		return clean.Info{}, &analysis.NoDataError{}
	}
	return clean.Describe(t), nil
}

// ColumnStats computes per-column statistics on the current table.
func (s *Session) ColumnStats(names []string) ([]clean.ColumnStat, error) {
	t := s.Snapshot()
	if t == nil {
		return nil, &analysis.NoDataError{}
	}
	out := make([]clean.ColumnStat, 0, len(names))
	for _, n := range names {
		st, err := clean.ColumnStats(t, n)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Normalize z-scores the named columns and swaps the result in. It fails
// without swapping if another load replaced the table in the meantime.
func (s *Session) Normalize(columns []string) (*table.Table, error) {
	cur := s.cur.Load()
	if cur == nil {
		return nil, &analysis.NoDataError{}
	}
	out, err := clean.Normalize(cur.table, columns)
	if err != nil {
		return nil, err
	}
	next := &slot{table: out, meta: cur.meta}
	if !s.cur.CompareAndSwap(cur, next) {
		return nil, ErrReplaced
	}
	s.cfg.Logger.Debug("columns normalized", "columns", columns)
	return out, nil
}
