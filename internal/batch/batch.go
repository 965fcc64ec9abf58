// Package batch runs a document of analysis requests against one table.
//
// A document looks like:
//
//	requests:
//	  - name: spread
//	    mode: summary_stats
//	    columns: [sales, units]
//	  - mode: clustering
//	    columns: [sales, units]
//	    clusters: 4
//
// JSON documents with the same shape are accepted.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/report"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// Item is one request in a document.
type Item struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Mode     string   `json:"mode" yaml:"mode"`
	Columns  []string `json:"columns" yaml:"columns"`
	Clusters int      `json:"clusters,omitempty" yaml:"clusters,omitempty"`
}

// Document is a parsed and validated request list.
type Document struct {
	Requests []Item `json:"requests" yaml:"requests"`
}

// ValidationError lists schema violations, one per problem.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid batch document:\n  - " + strings.Join(e.Problems, "\n  - ")
}

func schema() string {
	modes := make([]string, 0, len(analysis.Modes()))
	for _, m := range analysis.ModeNames() {
		modes = append(modes, fmt.Sprintf("%q", m))
	}
	return `{
  "type": "object",
  "required": ["requests"],
  "additionalProperties": false,
  "properties": {
    "requests": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["mode", "columns"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "mode": {"type": "string", "enum": [` + strings.Join(modes, ", ") + `]},
          "columns": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "clusters": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`
}

// Parse decodes a YAML or JSON document and validates it against the
// request schema.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse batch document: %w", err)
	}
	if raw == nil {
		return nil, &ValidationError{Problems: []string{"document is empty"}}
	}
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema()), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate batch document: %w", err)
	}
	if !res.Valid() {
		ve := &ValidationError{}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return nil, ve
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode batch document: %w", err)
	}
	return &doc, nil
}

// Analyzer is the engine surface a batch needs.
type Analyzer interface {
	Analyze(ctx context.Context, t *table.Table, req analysis.Request) (*analysis.Result, error)
}

// Run executes every request in order against t. A failed request is
// recorded in its entry and does not stop the batch; only cancellation does.
func Run(ctx context.Context, a Analyzer, t *table.Table, doc *Document, log *slog.Logger) ([]report.Entry, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	entries := make([]report.Entry, 0, len(doc.Requests))
	for i, it := range doc.Requests {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		name := it.Name
		if name == "" {
			name = fmt.Sprintf("%d-%s", i+1, it.Mode)
		}
		entry := report.Entry{Name: name}

		mode, err := analysis.ParseMode(it.Mode)
		if err == nil {
			entry.Result, err = a.Analyze(ctx, t, analysis.Request{
				Mode:    mode,
				Columns: it.Columns,
				Options: analysis.Options{Clusters: it.Clusters},
			})
		}
		if err != nil {
			if ctx.Err() != nil {
				return entries, ctx.Err()
			}
			entry.Error = err.Error()
			log.Debug("batch request failed", "name", name, "err", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Failed counts entries that carry an error.
func Failed(entries []report.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Error != "" {
			n++
		}
	}
	return n
}
