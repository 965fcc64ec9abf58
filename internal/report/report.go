// Package report renders analysis results and table descriptions as text,
// Markdown, JSON or YAML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/clean"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// UnsupportedFormatError is returned for an unknown format name.
type UnsupportedFormatError struct{ Format string }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q (use text, markdown, json or yaml)", e.Format)
}

// ParseFormat accepts the format names plus the "md" and "yml" aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", &UnsupportedFormatError{Format: s}
}

// Dataset is a described table plus, when it came from a load, the cleaning
// report.
type Dataset struct {
	File     string        `json:"file,omitempty" yaml:"file,omitempty"`
	Info     clean.Info    `json:"info" yaml:"info"`
	Cleaning *clean.Report `json:"cleaning,omitempty" yaml:"cleaning,omitempty"`
	// Stats holds per-column statistics for columns asked about explicitly.
	Stats []clean.ColumnStat `json:"column_stats,omitempty" yaml:"column_stats,omitempty"`
}

// Result writes res in format f.
func Result(w io.Writer, f Format, res *analysis.Result) error {
	if res == nil {
		return fmt.Errorf("nothing to render")
	}
	switch f {
	case FormatText:
		_, err := io.WriteString(w, resultText(res))
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, resultMarkdown(res))
		return err
	default:
		return structured(w, f, res)
	}
}

// Explained writes res followed by a natural-language explanation. JSON and
// YAML nest both under "result" and "explanation".
func Explained(w io.Writer, f Format, res *analysis.Result, explanation string) error {
	switch f {
	case FormatJSON, FormatYAML:
		return structured(w, f, struct {
			Result      *analysis.Result `json:"result" yaml:"result"`
			Explanation string           `json:"explanation" yaml:"explanation"`
		}{res, explanation})
	}
	if err := Result(w, f, res); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n[EXPLANATION]\n%s\n", strings.TrimSpace(explanation))
	return err
}

// Describe writes a dataset description in format f.
func Describe(w io.Writer, f Format, d Dataset) error {
	switch f {
	case FormatText:
		_, err := io.WriteString(w, datasetText(d))
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, datasetMarkdown(d))
		return err
	default:
		return structured(w, f, d)
	}
}

// Batch writes several named results. Text and Markdown separate entries
// with a heading; JSON and YAML emit one document.
func Batch(w io.Writer, f Format, entries []Entry) error {
	switch f {
	case FormatText, FormatMarkdown:
		var b bytes.Buffer
		for i, e := range entries {
			if i > 0 {
				b.WriteString("\n")
			}
			if f == FormatMarkdown {
				fmt.Fprintf(&b, "## %s\n\n", e.Name)
			} else {
				fmt.Fprintf(&b, "=== %s ===\n", strings.ToUpper(e.Name))
			}
			if e.Error != "" {
				fmt.Fprintf(&b, "error: %s\n", e.Error)
				continue
			}
			if err := Result(&b, f, e.Result); err != nil {
				return err
			}
		}
		_, err := w.Write(b.Bytes())
		return err
	default:
		return structured(w, f, map[string]any{"results": entries})
	}
}

// Entry is one named result of a batch; Error is set instead of Result when
// the request failed.
type Entry struct {
	Name   string           `json:"name" yaml:"name"`
	Result *analysis.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func structured(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		b = append(b, '\n')
		_, err = w.Write(b)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		return enc.Close()
	}
	return &UnsupportedFormatError{Format: string(f)}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func num(f float64) string { return fmt.Sprintf("%.4g", f) }

// optNum renders an optional statistic, "-" when absent.
func optNum(f *float64) string {
	if f == nil {
		return "-"
	}
	return num(*f)
}
