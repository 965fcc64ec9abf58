// Package ingest turns uploaded bytes into a table.Table.
//
// Readers are selected by the declared file extension and produce raw string
// records; the records then go through gota's native type detection, which
// gives every column its first-pass type (numbers vs text). Final type
// inference is left to the clean package.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

// Options controls how raw bytes are decoded and split into records.
type Options struct {
	// Delimiter for delimited text. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Encoding is a WHATWG label ("utf-8", "gbk", "windows-1252"). Empty means UTF-8.
	Encoding string
	// SheetName selects a spreadsheet sheet by name (case-insensitive).
	SheetName string
	// SheetIndex selects a sheet by 1-based position when SheetName is empty.
	SheetIndex int
	// MissingTokens are cell values loaded as missing.
	MissingTokens []string
}

// DefaultMissingTokens mirrors the tokens pandas treats as NA on read.
var DefaultMissingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// DefaultOptions returns UTF-8, extension-derived delimiter, first sheet.
func DefaultOptions() Options {
	return Options{SheetIndex: 1, MissingTokens: DefaultMissingTokens}
}

// Reader splits raw file content into records; the first record is the header.
type Reader interface {
	CanRead(filename string) bool
	Records(filename string, data []byte, opt Options) ([][]string, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates the declared format has no reader.
var ErrUnsupported = errors.New("unsupported file format")

// Supported reports whether a reader exists for the filename's extension.
func Supported(filename string) bool {
	for _, r := range registry {
		if r.CanRead(filename) {
			return true
		}
	}
	return false
}

// Read parses data according to the extension of filename.
func Read(filename string, data []byte, opt Options) (*table.Table, error) {
	for _, r := range registry {
		if !r.CanRead(filename) {
			continue
		}
		records, err := r.Records(filename, data, opt)
		if err != nil {
			return nil, err
		}
		return buildTable(formatOf(filename), records, opt)
	}
	return nil, &FormatError{Format: formatOf(filename), Err: ErrUnsupported}
}

func formatOf(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

func buildTable(format string, records [][]string, opt Options) (*table.Table, error) {
	if len(records) == 0 {
		return nil, &FormatError{Format: format, Err: errors.New("no header row")}
	}
	header, err := normalizeHeader(records[0])
	if err != nil {
		return nil, &FormatError{Format: format, Err: err}
	}
	width := len(header)
	rows := records[1:]
	for i, r := range rows {
		if len(r) > width {
			return nil, &FormatError{
				Format: format,
				Row:    i + 2,
				Err:    fmt.Errorf("%d fields, header has %d", len(r), width),
			}
		}
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}

	tokens := opt.MissingTokens
	if tokens == nil {
		tokens = DefaultMissingTokens
	}
	missing := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		missing[tok] = struct{}{}
	}

	cols := make([]*table.Column, width)
	for j, name := range header {
		cols[j] = &table.Column{Name: name, Type: table.Categorical, Values: make([]table.Value, len(rows))}
	}
	if len(rows) == 0 {
		return table.New(cols)
	}

	all := make([][]string, 0, len(rows)+1)
	all = append(all, header)
	all = append(all, rows...)
	df := dataframe.LoadRecords(all,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(tokens),
	)
	if df.Err != nil {
		return nil, &FormatError{Format: format, Err: df.Err}
	}
	types := df.Types()
	for j := range header {
		numeric := (types[j] == series.Int || types[j] == series.Float) && allFinite(df.Col(header[j]))
		if numeric {
			cols[j].Type = table.Numeric
		}
		for i, r := range rows {
			if _, na := missing[r[j]]; na {
				cols[j].Values[i] = table.Missing()
				continue
			}
			if numeric {
				e := df.Elem(i, j)
				if e.IsNA() {
					cols[j].Values[i] = table.Missing()
					continue
				}
				cols[j].Values[i] = table.Number(e.Float())
				continue
			}
			// Text cells keep the raw record; gota's bool coercion would lose values.
			cols[j].Values[i] = table.Text(r[j])
		}
	}
	return table.New(cols)
}

// allFinite reports whether no cell of s is an infinity or a NaN that gota
// parsed from text such as "inf".
func allFinite(s series.Series) bool {
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		if f := e.Float(); math.IsInf(f, 0) || math.IsNaN(f) {
			return false
		}
	}
	return true
}

func normalizeHeader(raw []string) ([]string, error) {
	header := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: %q", table.ErrDuplicateColumn, h)
		}
		seen[h] = struct{}{}
		header[i] = h
	}
	if len(header) == 0 {
		return nil, errors.New("no columns to parse")
	}
	return header, nil
}
