// Package export writes a cleaned table back to CSV, TSV or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datalens-cli/internal/table"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

const sheetName = "Sheet1"

// UnsupportedFormatError is returned for an output path with an unknown extension.
type UnsupportedFormatError struct{ Path string }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("cannot export to %q: use a .csv, .tsv or .xlsx path", e.Path)
}

// Supported reports whether path has an extension File can write.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	return false
}

// File writes t to path, choosing the format from the extension.
func File(path string, t *table.Table) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = CSV(&buf, t, ',')
	case ".tsv":
		err = CSV(&buf, t, '\t')
	case ".xlsx":
		err = XLSX(&buf, t)
	default:
		return &UnsupportedFormatError{Path: path}
	}
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// CSV writes a header row then one record per table row.
func CSV(w io.Writer, t *table.Table, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, v := range t.Row(i) {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX writes t to a single-sheet workbook. Numbers are stored as numeric cells.
func XLSX(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, 0, t.NumCols())
	for _, n := range t.Names() {
		header = append(header, n)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		row := make([]any, 0, t.NumCols())
		for _, v := range t.Row(i) {
			switch v.Kind {
			case table.KindNumber:
				row = append(row, v.Num)
			case table.KindText:
				row = append(row, v.Str)
			default:
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
