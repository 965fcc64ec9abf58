package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvReader) Records(filename string, data []byte, opt Options) ([][]string, error) {
	text, err := decodeText(data, opt.Encoding)
	if err != nil {
		return nil, err
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(filename)
	}
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		fe := &FormatError{Format: formatOf(filename), Err: err}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			fe.Row = pe.StartLine
		}
		return nil, fe
	}
	return records, nil
}

func sniffDelimiter(filename string) rune {
	if strings.HasSuffix(strings.ToLower(filename), ".tsv") {
		return '\t'
	}
	return ','
}

var errInvalidSequence = errors.New("invalid byte sequence")

// decodeText converts data from the labelled encoding to UTF-8, dropping a
// leading byte order mark.
func decodeText(data []byte, label string) ([]byte, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, &EncodingError{Encoding: label, Offset: -1, Err: err}
	}
	canonical, _ := htmlindex.Name(enc)
	if canonical == "utf-8" {
		if off := invalidUTF8Offset(data); off >= 0 {
			return nil, &EncodingError{Encoding: canonical, Offset: off, Err: errInvalidSequence}
		}
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return nil, &EncodingError{Encoding: canonical, Offset: -1, Err: err}
		}
		return out, nil
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return nil, &EncodingError{Encoding: canonical, Offset: -1, Err: err}
	}
	// Legacy decoders substitute U+FFFD instead of failing.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, &EncodingError{Encoding: canonical, Offset: -1, Err: errInvalidSequence}
	}
	return out, nil
}

func invalidUTF8Offset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
