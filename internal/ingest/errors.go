package ingest

import "fmt"

// FormatError indicates content that cannot be parsed in the declared format.
type FormatError struct {
	Format string
	// Row is the 1-based record number when the problem is row-specific.
	Row int
	Err error
}

func (e *FormatError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("invalid %s content at row %d: %v", e.Format, e.Row, e.Err)
	}
	return fmt.Sprintf("invalid %s content: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// EncodingError indicates delimited text that cannot be decoded.
type EncodingError struct {
	Encoding string
	// Offset is the byte offset of the first undecodable sequence, or -1.
	Offset int
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cannot decode text as %s at byte %d: %v", e.Encoding, e.Offset, e.Err)
	}
	return fmt.Sprintf("cannot decode text as %s: %v", e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
