package session

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrReplaced indicates the current table changed while an update was in progress.
var ErrReplaced = errors.New("table was replaced by a concurrent load")

func formatOf(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
