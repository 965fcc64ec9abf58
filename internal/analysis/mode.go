package analysis

import (
	"strings"
)

// Mode selects which analysis to run.
type Mode uint8

const (
	ModeSummary Mode = iota + 1
	ModeCorrelation
	ModeDistribution
	ModePCA
	ModeClustering
)

var modeNames = map[Mode]string{
	ModeSummary:      "summary_stats",
	ModeCorrelation:  "correlation",
	ModeDistribution: "distribution",
	ModePCA:          "pca",
	ModeClustering:   "clustering",
}

// Modes returns every supported mode in a stable order.
func Modes() []Mode {
	return []Mode{ModeSummary, ModeCorrelation, ModeDistribution, ModePCA, ModeClustering}
}

// ModeNames returns the wire names of every supported mode.
func ModeNames() []string {
	out := make([]string, 0, len(modeNames))
	for _, m := range Modes() {
		out = append(out, m.String())
	}
	return out
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return ""
}

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode resolves a wire name such as "summary_stats".
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, &UnsupportedModeError{Mode: s}
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &UnsupportedModeError{Mode: "<invalid>"}
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
