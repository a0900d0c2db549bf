package plan

import (
	"fmt"
	"strings"
)

// SplitStrategy controls how chunks are carved out of a collection.
// The zero value means "use the scheduler's default".
type SplitStrategy int

const (
	// Batch builds contiguous chunks and preserves order within and across chunks.
	Batch SplitStrategy = iota + 1
	// Scatter builds chunks by striding across the collection. Global order is
	// not preserved, so reductions require an associative and commutative
	// combiner.
	Scatter
)

func (s SplitStrategy) String() string {
	switch s {
	case Batch:
		return "batch"
	case Scatter:
		return "scatter"
	case 0:
		return ""
	default:
		return fmt.Sprintf("SplitStrategy(%d)", int(s))
	}
}

// Valid reports whether s is Batch or Scatter.
func (s SplitStrategy) Valid() bool {
	return s == Batch || s == Scatter
}

// OrderPreserving reports whether chunks built with s keep input order.
func (s SplitStrategy) OrderPreserving() bool {
	return s == Batch
}

// MarshalText implements encoding.TextMarshaler.
func (s SplitStrategy) MarshalText() ([]byte, error) {
	if s != 0 && !s.Valid() {
		return nil, fmt.Errorf("unknown split strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SplitStrategy) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = 0
		return nil
	}
	parsed, err := ParseSplit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSplit parses "batch" or "scatter" (case-insensitive).
func ParseSplit(name string) (SplitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "batch":
		return Batch, nil
	case "scatter":
		return Scatter, nil
	default:
		return 0, NewConfigurationError(CauseInvalidSchedulerArg, "split",
			"unknown split strategy %q: must be batch or scatter", name)
	}
}
