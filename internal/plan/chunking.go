package plan

import "fmt"

// ChunkingMode says which sizing parameter governs how a collection is chunked.
// It is always derived by ResolveChunking, never chosen directly.
type ChunkingMode int

const (
	// NoChunking makes every element its own unit of work.
	NoChunking ChunkingMode = iota
	// FixedCount splits the collection into a fixed number of chunks.
	FixedCount
	// FixedSize splits the collection into chunks of a fixed size.
	FixedSize
)

var chunkingModeNames = map[ChunkingMode]string{
	NoChunking: "none",
	FixedCount: "fixed_count",
	FixedSize:  "fixed_size",
}

func (m ChunkingMode) String() string {
	if name, ok := chunkingModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ChunkingMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m ChunkingMode) MarshalText() ([]byte, error) {
	if _, ok := chunkingModeNames[m]; !ok {
		return nil, fmt.Errorf("unknown chunking mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ChunkingMode) UnmarshalText(text []byte) error {
	for mode, name := range chunkingModeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown chunking mode %q", string(text))
}

// ResolveChunking derives the chunking mode from the raw sizing parameters.
// Non-positive values count as absent. When want is false the sizing values
// are ignored and NoChunking is returned.
func ResolveChunking(want bool, chunkCount, chunkSize int) (ChunkingMode, error) {
	if !want {
		return NoChunking, nil
	}

	hasCount := chunkCount > 0
	hasSize := chunkSize > 0

	switch {
	case hasCount && hasSize:
		return NoChunking, NewConfigurationError(CauseExclusiveSizing, "chunking",
			"chunk_count (%d) and chunk_size (%d) are mutually exclusive", chunkCount, chunkSize)
	case hasSize:
		return FixedSize, nil
	case hasCount:
		return FixedCount, nil
	default:
		return NoChunking, NewConfigurationError(CauseMissingSizing, "chunking",
			"chunking requested but neither chunk_count nor chunk_size is positive")
	}
}
