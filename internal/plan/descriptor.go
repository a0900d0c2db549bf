package plan

import (
	"fmt"
	"strings"
)

// Descriptor is a read-only, serializable view of a scheduler for
// diagnostics. Sizing fields are zero when Chunking is NoChunking.
type Descriptor struct {
	Kind       Kind          `json:"kind" yaml:"kind"`
	Placement  Placement     `json:"placement" yaml:"placement"`
	Threadpool Threadpool    `json:"threadpool,omitempty" yaml:"threadpool,omitempty"`
	TaskCount  int           `json:"task_count,omitempty" yaml:"task_count,omitempty"`
	Chunking   ChunkingMode  `json:"chunking" yaml:"chunking"`
	ChunkCount int           `json:"chunk_count,omitempty" yaml:"chunk_count,omitempty"`
	ChunkSize  int           `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	Split      SplitStrategy `json:"split,omitempty" yaml:"split,omitempty"`
}

func describeChunking(kind Kind, placement Placement, c Chunking) Descriptor {
	return Descriptor{
		Kind:       kind,
		Placement:  placement,
		Chunking:   c.Mode,
		ChunkCount: c.Count,
		ChunkSize:  c.Size,
		Split:      c.Split,
	}
}

// String renders the descriptor on one line, e.g.
//
//	dynamic(threadpool=default, chunking=fixed_count, chunk_count=8, split=batch)
func (d Descriptor) String() string {
	var parts []string
	if d.Threadpool != "" {
		parts = append(parts, "threadpool="+string(d.Threadpool))
	}
	if d.TaskCount > 0 {
		parts = append(parts, fmt.Sprintf("task_count=%d", d.TaskCount))
	}
	parts = append(parts, "chunking="+d.Chunking.String())
	if d.ChunkCount > 0 {
		parts = append(parts, fmt.Sprintf("chunk_count=%d", d.ChunkCount))
	}
	if d.ChunkSize > 0 {
		parts = append(parts, fmt.Sprintf("chunk_size=%d", d.ChunkSize))
	}
	if d.Split != 0 {
		parts = append(parts, "split="+d.Split.String())
	}
	return fmt.Sprintf("%s(%s)", d.Kind, strings.Join(parts, ", "))
}

// fields converts the descriptor to a map for canonical marshaling.
// Zero-valued optional fields are omitted, matching the JSON tags.
func (d Descriptor) fields() map[string]any {
	m := map[string]any{
		"kind":      string(d.Kind),
		"placement": string(d.Placement),
		"chunking":  d.Chunking.String(),
	}
	if d.Threadpool != "" {
		m["threadpool"] = string(d.Threadpool)
	}
	if d.TaskCount > 0 {
		m["task_count"] = d.TaskCount
	}
	if d.ChunkCount > 0 {
		m["chunk_count"] = d.ChunkCount
	}
	if d.ChunkSize > 0 {
		m["chunk_size"] = d.ChunkSize
	}
	if d.Split != 0 {
		m["split"] = d.Split.String()
	}
	return m
}
