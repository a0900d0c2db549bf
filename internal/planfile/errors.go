package planfile

import (
	"fmt"
	"strings"
)

// Error reports a plan document that could not be read, parsed, or that
// violates the document schema.
type Error struct {
	File    string
	Format  Format
	Path    string // JSON pointer-style location within the document, if known
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }
