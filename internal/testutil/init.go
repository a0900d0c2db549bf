package testutil

import (
	"sync"

	"github.com/roach88/loopplan/internal/plan"
)

// CountingInit wraps a value constructor and counts how many times it runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingInit struct {
	mu       sync.Mutex
	calls    int
	newValue func() any
}

// NewCountingInit creates a counter around newValue. A nil newValue
// produces nil values.
func NewCountingInit(newValue func() any) *CountingInit {
	if newValue == nil {
		newValue = func() any { return nil }
	}
	return &CountingInit{newValue: newValue}
}

// Initializer returns a plan.Initializer that records each call.
func (c *CountingInit) Initializer() plan.Initializer {
	return func() (any, error) {
		c.mu.Lock()
		c.calls++
		c.mu.Unlock()
		return c.newValue(), nil
	}
}

// Calls returns the number of initializer calls so far.
func (c *CountingInit) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Wrap returns an initializer that records each call and then delegates to
// init. The counter's own constructor is not used.
func (c *CountingInit) Wrap(init plan.Initializer) plan.Initializer {
	return func() (any, error) {
		c.mu.Lock()
		c.calls++
		c.mu.Unlock()
		return init()
	}
}
