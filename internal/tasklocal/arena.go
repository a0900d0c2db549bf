package tasklocal

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/loopplan/internal/plan"
)

// ErrReleased is returned when a released scope is accessed.
var ErrReleased = errors.New("tasklocal: scope released")

// Arena owns the scopes of one plan execution, indexed by task.
type Arena struct {
	bindings []plan.Binding
	scopes   []*Scope
}

// NewArena creates an arena with tasks scopes for bindings.
func NewArena(bindings []plan.Binding, tasks int) (*Arena, error) {
	if tasks <= 0 {
		return nil, fmt.Errorf("tasklocal: task count must be positive, got %d", tasks)
	}
	a := &Arena{
		bindings: slices.Clone(bindings),
		scopes:   make([]*Scope, tasks),
	}
	for i := range a.scopes {
		a.scopes[i] = &Scope{
			task:  i,
			arena: a,
			cells: make([]*cell, len(a.bindings)),
		}
		for j := range a.scopes[i].cells {
			a.scopes[i].cells[j] = new(cell)
		}
	}
	return a, nil
}

// ForPlan creates an arena for the bindings of p.
func ForPlan(p *plan.Plan, tasks int) (*Arena, error) {
	return NewArena(p.Bindings(), tasks)
}

// Tasks returns the number of scopes.
func (a *Arena) Tasks() int { return len(a.scopes) }

// Scope returns the scope of task.
func (a *Arena) Scope(task int) (*Scope, error) {
	if task < 0 || task >= len(a.scopes) {
		return nil, fmt.Errorf("tasklocal: task %d out of range [0, %d)", task, len(a.scopes))
	}
	return a.scopes[task], nil
}

// Release drops the values of task's scope. Later access through that scope
// fails with ErrReleased. Releasing twice is a no-op.
func (a *Arena) Release(task int) error {
	s, err := a.Scope(task)
	if err != nil {
		return err
	}
	s.release()
	return nil
}

// cell holds one binding of one scope. once guards value and err; done is
// readable without it.
type cell struct {
	once  sync.Once
	done  atomic.Bool
	value any
	err   error
}

// Scope is the task-local state of one task.
//
// Thread-safety: a scope normally belongs to a single task, but all methods
// are safe for concurrent use.
type Scope struct {
	task  int
	arena *Arena

	mu       sync.Mutex // guards cells and released, not initialization
	cells    []*cell
	released bool
}

// Task returns the task index of the scope.
func (s *Scope) Task() int { return s.task }

// Get returns the value of binding h, running its initializer on first use.
// An initializer error or panic is cached like a value and returned on every
// call.
//
// The initializer runs without the scope lock, so it may read other bindings
// of the same scope. An initializer that reads its own binding never returns.
func (s *Scope) Get(h plan.Handle) (any, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, ErrReleased
	}
	if int(h) < 0 || int(h) >= len(s.cells) {
		s.mu.Unlock()
		return nil, fmt.Errorf("tasklocal: unknown binding handle %d", h)
	}
	c := s.cells[h]
	s.mu.Unlock()

	c.once.Do(func() {
		b := s.arena.bindings[h]
		defer func() {
			if r := recover(); r != nil {
				c.err = fmt.Errorf("initialize %s: panic: %v", b.Name, r)
			}
			c.done.Store(true)
		}()
		c.value, c.err = b.Init()
		if c.err != nil {
			c.err = fmt.Errorf("initialize %s: %w", b.Name, c.err)
		}
	})
	return c.value, c.err
}

// Initialized reports whether binding h has been initialized in this scope.
func (s *Scope) Initialized(h plan.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(h) >= 0 && int(h) < len(s.cells) && s.cells[h].done.Load()
}

func (s *Scope) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.cells = nil
}

// Value returns binding h of s as a T.
func Value[T any](s *Scope, h plan.Handle) (T, error) {
	var zero T
	v, err := s.Get(h)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("tasklocal: binding %d holds %T, not %T", h, v, zero)
	}
	return t, nil
}
