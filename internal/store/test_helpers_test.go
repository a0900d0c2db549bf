package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/loopplan/internal/plan"
)

var testWorkers = plan.WithWorkers(plan.WorkerCounts{Default: 4, Interactive: 2})

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPlan assembles a Greedy reduce plan with one binding.
func createTestPlan(t *testing.T, taskCount int) *plan.Plan {
	t.Helper()
	g, err := plan.NewGreedy(testWorkers, plan.WithTaskCount(taskCount))
	if err != nil {
		t.Fatalf("NewGreedy() failed: %v", err)
	}
	add, _ := plan.LookupReducer("+")
	mode, err := plan.ReduceMode(add)
	if err != nil {
		t.Fatalf("ReduceMode() failed: %v", err)
	}
	p, err := plan.Assemble(g, mode, []plan.Binding{{
		Name: "acc",
		Type: "int",
		Expr: "0",
		Init: func() (any, error) { return 0, nil },
	}})
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	return p
}

// verifyPragma checks that a pragma reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
