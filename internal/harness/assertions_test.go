package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopplan/internal/compiler"
	"github.com/roach88/loopplan/internal/plan"
)

func compileForTest(t *testing.T, directives ...compiler.Directive) *plan.Plan {
	t.Helper()
	p, err := compiler.New(compiler.WithWorkers(plan.WorkerCounts{Default: 4})).Compile(directives, nil)
	require.NoError(t, err)
	return p
}

func TestAssertSchedulerSubsetMatch(t *testing.T) {
	p := compileForTest(t, compiler.Set(compiler.OptionScheduler, "greedy"))

	assert.NoError(t, assertScheduler(p, Assertion{Fields: map[string]any{"kind": "greedy", "task_count": 4}}))
	assert.NoError(t, assertScheduler(p, Assertion{Fields: map[string]any{"chunking": "none"}}))

	err := assertScheduler(p, Assertion{Fields: map[string]any{"chunk_count": 16}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "chunk_count missing")
}

func TestAssertBindingsOrder(t *testing.T) {
	p := compileForTest(t,
		compiler.Declare("b", func() int { return 0 }),
		compiler.Declare("a", func() int { return 0 }),
	)
	assert.NoError(t, assertBindings(p, Assertion{Names: []string{"b", "a"}}))
	assert.Error(t, assertBindings(p, Assertion{Names: []string{"a", "b"}}))
	assert.Error(t, assertBindings(p, Assertion{Names: []string{}}))
}

func TestAssertRequiresCommutative(t *testing.T) {
	greedy := compileForTest(t, compiler.Set(compiler.OptionScheduler, "greedy"))
	assert.NoError(t, assertRequiresCommutative(greedy, Assertion{Value: true}))

	scatter := compileForTest(t, compiler.Set(compiler.OptionScheduler,
		map[string]any{"kind": "dynamic", "split": "scatter"}))
	assert.NoError(t, assertRequiresCommutative(scatter, Assertion{Value: true}))

	static := compileForTest(t, compiler.Set(compiler.OptionScheduler, "static"))
	assert.Error(t, assertRequiresCommutative(static, Assertion{Value: true}))
}

func TestAssertInitOncePerTask(t *testing.T) {
	p := compileForTest(t,
		compiler.Declare("buf", func() []byte { return make([]byte, 8) }),
		compiler.Declare("seen", func() map[int]bool { return map[int]bool{} }),
	)

	for _, a := range []Assertion{
		{Tasks: 1, Items: 10, Seed: 1},
		{Tasks: 5, Items: 5, Seed: 2},
		{Tasks: 8, Items: 200, Seed: 3},
		{Tasks: 3, Items: 0, Seed: 4},
	} {
		assert.NoError(t, assertInitOncePerTask(p, a), "tasks=%d items=%d", a.Tasks, a.Items)
	}
}

func TestAssertInitOncePerTaskReportsInitError(t *testing.T) {
	p := compileForTest(t, compiler.DeclareBinding{
		Name: "conn",
		Type: "int",
		Init: func() (any, error) { return nil, assert.AnError },
	})
	err := assertInitOncePerTask(p, Assertion{Tasks: 2, Items: 3, Seed: 1})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertInitOncePerTask, ae.Type)
}

func TestAssertSamePlan(t *testing.T) {
	p := compileForTest(t, compiler.Set(compiler.OptionScheduler, "static"))
	other := compileForTest(t, compiler.Set(compiler.OptionScheduler, "static"))
	different := compileForTest(t, compiler.Set(compiler.OptionScheduler, "serial"))

	actx := &AssertionContext{Plan: p, Compile: func(path string) (*plan.Plan, error) {
		if path == "same" {
			return other, nil
		}
		return different, nil
	}}
	assert.NoError(t, assertSamePlan(actx, Assertion{Plan: "same"}))
	assert.Error(t, assertSamePlan(actx, Assertion{Plan: "different"}))
}
