package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/loopplan/internal/plan"
	"github.com/roach88/loopplan/internal/tasklocal"
	"github.com/roach88/loopplan/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	// Plan is the compiled plan, nil when compilation failed.
	Plan *plan.Plan

	// Compile compiles another plan document with the scenario's settings.
	Compile func(path string) (*plan.Plan, error)

	// Workers are the scenario's worker counts.
	Workers plan.Workers
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Type == AssertError {
		return assertError(result, a)
	}
	if actx.Plan == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a compiled plan",
			Actual:   fmt.Sprintf("compilation failed (%s): %s", result.Cause, result.Message),
		}
	}

	switch a.Type {
	case AssertScheduler:
		return assertScheduler(actx.Plan, a)
	case AssertMode:
		return assertMode(actx.Plan, a)
	case AssertBindings:
		return assertBindings(actx.Plan, a)
	case AssertRequiresCommutative:
		return assertRequiresCommutative(actx.Plan, a)
	case AssertSamePlan:
		return assertSamePlan(actx, a)
	case AssertInitOncePerTask:
		return assertInitOncePerTask(actx.Plan, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertError(result *Result, a Assertion) error {
	if result.Compiled() {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("configuration error %s", a.Cause),
			Actual:   "plan compiled",
		}
	}
	if result.Cause != a.Cause {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("configuration error %s", a.Cause),
			Actual:   fmt.Sprintf("%s: %s", result.Cause, result.Message),
		}
	}
	return nil
}

// assertScheduler subset-matches the scheduler descriptor. Values are
// compared in their printed form so YAML integers match JSON numbers.
func assertScheduler(p *plan.Plan, a Assertion) error {
	data, err := json.Marshal(p.Scheduler().Describe())
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		return fmt.Errorf("unmarshal descriptor: %w", err)
	}

	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		want := a.Fields[k]
		have, ok := got[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s missing (want %v)", k, want))
			continue
		}
		if fmt.Sprint(have) != fmt.Sprint(want) {
			mismatches = append(mismatches, fmt.Sprintf("%s = %v (want %v)", k, have, want))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertScheduler,
			Expected: fmt.Sprintf("%v", a.Fields),
			Actual:   fmt.Sprintf("%s: %s", p.Scheduler().Describe(), strings.Join(mismatches, ", ")),
		}
	}
	return nil
}

func assertMode(p *plan.Plan, a Assertion) error {
	want, _ := a.Value.(string)
	if got := p.Mode().String(); got != want {
		return &AssertionError{Type: AssertMode, Expected: want, Actual: got}
	}
	return nil
}

func assertBindings(p *plan.Plan, a Assertion) error {
	got := []string{}
	for _, b := range p.Bindings() {
		got = append(got, b.Name)
	}
	want := append([]string{}, a.Names...)
	if !reflect.DeepEqual(got, want) {
		return &AssertionError{
			Type:     AssertBindings,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertRequiresCommutative(p *plan.Plan, a Assertion) error {
	want, _ := a.Value.(bool)
	if got := plan.RequiresCommutative(p.Scheduler()); got != want {
		return &AssertionError{
			Type:     AssertRequiresCommutative,
			Expected: fmt.Sprintf("%t", want),
			Actual:   fmt.Sprintf("%t for %s", got, p.Scheduler().Describe()),
		}
	}
	return nil
}

func assertSamePlan(actx *AssertionContext, a Assertion) error {
	other, err := actx.Compile(a.Plan)
	if err != nil {
		return &AssertionError{
			Type:     AssertSamePlan,
			Expected: fmt.Sprintf("%s compiles", a.Plan),
			Actual:   err.Error(),
		}
	}
	want, err := other.Fingerprint()
	if err != nil {
		return err
	}
	got, err := actx.Plan.Fingerprint()
	if err != nil {
		return err
	}
	if got != want {
		return &AssertionError{
			Type:     AssertSamePlan,
			Expected: fmt.Sprintf("fingerprint %s (%s)", want, a.Plan),
			Actual:   fmt.Sprintf("fingerprint %s", got),
		}
	}
	return nil
}

// assertInitOncePerTask routes Items work items across Tasks simulated tasks
// and checks that each binding was initialized once per task that received
// work.
func assertInitOncePerTask(p *plan.Plan, a Assertion) error {
	bindings := p.Bindings()
	counters := make([]*testutil.CountingInit, len(bindings))
	for i := range bindings {
		counters[i] = testutil.NewCountingInit(nil)
		bindings[i].Init = counters[i].Wrap(bindings[i].Init)
	}

	arena, err := tasklocal.NewArena(bindings, a.Tasks)
	if err != nil {
		return err
	}

	routes := testutil.NewRouter(a.Tasks, a.Seed).Route(a.Items)
	for _, task := range routes {
		scope, err := arena.Scope(task)
		if err != nil {
			return err
		}
		for h := range bindings {
			if _, err := scope.Get(plan.Handle(h)); err != nil {
				return &AssertionError{
					Type:     AssertInitOncePerTask,
					Expected: fmt.Sprintf("binding %s initializes", bindings[h].Name),
					Actual:   err.Error(),
				}
			}
		}
	}

	used := testutil.Distinct(routes)
	for i, c := range counters {
		if c.Calls() != used || c.Calls() > a.Tasks {
			return &AssertionError{
				Type:     AssertInitOncePerTask,
				Expected: fmt.Sprintf("binding %s initialized %d times (tasks used)", bindings[i].Name, used),
				Actual:   fmt.Sprintf("%d initializations", c.Calls()),
			}
		}
	}
	return nil
}
