package plan

import "fmt"

// ModeKind selects how per-element results are aggregated.
type ModeKind int

const (
	// Foreach runs the loop body for its side effects and discards results.
	Foreach ModeKind = iota
	// Collect gathers results into a sequence in input order. The engine
	// restores order by tagging results with their source index, so Collect
	// is safe under Scatter and Greedy execution.
	Collect
	// Reduce folds results with the plan's reducer.
	Reduce
)

func (k ModeKind) String() string {
	switch k {
	case Foreach:
		return "foreach"
	case Collect:
		return "collect"
	case Reduce:
		return "reduce"
	default:
		return fmt.Sprintf("ModeKind(%d)", int(k))
	}
}

// Combiner folds two partial results into one. It must be associative, and
// also commutative when the scheduler is Greedy or splits with Scatter.
type Combiner func(acc, x any) any

// Reducer is a named Combiner. The name identifies the reducer in
// descriptors and fingerprints since functions are not comparable.
type Reducer struct {
	Name    string
	Combine Combiner
}

// Mode is the execution mode of a plan.
type Mode struct {
	kind    ModeKind
	reducer Reducer
}

// ForeachMode returns the side-effect-only mode.
func ForeachMode() Mode { return Mode{kind: Foreach} }

// CollectMode returns the ordered-collection mode.
func CollectMode() Mode { return Mode{kind: Collect} }

// ReduceMode returns a reduction mode folding with r.
func ReduceMode(r Reducer) (Mode, error) {
	if r.Combine == nil {
		return Mode{}, NewConfigurationError(CauseInvalidReducer, "reducer",
			"reducer %q has no combine function", r.Name)
	}
	if r.Name == "" {
		r.Name = "func"
	}
	return Mode{kind: Reduce, reducer: r}, nil
}

// Kind returns the mode kind.
func (m Mode) Kind() ModeKind { return m.kind }

// Reducer returns the reducer and true when the mode is Reduce.
func (m Mode) Reducer() (Reducer, bool) {
	if m.kind != Reduce {
		return Reducer{}, false
	}
	return m.reducer, true
}

func (m Mode) String() string {
	if m.kind == Reduce {
		return fmt.Sprintf("reduce(%s)", m.reducer.Name)
	}
	return m.kind.String()
}
