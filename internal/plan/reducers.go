package plan

// Builtin reducers addressable by name from plan files. All of them are
// associative and commutative over the numeric types they accept.
var builtinReducers = map[string]Combiner{
	"+": arith(
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b },
	),
	"*": arith(
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b },
	),
	"max": arith(
		func(a, b int64) int64 { return max(a, b) },
		func(a, b float64) float64 { return max(a, b) },
	),
	"min": arith(
		func(a, b int64) int64 { return min(a, b) },
		func(a, b float64) float64 { return min(a, b) },
	),
}

// LookupReducer returns the builtin reducer with the given name.
func LookupReducer(name string) (Reducer, bool) {
	fn, ok := builtinReducers[name]
	if !ok {
		return Reducer{}, false
	}
	return Reducer{Name: name, Combine: fn}, true
}

// BuiltinReducerNames lists the names accepted by LookupReducer.
func BuiltinReducerNames() []string {
	return []string{"+", "*", "max", "min"}
}

// arith lifts integer and float operations to a Combiner. Two ints stay int,
// two int64s stay int64, anything else numeric is combined as float64.
// Non-numeric operands panic: the engine propagates it as a loop failure.
func arith(fi func(a, b int64) int64, ff func(a, b float64) float64) Combiner {
	return func(acc, x any) any {
		switch a := acc.(type) {
		case int:
			if b, ok := x.(int); ok {
				return int(fi(int64(a), int64(b)))
			}
		case int64:
			if b, ok := x.(int64); ok {
				return fi(a, b)
			}
		}
		return ff(toFloat(acc), toFloat(x))
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		panic("plan: builtin reducer applied to non-numeric value")
	}
}
