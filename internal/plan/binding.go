package plan

// Handle identifies a task-local binding within a plan. It is the binding's
// position in declaration order.
type Handle int

// Initializer builds the value of a task-local binding. The engine calls it
// at most once per task, on that task's first access.
type Initializer func() (any, error)

// Binding is a named, typed, lazily-initialized per-task value.
type Binding struct {
	Name string
	Type string // Go type expression, e.g. "[]float64"
	Expr string // initializer source text, empty for Go-declared bindings
	Init Initializer
}

// BindingDescriptor is the serializable view of a Binding.
type BindingDescriptor struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Describe returns the binding's descriptor.
func (b Binding) Describe() BindingDescriptor {
	return BindingDescriptor{Name: b.Name, Type: b.Type, Expr: b.Expr}
}
