package plan

import (
	"fmt"
	"slices"
)

// Plan is the compiled, immutable execution plan handed to an engine: which
// scheduler to use, how to aggregate results, and which task-local values
// each task carries.
type Plan struct {
	scheduler Scheduler
	mode      Mode
	bindings  []Binding
	index     map[string]Handle
}

// Assemble builds a Plan. The compiler is the normal caller; Assemble still
// re-checks the invariants it relies on so no inconsistent Plan can exist.
func Assemble(s Scheduler, mode Mode, bindings []Binding) (*Plan, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	if mode.kind == Reduce && mode.reducer.Combine == nil {
		return nil, NewConfigurationError(CauseInvalidReducer, "reducer", "reduce mode without a combine function")
	}

	p := &Plan{
		scheduler: s,
		mode:      mode,
		bindings:  slices.Clone(bindings),
		index:     make(map[string]Handle, len(bindings)),
	}
	for i, b := range p.bindings {
		if b.Init == nil {
			return nil, NewConfigurationError(CauseMalformedBinding, b.Name, "binding has no initializer")
		}
		if _, dup := p.index[b.Name]; dup {
			return nil, NewConfigurationError(CauseDuplicateBinding, b.Name,
				"binding %q declared more than once", b.Name)
		}
		p.index[b.Name] = Handle(i)
	}
	return p, nil
}

// Scheduler returns the plan's scheduler.
func (p *Plan) Scheduler() Scheduler { return p.scheduler }

// Mode returns the plan's execution mode.
func (p *Plan) Mode() Mode { return p.mode }

// Bindings returns the task-local bindings in declaration order.
// The returned slice is a copy.
func (p *Plan) Bindings() []Binding { return slices.Clone(p.bindings) }

// Lookup returns the handle of the binding with the given name.
func (p *Plan) Lookup(name string) (Handle, bool) {
	h, ok := p.index[name]
	return h, ok
}

// Binding returns the binding for h.
func (p *Plan) Binding(h Handle) (Binding, error) {
	if int(h) < 0 || int(h) >= len(p.bindings) {
		return Binding{}, fmt.Errorf("binding handle %d out of range [0, %d)", h, len(p.bindings))
	}
	return p.bindings[h], nil
}

// PlanDescriptor is the serializable view of a Plan.
type PlanDescriptor struct {
	Scheduler Descriptor          `json:"scheduler" yaml:"scheduler"`
	Mode      string              `json:"mode" yaml:"mode"`
	Reducer   string              `json:"reducer,omitempty" yaml:"reducer,omitempty"`
	Bindings  []BindingDescriptor `json:"bindings" yaml:"bindings"`
}

// Describe returns the plan's descriptor. Two structurally equal plans have
// equal descriptors.
func (p *Plan) Describe() PlanDescriptor {
	d := PlanDescriptor{
		Scheduler: p.scheduler.Describe(),
		Mode:      p.mode.kind.String(),
		Bindings:  make([]BindingDescriptor, len(p.bindings)),
	}
	if r, ok := p.mode.Reducer(); ok {
		d.Reducer = r.Name
	}
	for i, b := range p.bindings {
		d.Bindings[i] = b.Describe()
	}
	return d
}

// Canonical returns the RFC 8785 canonical JSON of the plan's descriptor.
func (p *Plan) Canonical() ([]byte, error) {
	return p.Describe().Canonical()
}

// Canonical returns the RFC 8785 canonical JSON of the descriptor.
func (d PlanDescriptor) Canonical() ([]byte, error) {
	return MarshalCanonical(d.Fields())
}

// Fields converts the descriptor to the generic form accepted by
// MarshalCanonical. Zero-valued optional fields are omitted.
func (d PlanDescriptor) Fields() map[string]any {
	bindings := make([]any, len(d.Bindings))
	for i, b := range d.Bindings {
		m := map[string]any{"name": b.Name, "type": b.Type}
		if b.Expr != "" {
			m["expr"] = b.Expr
		}
		bindings[i] = m
	}
	obj := map[string]any{
		"scheduler": d.Scheduler.fields(),
		"mode":      d.Mode,
		"bindings":  bindings,
	}
	if d.Reducer != "" {
		obj["reducer"] = d.Reducer
	}
	return obj
}

// Fingerprint returns the content-addressed identity of the plan. Compiling
// the same directives twice yields the same fingerprint.
func (p *Plan) Fingerprint() (string, error) {
	canonical, err := p.Canonical()
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}
