package harness

import "github.com/roach88/loopplan/internal/plan"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions match.
	Pass bool `json:"pass"`

	// Descriptor is the compiled plan, nil when compilation failed.
	Descriptor *plan.PlanDescriptor `json:"descriptor,omitempty"`

	// Fingerprint of the compiled plan.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Cause is the configuration error cause when compilation failed.
	// Documents that fail to load report CauseInvalidDocument.
	Cause string `json:"cause,omitempty"`

	// Message is the compilation error message, if any.
	Message string `json:"message,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// CauseInvalidDocument is reported when a plan document cannot be loaded.
const CauseInvalidDocument = "invalid_document"

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Compiled reports whether the scenario produced a plan.
func (r *Result) Compiled() bool {
	return r.Descriptor != nil
}
