package plan

import (
	"errors"
	"fmt"
)

// Cause identifies why a configuration was rejected.
type Cause string

// Configuration error causes.
const (
	CauseExclusiveSizing     Cause = "exclusive_sizing"        // chunk count and chunk size both given
	CauseMissingSizing       Cause = "missing_sizing"          // chunking requested without a sizing parameter
	CauseInvalidThreadpool   Cause = "invalid_threadpool"      // threadpool not in {default, interactive}
	CauseNonPositiveTasks    Cause = "non_positive_task_count" // greedy task count <= 0
	CauseUnknownOption       Cause = "unknown_option"          // option name not recognized
	CauseCollectNotBool      Cause = "collect_not_bool"        // collect value is not a literal bool
	CauseUnknownScheduler    Cause = "unknown_scheduler"       // scheduler shorthand not recognized
	CauseDuplicateBinding    Cause = "duplicate_binding"       // binding name declared twice
	CauseMalformedBinding    Cause = "malformed_binding"       // declaration is not `name Type = expr`
	CauseCollectWithReducer  Cause = "collect_with_reducer"    // collect and reducer both set
	CauseInvalidSchedulerArg Cause = "invalid_scheduler_parameter"
	CauseInvalidReducer      Cause = "invalid_reducer"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError is raised synchronously when a scheduler, binding or plan
// cannot be constructed. It is the only error kind this package produces.
type ConfigurationError struct {
	Cause   Cause
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration: %s", e.Message)
}

// Is reports whether target is ErrConfiguration or a ConfigurationError with
// the same cause.
func (e *ConfigurationError) Is(target error) bool {
	if target == ErrConfiguration {
		return true
	}
	var other *ConfigurationError
	if errors.As(target, &other) {
		return other.Cause == e.Cause
	}
	return false
}

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(cause Cause, field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Cause:   cause,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// CauseOf extracts the cause from err if it wraps a ConfigurationError.
func CauseOf(err error) (Cause, bool) {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Cause, true
	}
	return "", false
}
