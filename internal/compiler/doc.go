// Package compiler turns an ordered list of directives into a validated,
// immutable plan.Plan.
//
// A directive either sets an option (scheduler, reducer, collect) or
// declares a task-local binding. Front ends (plan files, builder code) build
// the directive list; the compiler never inspects source syntax beyond the
// `name Type = expr` form of textual binding declarations.
//
// Merge rules:
//   - Options: last write wins per key, in list order, across any number of
//     option blocks.
//   - Bindings: a name may be declared once. A second declaration is an
//     error no matter where it appears.
//
// All failures are *plan.ConfigurationError and are raised at compile time.
package compiler
