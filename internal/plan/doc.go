// Package plan provides the policy model for chunked parallel loops.
//
// This package contains the value types that describe HOW a loop over a
// collection should be executed: the scheduler variant, its chunking mode and
// sizing, the execution mode (foreach, collect or reduce) and the task-local
// bindings. The compiler package builds a Plan from directives; an execution
// engine consumes it. plan imports nothing internal.
//
// Key design constraints:
//   - Every value is validated when it is constructed. A Scheduler or Plan that
//     exists is internally consistent; consumers never re-validate.
//   - Scheduler is a closed set (Dynamic, Static, Greedy, Serial). Interpret it
//     with an exhaustive type switch.
//   - Values are immutable after construction. Accessors return copies.
//   - No floats in descriptors; fingerprints use RFC 8785 canonical JSON.
package plan
