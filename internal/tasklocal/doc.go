// Package tasklocal holds per-task values for a plan's task-local bindings.
//
// An Arena has one Scope per task index. The execution engine assigns task
// indices when it spawns tasks and hands each task its own Scope. A binding's
// initializer runs on the first Get in a scope and the result is reused for
// every later work item of that task. There is no global state; a value is
// reachable only through the scope that created it.
package tasklocal
