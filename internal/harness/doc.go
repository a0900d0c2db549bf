// Package harness provides conformance testing for loop plans.
//
// A scenario names a plan document, the worker counts to compile it with, and
// assertions about the compiled plan or the configuration error it produces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: greedy_reduce
//	description: "Greedy reduction with explicit chunking"
//	plan: ../plans/reduce.yaml        # or an inline document:
//	document:
//	  set:
//	    - scheduler: {kind: greedy, task_count: 3}
//	  local:
//	    - acc int = 0
//	workers: {default: 4, interactive: 1}
//	default_scheduler: serial          # optional
//	assertions:
//	  - type: scheduler
//	    fields: {kind: greedy, task_count: 3}
//	  - type: mode
//	    value: "reduce(+)"
//
// Plan paths are resolved relative to the scenario file.
//
// # Assertion Types
//
//   - scheduler: subset match against the scheduler descriptor
//   - mode: exact match against the mode, e.g. "collect" or "reduce(max)"
//   - bindings: binding names in declaration order
//   - error: compilation fails with the given cause
//   - requires_commutative: whether reductions need a commutative combiner
//   - same_plan: another plan document compiles to the same fingerprint
//   - init_once_per_task: simulated tasks initialize each binding at most once
//
// # Deterministic Testing
//
// Worker counts come from the scenario, never from the host, and each run
// records its plan into a fresh in-memory store. Golden snapshots are RFC 8785
// canonical JSON so identical plans produce byte-identical files.
package harness
