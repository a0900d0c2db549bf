package testutil

import "math/rand"

// Router assigns work items to task indices the way an engine would at
// spawn time. Routes are reproducible for a given seed.
type Router struct {
	tasks int
	rng   *rand.Rand
}

// NewRouter creates a router over tasks task indices. tasks must be positive.
func NewRouter(tasks int, seed int64) *Router {
	if tasks <= 0 {
		panic("testutil: router needs at least one task")
	}
	return &Router{tasks: tasks, rng: rand.New(rand.NewSource(seed))}
}

// Route returns the task index for each of items work items. Every task
// index in the result is in [0, tasks).
func (r *Router) Route(items int) []int {
	out := make([]int, items)
	for i := range out {
		out[i] = r.rng.Intn(r.tasks)
	}
	return out
}

// Distinct returns the number of different task indices in routes.
func Distinct(routes []int) int {
	seen := make(map[int]struct{}, len(routes))
	for _, task := range routes {
		seen[task] = struct{}{}
	}
	return len(seen)
}
