package plan

import "runtime"

// Threadpool names the worker pool a Dynamic scheduler draws from.
type Threadpool string

const (
	DefaultPool     Threadpool = "default"
	InteractivePool Threadpool = "interactive"
)

// ValidThreadpools defines allowed threadpool names.
var ValidThreadpools = map[Threadpool]bool{
	DefaultPool:     true,
	InteractivePool: true,
}

// Workers reports how many workers a pool has available. Scheduler defaults
// are derived from it.
type Workers interface {
	Available(pool Threadpool) int
}

// WorkerCounts is a fixed Workers implementation.
//
// A zero Default falls back to runtime.GOMAXPROCS(0). A zero Interactive falls
// back to a single worker: the Go runtime has no separate interactive pool.
type WorkerCounts struct {
	Default     int
	Interactive int
}

// Available implements Workers.
func (w WorkerCounts) Available(pool Threadpool) int {
	if pool == InteractivePool {
		if w.Interactive > 0 {
			return w.Interactive
		}
		return 1
	}
	if w.Default > 0 {
		return w.Default
	}
	return runtime.GOMAXPROCS(0)
}

// DefaultWorkers sizes schedulers from the running process.
var DefaultWorkers Workers = WorkerCounts{}
