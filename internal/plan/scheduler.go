package plan

import "fmt"

// Kind names a scheduler variant.
type Kind string

const (
	KindDynamic Kind = "dynamic"
	KindStatic  Kind = "static"
	KindGreedy  Kind = "greedy"
	KindSerial  Kind = "serial"
)

// Placement describes how tasks are bound to workers.
type Placement string

const (
	// PlacementMigrating lets the runtime move tasks between workers.
	PlacementMigrating Placement = "migrating"
	// PlacementSticky pins each task to a pre-assigned worker.
	PlacementSticky Placement = "sticky"
	// PlacementSharedQueue runs persistent tasks that pull from one queue.
	PlacementSharedQueue Placement = "shared_queue"
	// PlacementInline runs everything in the calling task.
	PlacementInline Placement = "inline"
)

// Scheduler is a sealed interface over the four scheduler variants.
// Only Dynamic, Static, Greedy and Serial implement it.
type Scheduler interface {
	Kind() Kind
	Describe() Descriptor
	validate() error // Sealed
}

// Validate checks that s came out of a constructor. Zero-value literals such
// as Greedy{} and Dynamic{} fail with the cause their constructor would have
// reported; pointers to the variants are not schedulers.
func Validate(s Scheduler) error {
	switch s.(type) {
	case nil:
		return NewConfigurationError(CauseUnknownScheduler, "scheduler", "scheduler is required")
	case Dynamic, Static, Greedy, Serial:
		return s.validate()
	default:
		return NewConfigurationError(CauseUnknownScheduler, "scheduler",
			"scheduler must be a Dynamic, Static, Greedy or Serial value, got %T", s)
	}
}

// Chunking is the resolved sizing of a chunked scheduler. Count, Size and
// Split are zero when Mode is NoChunking.
type Chunking struct {
	Mode  ChunkingMode
	Count int
	Size  int
	Split SplitStrategy
}

// Enabled reports whether the collection is grouped into chunks.
func (c Chunking) Enabled() bool {
	return c.Mode != NoChunking
}

// resolveChunking threads raw settings through ResolveChunking. defaultCount
// applies only when neither chunk_count nor chunk_size was given.
func resolveChunking(s settings, want bool, defaultCount int, defaultSplit SplitStrategy) (Chunking, error) {
	if !want {
		return Chunking{Mode: NoChunking}, nil
	}

	count, size := s.chunkCount, s.chunkSize
	if !s.sizingGiven() {
		count, size = defaultCount, 0
	}

	mode, err := ResolveChunking(true, count, size)
	if err != nil {
		return Chunking{}, err
	}

	split := s.split
	if split == 0 {
		split = defaultSplit
	}
	if !split.Valid() {
		return Chunking{}, NewConfigurationError(CauseInvalidSchedulerArg, "split",
			"unknown split strategy %d: must be batch or scatter", int(split))
	}

	c := Chunking{Mode: mode, Split: split}
	switch mode {
	case FixedCount:
		c.Count = count
	case FixedSize:
		c.Size = size
	}
	return c, nil
}

// validate checks the invariants resolveChunking establishes.
func (c Chunking) validate() error {
	switch c.Mode {
	case NoChunking:
		if c.Count != 0 || c.Size != 0 || c.Split != 0 {
			return NewConfigurationError(CauseInvalidSchedulerArg, "chunking",
				"unchunked scheduler carries sizing %+v", c)
		}
		return nil
	case FixedCount:
		if c.Count <= 0 || c.Size != 0 {
			return NewConfigurationError(CauseMissingSizing, "chunk_count",
				"fixed-count chunking needs a positive count and no size, got %+v", c)
		}
	case FixedSize:
		if c.Size <= 0 || c.Count != 0 {
			return NewConfigurationError(CauseMissingSizing, "chunk_size",
				"fixed-size chunking needs a positive size and no count, got %+v", c)
		}
	default:
		return NewConfigurationError(CauseInvalidSchedulerArg, "chunking", "unknown chunking mode %d", int(c.Mode))
	}
	if !c.Split.Valid() {
		return NewConfigurationError(CauseInvalidSchedulerArg, "split",
			"unknown split strategy %d: must be batch or scatter", int(c.Split))
	}
	return nil
}

// defaultPoolOnly rejects any threadpool other than DefaultPool for variants
// that always run on the default pool.
func defaultPoolOnly(s settings, kind Kind) error {
	if s.threadpoolSet && s.threadpool != DefaultPool {
		return NewConfigurationError(CauseInvalidThreadpool, "threadpool",
			"%s scheduler always runs on the %q threadpool, got %q", kind, DefaultPool, s.threadpool)
	}
	return nil
}

// Dynamic spawns one task per chunk. Tasks may migrate across workers.
type Dynamic struct {
	threadpool Threadpool
	chunking   Chunking
}

// NewDynamic builds a Dynamic scheduler.
//
// Defaults: default threadpool, chunking on, chunk_count = 2 x available
// workers of the selected pool, Batch split.
func NewDynamic(opts ...Option) (Dynamic, error) {
	s := newSettings(opts)

	pool := DefaultPool
	if s.threadpoolSet {
		pool = s.threadpool
	}
	if !ValidThreadpools[pool] {
		return Dynamic{}, NewConfigurationError(CauseInvalidThreadpool, "threadpool",
			"unknown threadpool %q: must be default or interactive", pool)
	}

	want := true
	if s.chunkingSet {
		want = s.chunking
	}

	c, err := resolveChunking(s, want, 2*s.workers.Available(pool), Batch)
	if err != nil {
		return Dynamic{}, err
	}
	return Dynamic{threadpool: pool, chunking: c}, nil
}

func (d Dynamic) validate() error {
	if !ValidThreadpools[d.threadpool] {
		return NewConfigurationError(CauseInvalidThreadpool, "threadpool",
			"unknown threadpool %q: must be default or interactive", d.threadpool)
	}
	return d.chunking.validate()
}

// Kind implements Scheduler.
func (Dynamic) Kind() Kind { return KindDynamic }

// Threadpool returns the pool tasks are spawned on.
func (d Dynamic) Threadpool() Threadpool { return d.threadpool }

// Chunking returns the resolved chunking.
func (d Dynamic) Chunking() Chunking { return d.chunking }

// Describe implements Scheduler.
func (d Dynamic) Describe() Descriptor {
	desc := describeChunking(KindDynamic, PlacementMigrating, d.chunking)
	desc.Threadpool = d.threadpool
	return desc
}

// Static spawns one task per chunk, each pinned to a pre-assigned worker of
// the default pool. Chunks are assigned round-robin when there are more
// chunks than workers.
type Static struct {
	chunking Chunking
}

// NewStatic builds a Static scheduler.
//
// Defaults: chunking on, chunk_count = available workers of the default pool,
// Batch split.
func NewStatic(opts ...Option) (Static, error) {
	s := newSettings(opts)
	if err := defaultPoolOnly(s, KindStatic); err != nil {
		return Static{}, err
	}

	want := true
	if s.chunkingSet {
		want = s.chunking
	}

	c, err := resolveChunking(s, want, s.workers.Available(DefaultPool), Batch)
	if err != nil {
		return Static{}, err
	}
	return Static{chunking: c}, nil
}

func (st Static) validate() error { return st.chunking.validate() }

// Kind implements Scheduler.
func (Static) Kind() Kind { return KindStatic }

// Chunking returns the resolved chunking.
func (st Static) Chunking() Chunking { return st.chunking }

// Describe implements Scheduler.
func (st Static) Describe() Descriptor {
	desc := describeChunking(KindStatic, PlacementSticky, st.chunking)
	desc.Threadpool = DefaultPool
	return desc
}

// Greedy runs TaskCount persistent tasks that pull chunks, or raw elements
// when unchunked, from one shared queue until it is exhausted. Assignment of
// work to tasks is non-deterministic.
type Greedy struct {
	taskCount int
	chunking  Chunking
}

// NewGreedy builds a Greedy scheduler.
//
// Defaults: task_count = available workers of the default pool, chunking off.
// Giving chunk_count or chunk_size forces chunking on; then chunk_count
// defaults to 4 x available workers and the split to Scatter.
func NewGreedy(opts ...Option) (Greedy, error) {
	s := newSettings(opts)
	if err := defaultPoolOnly(s, KindGreedy); err != nil {
		return Greedy{}, err
	}

	taskCount := s.workers.Available(DefaultPool)
	if s.taskCountSet {
		taskCount = s.taskCount
	}
	if taskCount <= 0 {
		return Greedy{}, NewConfigurationError(CauseNonPositiveTasks, "task_count",
			"task_count must be a positive integer, got %d", taskCount)
	}

	want := s.chunkingSet && s.chunking
	if s.sizingGiven() {
		want = true
	}

	c, err := resolveChunking(s, want, 4*s.workers.Available(DefaultPool), Scatter)
	if err != nil {
		return Greedy{}, err
	}
	return Greedy{taskCount: taskCount, chunking: c}, nil
}

func (g Greedy) validate() error {
	if g.taskCount <= 0 {
		return NewConfigurationError(CauseNonPositiveTasks, "task_count",
			"task_count must be a positive integer, got %d", g.taskCount)
	}
	return g.chunking.validate()
}

// Kind implements Scheduler.
func (Greedy) Kind() Kind { return KindGreedy }

// TaskCount returns the number of persistent tasks.
func (g Greedy) TaskCount() int { return g.taskCount }

// Chunking returns the resolved chunking.
func (g Greedy) Chunking() Chunking { return g.chunking }

// Describe implements Scheduler.
func (g Greedy) Describe() Descriptor {
	desc := describeChunking(KindGreedy, PlacementSharedQueue, g.chunking)
	desc.Threadpool = DefaultPool
	desc.TaskCount = g.taskCount
	return desc
}

// Serial processes the whole collection in one logical task. Used for
// reference results and debugging.
type Serial struct{}

// NewSerial builds a Serial scheduler.
func NewSerial() Serial { return Serial{} }

func (Serial) validate() error { return nil }

// Kind implements Scheduler.
func (Serial) Kind() Kind { return KindSerial }

// Describe implements Scheduler.
func (Serial) Describe() Descriptor {
	return Descriptor{Kind: KindSerial, Placement: PlacementInline, Chunking: NoChunking}
}

// NewByKind builds the default construction of a variant, applying opts.
// Unknown kinds fail with CauseUnknownScheduler.
func NewByKind(kind Kind, opts ...Option) (Scheduler, error) {
	switch kind {
	case KindDynamic:
		return NewDynamic(opts...)
	case KindStatic:
		return NewStatic(opts...)
	case KindGreedy:
		return NewGreedy(opts...)
	case KindSerial:
		return NewSerial(), nil
	default:
		return nil, NewConfigurationError(CauseUnknownScheduler, "scheduler",
			"unknown scheduler %q: must be dynamic, static, greedy or serial", kind)
	}
}

// RequiresCommutative reports whether a reduction run with s needs a
// combiner that is commutative as well as associative. This is a contract
// callers must honor; it cannot be checked.
func RequiresCommutative(s Scheduler) bool {
	switch v := s.(type) {
	case Dynamic:
		return v.chunking.Enabled() && !v.chunking.Split.OrderPreserving()
	case Static:
		return v.chunking.Enabled() && !v.chunking.Split.OrderPreserving()
	case Greedy:
		return true
	case Serial:
		return false
	default:
		panic(fmt.Sprintf("plan: unknown scheduler type %T", s))
	}
}
