package plan

// Option configures a scheduler constructor. Options remember that they were
// given explicitly, so constructor defaults only fill in what was left out.
type Option func(*settings)

type settings struct {
	workers Workers

	threadpool    Threadpool
	threadpoolSet bool

	taskCount    int
	taskCountSet bool

	chunkCount    int
	chunkCountSet bool

	chunkSize    int
	chunkSizeSet bool

	split SplitStrategy

	chunking    bool
	chunkingSet bool
}

func newSettings(opts []Option) settings {
	s := settings{workers: DefaultWorkers}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.workers == nil {
		s.workers = DefaultWorkers
	}
	return s
}

// sizingGiven reports whether the caller set chunk count or chunk size.
func (s settings) sizingGiven() bool {
	return s.chunkCountSet || s.chunkSizeSet
}

// WithWorkers sets the worker-count provider used for defaults.
func WithWorkers(w Workers) Option {
	return func(s *settings) { s.workers = w }
}

// WithThreadpool selects the pool a Dynamic scheduler draws from.
// Static and Greedy only accept DefaultPool.
func WithThreadpool(pool Threadpool) Option {
	return func(s *settings) {
		s.threadpool = pool
		s.threadpoolSet = true
	}
}

// WithTaskCount sets the number of persistent Greedy tasks.
func WithTaskCount(n int) Option {
	return func(s *settings) {
		s.taskCount = n
		s.taskCountSet = true
	}
}

// WithChunkCount requests a fixed number of chunks.
func WithChunkCount(n int) Option {
	return func(s *settings) {
		s.chunkCount = n
		s.chunkCountSet = true
	}
}

// WithChunkSize requests chunks of a fixed size.
func WithChunkSize(n int) Option {
	return func(s *settings) {
		s.chunkSize = n
		s.chunkSizeSet = true
	}
}

// WithSplit sets the split strategy.
func WithSplit(split SplitStrategy) Option {
	return func(s *settings) { s.split = split }
}

// WithChunking turns chunking on or off.
func WithChunking(on bool) Option {
	return func(s *settings) {
		s.chunking = on
		s.chunkingSet = true
	}
}
