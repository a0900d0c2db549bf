package compiler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/roach88/loopplan/internal/plan"
)

// Compiler compiles directive lists into plans. A Compiler holds no state
// between calls and is safe for concurrent use.
type Compiler struct {
	workers plan.Workers
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithWorkers sets the worker-count provider used for scheduler defaults.
func WithWorkers(w plan.Workers) Option {
	return func(c *Compiler) {
		if w != nil {
			c.workers = w
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		workers: plan.DefaultWorkers,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles directives with a default Compiler.
func Compile(directives []Directive, defaultScheduler plan.Scheduler) (*plan.Plan, error) {
	return New().Compile(directives, defaultScheduler)
}

// options holds the merged option state of one Compile call.
type options struct {
	scheduler plan.Scheduler
	reducer   *plan.Reducer
	collect   bool
}

// Compile validates directives and assembles a plan.
//
// Bindings are declared first, in list order. Options are then applied in
// list order; a later write to the same option replaces an earlier one.
// defaultScheduler is used when no directive sets the scheduler; nil selects
// a default Dynamic.
func (c *Compiler) Compile(directives []Directive, defaultScheduler plan.Scheduler) (*plan.Plan, error) {
	var (
		decls []DeclareBinding
		sets  []SetOption
	)
	for i, d := range directives {
		switch v := d.(type) {
		case DeclareBinding:
			decls = append(decls, v)
		case *DeclareBinding:
			if v == nil {
				return nil, nilDirective(i)
			}
			decls = append(decls, *v)
		case SetOption:
			sets = append(sets, v)
		case *SetOption:
			if v == nil {
				return nil, nilDirective(i)
			}
			sets = append(sets, *v)
		default:
			return nil, nilDirective(i)
		}
	}

	reg := NewRegistry()
	for _, d := range decls {
		if _, err := reg.Declare(d); err != nil {
			return nil, err
		}
		c.logger.Debug("binding declared", "name", d.Name, "type", d.Type)
	}

	var opts options
	for _, s := range sets {
		if err := c.apply(&opts, s); err != nil {
			return nil, err
		}
		c.logger.Debug("option applied", "name", s.Name)
	}

	if opts.scheduler == nil && defaultScheduler != nil {
		if err := plan.Validate(defaultScheduler); err != nil {
			return nil, fmt.Errorf("default scheduler: %w", err)
		}
		opts.scheduler = defaultScheduler
	}
	if opts.scheduler == nil {
		d, err := plan.NewDynamic(plan.WithWorkers(c.workers))
		if err != nil {
			return nil, fmt.Errorf("default scheduler: %w", err)
		}
		opts.scheduler = d
	}

	if opts.collect && opts.reducer != nil {
		return nil, plan.NewConfigurationError(plan.CauseCollectWithReducer, OptionCollect,
			"collect and reducer are mutually exclusive")
	}

	mode := plan.ForeachMode()
	switch {
	case opts.reducer != nil:
		m, err := plan.ReduceMode(*opts.reducer)
		if err != nil {
			return nil, err
		}
		mode = m
	case opts.collect:
		mode = plan.CollectMode()
	}

	p, err := plan.Assemble(opts.scheduler, mode, reg.Bindings())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("plan compiled",
		"scheduler", p.Scheduler().Kind(),
		"mode", p.Mode().String(),
		"bindings", reg.Len())
	return p, nil
}

func nilDirective(i int) error {
	return plan.NewConfigurationError(plan.CauseUnknownOption, "directives",
		"directive %d is not a SetOption or DeclareBinding", i)
}

func (c *Compiler) apply(o *options, s SetOption) error {
	switch s.Name {
	case OptionScheduler:
		sched, err := c.schedulerValue(s.Value)
		if err != nil {
			return err
		}
		o.scheduler = sched
	case OptionReducer:
		r, err := reducerValue(s.Value)
		if err != nil {
			return err
		}
		o.reducer = r
	case OptionCollect:
		b, ok := s.Value.(bool)
		if !ok {
			return plan.NewConfigurationError(plan.CauseCollectNotBool, OptionCollect,
				"collect must be a boolean, got %T", s.Value)
		}
		o.collect = b
	default:
		return plan.NewConfigurationError(plan.CauseUnknownOption, s.Name,
			"unknown option %q: must be scheduler, reducer or collect", s.Name)
	}
	return nil
}

// schedulerValue converts a scheduler option value: a plan.Scheduler, a
// variant shorthand, or a map of scheduler parameters.
func (c *Compiler) schedulerValue(v any) (plan.Scheduler, error) {
	switch val := v.(type) {
	case plan.Scheduler:
		if err := plan.Validate(val); err != nil {
			return nil, err
		}
		return val, nil
	case plan.Kind:
		return plan.NewByKind(plan.Kind(strings.ToLower(string(val))), plan.WithWorkers(c.workers))
	case string:
		return plan.NewByKind(plan.Kind(strings.ToLower(strings.TrimSpace(val))), plan.WithWorkers(c.workers))
	case map[string]any:
		return c.schedulerFromMap(val)
	default:
		return nil, plan.NewConfigurationError(plan.CauseUnknownScheduler, OptionScheduler,
			"scheduler must be a variant name or scheduler value, got %T", v)
	}
}

// Scheduler map keys.
const (
	keyKind       = "kind"
	keyThreadpool = "threadpool"
	keyTaskCount  = "task_count"
	keyChunkCount = "chunk_count"
	keyChunkSize  = "chunk_size"
	keySplit      = "split"
	keyChunking   = "chunking"
)

func (c *Compiler) schedulerFromMap(m map[string]any) (plan.Scheduler, error) {
	rawKind, ok := m[keyKind]
	if !ok {
		return nil, plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, "scheduler.kind",
			"scheduler value requires a kind")
	}
	kindName, ok := rawKind.(string)
	if !ok {
		return nil, plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, "scheduler.kind",
			"kind must be a string, got %T", rawKind)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if k != keyKind {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	opts := []plan.Option{plan.WithWorkers(c.workers)}
	for _, k := range keys {
		opt, err := mapOption(k, m[k])
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}

	return plan.NewByKind(plan.Kind(strings.ToLower(kindName)), opts...)
}

func mapOption(key string, v any) (plan.Option, error) {
	field := "scheduler." + key
	switch key {
	case keyThreadpool:
		s, ok := v.(string)
		if !ok {
			return nil, plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, field,
				"threadpool must be a string, got %T", v)
		}
		return plan.WithThreadpool(plan.Threadpool(s)), nil
	case keyTaskCount, keyChunkCount, keyChunkSize:
		n, err := asInt(field, v)
		if err != nil {
			return nil, err
		}
		switch key {
		case keyTaskCount:
			return plan.WithTaskCount(n), nil
		case keyChunkCount:
			return plan.WithChunkCount(n), nil
		default:
			return plan.WithChunkSize(n), nil
		}
	case keySplit:
		switch s := v.(type) {
		case plan.SplitStrategy:
			return plan.WithSplit(s), nil
		case string:
			split, err := plan.ParseSplit(s)
			if err != nil {
				return nil, err
			}
			return plan.WithSplit(split), nil
		default:
			return nil, plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, field,
				"split must be a string, got %T", v)
		}
	case keyChunking:
		b, ok := v.(bool)
		if !ok {
			return nil, plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, field,
				"chunking must be a boolean, got %T", v)
		}
		return plan.WithChunking(b), nil
	default:
		return nil, plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, field,
			"unknown scheduler parameter %q", key)
	}
}

// asInt accepts the integer shapes produced by Go callers and by decoded
// plan files.
func asInt(field string, v any) (int, error) {
	bad := func() error {
		return plan.NewConfigurationError(plan.CauseInvalidSchedulerArg, field,
			"expected an integer, got %v (%T)", v, v)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
		if n != math.Trunc(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, bad()
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, bad()
		}
		return int(i), nil
	default:
		return 0, bad()
	}
}

// reducerValue converts a reducer option value. nil, "" and "none" clear the
// reducer.
func reducerValue(v any) (*plan.Reducer, error) {
	switch r := v.(type) {
	case nil:
		return nil, nil
	case plan.Reducer:
		if r.Combine == nil {
			return nil, plan.NewConfigurationError(plan.CauseInvalidReducer, OptionReducer,
				"reducer %q has no combine function", r.Name)
		}
		return &r, nil
	case plan.Combiner:
		if r == nil {
			return nil, nil
		}
		return &plan.Reducer{Name: "func", Combine: r}, nil
	case func(any, any) any:
		if r == nil {
			return nil, nil
		}
		return &plan.Reducer{Name: "func", Combine: r}, nil
	case string:
		if r == "" || r == "none" {
			return nil, nil
		}
		builtin, ok := plan.LookupReducer(r)
		if !ok {
			return nil, plan.NewConfigurationError(plan.CauseInvalidReducer, OptionReducer,
				"unknown reducer %q: must be one of %s", r, strings.Join(plan.BuiltinReducerNames(), ", "))
		}
		return &builtin, nil
	default:
		return nil, plan.NewConfigurationError(plan.CauseInvalidReducer, OptionReducer,
			"reducer must be a builtin name or a combine function, got %T", v)
	}
}
