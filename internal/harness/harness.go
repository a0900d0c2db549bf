package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/loopplan/internal/compiler"
	"github.com/roach88/loopplan/internal/plan"
	"github.com/roach88/loopplan/internal/planfile"
	"github.com/roach88/loopplan/internal/store"
)

// Harness compiles scenario documents with fixed worker counts and records
// the results in an isolated store.
type Harness struct {
	compiler         *compiler.Compiler
	workers          plan.Workers
	defaultScheduler plan.Scheduler
	store            *store.Store
	logger           *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
// Configuration errors are results, not failures of Run: a scenario can
// assert that its document is rejected. Run returns an error only when the
// scenario itself cannot be executed.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the plan document and compile it
// 3. Record the plan and check it reads back unchanged
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	workers := plan.WorkerCounts{
		Default:     scenario.Workers.Default,
		Interactive: scenario.Workers.Interactive,
	}

	h := &Harness{
		compiler: compiler.New(compiler.WithWorkers(workers), compiler.WithLogger(logger)),
		workers:  workers,
		store:    st,
		logger:   logger,
	}

	if scenario.DefaultScheduler != "" {
		h.defaultScheduler, err = plan.NewByKind(plan.Kind(scenario.DefaultScheduler), plan.WithWorkers(workers))
		if err != nil {
			return nil, fmt.Errorf("default_scheduler: %w", err)
		}
	}

	ctx := context.Background()
	result := NewResult()

	doc, err := h.loadDocument(scenario)
	var p *plan.Plan
	if err == nil {
		p, err = h.compileDocument(doc)
	}
	if err != nil {
		if classifyErr := classify(result, err); classifyErr != nil {
			return nil, classifyErr
		}
		h.logger.Info("scenario compile failed", "scenario", scenario.Name, "cause", result.Cause)
	} else {
		if err := h.record(ctx, scenario, p, result); err != nil {
			return nil, err
		}
		h.logger.Info("scenario compiled", "scenario", scenario.Name, "fingerprint", result.Fingerprint)
	}

	actx := &AssertionContext{
		Plan:    p,
		Compile: h.compileFile,
		Workers: h.workers,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// loadDocument reads the scenario's plan file or inline document.
func (h *Harness) loadDocument(s *Scenario) (*planfile.Document, error) {
	if s.Plan != "" {
		return planfile.Load(s.Plan)
	}
	data, err := json.Marshal(s.Document)
	if err != nil {
		return nil, &planfile.Error{File: s.Name, Format: planfile.FormatJSON, Message: "inline document", Err: err}
	}
	return planfile.Parse(data, planfile.FormatJSON, s.Name+" (inline)")
}

func (h *Harness) compileDocument(doc *planfile.Document) (*plan.Plan, error) {
	directives, err := doc.Directives()
	if err != nil {
		return nil, err
	}
	return h.compiler.Compile(directives, h.defaultScheduler)
}

func (h *Harness) compileFile(path string) (*plan.Plan, error) {
	doc, err := planfile.Load(path)
	if err != nil {
		return nil, err
	}
	return h.compileDocument(doc)
}

// classify stores a compile failure in result. Errors that are neither
// configuration nor document errors are returned.
func classify(result *Result, err error) error {
	result.Message = err.Error()
	if cause, ok := plan.CauseOf(err); ok {
		result.Cause = string(cause)
		return nil
	}
	var docErr *planfile.Error
	if errors.As(err, &docErr) {
		result.Cause = CauseInvalidDocument
		return nil
	}
	return fmt.Errorf("compile: %w", err)
}

// record stores p and checks that the stored descriptor reads back equal.
func (h *Harness) record(ctx context.Context, s *Scenario, p *plan.Plan, result *Result) error {
	desc := p.Describe()
	result.Descriptor = &desc

	source := s.Plan
	if source == "" {
		source = s.Name
	}
	rec, err := h.store.RecordPlan(ctx, source, p)
	if err != nil {
		return fmt.Errorf("record plan: %w", err)
	}
	result.Fingerprint = rec.Fingerprint

	found, err := h.store.FindByFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		return fmt.Errorf("read back plan: %w", err)
	}
	if len(found) != 1 {
		result.AddError(fmt.Sprintf("history: expected 1 stored plan, found %d", len(found)))
		return nil
	}
	if !reflect.DeepEqual(found[0].Descriptor, desc) {
		result.AddError(fmt.Sprintf("history: stored descriptor %v differs from compiled %v", found[0].Descriptor, desc))
	}
	return nil
}
