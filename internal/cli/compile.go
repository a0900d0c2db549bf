package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopplan/internal/plan"
	"github.com/roach88/loopplan/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output           string // output file path
	DB               string // plan history database
	DefaultScheduler string // scheduler kind used when a document sets none
}

// CompiledPlan is the serialized form of one compiled plan document.
type CompiledPlan struct {
	Source              string              `json:"source" yaml:"source"`
	Fingerprint         string              `json:"fingerprint" yaml:"fingerprint"`
	RequiresCommutative bool                `json:"requires_commutative" yaml:"requires_commutative"`
	Plan                plan.PlanDescriptor `json:"plan" yaml:"plan"`
}

// CompilationResult holds every compiled plan.
type CompilationResult struct {
	Plans []CompiledPlan `json:"plans" yaml:"plans"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <plan-file|dir>...",
		Short: "Compile plan documents into execution plans",
		Long: `Compile plan documents into execution plans.

Each document is decoded, validated against the plan schema and compiled.
Every error across all documents is reported. Compiled plans can be written
to a JSON file and recorded in a plan history database.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record compiled plans in this SQLite database")
	cmd.Flags().StringVar(&opts.DefaultScheduler, "default-scheduler", "", "scheduler kind used when a document sets none (dynamic|static|greedy|serial)")

	return cmd
}

func runCompile(opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loader := &PlanLoader{Compiler: opts.Compiler(cmd.ErrOrStderr())}
	if opts.DefaultScheduler != "" {
		s, err := plan.NewByKind(plan.Kind(strings.ToLower(opts.DefaultScheduler)), plan.WithWorkers(opts.WorkerCounts()))
		if err != nil {
			return outputCompileError(formatter, MapCauseToErrorCode(causeOrEmpty(err)), err.Error(), nil)
		}
		loader.DefaultScheduler = s
	}

	loaded, errs := loader.Load(paths, LoadModeCollectAll)
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	result := &CompilationResult{Plans: make([]CompiledPlan, 0, len(loaded))}
	for _, l := range loaded {
		formatter.VerboseLog("Compiled %s", l.Path)
		fp, err := l.Plan.Fingerprint()
		if err != nil {
			return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("fingerprint %s: %v", l.Path, err), nil)
		}
		result.Plans = append(result.Plans, CompiledPlan{
			Source:              l.Path,
			Fingerprint:         fp,
			RequiresCommutative: plan.RequiresCommutative(l.Plan.Scheduler()),
			Plan:                l.Plan.Describe(),
		})
	}

	if opts.DB != "" {
		if err := recordPlans(cmd.Context(), opts.DB, loaded, opts.Logger(cmd.ErrOrStderr())); err != nil {
			return outputCompileError(formatter, ErrCodeStoreFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Recorded %d plan(s) in %s", len(loaded), opts.DB)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writePlansToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts)
}

func causeOrEmpty(err error) plan.Cause {
	cause, _ := plan.CauseOf(err)
	return cause
}

// recordPlans stores every loaded plan in the history database at path.
func recordPlans(ctx context.Context, path string, loaded []LoadedPlan, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open plan history: %w", err)
	}
	defer st.Close()

	for _, l := range loaded {
		if _, err := st.RecordPlan(ctx, l.Path, l.Plan); err != nil {
			return fmt.Errorf("record %s: %w", l.Path, err)
		}
	}
	return nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, opts *CompileOptions) error {
	if formatter.Structured() {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d plan(s)\n\n", len(result.Plans))
	for _, p := range result.Plans {
		fmt.Fprintf(formatter.Writer, "%s\n", p.Source)
		fmt.Fprintf(formatter.Writer, "  scheduler:   %s\n", p.Plan.Scheduler)
		fmt.Fprintf(formatter.Writer, "  mode:        %s\n", modeString(p.Plan))
		fmt.Fprintf(formatter.Writer, "  bindings:    %s\n", bindingNames(p.Plan))
		fmt.Fprintf(formatter.Writer, "  fingerprint: %s\n", p.Fingerprint)
		if p.RequiresCommutative {
			fmt.Fprintln(formatter.Writer, "  note:        reducer must be commutative")
		}
		fmt.Fprintln(formatter.Writer)
	}

	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote plans to %s\n", opts.Output)
	}
	if opts.DB != "" {
		fmt.Fprintf(formatter.Writer, "Recorded plans in %s\n", opts.DB)
	}
	return nil
}

func modeString(d plan.PlanDescriptor) string {
	if d.Reducer != "" {
		return fmt.Sprintf("%s(%s)", d.Mode, d.Reducer)
	}
	return d.Mode
}

func bindingNames(d plan.PlanDescriptor) string {
	if len(d.Bindings) == 0 {
		return "(none)"
	}
	names := make([]string, len(d.Bindings))
	for i, b := range d.Bindings {
		names[i] = fmt.Sprintf("%s %s", b.Name, b.Type)
	}
	return strings.Join(names, ", ")
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = toCLIError(err)
	}

	if formatter.Structured() {
		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	writeErrorList(formatter, errs)

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// toCLIError converts a load error to its structured form.
func toCLIError(err error) CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		details := map[string]string{}
		if loadErr.Path != "" {
			details["file"] = loadErr.Path
		}
		if loadErr.Field != "" {
			details["field"] = loadErr.Field
		}
		out := CLIError{Code: loadErr.Code, Message: loadErr.Message}
		if len(details) > 0 {
			out.Details = details
		}
		return out
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

func writeErrorList(formatter *OutputFormatter, errs []error) {
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			if loadErr.Path != "" {
				fmt.Fprintln(formatter.Writer, loadErr.Path)
			}
			if loadErr.Field != "" {
				fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", loadErr.Code, loadErr.Field, loadErr.Message)
				continue
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", loadErr.Code, loadErr.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", ErrCodeGeneric, err.Error())
	}
}

// writePlansToFile writes the compilation result to a file as indented JSON.
func writePlansToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling plans: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
