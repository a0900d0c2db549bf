package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/loopplan/internal/compiler"
	"github.com/roach88/loopplan/internal/plan"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose            bool
	Format             string // "text" | "json" | "yaml"
	Workers            int    // default-pool worker count, 0 = GOMAXPROCS
	InteractiveWorkers int    // interactive-pool worker count, 0 = 1
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the loopplan CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "loopplan",
		Short: "loopplan - parallel loop execution plans",
		Long: `Compile parallel-loop directives into immutable execution plans.

A plan fixes the scheduler, the result mode and the task-local bindings
a parallel loop runs with. Plans are written as CUE, YAML, TOML, HCL or
JSON documents.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Workers < 0 || opts.InteractiveWorkers < 0 {
				return fmt.Errorf("worker counts must be non-negative")
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", 0, "default-pool workers (0 = GOMAXPROCS)")
	cmd.PersistentFlags().IntVar(&opts.InteractiveWorkers, "interactive-workers", 0, "interactive-pool workers (0 = 1)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewPlansCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// WorkerCounts returns the worker counts selected by the global flags.
func (o *RootOptions) WorkerCounts() plan.WorkerCounts {
	return plan.WorkerCounts{Default: o.Workers, Interactive: o.InteractiveWorkers}
}

// Logger returns a text logger on w: Debug with --verbose, Warn otherwise.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Compiler returns a compiler configured from the global flags.
func (o *RootOptions) Compiler(logw io.Writer) *compiler.Compiler {
	return compiler.New(
		compiler.WithWorkers(o.WorkerCounts()),
		compiler.WithLogger(o.Logger(logw)),
	)
}

// newFormatter builds the formatter shared by every command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting structured output
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
