package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid" yaml:"valid"`
	Files  int        `json:"files" yaml:"files"`
	Errors []CLIError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan-file|dir>...",
		Short: "Validate plan documents",
		Long: `Validate plan documents without writing any output.

Every document is decoded, checked against the plan schema and compiled.
All errors across all documents are reported.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := FindPlanFiles(paths)
	if err != nil {
		cliErr := toCLIError(err)
		return outputValidateError(formatter, cliErr.Code, err.Error(), nil)
	}
	formatter.VerboseLog("Found %d plan file(s)", len(files))

	loader := &PlanLoader{Compiler: opts.Compiler(cmd.ErrOrStderr())}
	_, errs := loader.Load(files, LoadModeCollectAll)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(files), errs)
	}

	return outputValidateSuccess(formatter, len(files))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Structured() {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d plan file(s) valid\n", files)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unusable arguments are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []error) error {
	if formatter.Structured() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = toCLIError(err)
		}
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Files: files, Errors: cliErrors},
			Error:  &cliErrors[0],
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	writeErrorList(formatter, errs)

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
