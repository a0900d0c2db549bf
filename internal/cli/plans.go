package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/loopplan/internal/store"
)

// PlansOptions holds flags for the plans command.
type PlansOptions struct {
	*RootOptions
	DB          string // path to the plan history database
	Fingerprint string // only plans with this fingerprint
}

// PlansResult lists stored plans.
type PlansResult struct {
	Plans []store.PlanRecord `json:"plans" yaml:"plans"`
}

// NewPlansCommand creates the plans command.
func NewPlansCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlansOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List plans recorded in a history database",
		Long: `List plans recorded by "loopplan compile --db".

Plans are listed in the order they were first recorded. With
--fingerprint, only plans with that fingerprint are listed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlans(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the plan history database (required)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only list plans with this fingerprint")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runPlans(opts *PlansOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening a missing path would create an empty database
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.DB))
	}

	st, err := store.Open(opts.DB, store.WithLogger(opts.Logger(cmd.ErrOrStderr())))
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var records []store.PlanRecord
	if opts.Fingerprint != "" {
		records, err = st.FindByFingerprint(ctx, opts.Fingerprint)
	} else {
		records, err = st.ListPlans(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read plans", err)
	}
	formatter.VerboseLog("Read %d plan(s) from %s", len(records), opts.DB)

	if formatter.Structured() {
		return formatter.Success(PlansResult{Plans: records})
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No plans recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(formatter.Writer, "%d  %s  %s\n", r.Seq, shortFingerprint(r.Fingerprint), r.Source)
		fmt.Fprintf(formatter.Writer, "    %s, %s\n", r.Descriptor.Scheduler, modeString(r.Descriptor))
	}
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
