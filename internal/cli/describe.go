package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopplan/internal/plan"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Threadpool string
	TaskCount  int
	ChunkCount int
	ChunkSize  int
	Split      string
	Chunking   bool
}

// DescribeResult is the resolved scheduler.
type DescribeResult struct {
	Scheduler           plan.Descriptor `json:"scheduler" yaml:"scheduler"`
	RequiresCommutative bool            `json:"requires_commutative" yaml:"requires_commutative"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <dynamic|static|greedy|serial>",
		Short: "Resolve a scheduler and print its parameters",
		Long: `Construct a scheduler from the given parameters and print the resolved
result: placement, chunking mode, chunk sizing and split strategy.

Only flags that are set are passed to the scheduler; the rest take the
defaults derived from --workers and --interactive-workers.

Examples:
  loopplan describe dynamic --threadpool interactive
  loopplan describe static --chunk-size 64
  loopplan describe greedy --task-count 3 --chunk-count 16`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Threadpool, "threadpool", "", "threadpool (default|interactive)")
	cmd.Flags().IntVar(&opts.TaskCount, "task-count", 0, "greedy task count")
	cmd.Flags().IntVar(&opts.ChunkCount, "chunk-count", 0, "number of chunks")
	cmd.Flags().IntVar(&opts.ChunkSize, "chunk-size", 0, "elements per chunk")
	cmd.Flags().StringVar(&opts.Split, "split", "", "split strategy (batch|scatter)")
	cmd.Flags().BoolVar(&opts.Chunking, "chunking", false, "request chunking")

	return cmd
}

func runDescribe(opts *DescribeOptions, kind string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	schedOpts := []plan.Option{plan.WithWorkers(opts.WorkerCounts())}
	flags := cmd.Flags()
	if flags.Changed("threadpool") {
		schedOpts = append(schedOpts, plan.WithThreadpool(plan.Threadpool(opts.Threadpool)))
	}
	if flags.Changed("task-count") {
		schedOpts = append(schedOpts, plan.WithTaskCount(opts.TaskCount))
	}
	if flags.Changed("chunk-count") {
		schedOpts = append(schedOpts, plan.WithChunkCount(opts.ChunkCount))
	}
	if flags.Changed("chunk-size") {
		schedOpts = append(schedOpts, plan.WithChunkSize(opts.ChunkSize))
	}
	if flags.Changed("split") {
		split, err := plan.ParseSplit(opts.Split)
		if err != nil {
			return outputDescribeError(formatter, err)
		}
		schedOpts = append(schedOpts, plan.WithSplit(split))
	}
	if flags.Changed("chunking") {
		schedOpts = append(schedOpts, plan.WithChunking(opts.Chunking))
	}

	s, err := plan.NewByKind(plan.Kind(strings.ToLower(kind)), schedOpts...)
	if err != nil {
		return outputDescribeError(formatter, err)
	}

	result := DescribeResult{
		Scheduler:           s.Describe(),
		RequiresCommutative: plan.RequiresCommutative(s),
	}
	if formatter.Structured() {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Scheduler)
	fmt.Fprintf(formatter.Writer, "  placement: %s\n", result.Scheduler.Placement)
	if result.RequiresCommutative {
		fmt.Fprintln(formatter.Writer, "  reducers must be commutative")
	}
	return nil
}

func outputDescribeError(formatter *OutputFormatter, err error) error {
	code := MapCauseToErrorCode(causeOrEmpty(err))
	_ = formatter.Error(code, err.Error(), nil)
	// A rejected configuration is a validation failure (exit code 1)
	return WrapExitError(ExitFailure, code, err)
}
