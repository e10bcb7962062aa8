package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/effectcheck/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Action   string // optional - filter runs to one action
}

// TraceStats summarizes a run listing.
type TraceStats struct {
	Runs   int `json:"runs"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// TraceList is the output of trace without --run.
type TraceList struct {
	Runs  []journal.RunRecord `json:"runs"`
	Stats TraceStats          `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect runs recorded in a journal",
		Long: `List the runs recorded in a journal, or show the checks of one run.

Without --run, every run is listed in recording order, optionally filtered
by --action. With --run, each emitted effect is shown next to the effect it
was checked against.

Examples:
  effectcheck trace --db ./runs.db
  effectcheck trace --db ./runs.db --action counter.increment
  effectcheck trace --db ./runs.db --run 0192f0c4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (default $EFFECTCHECK_JOURNAL)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Action, "action", "", "only list runs of this action")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	j, err := openJournal(opts.Database, opts.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	if opts.RunID != "" {
		r, err := j.ReadRun(ctx, opts.RunID)
		if errors.Is(err, journal.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		if formatter.JSON() {
			return formatter.Success(r)
		}
		printRun(formatter, r)
		return nil
	}

	runs, err := j.ListRuns(ctx, opts.Action)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	list := TraceList{Runs: runs, Stats: TraceStats{Runs: len(runs)}}
	for _, r := range runs {
		if r.Passed {
			list.Stats.Passed++
		} else {
			list.Stats.Failed++
		}
	}

	if formatter.JSON() {
		return formatter.Success(list)
	}
	if len(runs) == 0 {
		formatter.Printf("No runs recorded\n")
		return nil
	}
	for _, r := range runs {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		formatter.Printf("%s %s %s", mark, r.ID, r.Action)
		if r.ErrorCode != "" {
			formatter.Printf(" [%s]", r.ErrorCode)
		}
		formatter.Printf("\n")
	}
	formatter.Printf("\n%d run(s): %d passed, %d failed\n", list.Stats.Runs, list.Stats.Passed, list.Stats.Failed)
	return nil
}

func printRun(f *OutputFormatter, r *journal.RunRecord) {
	status := "passed"
	if !r.Passed {
		status = "failed"
	}
	f.Printf("Run %s (%s) %s\n", r.ID, r.Action, status)
	f.Printf("Recorded: %s\n", r.RecordedAt)
	f.Printf("Result: %s\n", r.Result)
	if r.Error != "" {
		f.Printf("Error: %s\n", r.Error)
	}

	f.Printf("\nEffects:\n")
	if len(r.Checks) == 0 {
		f.Printf("  (none)\n")
	}
	for _, c := range r.Checks {
		f.Printf("  [%d] %s %s %s", c.Index, c.ReceivedKind, c.ReceivedName, c.ReceivedPayload)
		if c.ReceivedOptions != "" {
			f.Printf(" options=%s", c.ReceivedOptions)
		}
		f.Printf("\n      expected %s %s", c.ExpectedKind, c.ExpectedName)
		if c.ExpectedHasPayload {
			f.Printf(" %s", c.ExpectedPayload)
		}
		f.Printf("\n")
		f.VerboseLog("      fingerprint %s", c.Fingerprint)
	}
}

// openJournal opens the journal named by --db, falling back to the
// environment default. The journal must already exist; trace and replay only
// read it.
func openJournal(flagPath, envPath string) (*journal.Journal, error) {
	path := flagPath
	if path == "" {
		path = envPath
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "journal path required: set --db or EFFECTCHECK_JOURNAL")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}
