package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/effectcheck/effect"
	"github.com/roach88/effectcheck/journal"
	"github.com/roach88/effectcheck/scenario"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database   string
	RunID      string
	Comparator string
}

// ReplayResult is the outcome of replaying one run.
type ReplayResult struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`
	Matches  bool   `json:"matches"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Check a recorded run against a scenario's expectations",
		Long: `Replay the effects of a recorded run against the expectations of a
scenario file, without running the action again.

Recorded payloads are decoded from JSON, so the default comparator is
"normalized". The scenario's own comparator is used when --comparator is not
given, and a comparator set on an expectation always wins.

Examples:
  effectcheck replay scenarios/increment.yaml --db ./runs.db --run 0192f0c4-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (default $EFFECTCHECK_JOURNAL)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to replay (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Comparator, "comparator", effect.ComparatorNormalized,
		"run-level comparator (normalized|permissive|strict)")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := scenario.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	// The scenario's comparator applies unless --comparator was given.
	name := opts.Comparator
	if s.Comparator != "" && !cmd.Flags().Changed("comparator") {
		name = s.Comparator
	}
	cmp, err := effect.ComparatorByName(name)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --comparator", err)
	}
	expectations, err := s.Expectations()
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid scenario expectations", err)
	}

	j, err := openJournal(opts.Database, opts.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	formatter.VerboseLog("Replaying run %s against %s (%d expectation(s))", opts.RunID, s.Name, len(expectations))

	replayErr := j.Replay(ctx, opts.RunID, expectations, effect.WithComparator(cmp))
	if errors.Is(replayErr, journal.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, replayErr.Error(), nil)
		return WrapExitError(ExitCommandError, "run not found", replayErr)
	}

	result := ReplayResult{RunID: opts.RunID, Scenario: s.Name, Matches: replayErr == nil}
	if replayErr != nil {
		result.Code = string(effect.CodeOf(replayErr))
		result.Error = replayErr.Error()
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Matches {
		formatter.Printf("✓ run %s matches %s\n", opts.RunID, s.Name)
	} else {
		formatter.Printf("✗ run %s does not match %s\n  %s\n", opts.RunID, s.Name, result.Error)
	}

	if replayErr != nil {
		if effect.CodeOf(replayErr) == "" {
			return WrapExitError(ExitCommandError, "replay failed", replayErr)
		}
		return NewExitError(ExitFailure, "run does not match scenario")
	}
	return nil
}
