package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/effectcheck/scenario"
)

// FileResult is the validation outcome of one scenario file.
type FileResult struct {
	Path     string `json:"path"`
	Scenario string `json:"scenario,omitempty"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files",
		Long: `Validate effect scenario files without running them.

Each path may be a file or a directory, searched recursively for .yaml and
.yml files. Every file is decoded strictly, checked against the scenario
schema, and its expectations are built as they would be for a run.

Examples:
  effectcheck validate scenarios/
  effectcheck validate scenarios/increment.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var files []string
	for _, p := range paths {
		found, err := scenario.FindFiles(p)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to find scenario files", err)
		}
		files = append(files, found...)
	}
	formatter.VerboseLog("Found %d scenario file(s)", len(files))

	result := ValidationResult{Valid: true, Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		fr := validateFile(path)
		if !fr.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fr)

		if fr.Valid {
			formatter.Printf("✓ %s (%s)\n", path, fr.Scenario)
		} else {
			formatter.Printf("✗ %s\n  %s\n", path, fr.Error)
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		formatter.Printf("\n%d scenario file(s) valid\n", len(files))
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "invalid scenario files")
	}
	return nil
}

func validateFile(path string) FileResult {
	fr := FileResult{Path: path}
	s, err := scenario.Load(path)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Scenario = s.Name
	if _, err := s.Expectations(); err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Valid = true
	return fr
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
