package cli

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Journal is the default journal path for trace and replay.
	Journal string
}

// Env holds environment defaults for the global flags. Flags given on the
// command line win.
type Env struct {
	Format  string `env:"EFFECTCHECK_FORMAT" envDefault:"text"`
	Journal string `env:"EFFECTCHECK_JOURNAL"`
	Verbose bool   `env:"EFFECTCHECK_VERBOSE" envDefault:"false"`
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// NewRootCommand creates the root command for the effectcheck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	defaults, envErr := LoadEnv()
	if envErr != nil {
		defaults = Env{Format: "text"}
	}

	cmd := &cobra.Command{
		Use:   "effectcheck",
		Short: "effectcheck - verify the effects of store actions",
		Long: `Validate effect scenario files and inspect or replay runs recorded in a journal.

Environment:
  EFFECTCHECK_FORMAT   default for --format
  EFFECTCHECK_JOURNAL  default for --db
  EFFECTCHECK_VERBOSE  default for --verbose`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment", envErr)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", defaults.Verbose, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", defaults.Format, "output format (json|text)")
	opts.Journal = defaults.Journal

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
