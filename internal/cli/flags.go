// Package cli provides the command-line interface for taskflow.
package cli

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/errors"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = "text"
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = "json"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// ConfigFile replaces the global and project config files when set.
	ConfigFile string
	// Actor is recorded as the author of every change made by the command.
	Actor string
}

// AddGlobalFlags adds global flags to a command.
// These flags are available to all subcommands via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default: ~/.taskflow/config.yaml and .taskflow/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.Actor, "actor", "", "user id recorded on changes (default: $TASKFLOW_ACTOR or system)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper for environment variable
// support. The TASKFLOW_ prefix is used (e.g., TASKFLOW_OUTPUT, TASKFLOW_ACTOR).
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()

	for _, name := range []string{"output", "verbose", "quiet", "actor"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix("TASKFLOW")
	v.AutomaticEnv()

	return nil
}

// resolveActor returns the actor for this invocation: the flag, then the
// TASKFLOW_ACTOR environment variable, then the system actor.
func resolveActor(v *viper.Viper) string {
	if actor := strings.TrimSpace(v.GetString("actor")); actor != "" {
		return actor
	}
	return constants.SystemActor
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError returns the appropriate exit code for the given error.
// Returns ExitSuccess (0) for nil errors, ExitInvalidInput (2) for user input
// errors (validation failures, bad flags or arguments), and ExitError (1)
// for everything else.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Kind(err) == errors.KindValidation {
		return ExitInvalidInput
	}

	if stderrors.Is(err, errors.ErrInvalidOutputFormat) {
		return ExitInvalidInput
	}

	// Cobra flag parsing errors (mutually exclusive flags, unknown flags, etc.)
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}

	return ExitError
}

// isInvalidInputError checks if an error message indicates invalid user input.
// This catches Cobra's built-in flag and argument validation errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts ",
		"requires at least",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
