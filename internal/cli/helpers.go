package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/service"
)

// newFormatter builds an OutputFormatter wired to the command's writers.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// operationFailure renders a failed ledger operation and maps it to an exit
// code: typed operation errors are expected outcomes (exit 1), anything
// untyped is a command error (exit 2).
func operationFailure(f *OutputFormatter, err error) error {
	code := service.CodeOf(err)
	if code == "" {
		return WrapExitError(ExitCommandError, "operation failed", err)
	}

	if outErr := f.Error(string(code), err.Error(), nil); outErr != nil {
		return outErr
	}
	return &ExitError{Code: ExitFailure, Message: err.Error(), Err: err}
}
