package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/ppal/ppal"
)

// Process exit codes.
const (
	exitSuccess    = 0
	exitFailure    = 1
	exitUsage      = 2
	exitConnection = 3
	exitProtocol   = 4
	exitNotFound   = 5
	exitValidation = 6
)

// ExitError is an error that carries a specific process exit code.
// Cobra's RunE returns this to signal the desired exit code to main.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates a new ExitError with the given code and formatted message.
func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// clientError maps a ppal failure onto its exit code.
func clientError(action string, err error) *ExitError {
	code := exitFailure
	switch ppal.KindOf(err) {
	case ppal.KindConnection:
		code = exitConnection
	case ppal.KindProtocol:
		code = exitProtocol
	case ppal.KindNotFound:
		code = exitNotFound
	case ppal.KindValidation:
		code = exitValidation
	}
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", action, err),
		Err:     err,
	}
}

// usageArgs marks positional argument failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &ExitError{Code: exitUsage, Message: err.Error(), Err: err}
		}
		return nil
	}
}

func flagError(_ *cobra.Command, err error) error {
	return &ExitError{Code: exitUsage, Message: err.Error(), Err: err}
}

// Execute runs root. Errors raised by cobra itself, such as an unknown
// command or a missing required flag, exit with the usage code.
func Execute(root *cobra.Command) error {
	err := root.Execute()
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: exitUsage, Message: err.Error(), Err: err}
}

// ExitCode returns the exit code main should use for err.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}
