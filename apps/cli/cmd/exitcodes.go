package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/glint/packages/core/runner"
)

// Exit codes for glint CLI
const (
	// ExitSuccess indicates every request completed
	ExitSuccess = 0

	// ExitInternalError indicates a bug or an inconsistent run state
	ExitInternalError = 1

	// ExitParseError indicates an unreadable or invalid collection
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitResolutionError indicates a placeholder could not be resolved
	ExitResolutionError = 5

	// ExitExternalToolError indicates the secret store CLI failed
	ExitExternalToolError = 6

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64

	// ExitInterrupted indicates the run was canceled
	ExitInterrupted = 130
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch runner.KindOf(err) {
	case runner.KindResolution:
		return ExitResolutionError
	case runner.KindTransport:
		return ExitNetworkError
	case runner.KindExternalTool:
		return ExitExternalToolError
	case runner.KindCanceled:
		return ExitInterrupted
	default:
		return ExitInternalError
	}
}
