package commands

import (
	"errors"
	"fmt"
)

// Exit codes for the qtvs binary. A failed tool run exits with the tool's
// own code instead.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no Qt directory, unknown version, bad codes file)
	ExitDataError   = 3 // Registry error (database cannot be opened or migrated)
)

// exitError carries the process exit code for an error. reported marks
// errors whose text was already shown to the user.
type exitError struct {
	code     int
	reported bool
	err      error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func configError(format string, args ...any) error {
	return &exitError{code: ExitConfigError, err: fmt.Errorf(format, args...)}
}

func dataError(format string, args ...any) error {
	return &exitError{code: ExitDataError, err: fmt.Errorf(format, args...)}
}

// ExitCodeFor maps an error returned by Execute to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitError
}

// Reported returns true if the error text was already printed.
func Reported(err error) bool {
	var e *exitError
	return errors.As(err, &e) && e.reported
}
