package qtprocess

import (
	"errors"
	"fmt"
)

// ErrorClass classifies why a tool run failed.
type ErrorClass string

const (
	// ClassStart indicates the tool could not be started at all.
	// Examples: missing executable, permission denied, bad working directory.
	ClassStart ErrorClass = "start"

	// ClassExit indicates the tool ran and exited with a non-zero code.
	ClassExit ErrorClass = "exit"
)

// ToolError describes a failed tool run.
type ToolError struct {
	// Class is the failure classification.
	Class ErrorClass `json:"class"`

	// Program is the executable that was run.
	Program string `json:"program"`

	// ExitCode is the process exit code. Only meaningful for ClassExit.
	ExitCode int `json:"exit_code,omitempty"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Hint is the suggested resolution, if the error code table had one.
	Hint string `json:"hint,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	switch e.Class {
	case ClassExit:
		return fmt.Sprintf("%s exited with code %d: %s", e.Program, e.ExitCode, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
		}
		return e.Message
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *ToolError) Is(target error) bool {
	t, ok := target.(*ToolError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.ExitCode == t.ExitCode
}

// Display renders the text shown to the user: the exit code line, the
// message, and the hint on its own line when there is one.
func (e *ToolError) Display() string {
	if e.Class != ClassExit {
		return e.Error()
	}
	text := fmt.Sprintf("The following error occurred: exit code %d\n%s", e.ExitCode, e.Message)
	if e.Hint != "" {
		text += "\n" + e.Hint
	}
	return text
}

// WithHint adds a resolution hint to an error.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

func newStartError(program string, err error) *ToolError {
	return &ToolError{
		Class:   ClassStart,
		Program: program,
		Message: fmt.Sprintf("cannot start %s", program),
		Err:     err,
	}
}

func newExitError(program string, exitCode int, message string) *ToolError {
	return &ToolError{
		Class:    ClassExit,
		Program:  program,
		ExitCode: exitCode,
		Message:  message,
	}
}

// IsStartFailure returns true if err is a tool start failure.
func IsStartFailure(err error) bool {
	var e *ToolError
	if errors.As(err, &e) {
		return e.Class == ClassStart
	}
	return false
}

// IsExitFailure returns true if err is a non-zero tool exit.
func IsExitFailure(err error) bool {
	var e *ToolError
	if errors.As(err, &e) {
		return e.Class == ClassExit
	}
	return false
}

// ExitCode returns the tool exit code carried by err, if any.
func ExitCode(err error) (int, bool) {
	var e *ToolError
	if errors.As(err, &e) && e.Class == ClassExit {
		return e.ExitCode, true
	}
	return 0, false
}
