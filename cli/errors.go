package cli

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("duplicate command")
	ErrReservedName     = errors.New("reserved command name")
	ErrAlreadyAdopted   = errors.New("shell already has a parent")
	ErrArgs             = errors.New("invalid arguments")          // ErrArgs is wrapped by every argument parsing failure.
	ErrInterrupted      = errors.New("interrupted by user")        // ErrInterrupted is the cancellation cause used when the user interrupts a command.
	ErrLogLevel         = errors.New("logging level out of range") // ErrLogLevel is returned by [LogLevels.SetLevel] for levels outside 0..7.
)

// UsageError is a special purpose error used to signal that usage information should be shown to the user.
// This is intended to be used as an error response for [Command] validation.
type UsageError struct {
	wrapped error
}

func (e *UsageError) Error() string {
	if e.wrapped == nil {
		return "usage error"
	}
	return "usage error: " + e.wrapped.Error()
}

func (e *UsageError) Is(err error) bool {
	_, ok := err.(*UsageError)
	return ok
}

func (e *UsageError) Unwrap() error {
	return e.wrapped
}

// NewUsageError is used to create a [UsageError].
// The format and args parameters are passed to [fmt.Errorf] to create the underlying error.
func NewUsageError(format string, args ...any) error {
	return &UsageError{wrapped: fmt.Errorf(format, args...)}
}

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ExitError requests termination of the process with an explicit exit code.
// It is the only error that a [Command] passes through to the shell loop, which stops and hands it to the harness.
type ExitError struct {
	Code    int
	Message string
}

// Exit creates an [ExitError] with the given code and an optional formatted message.
func Exit(code int, format string, args ...any) error {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Fatal creates an abnormal [ExitError] with [ExitFailure] as its code.
func Fatal(format string, args ...any) error {
	return Exit(ExitFailure, format, args...)
}

// IsNormal reports whether this exit should be treated as a normal termination.
func (e *ExitError) IsNormal() bool {
	return e.Code == ExitSuccess
}

func (e *ExitError) Error() string {
	if e.IsNormal() {
		if len(e.Message) == 0 {
			return "Exiting normally ..."
		}
		return fmt.Sprintf("Exiting normally (%s)...", e.Message)
	}
	return fmt.Sprintf("%s Exiting ... (code %d)", e.Message, e.Code)
}

// AsExit extracts an [ExitError] from err's chain.
func AsExit(err error) (*ExitError, bool) {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit, true
	}
	return nil, false
}
