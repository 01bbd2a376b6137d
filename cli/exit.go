package cli

import "fmt"

// Process exit codes.
const (
	exitValidation   = 1
	exitRuntime      = 2
	exitFileNotFound = 3
	exitInputParse   = 4
	exitOverflow     = 5
	exitInterrupted  = 130
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

// Unwrap exposes the underlying cause, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates a new ExitError with the given code and formatted message.
// A %w verb in format is recorded as the wrapped cause.
func exitError(code int, format string, args ...any) *ExitError {
	err := fmt.Errorf(format, args...)
	return &ExitError{
		Code:    code,
		Message: err.Error(),
		Err:     unwrapOnce(err),
	}
}

func unwrapOnce(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return u.Unwrap()
	}
	return nil
}
