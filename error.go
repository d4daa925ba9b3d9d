package sigcli

import "fmt"

// NewError creates a new error with the given error code and error.
func NewError(code ErrorCode, err error) error {
	return &Error{code: code, err: err}
}

// ErrorCode represents an error code for a specific error type.
type ErrorCode int

const (
	ErrShowHelp ErrorCode = iota + 1
)

func (c ErrorCode) String() string {
	return convertErrorCode(c)
}

func convertErrorCode(code ErrorCode) string {
	switch code {
	case ErrShowHelp:
		return "show help"
	default:
		return "unknown error"
	}
}

// Error represents an error with an error code and an underlying error. A command returning an
// Error with [ErrShowHelp] has its help printed by [Run].
type Error struct {
	code ErrorCode
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return convertErrorCode(e.code) + ": <nil>"
	}
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the error's code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// ExitError asks [Execute] to end the program with a status code. Commands create one with
// [Context.Exit].
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exit status %d", e.Code)
}
