package signature

import "fmt"

// Error is returned when a command function cannot be compiled into a signature. Func is the
// qualified function name, for example "github.com/acme/tools.deploy".
type Error struct {
	Func string
	Err  error
}

func (e *Error) Error() string {
	return e.Func + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParameterError reports a problem with a single parameter.
type ParameterError struct {
	Kind Kind
	Name string
	msg  string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s parameter %q %s", e.Kind, e.Name, e.msg)
}

func paramErrorf(kind Kind, name string, format string, args ...any) *ParameterError {
	return &ParameterError{Kind: kind, Name: name, msg: fmt.Sprintf(format, args...)}
}
