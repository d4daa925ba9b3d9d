// Package signature compiles command functions into argument descriptors and binds parsed values
// back onto calls of those functions.
//
// A command function takes a context value and, optionally, a parameters struct:
//
//	type DeployParams struct {
//		Env     string   `default:"staging" arg:"aliases=-e"`
//		Targets []string `arg:",variadic"`
//		DryRun  bool     `default:"false"`
//	}
//
//	func deploy(ctx *Context, p DeployParams) error
//
// Each exported field is one parameter, named after the field in snake_case. A field with a
// default tag is a flag, a field tagged variadic collects the remaining positional tokens, and
// every other field is positional. Every parameter must be described in the Args section of the
// function's docstring.
package signature

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/mfridman/sigcli/pkg/docstring"
)

var errorType = reflect.TypeFor[error]()

// Signature is a compiled command function. It is immutable once built by [Get].
type Signature[C any] struct {
	ShortDescription string
	LongDescription  string
	// Arguments are in parameter declaration order, excluding the context parameter.
	Arguments []*Argument

	name  string
	fn    reflect.Value
	shape *callShape
}

// Name returns the qualified function name.
func (s *Signature[C]) Name() string {
	return s.name
}

// Get compiles fn, whose docstring is doc. The first parameter of fn must have type C.
//
// Definition problems are reported as an [*Error] wrapping the underlying cause, which is a
// [*ParameterError] when a single parameter is at fault.
func Get[C any](fn any, doc string) (*Signature[C], error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &Error{Func: fmt.Sprintf("%T", fn), Err: errors.New("not a function")}
	}
	name := FuncName(fn)
	wrap := func(err error) error {
		return &Error{Func: name, Err: err}
	}
	if strings.TrimSpace(doc) == "" {
		return nil, wrap(errors.New("function has no docstring"))
	}
	parsed := docstring.Parse(doc)
	short, long := parsed.ShortDescription, parsed.LongDescription
	if long == "" {
		long = short
	}

	t := v.Type()
	if t.NumIn() == 0 {
		return nil, wrap(errors.New("function must have at least one parameter"))
	}
	ctxType := reflect.TypeFor[C]()
	if t.In(0) != ctxType {
		return nil, wrap(fmt.Errorf("first parameter must be of type %s, found %s", ctxType, t.In(0)))
	}
	if t.IsVariadic() {
		return nil, wrap(errors.New("variadic functions are not supported, use a slice field tagged variadic"))
	}
	if t.NumIn() > 2 {
		return nil, wrap(fmt.Errorf("function must take the context and at most one parameters struct, found %d parameters", t.NumIn()))
	}
	if t.NumOut() != 1 || t.Out(0) != errorType {
		return nil, wrap(errors.New("function must return exactly one error"))
	}

	sig := &Signature[C]{
		ShortDescription: short,
		LongDescription:  long,
		name:             name,
		fn:               v,
		shape:            new(callShape),
	}
	if t.NumIn() == 1 {
		return sig, nil
	}

	params := t.In(1)
	if params.Kind() == reflect.Pointer {
		sig.shape.pointer = true
		params = params.Elem()
	}
	if params.Kind() != reflect.Struct {
		return nil, wrap(fmt.Errorf("parameters must be a struct or pointer to struct, found %s", t.In(1)))
	}
	sig.shape.params = params

	classified, err := classify(params)
	if err != nil {
		return nil, wrap(err)
	}
	for _, p := range classified {
		arg, err := resolve(p, parsed)
		if err != nil {
			return nil, wrap(err)
		}
		sig.Arguments = append(sig.Arguments, arg)
		sig.shape.add(p)
	}
	return sig, nil
}

// FuncName returns the qualified name of a function value, for example
// "github.com/acme/tools.deploy".
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Sprintf("%T", fn)
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return v.Type().String()
}

// SetupParser registers every argument with scope. Ungrouped arguments are added directly, then
// each mutually exclusive group is created once and populated in first-seen order. Finally the
// dispatch function is installed as the scope's default.
func (s *Signature[C]) SetupParser(scope Scope[C]) error {
	var (
		order  []string
		groups = make(map[string][]*Argument)
	)
	for _, arg := range s.Arguments {
		if arg.Group == "" {
			if err := scope.AddArgument(arg); err != nil {
				return fmt.Errorf("%s: argument %q: %w", s.name, arg.Name, err)
			}
			continue
		}
		if _, ok := groups[arg.Group]; !ok {
			order = append(order, arg.Group)
		}
		groups[arg.Group] = append(groups[arg.Group], arg)
	}
	for _, name := range order {
		members := groups[name]
		if len(members) == 0 {
			panic(fmt.Sprintf("signature: mutually exclusive group %q has no members", name))
		}
		group := scope.AddMutuallyExclusiveGroup()
		for _, arg := range members {
			if err := group.AddArgument(arg); err != nil {
				return fmt.Errorf("%s: argument %q: %w", s.name, arg.Name, err)
			}
		}
	}
	scope.SetDefaults(s.Call)
	return nil
}
