package signature

import (
	"fmt"
	"reflect"
	"strconv"
)

// Kind classifies how a parameter is supplied on the command line.
type Kind int

const (
	// KindPositional is a parameter without a default, consumed from positional tokens.
	KindPositional Kind = iota + 1
	// KindVariadic collects the remaining positional tokens.
	KindVariadic
	// KindFlag is a parameter with a default, supplied through an option.
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindPositional:
		return "positional"
	case KindVariadic:
		return "variadic"
	case KindFlag:
		return "flag"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Action is the conversion behavior applied when a value is seen on the command line.
type Action int

const (
	// ActionStore replaces the value with the converted token.
	ActionStore Action = iota + 1
	// ActionStoreTrue sets the value to true when the option is present.
	ActionStoreTrue
	// ActionStoreFalse sets the value to false when the option is present.
	ActionStoreFalse
	// ActionAppend appends each converted token to a list, starting from a copy of the default.
	ActionAppend
	// ActionAppendBool appends "true" or "false" tokens, matched case-insensitively, as booleans.
	ActionAppendBool
	// ActionCount counts how many times the option is present.
	ActionCount
	// ActionEnum looks the token up in an enumeration's member table.
	ActionEnum
)

var actionNames = map[Action]string{
	ActionStore:      "store",
	ActionStoreTrue:  "store_true",
	ActionStoreFalse: "store_false",
	ActionAppend:     "append",
	ActionAppendBool: "append_bool",
	ActionCount:      "count",
	ActionEnum:       "enum",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown(" + strconv.Itoa(int(a)) + ")"
}

// ParseAction parses the user-selectable actions: store, store_true, store_false, append and
// count.
func ParseAction(s string) (Action, error) {
	switch s {
	case "store":
		return ActionStore, nil
	case "store_true":
		return ActionStoreTrue, nil
	case "store_false":
		return ActionStoreFalse, nil
	case "append":
		return ActionAppend, nil
	case "count":
		return ActionCount, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// IsBool reports whether the action takes no value token.
func (a Action) IsBool() bool {
	return a == ActionStoreTrue || a == ActionStoreFalse || a == ActionCount
}

// Accumulates reports whether repeated occurrences add to a list.
func (a Action) Accumulates() bool {
	return a == ActionAppend || a == ActionAppendBool
}

// Nargs is the number of command-line tokens an argument consumes. Positive values are an exact
// count.
type Nargs int

const (
	// NargsOne consumes a single token and produces a single value.
	NargsOne Nargs = 0
	// NargsOptional ("?") consumes zero or one token.
	NargsOptional Nargs = -1
	// NargsAny ("*") consumes zero or more tokens into a list.
	NargsAny Nargs = -2
	// NargsMany ("+") consumes one or more tokens into a list.
	NargsMany Nargs = -3
)

// NargsExactly consumes exactly n tokens into a list.
func NargsExactly(n int) Nargs {
	if n <= 0 {
		panic("signature: NargsExactly requires a positive count")
	}
	return Nargs(n)
}

// ParseNargs parses "?", "*", "+" or a positive integer.
func ParseNargs(s string) (Nargs, error) {
	switch s {
	case "?":
		return NargsOptional, nil
	case "*":
		return NargsAny, nil
	case "+":
		return NargsMany, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid nargs %q: must be ?, *, + or a positive integer", s)
	}
	return Nargs(n), nil
}

func (n Nargs) String() string {
	switch n {
	case NargsOne:
		return ""
	case NargsOptional:
		return "?"
	case NargsAny:
		return "*"
	case NargsMany:
		return "+"
	}
	return strconv.Itoa(int(n))
}

// IsList reports whether the argument produces a list of values.
func (n Nargs) IsList() bool {
	return n == NargsAny || n == NargsMany || n > 0
}

// Min returns the minimum number of tokens the argument consumes.
func (n Nargs) Min() int {
	switch n {
	case NargsOne, NargsMany:
		return 1
	case NargsOptional, NargsAny:
		return 0
	}
	return int(n)
}

// Argument describes a single command-line argument derived from one parameter.
type Argument struct {
	Kind Kind
	Name string
	// Type is the declared element type after unwrapping optional and list wrappers. Enumerations
	// and boolean lists are declared as string since their tokens are looked up, not converted.
	Type        reflect.Type
	Description string
	// Aliases are the option strings. A positional argument has exactly its name.
	Aliases []string
	// Default is the value used when the argument is absent. Nil means unset.
	Default any
	Metavar string
	// Choices restricts the accepted raw tokens. Nil means unrestricted.
	Choices []string
	Nargs   Nargs
	Action  Action
	// Convert turns one raw token into a value. It is nil for store_true, store_false and count.
	Convert func(string) (any, error)
	// Required and Group only apply to flags.
	Required bool
	Group    string
}

// Values holds parsed values keyed by argument name.
type Values map[string]any

// ArgumentAdder receives argument descriptors from [Signature.SetupParser].
type ArgumentAdder interface {
	AddArgument(arg *Argument) error
}

// Scope is an argument-parsing engine scope, typically a single subcommand.
type Scope[C any] interface {
	ArgumentAdder
	// AddMutuallyExclusiveGroup returns a scope whose arguments may not be combined.
	AddMutuallyExclusiveGroup() ArgumentAdder
	// SetDefaults installs the dispatch function invoked after parsing.
	SetDefaults(dispatch func(ctx C, values Values) error)
}
