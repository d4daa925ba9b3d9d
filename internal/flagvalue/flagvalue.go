// Package flagvalue implements flag.Value for argument descriptors, one value per argument shared
// by all of its aliases.
package flagvalue

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/mfridman/sigcli/pkg/signature"
	"github.com/mfridman/sigcli/pkg/suggest"
)

// Value holds the parsed state of a single argument. It implements flag.Value, flag.Getter and
// the IsBoolFlag method the flag packages use to decide whether a value token is required.
type Value struct {
	arg   *signature.Argument
	value any
	count int
	set   bool
}

// New returns a value initialized to the argument's default.
func New(arg *signature.Argument) *Value {
	v := &Value{arg: arg}
	v.Reset()
	return v
}

// Argument returns the descriptor this value was built from.
func (v *Value) Argument() *signature.Argument {
	return v.arg
}

// Reset restores the default so the value can be parsed again.
func (v *Value) Reset() {
	v.value = v.arg.Default
	v.set = false
	v.count = 0
	if v.arg.Action == signature.ActionCount && v.arg.Default != nil {
		v.count = int(reflect.ValueOf(v.arg.Default).Convert(reflect.TypeFor[int]()).Int())
	}
}

// IsSet reports whether Set has been called since the last reset.
func (v *Value) IsSet() bool {
	return v.set
}

// Begin starts a new occurrence of a flag that takes nargs tokens. The value counts as set even
// when no token follows; a list starts over unless the action accumulates.
func (v *Value) Begin() {
	switch {
	case v.arg.Action.Accumulates():
		if !v.set {
			v.value = toList(v.arg.Default)
		}
	case v.arg.Nargs.IsList():
		v.value = []any{}
	}
	v.set = true
}

func (v *Value) IsBoolFlag() bool {
	return v != nil && v.arg != nil && v.arg.Action.IsBool()
}

// Set applies one command-line token according to the argument's action.
func (v *Value) Set(s string) error {
	switch v.arg.Action {
	case signature.ActionStoreTrue, signature.ActionStoreFalse:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean value %q", s)
		}
		if v.arg.Action == signature.ActionStoreFalse {
			b = !b
		}
		v.value = b
	case signature.ActionCount:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean value %q", s)
		}
		if b {
			v.count++
		}
		v.value = reflect.ValueOf(v.count).Convert(v.arg.Type).Interface()
	default:
		x, err := Convert(v.arg, s)
		if err != nil {
			return err
		}
		switch {
		case v.arg.Action.Accumulates():
			list, _ := v.value.([]any)
			if !v.set {
				list = toList(v.arg.Default)
			}
			v.value = append(list, x)
		case v.arg.Nargs.IsList():
			list, _ := v.value.([]any)
			if !v.set {
				list = nil
			}
			v.value = append(list, x)
		default:
			v.value = x
		}
	}
	v.set = true
	return nil
}

// Get returns the parsed value, or the default when nothing was set.
func (v *Value) Get() any {
	return v.value
}

func (v *Value) String() string {
	if v == nil || v.arg == nil {
		return ""
	}
	return Format(v.value)
}

// Convert validates a token against the argument's choices and converts it.
func Convert(arg *signature.Argument, token string) (any, error) {
	if len(arg.Choices) > 0 && !slices.Contains(arg.Choices, token) {
		err := fmt.Errorf("invalid choice: %q (choose from %s)", token, quote(arg.Choices))
		if similar := suggest.FindSimilar(token, arg.Choices, 1); len(similar) > 0 {
			err = fmt.Errorf("%w, did you mean '%s'?", err, similar[0])
		}
		return nil, err
	}
	if arg.Convert == nil {
		return nil, fmt.Errorf("argument %q does not take a value", arg.Name)
	}
	return arg.Convert(token)
}

// Format renders a value for help output. Lists are comma separated, enumeration members render
// as their lower-cased name and nil renders empty.
func Format(value any) string {
	if value == nil {
		return ""
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatOne(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return formatOne(value)
}

func formatOne(value any) string {
	if e, ok := value.(signature.Enumeration); ok {
		for _, m := range e.EnumMembers() {
			if reflect.DeepEqual(m.Value, value) {
				return strings.ToLower(m.Name)
			}
		}
	}
	return fmt.Sprint(value)
}

// toList copies a typed default list so appends never alias it.
func toList(value any) []any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return []any{value}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func quote(choices []string) string {
	quoted := make([]string, len(choices))
	for i, c := range choices {
		quoted[i] = "'" + c + "'"
	}
	return strings.Join(quoted, ", ")
}
