package signature

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgumentAnnotation overrides the type-derived defaults of a single parameter. Zero-valued
// fields are unset.
type ArgumentAnnotation struct {
	// Name replaces the parameter name derived from the field name.
	Name     string
	Aliases  []string
	Required *bool
	Metavar  string
	Action   Action
	// Choices restricts the accepted tokens. A non-nil empty slice is an explicit empty set.
	Choices  []string
	Nargs    Nargs
	Group    string
	Variadic bool
}

// ArgOption configures an [ArgumentAnnotation].
type ArgOption func(*ArgumentAnnotation)

// Arg builds an annotation from options. Annotations are returned by an ArgAnnotations method on
// the parameters struct, keyed by parameter name:
//
//	func (DeployParams) ArgAnnotations() map[string]signature.ArgumentAnnotation {
//		return map[string]signature.ArgumentAnnotation{
//			"env": signature.Arg(signature.WithAliases("-e"), signature.WithRequired(true)),
//		}
//	}
func Arg(opts ...ArgOption) ArgumentAnnotation {
	var a ArgumentAnnotation
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func WithAliases(aliases ...string) ArgOption {
	return func(a *ArgumentAnnotation) { a.Aliases = aliases }
}

func WithRequired(required bool) ArgOption {
	return func(a *ArgumentAnnotation) { a.Required = &required }
}

func WithMetavar(metavar string) ArgOption {
	return func(a *ArgumentAnnotation) { a.Metavar = metavar }
}

func WithAction(action Action) ArgOption {
	return func(a *ArgumentAnnotation) { a.Action = action }
}

func WithChoices(choices ...string) ArgOption {
	return func(a *ArgumentAnnotation) {
		if choices == nil {
			choices = []string{}
		}
		a.Choices = choices
	}
}

func WithNargs(nargs Nargs) ArgOption {
	return func(a *ArgumentAnnotation) { a.Nargs = nargs }
}

// WithGroup places a flag in a named mutually exclusive group.
func WithGroup(group string) ArgOption {
	return func(a *ArgumentAnnotation) { a.Group = group }
}

// Annotator is implemented by parameter structs that provide annotations in code instead of, or
// in addition to, struct tags. A parameter may not be annotated both ways.
type Annotator interface {
	ArgAnnotations() map[string]ArgumentAnnotation
}

// isZero reports whether the annotation overrides anything besides the name and variadic marker.
func (a ArgumentAnnotation) isZero() bool {
	return a.Aliases == nil && a.Required == nil && a.Metavar == "" && a.Action == 0 &&
		a.Choices == nil && a.Nargs == 0 && a.Group == ""
}

// parseTag parses the value of an `arg` struct tag:
//
//	arg:"name=level,aliases=-l|--log-level,required,metavar=LEVEL,choices=a|b,nargs=+,group=g"
//
// List values are separated by "|".
func parseTag(tag string) (ArgumentAnnotation, error) {
	var a ArgumentAnnotation
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		switch key {
		case "name":
			a.Name = value
		case "aliases":
			a.Aliases = splitList(value)
		case "required":
			required := true
			if hasValue {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return a, fmt.Errorf("invalid required value %q", value)
				}
				required = b
			}
			a.Required = &required
		case "metavar":
			a.Metavar = value
		case "action":
			action, err := ParseAction(value)
			if err != nil {
				return a, err
			}
			a.Action = action
		case "choices":
			a.Choices = splitList(value)
			if a.Choices == nil {
				a.Choices = []string{}
			}
		case "nargs":
			nargs, err := ParseNargs(value)
			if err != nil {
				return a, err
			}
			a.Nargs = nargs
		case "group":
			a.Group = value
		case "variadic":
			a.Variadic = true
		default:
			return a, fmt.Errorf("unknown arg tag option %q", key)
		}
		if !hasValue && key != "required" && key != "variadic" {
			return a, fmt.Errorf("arg tag option %q requires a value", key)
		}
	}
	return a, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, "|") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
