package signature

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/mfridman/sigcli/pkg/docstring"
)

// resolve turns a classified parameter into an argument descriptor. Rules are applied in order:
// optional unwrapping, enumerations, booleans, lists, variadic defaults and finally plain
// conversion. Explicit annotations take precedence over every derived default except the
// enumeration lookup, which always replaces the action.
func resolve(p *parameter, doc *docstring.Docstring) (*Argument, error) {
	kind, name, ann := p.kind, p.name, p.ann
	slog.Debug("parsing parameter",
		slog.String("name", name),
		slog.String("kind", kind.String()),
		slog.String("type", p.field.Type.String()),
		slog.Bool("has_default", p.hasDefault),
	)

	typ := p.field.Type
	switch typ.Kind() {
	case reflect.Interface:
		return nil, paramErrorf(kind, name, "has more than two types: %s", typ)
	case reflect.Pointer:
		if k := typ.Elem().Kind(); k == reflect.Pointer || k == reflect.Interface {
			return nil, paramErrorf(kind, name, "must be a single optional type, found %s", typ)
		}
		typ = typ.Elem()
	}

	description, ok := doc.Param(name)
	if !ok || description == "" {
		return nil, paramErrorf(kind, name, "has no description in the docstring which is required to generate the help message")
	}

	arg := &Argument{
		Kind:        kind,
		Name:        name,
		Description: description,
		Metavar:     strings.ToUpper(name),
	}
	if ann.Metavar != "" {
		arg.Metavar = ann.Metavar
	}
	// Positionals are always required, an override is ignored for them.
	if ann.Required != nil && kind == KindFlag {
		arg.Required = *ann.Required
	}
	if ann.Group != "" {
		if kind != KindFlag {
			return nil, paramErrorf(kind, name, "cannot be in a mutually exclusive group")
		}
		arg.Group = ann.Group
	}
	aliases, err := buildAliases(kind, name, ann.Aliases)
	if err != nil {
		return nil, err
	}
	arg.Aliases = aliases

	nargs := ann.Nargs
	if nargs == NargsOne && kind == KindVariadic {
		nargs = NargsAny
	}
	action := ann.Action
	choices := ann.Choices

	// Containers: []T is a list, anything with two type arguments is rejected.
	list := false
	elem := typ
	if typ.Kind() == reflect.Map && !isTextUnmarshaler(typ) {
		return nil, paramErrorf(kind, name, "has more than one type: %s", p.field.Type)
	}
	if typ.Kind() == reflect.Slice && !isTextUnmarshaler(typ) {
		list = true
		elem = typ.Elem()
		switch elem.Kind() {
		case reflect.Pointer, reflect.Interface:
			return nil, paramErrorf(kind, name, "has more than one type: %s", p.field.Type)
		case reflect.Slice, reflect.Map, reflect.Array:
			if !isTextUnmarshaler(elem) {
				return nil, paramErrorf(kind, name, "has unsupported nested container type %s", p.field.Type)
			}
		}
	}
	if kind == KindVariadic && !list {
		return nil, paramErrorf(kind, name, "must be a slice, found %s", p.field.Type)
	}

	var enum *enumTable
	if isEnumeration(elem) {
		table, err := newEnumTable(elem)
		if err != nil {
			return nil, paramErrorf(kind, name, "%v", err)
		}
		if choices != nil {
			if len(choices) == 0 {
				return nil, paramErrorf(kind, name, "has an empty set of choices")
			}
			restricted, unknown := table.restrict(choices)
			if len(unknown) > 0 {
				return nil, paramErrorf(kind, name, "has choices and they are not of the same type as the enum: %s", strings.Join(unknown, ", "))
			}
			table = restricted
		}
		// The lookup table replaces the choices.
		choices = nil
		enum = table
		arg.Type = stringType
		arg.Convert = table.lookup
		arg.Description = table.describe(arg.Description)
		if !list {
			action = ActionEnum
		}
	} else {
		convert, ok := scalarConverter(elem)
		if !ok {
			return nil, paramErrorf(kind, name, "has unsupported type %s", p.field.Type)
		}
		arg.Type = elem
		arg.Convert = convert
	}

	isBool := enum == nil && !list && elem.Kind() == reflect.Bool
	var boolDefault *bool
	if isBool && p.hasDefault && p.defText != "" {
		v, err := arg.Convert(p.defText)
		if err != nil {
			return nil, paramErrorf(kind, name, "has invalid default: %v", err)
		}
		b := reflect.ValueOf(v).Bool()
		boolDefault = &b
	}

	if action == 0 {
		switch {
		case isBool && boolDefault != nil && *boolDefault:
			action = ActionStoreFalse
		case isBool && kind == KindFlag:
			action = ActionStoreTrue
		case list && enum == nil && elem.Kind() == reflect.Bool:
			// Tokens are matched as strings since any non-empty string is truthy.
			action = ActionAppendBool
			arg.Type = stringType
			arg.Convert = convertBoolToken
		case list && kind != KindVariadic && nargs == NargsOne:
			action = ActionAppend
		default:
			action = ActionStore
		}
	}

	switch action {
	case ActionStoreTrue, ActionStoreFalse:
		if !isBool || kind != KindFlag {
			return nil, paramErrorf(kind, name, "action %s requires a boolean flag, found %s", action, p.field.Type)
		}
		arg.Convert = nil
	case ActionCount:
		if list || kind != KindFlag || !isInteger(elem) {
			return nil, paramErrorf(kind, name, "action %s requires an integer flag, found %s", action, p.field.Type)
		}
	case ActionAppend, ActionAppendBool:
		if !list {
			return nil, paramErrorf(kind, name, "action %s requires a slice, found %s", action, p.field.Type)
		}
	}
	if nargs.IsList() && !list {
		return nil, paramErrorf(kind, name, "nargs %s requires a slice, found %s", nargs, p.field.Type)
	}
	if list && !action.Accumulates() && !nargs.IsList() {
		return nil, paramErrorf(kind, name, "is a slice and needs nargs or an append action")
	}
	if nargs == NargsOptional && list {
		return nil, paramErrorf(kind, name, "nargs ? requires a single value, found %s", p.field.Type)
	}
	if nargs != NargsOne && action.IsBool() {
		return nil, paramErrorf(kind, name, "action %s does not accept nargs", action)
	}
	arg.Action = action
	arg.Nargs = nargs

	if choices != nil {
		if len(choices) == 0 {
			return nil, paramErrorf(kind, name, "has an empty set of choices")
		}
		if arg.Convert == nil || action == ActionCount {
			return nil, paramErrorf(kind, name, "action %s does not accept choices", action)
		}
		for _, c := range choices {
			if _, err := arg.Convert(c); err != nil {
				return nil, paramErrorf(kind, name, "has invalid choice %q: %v", c, err)
			}
		}
		arg.Choices = choices
	}
	switch {
	case !p.hasDefault || p.defText == "":
		// Unset defaults normalize to nil.
	case boolDefault != nil:
		arg.Default = *boolDefault
	default:
		v, err := parseDefault(p.defText, list, elem, arg.Convert)
		if err != nil {
			return nil, paramErrorf(kind, name, "has invalid default: %v", err)
		}
		arg.Default = v
	}
	if action == ActionCount {
		// Counting never converts tokens; the converter was only needed for the default.
		arg.Convert = nil
	}
	return arg, nil
}

func isInteger(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
