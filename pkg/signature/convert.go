package signature

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	durationType        = reflect.TypeFor[time.Duration]()
	stringType          = reflect.TypeFor[string]()
)

func isTextUnmarshaler(t reflect.Type) bool {
	return t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface &&
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// scalarConverter returns a converter from one token to a value of type t.
func scalarConverter(t reflect.Type) (func(string) (any, error), bool) {
	if isTextUnmarshaler(t) {
		return func(s string) (any, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", t, s, err)
			}
			return p.Elem().Interface(), nil
		}, true
	}
	if t == durationType {
		return func(s string) (any, error) {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid duration value %q", s)
			}
			return d, nil
		}, true
	}
	switch t.Kind() {
	case reflect.String:
		return func(s string) (any, error) {
			return reflect.ValueOf(s).Convert(t).Interface(), nil
		}, true
	case reflect.Bool:
		return func(s string) (any, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("invalid boolean value %q", s)
			}
			return reflect.ValueOf(b).Convert(t).Interface(), nil
		}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(s string) (any, error) {
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q", t, s)
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v.Interface(), nil
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(s string) (any, error) {
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q", t, s)
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v.Interface(), nil
		}, true
	case reflect.Float32, reflect.Float64:
		return func(s string) (any, error) {
			f, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q", t, s)
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v.Interface(), nil
		}, true
	}
	return nil, false
}

// convertBoolToken accepts exactly "true" or "false" in any case.
func convertBoolToken(s string) (any, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, fmt.Errorf("invalid value %q: must be true or false", s)
}

// parseDefault converts the text of a default tag. List defaults are comma separated.
func parseDefault(text string, list bool, elem reflect.Type, convert func(string) (any, error)) (any, error) {
	if !list {
		return convert(text)
	}
	parts := strings.Split(text, ",")
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(parts))
	for _, p := range parts {
		v, err := convert(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if rv.Type() != elem {
			rv = rv.Convert(elem)
		}
		out = reflect.Append(out, rv)
	}
	return out.Interface(), nil
}
