package signature

import (
	"fmt"
	"reflect"
)

// callShape records how parameters map onto the fields of the parameters struct.
type callShape struct {
	params  reflect.Type
	pointer bool

	positional []fieldRef
	variadic   *fieldRef
	keywords   map[string]fieldRef
}

type fieldRef struct {
	name  string
	index []int
}

func (c *callShape) add(p *parameter) {
	ref := fieldRef{name: p.name, index: p.field.Index}
	switch p.kind {
	case KindPositional:
		c.positional = append(c.positional, ref)
	case KindVariadic:
		c.variadic = &ref
	case KindFlag:
		if c.keywords == nil {
			c.keywords = make(map[string]fieldRef)
		}
		c.keywords[p.name] = ref
	}
}

// bind builds the parameters struct from positional values and keyword values. Fields with no
// value stay at their zero value; Call fills in defaults before binding.
func (c *callShape) bind(positional []any, keywords map[string]any) (reflect.Value, error) {
	v := reflect.New(c.params).Elem()
	for i, value := range positional {
		if i < len(c.positional) {
			ref := c.positional[i]
			if err := assign(v.FieldByIndex(ref.index), value); err != nil {
				return reflect.Value{}, fmt.Errorf("argument %q: %w", ref.name, err)
			}
			continue
		}
		if c.variadic == nil {
			return reflect.Value{}, fmt.Errorf("too many positional arguments: expected %d, got %d", len(c.positional), len(positional))
		}
		field := v.FieldByIndex(c.variadic.index)
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := assign(elem, value); err != nil {
			return reflect.Value{}, fmt.Errorf("argument %q: %w", c.variadic.name, err)
		}
		field.Set(reflect.Append(field, elem))
	}
	for name, value := range keywords {
		ref, ok := c.keywords[name]
		if !ok {
			return reflect.Value{}, fmt.Errorf("unexpected keyword argument %q", name)
		}
		if err := assign(v.FieldByIndex(ref.index), value); err != nil {
			return reflect.Value{}, fmt.Errorf("argument %q: %w", name, err)
		}
	}
	if c.pointer {
		return v.Addr(), nil
	}
	return v, nil
}

// assign stores value into dst, allocating optional pointers and rebuilding lists element by
// element. A nil value leaves dst unchanged.
func assign(dst reflect.Value, value any) error {
	if value == nil {
		return nil
	}
	src := reflect.ValueOf(value)
	t := dst.Type()
	switch {
	case src.Type().AssignableTo(t):
		dst.Set(src)
	case t.Kind() == reflect.Pointer:
		elem := reflect.New(t.Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
	case t.Kind() == reflect.Slice && src.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assign(out.Index(i), src.Index(i).Interface()); err != nil {
				return err
			}
		}
		dst.Set(out)
	case src.Kind() == t.Kind() && src.Type().ConvertibleTo(t):
		dst.Set(src.Convert(t))
	default:
		return fmt.Errorf("cannot use %T as %s", value, t)
	}
	return nil
}

// Call invokes the function with ctx and the parsed values. Positional values are bound in
// order, variadic values are spread after them and flag values are bound by name. A flag missing
// from values, or nil in it, is bound to its default.
func (s *Signature[C]) Call(ctx C, values Values) error {
	var (
		positional []any
		keywords   = make(map[string]any)
	)
	for _, arg := range s.Arguments {
		value, ok := values[arg.Name]
		switch arg.Kind {
		case KindPositional:
			positional = append(positional, value)
		case KindVariadic:
			if value == nil {
				continue
			}
			rv := reflect.ValueOf(value)
			if rv.Kind() != reflect.Slice {
				return fmt.Errorf("%s: argument %q: variadic value must be a slice, got %T", s.name, arg.Name, value)
			}
			for i := 0; i < rv.Len(); i++ {
				positional = append(positional, rv.Index(i).Interface())
			}
		case KindFlag:
			if !ok || value == nil {
				value = cloneDefault(arg.Default)
			}
			if value != nil {
				keywords[arg.Name] = value
			}
		default:
			panic(fmt.Sprintf("signature: argument %q has unknown kind %s", arg.Name, arg.Kind))
		}
	}
	in := []reflect.Value{reflect.ValueOf(&ctx).Elem()}
	if s.shape.params != nil {
		params, err := s.shape.bind(positional, keywords)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		in = append(in, params)
	}
	out := s.fn.Call(in)
	if err, _ := out[0].Interface().(error); err != nil {
		return err
	}
	return nil
}

// cloneDefault copies list defaults so a command function cannot modify the shared default.
func cloneDefault(value any) any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return value
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out.Interface()
}
