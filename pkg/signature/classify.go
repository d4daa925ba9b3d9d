package signature

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"
)

// parameter is one field of a parameters struct, classified but not yet resolved.
type parameter struct {
	field      reflect.StructField
	name       string
	kind       Kind
	hasDefault bool
	defText    string
	ann        ArgumentAnnotation
}

// classify walks the exported fields of a parameters struct in declaration order.
func classify(params reflect.Type) ([]*parameter, error) {
	var annotations map[string]ArgumentAnnotation
	if a, ok := reflect.New(params).Interface().(Annotator); ok {
		annotations = a.ArgAnnotations()
	}
	var (
		out      []*parameter
		seen     = make(map[string]bool)
		variadic *parameter
	)
	for i := 0; i < params.NumField(); i++ {
		f := params.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("arg")
		if tag == "-" {
			continue
		}
		if f.Anonymous {
			return nil, fmt.Errorf("embedded field %s is not supported", f.Name)
		}
		ann, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		p := &parameter{field: f, name: ann.Name}
		if p.name == "" {
			p.name = strcase.ToSnake(f.Name)
		}
		if seen[p.name] {
			return nil, fmt.Errorf("field %s: duplicate parameter name %q", f.Name, p.name)
		}
		seen[p.name] = true
		if extra, ok := annotations[p.name]; ok {
			if !ann.isZero() {
				return nil, fmt.Errorf("field %s: parameter %q is annotated by both its arg tag and ArgAnnotations", f.Name, p.name)
			}
			extra.Name = p.name
			extra.Variadic = extra.Variadic || ann.Variadic
			ann = extra
		}
		p.ann = ann
		p.defText, p.hasDefault = f.Tag.Lookup("default")

		switch {
		case ann.Variadic:
			p.kind = KindVariadic
		case !p.hasDefault:
			p.kind = KindPositional
		default:
			p.kind = KindFlag
		}
		switch p.kind {
		case KindVariadic:
			if p.hasDefault {
				return nil, paramErrorf(p.kind, p.name, "cannot have a default")
			}
			if variadic != nil {
				return nil, paramErrorf(p.kind, p.name, "cannot follow variadic parameter %q", variadic.name)
			}
			variadic = p
		case KindPositional:
			if variadic != nil {
				return nil, paramErrorf(p.kind, p.name, "cannot follow variadic parameter %q", variadic.name)
			}
		}
		out = append(out, p)
	}
	for name := range annotations {
		if !seen[name] {
			return nil, fmt.Errorf("ArgAnnotations names unknown parameter %q", name)
		}
	}
	return out, nil
}

// buildAliases returns the option strings of a parameter. A positional's only alias is its name.
// A flag always carries "--name" (underscores replaced by dashes) first, followed by the supplied
// aliases in their original order.
func buildAliases(kind Kind, name string, aliases []string) ([]string, error) {
	if kind != KindFlag {
		if len(aliases) > 0 {
			return nil, paramErrorf(kind, name, "cannot have aliases")
		}
		return []string{name}, nil
	}
	for _, a := range aliases {
		if !strings.HasPrefix(a, "-") || strings.Trim(a, "-") == "" {
			return nil, paramErrorf(kind, name, "has invalid alias %q: aliases must start with a dash", a)
		}
	}
	def := "--" + strings.ReplaceAll(name, "_", "-")
	if aliases == nil {
		return []string{def}, nil
	}
	out := slices.Clone(aliases)
	if i := slices.Index(out, def); i > 0 {
		out = slices.Delete(out, i, i+1)
	}
	if !slices.Contains(out, def) {
		out = slices.Insert(out, 0, def)
	}
	return out, nil
}
