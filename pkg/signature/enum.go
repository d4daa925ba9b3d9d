package signature

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// EnumMember is one named value of an enumeration.
type EnumMember struct {
	Name  string
	Value any
}

// Enumeration is implemented by types whose parameters accept one of a fixed set of named
// values. EnumMembers is called on the zero value and every member's Value must have the
// implementing type.
//
//	type Color int
//
//	const (
//		Red Color = iota
//		Green
//	)
//
//	func (Color) EnumMembers() []signature.EnumMember {
//		return []signature.EnumMember{{Name: "RED", Value: Red}, {Name: "GREEN", Value: Green}}
//	}
type Enumeration interface {
	EnumMembers() []EnumMember
}

var enumerationType = reflect.TypeFor[Enumeration]()

func isEnumeration(t reflect.Type) bool {
	return t.Kind() != reflect.Interface && t.Implements(enumerationType)
}

// enumTable maps lower-cased member names to member values, in declaration order.
type enumTable struct {
	names  []string
	values []any
}

func newEnumTable(t reflect.Type) (*enumTable, error) {
	members := reflect.Zero(t).Interface().(Enumeration).EnumMembers()
	if len(members) == 0 {
		return nil, fmt.Errorf("enumeration %s has no members", t)
	}
	table := new(enumTable)
	for _, m := range members {
		if m.Value == nil || reflect.TypeOf(m.Value) != t {
			return nil, fmt.Errorf("enumeration %s member %q has value of type %T", t, m.Name, m.Value)
		}
		name := strings.ToLower(m.Name)
		if table.index(name) >= 0 {
			return nil, fmt.Errorf("enumeration %s has duplicate member %q", t, m.Name)
		}
		table.names = append(table.names, name)
		table.values = append(table.values, m.Value)
	}
	return table, nil
}

func (t *enumTable) index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

// restrict keeps only the members named in choices, preserving the order of choices.
func (t *enumTable) restrict(choices []string) (*enumTable, []string) {
	out := new(enumTable)
	var unknown []string
	for _, c := range choices {
		i := t.index(strings.ToLower(c))
		if i < 0 {
			unknown = append(unknown, c)
			continue
		}
		if out.index(t.names[i]) >= 0 {
			continue
		}
		out.names = append(out.names, t.names[i])
		out.values = append(out.values, t.values[i])
	}
	return out, unknown
}

func (t *enumTable) quoted() string {
	quoted := make([]string, len(t.names))
	for i, n := range t.names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}

// lookup accepts a member name in any case, or the exact text of a member's underlying value.
func (t *enumTable) lookup(token string) (any, error) {
	if i := t.index(strings.ToLower(token)); i >= 0 {
		return t.values[i], nil
	}
	for _, v := range t.values {
		if valueText(v) == token {
			return v, nil
		}
	}
	return nil, fmt.Errorf("invalid choice: '%s'. Available choices are %s", token, t.quoted())
}

// describe appends the available choices to a description.
func (t *enumTable) describe(description string) string {
	if !strings.HasSuffix(description, ".") {
		description += "."
	}
	return description + " Choices: " + t.quoted() + "."
}

// valueText formats the underlying value of an enumeration member. For basic kinds String methods
// are bypassed, so a fmt.Stringer enumeration still matches on its declared value.
func valueText(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	return fmt.Sprintf("%v", rv.Interface())
}
