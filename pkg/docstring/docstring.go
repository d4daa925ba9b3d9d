// Package docstring parses Google-style documentation text into a short description, a long
// description, and per-parameter descriptions.
//
// A docstring looks like this:
//
//	Deploy the service.
//
//	The service is built and pushed before the rollout starts.
//
//	Args:
//	    ctx: The execution context.
//	    env (string): Target environment. Long descriptions
//	        continue on indented lines.
//	    dry_run: Print what would happen.
//
//	Examples:
//	    tools deploy --env prod
//
// Parsing never fails: unknown lines are kept as description text and malformed entries are
// ignored.
package docstring

import (
	"strings"
)

// Docstring is the parsed form of a documentation string.
type Docstring struct {
	ShortDescription string
	LongDescription  string
	// Params holds the Args section entries in the order they appear.
	Params []Param

	Returns  string
	Yields   string
	Raises   []Param
	Examples []string
	Notes    []string
	Warnings []string
	SeeAlso  []string
	// References, Todo and the version sections are kept verbatim.
	References     []string
	Todo           []string
	Deprecated     string
	VersionAdded   string
	VersionChanged []string
}

// Param is a single "name (type): description" entry.
type Param struct {
	Name        string
	Type        string
	Description string
}

// Param returns the description for the named parameter and whether it was documented.
func (d *Docstring) Param(name string) (string, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p.Description, true
		}
	}
	return "", false
}

type section int

const (
	sectionNone section = iota
	sectionArgs
	sectionReturns
	sectionYields
	sectionRaises
	sectionExamples
	sectionNotes
	sectionWarnings
	sectionSeeAlso
	sectionReferences
	sectionTodo
	sectionDeprecated
	sectionVersionAdded
	sectionVersionChanged
)

var sectionPrefixes = []struct {
	prefixes []string
	section  section
}{
	{[]string{"args:", "arguments:", "parameters:", "params:"}, sectionArgs},
	{[]string{"returns:", "return:"}, sectionReturns},
	{[]string{"yields:", "yield:"}, sectionYields},
	{[]string{"raises:", "raise:", "except:"}, sectionRaises},
	{[]string{"examples:", "example:"}, sectionExamples},
	{[]string{"notes:", "note:"}, sectionNotes},
	{[]string{"warnings:", "warning:"}, sectionWarnings},
	{[]string{"see also:", "see:"}, sectionSeeAlso},
	{[]string{"references:", "refs:"}, sectionReferences},
	{[]string{"todo:"}, sectionTodo},
	{[]string{"deprecated:"}, sectionDeprecated},
	{[]string{"version added:"}, sectionVersionAdded},
	{[]string{"version changed:"}, sectionVersionChanged},
}

func detectSection(trimmed string) (section, string) {
	lower := strings.ToLower(trimmed)
	for _, s := range sectionPrefixes {
		for _, p := range s.prefixes {
			if strings.HasPrefix(lower, p) {
				// Text after the header on the same line belongs to the section.
				return s.section, strings.TrimSpace(trimmed[len(p):])
			}
		}
	}
	return sectionNone, ""
}

// Parse parses text as a Google-style docstring.
func Parse(text string) *Docstring {
	d := new(Docstring)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		current      = sectionNone
		headerIndent int
		content      []string
		long         []string
		inFenced     bool
	)
	flush := func() {
		if current != sectionNone {
			d.apply(current, content)
		}
		content = nil
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if d.ShortDescription == "" && trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			inFenced = !inFenced
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		// Entries nested under a header never start a new section.
		if !inFenced && !strings.HasPrefix(trimmed, "```") && (current == sectionNone || indent <= headerIndent) {
			if s, rest := detectSection(trimmed); s != sectionNone {
				flush()
				current = s
				headerIndent = indent
				if rest != "" {
					content = append(content, rest)
				}
				continue
			}
		}
		if current != sectionNone {
			content = append(content, line)
			continue
		}
		if d.ShortDescription == "" {
			d.ShortDescription = trimmed
			continue
		}
		long = append(long, trimmed)
	}
	flush()
	d.LongDescription = strings.TrimSpace(strings.Join(long, "\n"))
	return d
}

func (d *Docstring) apply(s section, content []string) {
	switch s {
	case sectionArgs:
		d.Params = append(d.Params, parseEntries(content)...)
	case sectionRaises:
		d.Raises = append(d.Raises, parseEntries(content)...)
	case sectionReturns:
		d.Returns = stripType(joinFields(content))
	case sectionYields:
		d.Yields = stripType(joinFields(content))
	case sectionExamples:
		if block := dedent(content); block != "" {
			d.Examples = append(d.Examples, block)
		}
	case sectionNotes:
		d.Notes = append(d.Notes, paragraphs(content)...)
	case sectionWarnings:
		d.Warnings = append(d.Warnings, paragraphs(content)...)
	case sectionSeeAlso:
		d.SeeAlso = append(d.SeeAlso, nonEmpty(content)...)
	case sectionReferences:
		d.References = append(d.References, nonEmpty(content)...)
	case sectionTodo:
		d.Todo = append(d.Todo, nonEmpty(content)...)
	case sectionDeprecated:
		d.Deprecated = joinFields(content)
	case sectionVersionAdded:
		d.VersionAdded = joinFields(content)
	case sectionVersionChanged:
		d.VersionChanged = append(d.VersionChanged, nonEmpty(content)...)
	}
}

// parseEntries parses "name (type): description" lines. Lines indented deeper than the entry
// they follow are continuation lines.
func parseEntries(content []string) []Param {
	var (
		params      []Param
		entryIndent = -1
	)
	for _, line := range content {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if len(params) > 0 && entryIndent >= 0 && indent > entryIndent {
			last := &params[len(params)-1]
			if last.Description == "" {
				last.Description = trimmed
			} else {
				last.Description += " " + trimmed
			}
			continue
		}
		head, desc, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		p := Param{Description: strings.TrimSpace(desc)}
		head = strings.TrimSpace(head)
		if name, typ, ok := strings.Cut(head, "("); ok {
			p.Name = strings.TrimSpace(name)
			p.Type = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(typ), ")"))
		} else {
			p.Name = head
		}
		if p.Name == "" || strings.ContainsAny(p.Name, " \t") {
			continue
		}
		params = append(params, p)
		entryIndent = indent
	}
	return params
}

func joinFields(content []string) string {
	var parts []string
	for _, line := range content {
		if t := strings.TrimSpace(line); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// stripType drops a leading "type:" prefix from a Returns or Yields body.
func stripType(s string) string {
	if head, rest, ok := strings.Cut(s, ":"); ok && !strings.Contains(head, " ") {
		return strings.TrimSpace(rest)
	}
	return s
}

func nonEmpty(content []string) []string {
	var out []string
	for _, line := range content {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func paragraphs(content []string) []string {
	var (
		out []string
		cur []string
	)
	for _, line := range content {
		t := strings.TrimSpace(line)
		if t == "" {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, " "))
				cur = nil
			}
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

func dedent(content []string) string {
	minIndent := -1
	for _, line := range content {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	var out []string
	for _, line := range content {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, strings.TrimRight(line[minIndent:], " \t"))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
