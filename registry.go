package sigcli

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/mfridman/sigcli/pkg/docstring"
	"github.com/mfridman/sigcli/pkg/signature"
)

// Registry collects command groups and their command functions until [Registry.Build] turns them
// into a command hierarchy. Registration never fails immediately; mistakes are reported by Build.
type Registry struct {
	groups map[string]*Group
	errs   []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Group is a named set of commands, shown as a subcommand of its parent.
type Group struct {
	Name            string
	Title           string
	Description     string
	LongDescription string

	// parent is the full dotted name of the parent group, empty for top-level groups.
	parent   string
	registry *Registry
	commands []*registeredCommand
}

type registeredCommand struct {
	name string
	fn   any
	doc  string
}

// FullName is the dotted path of the group from the top level, e.g. "docker.compose".
func (g *Group) FullName() string {
	if g.parent == "" {
		return g.Name
	}
	return g.parent + "." + g.Name
}

// GroupOption configures a group created by [Registry.Group].
type GroupOption func(*groupConfig)

type groupConfig struct {
	description     string
	longDescription string
	docstring       string
	parent          string
}

// WithDescription sets the group's short description.
func WithDescription(description string) GroupOption {
	return func(c *groupConfig) { c.description = description }
}

// WithLongDescription sets the text shown in the group's own help.
func WithLongDescription(description string) GroupOption {
	return func(c *groupConfig) { c.longDescription = description }
}

// WithDocstring takes the group's descriptions from a docstring. It cannot be combined with
// [WithDescription].
func WithDocstring(doc string) GroupOption {
	return func(c *groupConfig) { c.docstring = doc }
}

// WithParent nests the group under the group with the given full dotted name.
func WithParent(fullName string) GroupOption {
	return func(c *groupConfig) { c.parent = fullName }
}

// Group registers a command group, or returns the existing group with the same full name.
func (r *Registry) Group(name, title string, opts ...GroupOption) *Group {
	var cfg groupConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	g := &Group{
		Name:     name,
		Title:    title,
		parent:   cfg.parent,
		registry: r,
	}
	if existing, ok := r.groups[g.FullName()]; ok {
		return existing
	}
	switch {
	case name == "" || strings.ContainsAny(name, " ."):
		r.errs = append(r.errs, fmt.Errorf("group %q: name must be a single word without dots", name))
	case cfg.docstring != "" && cfg.description != "":
		r.errs = append(r.errs, fmt.Errorf("group %q: only one of docstring or description can be set", g.FullName()))
	case cfg.docstring != "":
		doc := docstring.Parse(cfg.docstring)
		g.Description = doc.ShortDescription
		g.LongDescription = doc.LongDescription
	case cfg.description != "":
		g.Description = cfg.description
	default:
		r.errs = append(r.errs, fmt.Errorf("group %q: either docstring or description must be set", g.FullName()))
	}
	if cfg.longDescription != "" {
		g.LongDescription = cfg.longDescription
	}
	r.groups[g.FullName()] = g
	return g
}

// Group registers a group nested under g.
func (g *Group) Group(name, title string, opts ...GroupOption) *Group {
	return g.registry.Group(name, title, append(opts, WithParent(g.FullName()))...)
}

// Command registers fn with its docstring under name. An empty name is derived from the
// function's name in kebab case, so deployService becomes "deploy-service". Registering a name
// twice replaces the earlier command.
func (g *Group) Command(name string, fn any, doc string) *Group {
	if name == "" {
		name = commandName(fn)
	}
	rc := &registeredCommand{name: name, fn: fn, doc: doc}
	for i, existing := range g.commands {
		if existing.name == name {
			slog.Debug("overriding command",
				"group", g.FullName(),
				"command", name,
				"previous", signature.FuncName(existing.fn),
				"new", signature.FuncName(fn),
			)
			g.commands[i] = rc
			return g
		}
	}
	g.commands = append(g.commands, rc)
	return g
}

// commandName derives a command name from a function's short name.
func commandName(fn any) string {
	name := signature.FuncName(fn)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strcase.ToKebab(name)
}

// Build compiles every registered command function and attaches groups and commands to root.
// Groups are built sorted by full name so parents exist before their children.
func (r *Registry) Build(root *Command) error {
	if root == nil {
		return errors.New("build: root command is nil")
	}
	if err := errors.Join(r.errs...); err != nil {
		return err
	}
	groups := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b *Group) int {
		return cmp.Compare(a.FullName(), b.FullName())
	})

	built := make(map[string]*Command, len(groups))
	for _, g := range groups {
		parent := root
		if g.parent != "" {
			p, ok := built[g.parent]
			if !ok {
				return fmt.Errorf("group %q: parent group %q is not registered", g.FullName(), g.parent)
			}
			parent = p
		}
		cmd := &Command{
			Name:      g.Name,
			Title:     g.Title,
			ShortHelp: g.Description,
			LongHelp:  g.LongDescription,
		}
		for _, rc := range g.commands {
			sub, err := buildCommand(rc)
			if err != nil {
				return fmt.Errorf("group %q: %w", g.FullName(), err)
			}
			cmd.SubCommands = append(cmd.SubCommands, sub)
		}
		parent.SubCommands = append(parent.SubCommands, cmd)
		built[g.FullName()] = cmd
	}
	return nil
}

func buildCommand(rc *registeredCommand) (*Command, error) {
	sig, err := signature.Get[*Context](rc.fn, rc.doc)
	if err != nil {
		return nil, err
	}
	cmd := &Command{
		Name:      rc.name,
		ShortHelp: sig.ShortDescription,
		LongHelp:  sig.LongDescription,
	}
	if err := sig.SetupParser(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
