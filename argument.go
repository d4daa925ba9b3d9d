package sigcli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/mfridman/sigcli/internal/flagvalue"
	"github.com/mfridman/sigcli/internal/positional"
	"github.com/mfridman/sigcli/pkg/signature"
)

var _ signature.Scope[*Context] = (*Command)(nil)

// AddArgument registers a flag or positional argument on the command. Flags are added to the
// command's flag set once per alias, all aliases sharing one value. Positionals are consumed in
// registration order after flag parsing.
func (c *Command) AddArgument(desc *signature.Argument) error {
	_, err := c.addArgument(desc)
	return err
}

func (c *Command) addArgument(desc *signature.Argument) (*argument, error) {
	if desc == nil {
		return nil, errors.New("argument is nil")
	}
	a := &argument{desc: desc, value: flagvalue.New(desc)}
	if desc.Kind != signature.KindFlag {
		for _, other := range c.positionals() {
			if other.desc.Name == desc.Name {
				return nil, fmt.Errorf("conflicting argument name: %s", desc.Name)
			}
		}
		c.arguments = append(c.arguments, a)
		return a, nil
	}
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name, flag.ContinueOnError)
	}
	seen := make(map[string]bool, len(desc.Aliases))
	for _, alias := range desc.Aliases {
		name := strings.TrimLeft(alias, "-")
		if name == "" || seen[name] || c.Flags.Lookup(name) != nil {
			return nil, fmt.Errorf("conflicting option string: %s", alias)
		}
		seen[name] = true
	}
	for _, alias := range desc.Aliases {
		c.Flags.Var(a.value, strings.TrimLeft(alias, "-"), desc.Description)
	}
	c.arguments = append(c.arguments, a)
	return a, nil
}

// AddMutuallyExclusiveGroup returns an adder whose flags cannot be combined on one command line.
func (c *Command) AddMutuallyExclusiveGroup() signature.ArgumentAdder {
	g := &argumentGroup{cmd: c}
	c.groups = append(c.groups, g)
	return g
}

// SetDefaults installs dispatch as the command's execution function. The values passed to it are
// the ones collected by the most recent [Parse].
func (c *Command) SetDefaults(dispatch func(*Context, signature.Values) error) {
	c.dispatch = dispatch
	c.Exec = func(ctx context.Context, s *State) error {
		return dispatch(newContext(ctx, s), s.values)
	}
}

type argumentGroup struct {
	cmd     *Command
	members []*argument
}

func (g *argumentGroup) AddArgument(desc *signature.Argument) error {
	if desc != nil && desc.Kind != signature.KindFlag {
		return fmt.Errorf("mutually exclusive arguments must be optional: %s", desc.Name)
	}
	a, err := g.cmd.addArgument(desc)
	if err != nil {
		return err
	}
	g.members = append(g.members, a)
	return nil
}

// checkGroups reports the first pair of group members that were both set.
func (c *Command) checkGroups() error {
	for _, g := range c.groups {
		var first *argument
		for _, a := range g.members {
			if !a.value.IsSet() {
				continue
			}
			if first != nil {
				return fmt.Errorf("argument %s: not allowed with argument %s", a.displayName(), first.displayName())
			}
			first = a
		}
	}
	return nil
}

// collectValues assigns positional tokens and gathers every argument's value by name.
func (c *Command) collectValues(tokens []string) (signature.Values, error) {
	values := make(signature.Values, len(c.arguments))
	pos := c.positionals()
	descs := make([]*signature.Argument, len(pos))
	for i, a := range pos {
		descs[i] = a.desc
	}
	dist, err := positional.Distribute(descs, tokens)
	if err != nil {
		return nil, err
	}
	for i, a := range pos {
		for _, tok := range dist[i] {
			if err := a.value.Set(tok); err != nil {
				return nil, fmt.Errorf("argument %s: %w", a.desc.Metavar, err)
			}
		}
	}
	for _, a := range c.arguments {
		values[a.desc.Name] = a.value.Get()
	}
	return values, nil
}

// applyOperands sets a flag that takes nargs tokens from one occurrence on the command line.
func (a *argument) applyOperands(operands []string) error {
	n := a.desc.Nargs
	switch {
	case n == 1 && len(operands) != 1:
		return fmt.Errorf("argument %s: expected one argument", a.displayName())
	case n > 1 && len(operands) != int(n):
		return fmt.Errorf("argument %s: expected %d arguments", a.displayName(), int(n))
	case len(operands) < n.Min():
		return fmt.Errorf("argument %s: expected at least one argument", a.displayName())
	}
	a.value.Begin()
	for _, op := range operands {
		if err := a.value.Set(op); err != nil {
			return fmt.Errorf("argument %s: invalid value %q: %w", a.displayName(), op, err)
		}
	}
	return nil
}

// flagValues returns the current value of every flag registered through AddArgument.
func (c *Command) flagValues() signature.Values {
	values := make(signature.Values)
	for _, a := range c.arguments {
		if a.desc.Kind == signature.KindFlag {
			values[a.desc.Name] = a.value.Get()
		}
	}
	return values
}
