// Package urfave realizes compiled command signatures on github.com/urfave/cli/v3 commands.
//
//	cmd := &cli.Command{Name: "deploy"}
//	scope := urfave.NewScope(cmd, func(ctx context.Context, cmd *cli.Command) *Ctx {
//	    return &Ctx{Context: ctx}
//	})
//	if err := sig.SetupParser(scope); err != nil { ... }
//	err := cmd.Run(ctx, os.Args)
//
// Flags become [cli.GenericFlag] values sharing one parsed value per argument, mutually exclusive
// groups become [cli.MutuallyExclusiveFlags], and positionals are distributed from the command's
// remaining arguments when its action runs.
package urfave

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/mfridman/sigcli/internal/flagvalue"
	"github.com/mfridman/sigcli/internal/positional"
	"github.com/mfridman/sigcli/pkg/signature"
)

// Scope implements [signature.Scope] for a single [cli.Command].
type Scope[C any] struct {
	cmd         *cli.Command
	newCtx      func(context.Context, *cli.Command) C
	names       map[string]bool
	values      []*flagvalue.Value
	positionals []*flagvalue.Value
}

var _ signature.Scope[any] = (*Scope[any])(nil)

// NewScope returns a scope that registers arguments on cmd. newCtx builds the command function's
// context argument when the command runs.
func NewScope[C any](cmd *cli.Command, newCtx func(context.Context, *cli.Command) C) *Scope[C] {
	return &Scope[C]{
		cmd:    cmd,
		newCtx: newCtx,
		// The help flag is added by cli.
		names: map[string]bool{"help": true, "h": true},
	}
}

// AddArgument adds a flag to the command, or records a positional argument.
func (s *Scope[C]) AddArgument(arg *signature.Argument) error {
	f, err := s.add(arg)
	if err != nil || f == nil {
		return err
	}
	s.cmd.Flags = append(s.cmd.Flags, f)
	return nil
}

// AddMutuallyExclusiveGroup returns an adder whose flags form one [cli.MutuallyExclusiveFlags]
// entry of the command.
func (s *Scope[C]) AddMutuallyExclusiveGroup() signature.ArgumentAdder {
	s.cmd.MutuallyExclusiveFlags = append(s.cmd.MutuallyExclusiveFlags, cli.MutuallyExclusiveFlags{})
	return &group[C]{scope: s, index: len(s.cmd.MutuallyExclusiveFlags) - 1}
}

// SetDefaults installs the command action. Values are reset after every run so the command can
// be run again.
func (s *Scope[C]) SetDefaults(dispatch func(C, signature.Values) error) {
	s.cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		defer s.reset()
		values, err := s.collect(cmd.Args().Slice())
		if err != nil {
			return err
		}
		return dispatch(s.newCtx(ctx, cmd), values)
	}
}

func (s *Scope[C]) add(arg *signature.Argument) (*cli.GenericFlag, error) {
	if arg == nil {
		return nil, fmt.Errorf("argument is nil")
	}
	v := flagvalue.New(arg)
	if arg.Kind != signature.KindFlag {
		s.positionals = append(s.positionals, v)
		s.values = append(s.values, v)
		s.cmd.ArgsUsage = strings.TrimSpace(s.cmd.ArgsUsage + " " + usage(arg))
		return nil, nil
	}
	// A urfave flag takes exactly one value per occurrence.
	if arg.Nargs != signature.NargsOne {
		return nil, fmt.Errorf("flag %s: nargs %s is not supported", arg.Aliases[0], arg.Nargs)
	}
	names := make([]string, len(arg.Aliases))
	for i, alias := range arg.Aliases {
		name := strings.TrimLeft(alias, "-")
		if name == "" || s.names[name] {
			return nil, fmt.Errorf("conflicting option string: %s", alias)
		}
		names[i] = name
	}
	for _, name := range names {
		s.names[name] = true
	}
	s.values = append(s.values, v)
	return &cli.GenericFlag{
		Name:        names[0],
		Aliases:     names[1:],
		Usage:       arg.Description,
		Required:    arg.Required,
		Value:       v,
		DefaultText: flagvalue.Format(arg.Default),
	}, nil
}

// collect distributes positional tokens and gathers every argument's value by name.
func (s *Scope[C]) collect(tokens []string) (signature.Values, error) {
	descs := make([]*signature.Argument, len(s.positionals))
	for i, v := range s.positionals {
		descs[i] = v.Argument()
	}
	dist, err := positional.Distribute(descs, tokens)
	if err != nil {
		return nil, err
	}
	for i, v := range s.positionals {
		for _, tok := range dist[i] {
			if err := v.Set(tok); err != nil {
				return nil, fmt.Errorf("argument %s: %w", v.Argument().Metavar, err)
			}
		}
	}
	values := make(signature.Values, len(s.values))
	for _, v := range s.values {
		values[v.Argument().Name] = v.Get()
	}
	return values, nil
}

func (s *Scope[C]) reset() {
	for _, v := range s.values {
		v.Reset()
	}
}

type group[C any] struct {
	scope *Scope[C]
	index int
}

func (g *group[C]) AddArgument(arg *signature.Argument) error {
	if arg != nil && arg.Kind != signature.KindFlag {
		return fmt.Errorf("mutually exclusive arguments must be optional: %s", arg.Name)
	}
	f, err := g.scope.add(arg)
	if err != nil {
		return err
	}
	grp := &g.scope.cmd.MutuallyExclusiveFlags[g.index]
	grp.Flags = append(grp.Flags, []cli.Flag{f})
	return nil
}

func usage(arg *signature.Argument) string {
	m := arg.Metavar
	switch n := arg.Nargs; {
	case n == signature.NargsOptional:
		return "[" + m + "]"
	case n == signature.NargsAny:
		return "[" + m + " ...]"
	case n == signature.NargsMany:
		return m + " [" + m + " ...]"
	case n > 0:
		return strings.TrimSpace(strings.Repeat(m+" ", int(n)))
	}
	return m
}
