package sigcli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/mfridman/sigcli/internal/flagvalue"
	"github.com/mfridman/sigcli/pkg/signature"
	"github.com/mfridman/sigcli/pkg/suggest"
)

// NoExecError is returned when a command has no execution function.
type NoExecError struct {
	Command *Command

	path string
}

func (e *NoExecError) Error() string {
	path := e.path
	if path == "" && e.Command != nil {
		path = e.Command.Name
	}
	return fmt.Sprintf("command %q has no execution function", path)
}

// Command represents a CLI command or subcommand within the application's command hierarchy.
//
// A Command is also a [signature.Scope]: a compiled command function registers its flags and
// positionals through [Command.AddArgument] and its dispatch through [Command.SetDefaults].
type Command struct {
	// Name is the single word that selects the command on the command line.
	Name string

	// Usage replaces the generated usage line, e.g. "tools docker build [flags] IMAGE".
	Usage string

	// ShortHelp is the one-line summary shown in the parent's command listing and at the top of
	// the command's own help.
	ShortHelp string

	// LongHelp follows ShortHelp in the command's own help text.
	LongHelp string

	// Title, when set, replaces the "Available Commands" heading of the subcommand listing.
	Title string

	// UsageFunc, when set, renders the whole help text instead of [DefaultUsage].
	UsageFunc func(*Command) string

	// Flags are the command's own flags. Subcommands also accept the flags of every command above
	// them. Arguments added with [Command.AddArgument] are registered here.
	Flags *flag.FlagSet
	// FlagsMetadata marks flags of Flags as required.
	FlagsMetadata []FlagMetadata

	SubCommands []*Command

	// Exec runs the command. Commands built from command functions get one from
	// [Command.SetDefaults]; a command that only groups subcommands may leave it nil.
	Exec func(ctx context.Context, s *State) error

	arguments []*argument
	groups    []*argumentGroup
	dispatch  func(*Context, signature.Values) error

	state *State
}

func (c *Command) terminal() (*Command, *State) {
	if c.state == nil || len(c.state.commandPath) == 0 {
		return c, c.state
	}
	return c.state.commandPath[len(c.state.commandPath)-1], c.state
}

// FlagMetadata describes a flag of a command's FlagSet. Name must be registered in the set, or
// [Parse] reports an internal error.
type FlagMetadata struct {
	Name     string
	Required bool
}

// FlagsFunc returns a new [flag.FlagSet] populated by fn:
//
//	cmd.Flags = sigcli.FlagsFunc(func(f *flag.FlagSet) {
//	    f.Bool("fix", false, "apply fixes")
//	})
func FlagsFunc(fn func(*flag.FlagSet)) *flag.FlagSet {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	fn(fset)
	return fset
}

// findSubCommand matches name case-insensitively.
func (c *Command) findSubCommand(name string) *Command {
	for _, sub := range c.SubCommands {
		if strings.EqualFold(sub.Name, name) {
			return sub
		}
	}
	return nil
}

func (c *Command) formatUnknownCommandError(unknownCmd string) error {
	var known []string
	for _, sub := range c.SubCommands {
		known = append(known, sub.Name)
	}
	suggestions := suggest.FindSimilar(unknownCmd, known, 3)
	if len(suggestions) > 0 {
		return fmt.Errorf("unknown command %q. Did you mean one of these?\n\t%s",
			unknownCmd,
			strings.Join(suggestions, "\n\t"))
	}
	return fmt.Errorf("unknown command %q", unknownCmd)
}

// lookupArgument returns the argument registered under the flag name, if any.
func (c *Command) lookupArgument(flagName string) *argument {
	for _, a := range c.arguments {
		if a.desc.Kind != signature.KindFlag {
			continue
		}
		for _, alias := range a.desc.Aliases {
			if strings.TrimLeft(alias, "-") == flagName {
				return a
			}
		}
	}
	return nil
}

func (c *Command) positionals() []*argument {
	var out []*argument
	for _, a := range c.arguments {
		if a.desc.Kind != signature.KindFlag {
			out = append(out, a)
		}
	}
	return out
}

func (c *Command) resetArguments() {
	for _, a := range c.arguments {
		a.value.Reset()
	}
}

func getCommandPath(commands []*Command) string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

// argument pairs a descriptor with the value that collects it during parsing.
type argument struct {
	desc  *signature.Argument
	value *flagvalue.Value
}

func (a *argument) displayName() string {
	if a.desc.Kind != signature.KindFlag {
		return a.desc.Metavar
	}
	return strings.Join(a.desc.Aliases, "/")
}
