package sigcli

import (
	"flag"
	"fmt"
	"io"

	"github.com/mfridman/sigcli/pkg/signature"
)

// State represents the shared state for a command execution. It tracks the path of commands
// selected by [Parse] so child commands can access global flags defined in parent commands. Use
// [GetFlag] to retrieve flag values by name, or [GetValue] for arguments registered from a
// command function's parameters.
type State struct {
	// Args contains the remaining arguments after flag parsing. Commands whose positionals were
	// registered through [Command.AddArgument] consume them, leaving Args empty.
	Args []string

	// Standard I/O streams.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	commandPath []*Command
	values      signature.Values
}

// GetFlag retrieves a flag value by name, with type inference. It traverses the command path from
// the selected command up to the root, allowing access to parent command flags. Example usage:
//
//	verbose := GetFlag[bool](state, "verbose")
//	count := GetFlag[int](state, "count")
//	path := GetFlag[string](state, "path")
//
// If the flag isn't found, it panics with a detailed error message.
//
// Why panic? Because if a flag is missing, it's likely a programming error or a missing flag
// definition, and it's better to fail LOUD and EARLY than to silently ignore the issue and cause
// unexpected behavior.
func GetFlag[T any](s *State, name string) T {
	for i := len(s.commandPath) - 1; i >= 0; i-- {
		cmd := s.commandPath[i]
		if cmd.Flags == nil {
			continue
		}
		f := cmd.Flags.Lookup(name)
		if f == nil {
			continue
		}
		if getter, ok := f.Value.(flag.Getter); ok {
			value := getter.Get()
			if v, ok := value.(T); ok {
				return v
			}
			err := fmt.Errorf("type mismatch for flag %q in command %q: registered %T, requested %T",
				formatFlagName(name), getCommandPath(s.commandPath), value, *new(T))
			// Flag exists but type doesn't match - this is an internal error
			panic(err)
		}
	}
	err := fmt.Errorf("flag %q not found in command %q flag set", formatFlagName(name), getCommandPath(s.commandPath))
	panic(err)
}

// GetValue retrieves a parsed argument of the selected command by its parameter name, e.g.
// "dry_run". Like [GetFlag] it panics when the name is unknown or the type does not match.
func GetValue[T any](s *State, name string) T {
	value, ok := s.values[name]
	if !ok {
		panic(fmt.Errorf("argument %q not found in command %q", name, getCommandPath(s.commandPath)))
	}
	v, ok := value.(T)
	if !ok {
		panic(fmt.Errorf("type mismatch for argument %q in command %q: registered %T, requested %T",
			name, getCommandPath(s.commandPath), value, *new(T)))
	}
	return v
}

func formatFlagName(name string) string {
	return "-" + name
}
