package sigcli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mfridman/xflag"

	"github.com/mfridman/sigcli/pkg/signature"
)

// Parse traverses the command hierarchy and parses arguments. It returns an error if parsing fails
// at any point.
//
// This function is the main entry point for parsing command-line arguments and should be called
// with the root command and the arguments to parse, typically os.Args[1:]. Once parsing is
// complete, the root command is ready to be executed with the [Run] function.
//
// Parse may be called again on the same hierarchy; every argument registered through
// [Command.AddArgument] is reset to its default first.
func Parse(root *Command, args []string) error {
	if root == nil {
		return fmt.Errorf("failed to parse: root command is nil")
	}
	if err := validateCommands(root, nil); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	root.state = &State{}
	if root.Flags == nil {
		root.Flags = flag.NewFlagSet(root.Name, flag.ContinueOnError)
	}

	// First split args at the -- delimiter if present
	argsToParse := args
	var remainingArgs []string
	for i, arg := range args {
		if arg == "--" {
			argsToParse = args[:i]
			remainingArgs = args[i+1:]
			break
		}
	}

	current := root
	commandPath := []*Command{root}

	// First pass: process commands and build the command path. This lets us capture help requests
	// before any flag parsing errors.
	for i := 0; i < len(argsToParse); i++ {
		arg := argsToParse[i]
		if arg == "-h" || arg == "--h" || arg == "-help" || arg == "--help" {
			root.state.commandPath = commandPath
			return showHelp(root)
		}

		if strings.HasPrefix(arg, "-") {
			// Tokens consumed as flag values must not be mistaken for a subcommand.
			_, n := flagOperands(commandPath, argsToParse, i)
			i += n
			continue
		}

		if len(current.SubCommands) > 0 {
			if sub := current.findSubCommand(arg); sub != nil {
				current = sub
				commandPath = append(commandPath, sub)
				continue
			}
			return current.formatUnknownCommandError(arg)
		}
		break
	}
	root.state.commandPath = commandPath
	path := getCommandPath(commandPath)

	// A root without Exec shows help when run; a leaf subcommand without one is a definition
	// error.
	if current != root && current.Exec == nil && len(current.SubCommands) == 0 {
		return &NoExecError{Command: current, path: path}
	}

	// Create combined flags with all parent flags. Add flags in reverse order for proper
	// precedence.
	combinedFlags := flag.NewFlagSet(root.Name, flag.ContinueOnError)
	combinedFlags.SetOutput(io.Discard)
	for i := len(commandPath) - 1; i >= 0; i-- {
		cmd := commandPath[i]
		cmd.resetArguments()
		if cmd.Flags != nil {
			cmd.Flags.VisitAll(func(f *flag.Flag) {
				if combinedFlags.Lookup(f.Name) == nil {
					combinedFlags.Var(f.Value, f.Name, f.Usage)
				}
			})
		}
	}

	// Flags taking a number of values other than one are applied here, the rest is left to
	// ParseToEnd.
	flagArgs, err := applyMultiValueFlags(commandPath, argsToParse)
	if err != nil {
		return fmt.Errorf("command %q: %w", path, err)
	}
	if err := xflag.ParseToEnd(combinedFlags, flagArgs); err != nil {
		return fmt.Errorf("command %q: %w", current.Name, err)
	}

	setFlags := make(map[string]bool)
	combinedFlags.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	if err := checkRequired(commandPath, combinedFlags, setFlags); err != nil {
		return fmt.Errorf("command %q: %w", path, err)
	}
	for _, cmd := range commandPath {
		if err := cmd.checkGroups(); err != nil {
			return fmt.Errorf("command %q: %w", path, err)
		}
	}

	// The first non-flag tokens are the names of the selected subcommands.
	parsed := combinedFlags.Args()
	skip := min(len(commandPath)-1, len(parsed))
	var finalArgs []string
	finalArgs = append(finalArgs, parsed[skip:]...)
	finalArgs = append(finalArgs, remainingArgs...)

	if current.dispatch != nil {
		values, err := current.collectValues(finalArgs)
		if err != nil {
			return fmt.Errorf("command %q: %w", path, err)
		}
		root.state.values = values
		finalArgs = nil
	}
	root.state.Args = finalArgs

	return nil
}

// checkRequired reports required flags that were not set, both those declared in FlagsMetadata
// and those registered as required arguments.
func checkRequired(commandPath []*Command, combined *flag.FlagSet, setFlags map[string]bool) error {
	var missingFlags []string
	for _, cmd := range commandPath {
		for _, flagMetadata := range cmd.FlagsMetadata {
			if !flagMetadata.Required {
				continue
			}
			if combined.Lookup(flagMetadata.Name) == nil {
				return fmt.Errorf("internal error: required flag %s not found in flag set", formatFlagName(flagMetadata.Name))
			}
			if !setFlags[flagMetadata.Name] {
				missingFlags = append(missingFlags, formatFlagName(flagMetadata.Name))
			}
		}
		for _, a := range cmd.arguments {
			if a.desc.Required && !a.value.IsSet() {
				missingFlags = append(missingFlags, a.desc.Aliases[0])
			}
		}
	}
	if len(missingFlags) > 0 {
		return fmt.Errorf("required flags %q not set", strings.Join(missingFlags, ", "))
	}
	return nil
}

// applyMultiValueFlags applies every occurrence of a flag registered with nargs and returns the
// remaining arguments. Each occurrence replaces the previous one unless the flag accumulates.
// Open-ended flags give back trailing tokens when the selected command would otherwise be short
// of positional arguments.
func applyMultiValueFlags(commandPath []*Command, args []string) ([]string, error) {
	type occurrence struct {
		index, n int
		arg      *argument
	}
	var found []occurrence
	free := 0
	for i := 0; i < len(args); i++ {
		if !isOption(args[i]) {
			free++
			continue
		}
		a, n := flagOperands(commandPath, args, i)
		if a != nil {
			found = append(found, occurrence{index: i, n: n, arg: a})
		}
		i += n
	}

	// Subcommand names are among the free tokens.
	short := minPositionals(commandPath[len(commandPath)-1]) - (free - (len(commandPath) - 1))
	for k := len(found) - 1; k >= 0 && short > 0; k-- {
		o := &found[k]
		if o.arg.desc.Nargs > 0 {
			continue
		}
		spare := min(short, max(0, o.n-o.arg.desc.Nargs.Min()))
		o.n -= spare
		short -= spare
	}

	out := make([]string, 0, len(args))
	next := 0
	for i := 0; i < len(args); i++ {
		if next == len(found) || found[next].index != i {
			out = append(out, args[i])
			continue
		}
		o := found[next]
		next++
		operands := args[i+1 : i+1+o.n]
		if _, inline, ok := strings.Cut(args[i], "="); ok {
			operands = []string{inline}
		}
		if err := o.arg.applyOperands(operands); err != nil {
			return nil, err
		}
		i += o.n
	}
	return out, nil
}

func minPositionals(cmd *Command) int {
	total := 0
	for _, a := range cmd.positionals() {
		total += a.desc.Nargs.Min()
	}
	return total
}

// flagOperands returns how many tokens after args[i] belong to that flag. The argument is
// returned only for flags registered with nargs, which take every following token up to the next
// option or their count, whichever comes first.
func flagOperands(commandPath []*Command, args []string, i int) (*argument, int) {
	name, _, inline := strings.Cut(strings.TrimLeft(args[i], "-"), "=")
	a := lookupFlagArgument(commandPath, name)
	if a == nil || a.desc.Nargs == signature.NargsOne {
		if i+1 < len(args) && takesValue(commandPath, args[i]) {
			return nil, 1
		}
		return nil, 0
	}
	if inline {
		return a, 0
	}
	limit := len(args)
	switch n := a.desc.Nargs; {
	case n == signature.NargsOptional:
		limit = 1
	case n > 0:
		limit = int(n)
	}
	count := 0
	for j := i + 1; j < len(args) && count < limit && !isOption(args[j]); j++ {
		count++
	}
	return a, count
}

// lookupFlagArgument finds the argument behind a flag name, searching from the innermost command
// outwards like the combined flag set does. It returns nil for flags not registered through
// [Command.AddArgument].
func lookupFlagArgument(commandPath []*Command, name string) *argument {
	for i := len(commandPath) - 1; i >= 0; i-- {
		cmd := commandPath[i]
		if cmd.Flags != nil && cmd.Flags.Lookup(name) != nil {
			return cmd.lookupArgument(name)
		}
	}
	return nil
}

// isOption reports whether a token looks like a flag. A lone dash and negative numbers do not.
func isOption(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}

// takesValue reports whether arg names a known non-boolean flag without an inline value.
func takesValue(commandPath []*Command, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if name == "" || strings.Contains(name, "=") {
		return false
	}
	for i := len(commandPath) - 1; i >= 0; i-- {
		cmd := commandPath[i]
		if cmd.Flags == nil {
			continue
		}
		if f := cmd.Flags.Lookup(name); f != nil {
			if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
				return false
			}
			return true
		}
	}
	return false
}

func validateCommands(root *Command, path []string) error {
	if root.Name == "" {
		if len(path) == 0 {
			return errors.New("root command has no name")
		}
		return fmt.Errorf("subcommand in path %q has no name", strings.Join(path, " "))
	}
	// Ensure name has no spaces
	if strings.Contains(root.Name, " ") {
		return fmt.Errorf("command name %q contains spaces, must be a single word", root.Name)
	}

	// Add current command to path for nested validation
	currentPath := append(path[:len(path):len(path)], root.Name)

	// Recursively validate all subcommands
	for _, sub := range root.SubCommands {
		if err := validateCommands(sub, currentPath); err != nil {
			return err
		}
	}
	return nil
}
