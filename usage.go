package sigcli

import (
	"cmp"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mfridman/sigcli/internal/flagvalue"
	"github.com/mfridman/sigcli/pkg/signature"
	"github.com/mfridman/sigcli/pkg/textutil"
)

// showHelp writes the usage of the selected command to its flag set output and returns
// [flag.ErrHelp].
func showHelp(root *Command) error {
	terminalCmd, _ := root.terminal()
	var w io.Writer = os.Stderr
	if terminalCmd.Flags != nil {
		w = terminalCmd.Flags.Output()
	} else if root.Flags != nil {
		w = root.Flags.Output()
	}
	fmt.Fprintln(w, DefaultUsage(root))
	return flag.ErrHelp
}

// DefaultUsage renders the help text of the command selected by the most recent [Parse] of root.
// Before parsing, root itself is described.
func DefaultUsage(c *Command) string {
	if c == nil {
		return ""
	}

	// Get terminal command from state
	terminalCmd, _ := c.terminal()

	var b strings.Builder

	if terminalCmd.UsageFunc != nil {
		return terminalCmd.UsageFunc(terminalCmd)
	}

	if terminalCmd.ShortHelp != "" {
		b.WriteString(terminalCmd.ShortHelp)
		b.WriteString("\n\n")
	}
	if terminalCmd.LongHelp != "" && terminalCmd.LongHelp != terminalCmd.ShortHelp {
		b.WriteString(terminalCmd.LongHelp)
		b.WriteString("\n\n")
	}

	positionals := terminalCmd.positionals()

	b.WriteString("Usage:\n")
	if terminalCmd.Usage != "" {
		b.WriteString("  " + terminalCmd.Usage + "\n")
	} else {
		usage := terminalCmd.Name
		if c.state != nil && len(c.state.commandPath) > 0 {
			usage = getCommandPath(c.state.commandPath)
		}
		if terminalCmd.Flags != nil {
			usage += " [flags]"
		}
		for _, a := range positionals {
			usage += " " + formatNargs(a.desc.Metavar, a.desc.Nargs)
		}
		if len(terminalCmd.SubCommands) > 0 {
			usage += " <command>"
		}
		b.WriteString("  " + usage + "\n")
	}
	b.WriteString("\n")

	if len(positionals) > 0 {
		b.WriteString("Arguments:\n")
		var items []helpItem
		for _, a := range positionals {
			items = append(items, helpItem{name: a.desc.Metavar, usage: a.desc.Description})
		}
		writeSection(&b, items)
		b.WriteString("\n")
	}

	if len(terminalCmd.SubCommands) > 0 {
		b.WriteString(cmp.Or(terminalCmd.Title, "Available Commands") + ":\n")
		sortedCommands := slices.Clone(terminalCmd.SubCommands)
		slices.SortFunc(sortedCommands, func(a, b *Command) int {
			return cmp.Compare(a.Name, b.Name)
		})
		var items []helpItem
		for _, sub := range sortedCommands {
			items = append(items, helpItem{name: sub.Name, usage: sub.ShortHelp})
		}
		writeSection(&b, items)
		b.WriteString("\n")
	}

	commandPath := []*Command{terminalCmd}
	if c.state != nil && len(c.state.commandPath) > 0 {
		commandPath = c.state.commandPath
	}
	var flags []flagInfo
	for i, cmd := range commandPath {
		if cmd.Flags == nil {
			continue
		}
		isGlobal := i < len(commandPath)-1
		seen := make(map[*argument]bool)
		cmd.Flags.VisitAll(func(f *flag.Flag) {
			a := cmd.lookupArgument(f.Name)
			if a == nil {
				flags = append(flags, flagInfo{
					name:   formatFlagName(f.Name),
					usage:  f.Usage,
					defval: f.DefValue,
					global: isGlobal,
				})
				return
			}
			if seen[a] {
				return
			}
			seen[a] = true
			flags = append(flags, argumentFlagInfo(a, isGlobal))
		})
	}

	if len(flags) > 0 {
		slices.SortFunc(flags, func(a, b flagInfo) int {
			return cmp.Compare(strings.TrimLeft(a.name, "-"), strings.TrimLeft(b.name, "-"))
		})

		hasLocal := false
		hasGlobal := false
		for _, f := range flags {
			if f.global {
				hasGlobal = true
			} else {
				hasLocal = true
			}
		}

		if hasLocal {
			b.WriteString("Flags:\n")
			writeFlagSection(&b, flags, false)
			b.WriteString("\n")
		}

		if hasGlobal {
			b.WriteString("Global Flags:\n")
			writeFlagSection(&b, flags, true)
			b.WriteString("\n")
		}
	}

	if len(terminalCmd.SubCommands) > 0 {
		cmdName := terminalCmd.Name
		if c.state != nil && len(c.state.commandPath) > 0 {
			cmdName = getCommandPath(c.state.commandPath)
		}
		fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmdName)
	}

	return strings.TrimRight(b.String(), "\n")
}

func argumentFlagInfo(a *argument, global bool) flagInfo {
	name := strings.Join(a.desc.Aliases, ", ")
	if !a.value.IsBoolFlag() {
		name += " " + formatNargs(a.desc.Metavar, a.desc.Nargs)
	}
	usage := a.desc.Description
	if a.desc.Required {
		usage += " (required)"
	}
	return flagInfo{
		name:   name,
		usage:  usage,
		defval: flagvalue.Format(a.desc.Default),
		global: global,
	}
}

// formatNargs renders a metavar the way it repeats on the command line.
func formatNargs(metavar string, nargs signature.Nargs) string {
	switch {
	case nargs == signature.NargsOptional:
		return "[" + metavar + "]"
	case nargs == signature.NargsAny:
		return "[" + metavar + " ...]"
	case nargs == signature.NargsMany:
		return metavar + " [" + metavar + " ...]"
	case nargs > 0:
		return strings.TrimSpace(strings.Repeat(metavar+" ", int(nargs)))
	}
	return metavar
}

type helpItem struct {
	name  string
	usage string
}

// writeSection writes name/usage pairs in two aligned columns, wrapping usage at 80 columns.
func writeSection(b *strings.Builder, items []helpItem) {
	maxLen := 0
	for _, item := range items {
		maxLen = max(maxLen, len(item.name))
	}
	nameWidth := maxLen + 4
	wrapWidth := 80 - nameWidth

	for _, item := range items {
		lines := textutil.Wrap(item.usage, wrapWidth)
		if len(lines) == 0 {
			fmt.Fprintf(b, "  %s\n", item.name)
			continue
		}
		padding := strings.Repeat(" ", maxLen-len(item.name)+4)
		fmt.Fprintf(b, "  %s%s%s\n", item.name, padding, lines[0])

		indentPadding := strings.Repeat(" ", nameWidth+2)
		for _, line := range lines[1:] {
			fmt.Fprintf(b, "%s%s\n", indentPadding, line)
		}
	}
}

// writeFlagSection handles the formatting of flag descriptions
func writeFlagSection(b *strings.Builder, flags []flagInfo, global bool) {
	var items []helpItem
	for _, f := range flags {
		if f.global != global {
			continue
		}
		description := f.usage
		if f.defval != "" && f.defval != "false" {
			description += fmt.Sprintf(" (default: %s)", f.defval)
		}
		items = append(items, helpItem{name: f.name, usage: description})
	}
	writeSection(b, items)
}

type flagInfo struct {
	name   string
	usage  string
	defval string
	global bool
}
