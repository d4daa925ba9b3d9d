package sigcli

import (
	"cmp"
	"context"
	"errors"
	"io"
	"os"
)

// ParseAndRun is [Parse] followed by [Run].
func ParseAndRun(ctx context.Context, root *Command, args []string, options *RunOptions) error {
	if err := Parse(root, args); err != nil {
		return err
	}
	return Run(ctx, root, options)
}

// RunOptions sets the streams handed to the selected command through [State]. Nil streams fall
// back to [os.Stdin], [os.Stdout] and [os.Stderr].
type RunOptions struct {
	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

// Run executes the command selected by the most recent [Parse] of root. A selected command
// without an execution function, typically one that only groups subcommands, prints its help and
// returns [flag.ErrHelp]. So does a command whose error carries [ErrShowHelp], although the
// command's error is returned in that case.
func Run(ctx context.Context, root *Command, options *RunOptions) error {
	if root == nil || root.state == nil || len(root.state.commandPath) == 0 {
		return errors.New("command has not been parsed")
	}
	cmd, state := root.terminal()
	options.applyTo(state)

	if cmd.Exec == nil {
		return showHelp(root)
	}
	err := cmd.Exec(ctx, state)
	if cliErr := (*Error)(nil); errors.As(err, &cliErr) && cliErr.code == ErrShowHelp {
		_ = showHelp(root)
	}
	return err
}

// applyTo fills the streams of s that are still unset. A nil receiver applies the defaults.
func (o *RunOptions) applyTo(s *State) {
	var opts RunOptions
	if o != nil {
		opts = *o
	}
	s.Stdin = cmp.Or(s.Stdin, opts.Stdin, io.Reader(os.Stdin))
	s.Stdout = cmp.Or(s.Stdout, opts.Stdout, io.Writer(os.Stdout))
	s.Stderr = cmp.Or(s.Stderr, opts.Stderr, io.Writer(os.Stderr))
}
