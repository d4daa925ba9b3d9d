package sigcli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mfridman/sigcli/pkg/logging"
	"github.com/mfridman/sigcli/pkg/signature"
)

// Options configures [Execute]. Every field is optional.
type Options struct {
	// Name is the program name shown in help. Defaults to "tools".
	Name string
	// Description is shown at the top of the root help.
	Description string
	// Version is printed by --version.
	Version string
	// RepoRoot is exposed to commands as [Context.RepoRoot]. Defaults to the working directory.
	RepoRoot string

	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

func (o *Options) withDefaults() *Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Name == "" {
		out.Name = "tools"
	}
	if out.RepoRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			out.RepoRoot = wd
		}
	}
	if out.Stdin == nil {
		out.Stdin = os.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = os.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = os.Stderr
	}
	return &out
}

// errNoCommand is returned when no subcommand was selected.
var errNoCommand = &ExitError{Code: 1, Message: "No command was passed."}

type globalOptions struct {
	Version             bool `default:"false"`
	Timestamps          bool `default:"false" arg:"aliases=--ts,group=timestamps"`
	NoTimestamps        bool `default:"false" arg:"aliases=--nts,group=timestamps"`
	Quiet               bool `default:"false" arg:"aliases=-q,group=verbosity"`
	Debug               bool `default:"false" arg:"aliases=-d,group=verbosity"`
	TimeoutSecs         *int `default:"" arg:"aliases=--timeout,metavar=SECONDS"`
	NoOutputTimeoutSecs *int `default:"" arg:"aliases=--nots,metavar=SECONDS"`
}

const globalOptionsDoc = `Global options.

Args:
    version: Show the program's version number and exit.
    timestamps: Show timestamps in log output.
    no_timestamps: Do not show timestamps in log output.
    quiet: Disable all logging output.
    debug: Show debug messages.
    timeout_secs: Timeout in seconds for the command to finish.
    no_output_timeout_secs: Timeout if no output has been seen for the provided seconds.
`

// applyGlobals configures the base context from the global options.
func applyGlobals(ctx *Context, opts globalOptions) error {
	level := logging.LevelFromEnv(logging.EnvLevel, slog.LevelInfo)
	switch {
	case opts.Quiet:
		ctx.Verbosity = VerbosityQuiet
		level = logging.LevelQuiet
	case opts.Debug:
		ctx.Verbosity = VerbosityVerbose
		level = slog.LevelDebug
	default:
		ctx.Verbosity = VerbosityNormal
		if level <= slog.LevelDebug {
			ctx.Verbosity = VerbosityVerbose
		}
	}
	ctx.logger = logging.New(logging.Options{
		Level:      level,
		Timestamps: opts.Timestamps && !opts.NoTimestamps,
		Output:     ctx.Stderr,
	})
	if opts.TimeoutSecs != nil {
		ctx.timeout = time.Duration(*opts.TimeoutSecs) * time.Second
	}
	if opts.NoOutputTimeoutSecs != nil {
		ctx.noOutputTimeout = time.Duration(*opts.NoOutputTimeoutSecs) * time.Second
	}
	return nil
}

// Execute builds the command hierarchy from reg, parses args and runs the selected command
// function. It returns nil after help or --version was shown. An [*ExitError] carries the
// status the program should exit with; its message has already been written to stderr.
func Execute(ctx context.Context, reg *Registry, args []string, opts *Options) error {
	opts = opts.withDefaults()

	globals, err := signature.Get[*Context](applyGlobals, globalOptionsDoc)
	if err != nil {
		return fmt.Errorf("global options: %w", err)
	}
	root := &Command{
		Name:      opts.Name,
		ShortHelp: opts.Description,
	}
	if err := globals.SetupParser(root); err != nil {
		return fmt.Errorf("global options: %w", err)
	}
	root.Exec = func(context.Context, *State) error {
		return errNoCommand
	}
	if reg != nil {
		if err := reg.Build(root); err != nil {
			return err
		}
	}
	setOutput(root, opts.Stdout)

	if err := Parse(root, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	base := &Context{
		RepoRoot: opts.RepoRoot,
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
	}
	values := root.flagValues()
	if err := globals.Call(base, values); err != nil {
		return err
	}
	if showVersion, _ := values["version"].(bool); showVersion {
		fmt.Fprintln(opts.Stdout, opts.Version)
		return nil
	}
	base.logger.Debug("executing", "args", args, "repo_root", base.RepoRoot)

	err = Run(withContext(ctx, base), root, &RunOptions{
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintln(opts.Stderr, exitErr.Message)
		}
		if exitErr.Code == 0 {
			return nil
		}
	}
	return err
}

func setOutput(c *Command, w io.Writer) {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name, flag.ContinueOnError)
	}
	c.Flags.SetOutput(w)
	for _, sub := range c.SubCommands {
		setOutput(sub, w)
	}
}
