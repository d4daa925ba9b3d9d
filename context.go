package sigcli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mfridman/sigcli/pkg/command"
)

// Verbosity is the console verbosity selected with --quiet or --debug.
type Verbosity int

const (
	VerbosityQuiet Verbosity = iota
	VerbosityNormal
	VerbosityVerbose
)

func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityNormal:
		return "normal"
	case VerbosityVerbose:
		return "verbose"
	}
	return fmt.Sprintf("Verbosity(%d)", int(v))
}

// Context is passed as the first argument to every command function. It carries the command's
// [context.Context], its I/O streams, the repository root and the console settings chosen on the
// command line.
type Context struct {
	context.Context

	// RepoRoot is the root of the repository the tools operate on.
	RepoRoot string
	// Verbosity is the console verbosity.
	Verbosity Verbosity

	Stdin          io.Reader
	Stdout, Stderr io.Writer

	logger *slog.Logger

	// Defaults applied by Run when the options leave them unset.
	timeout         time.Duration
	noOutputTimeout time.Duration
}

type contextKey struct{}

// withContext stores base so that command functions executed under ctx start from it.
func withContext(ctx context.Context, base *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, base)
}

func newContext(ctx context.Context, s *State) *Context {
	c := &Context{Verbosity: VerbosityNormal}
	if base, ok := ctx.Value(contextKey{}).(*Context); ok && base != nil {
		*c = *base
	}
	c.Context = ctx
	if s != nil {
		c.Stdin, c.Stdout, c.Stderr = s.Stdin, s.Stdout, s.Stderr
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Logger returns the logger configured by the global options.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Print writes its operands to stdout, separated by spaces and followed by a newline.
func (c *Context) Print(args ...any) {
	fmt.Fprintln(c.Stdout, args...)
}

// Debug logs at debug level. It is only shown with --debug.
func (c *Context) Debug(msg string, args ...any) {
	c.logger.DebugContext(c, msg, args...)
}

// Info logs at info level. It is hidden with --quiet.
func (c *Context) Info(msg string, args ...any) {
	c.logger.InfoContext(c, msg, args...)
}

func (c *Context) Warn(msg string, args ...any) {
	c.logger.WarnContext(c, msg, args...)
}

func (c *Context) Error(msg string, args ...any) {
	c.logger.ErrorContext(c, msg, args...)
}

// Exit returns an [*ExitError] that makes [Execute] end the program with status. A non-empty
// message is written to stderr when the command returns it. Use it as
//
//	return ctx.Exit(1, "nothing to deploy")
func (c *Context) Exit(status int, message string) error {
	return &ExitError{Code: status, Message: message}
}

// Run runs a subprocess. Output is streamed to the context's stdout and stderr unless opts says
// otherwise. The global --timeout and --no-output-timeout-secs options apply when opts leaves the
// timeouts unset. A nil opts streams output.
func (c *Context) Run(args []string, opts *command.Options) (*command.Result, error) {
	var o command.Options
	if opts != nil {
		o = *opts
	} else {
		o.StreamOutput = true
	}
	if o.Stdout == nil {
		o.Stdout = c.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = c.Stderr
	}
	if o.Timeout == 0 {
		o.Timeout = c.timeout
	}
	if o.NoOutputTimeout == 0 {
		o.NoOutputTimeout = c.noOutputTimeout
	}
	c.Debug("running command", "args", strings.Join(args, " "))
	return command.Run(c, args, &o)
}

// Chdir changes the working directory to path for the duration of fn. Relative paths are
// resolved against RepoRoot when it is set. The previous directory is restored afterwards.
func (c *Context) Chdir(path string, fn func(dir string) error) error {
	if !filepath.IsAbs(path) && c.RepoRoot != "" {
		path = filepath.Join(c.RepoRoot, path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	if err := os.Chdir(path); err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			c.Error("unable to change back to directory", "path", cwd, "error", err)
		}
	}()
	return fn(path)
}
