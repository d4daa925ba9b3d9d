// Package command runs subprocesses for command functions, streaming and/or capturing their output
// and enforcing a total timeout and a no-output timeout.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// waitDelay bounds how long Wait keeps copying output after the process is killed, e.g. when a
// grandchild still holds the pipes.
const waitDelay = 2 * time.Second

// Options configures [Run]. The zero value runs the command in the current directory with the
// inherited environment and discards its output.
type Options struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
	// Input is written to the command's stdin.
	Input []byte

	// StreamOutput copies output to Stdout and Stderr as it is produced.
	StreamOutput bool
	// CaptureOutput collects output into [Result].
	CaptureOutput bool
	// Stdout and Stderr are the stream targets. They default to os.Stdout and os.Stderr.
	Stdout, Stderr io.Writer

	// Timeout kills the command when it runs longer. Zero disables it.
	Timeout time.Duration
	// NoOutputTimeout kills the command when it writes nothing to stdout or stderr for this long.
	// Zero disables it.
	NoOutputTimeout time.Duration
}

// Result describes a finished command. A non-zero exit is reported in ExitCode, not as an error.
type Result struct {
	Args           []string
	Stdout, Stderr []byte
	ExitCode       int
}

// Error is an operational failure: the command could not be started or waited for.
type Error struct {
	Args []string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %q: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the command exceeded [Options.Timeout].
type TimeoutError struct {
	Args    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", strings.Join(e.Args, " "), e.Timeout)
}

// NoOutputTimeoutError is returned when the command was silent for [Options.NoOutputTimeout].
type NoOutputTimeoutError struct {
	Args    []string
	Timeout time.Duration
}

func (e *NoOutputTimeoutError) Error() string {
	return fmt.Sprintf("command %q produced no output for %s", strings.Join(e.Args, " "), e.Timeout)
}

// Run starts args[0] with the remaining arguments and waits for it. Cancelling ctx kills the
// command and returns ctx's error.
func Run(ctx context.Context, args []string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if len(args) == 0 {
		return nil, &Error{Err: errors.New("no command given")}
	}
	args = append([]string(nil), args...)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if opts.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeoutCause(ctx, opts.Timeout, &TimeoutError{Args: args, Timeout: opts.Timeout})
		defer cancelTimeout()
	}

	activity := make(chan struct{}, 1)
	var (
		mu             sync.Mutex
		stdout, stderr bytes.Buffer
	)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.WaitDelay = waitDelay
	if opts.Input != nil {
		cmd.Stdin = bytes.NewReader(opts.Input)
	}
	cmd.Stdout = newOutput(opts, &mu, &stdout, opts.Stdout, os.Stdout, activity)
	cmd.Stderr = newOutput(opts, &mu, &stderr, opts.Stderr, os.Stderr, activity)

	if err := cmd.Start(); err != nil {
		return nil, &Error{Args: args, Err: err}
	}

	// The first error wins: the process's own exit error, or the watchdog's timeout.
	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		return cmd.Wait()
	})
	if opts.NoOutputTimeout > 0 {
		g.Go(func() error {
			timer := time.NewTimer(opts.NoOutputTimeout)
			defer timer.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-activity:
					timer.Reset(opts.NoOutputTimeout)
				case <-timer.C:
					err := &NoOutputTimeoutError{Args: args, Timeout: opts.NoOutputTimeout}
					cancel(err)
					return err
				}
			}
		})
	}
	waitErr := g.Wait()

	result := &Result{Args: args}
	if opts.CaptureOutput {
		result.Stdout = stdout.Bytes()
		result.Stderr = stderr.Bytes()
	}
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		var timeout *TimeoutError
		var noOutput *NoOutputTimeoutError
		if errors.As(cause, &timeout) || errors.As(cause, &noOutput) {
			return result, cause
		}
		if waitErr != nil {
			return result, cause
		}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, &Error{Args: args, Err: waitErr}
	}
	return result, nil
}

// output fans a stream out to the capture buffer and the stream target and reports activity. Both
// streams share mu since their targets may be the same writer.
type output struct {
	mu       *sync.Mutex
	w        io.Writer
	activity chan<- struct{}
}

func newOutput(opts *Options, mu *sync.Mutex, capture *bytes.Buffer, target, fallback io.Writer, activity chan<- struct{}) *output {
	var writers []io.Writer
	if opts.CaptureOutput {
		writers = append(writers, capture)
	}
	if opts.StreamOutput {
		if target == nil {
			target = fallback
		}
		writers = append(writers, target)
	}
	w := io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}
	return &output{mu: mu, w: w, activity: activity}
}

func (o *output) Write(p []byte) (int, error) {
	select {
	case o.activity <- struct{}{}:
	default:
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}
