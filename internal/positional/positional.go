// Package positional distributes command-line tokens across positional arguments by their nargs,
// left to right, giving each argument as many tokens as it can take while leaving enough for the
// arguments after it.
package positional

import (
	"fmt"
	"strings"

	"github.com/mfridman/sigcli/pkg/signature"
)

// Distribute splits tokens across args. It returns one token slice per argument, in order.
func Distribute(args []*signature.Argument, tokens []string) ([][]string, error) {
	out := make([][]string, len(args))
	remaining := tokens
	for i, arg := range args {
		reserved := 0
		for _, next := range args[i+1:] {
			reserved += next.Nargs.Min()
		}
		take, err := consume(arg, len(remaining), reserved)
		if err != nil {
			return nil, err
		}
		out[i] = remaining[:take]
		remaining = remaining[take:]
	}
	if len(remaining) > 0 {
		return nil, fmt.Errorf("unrecognized arguments: %s", strings.Join(remaining, " "))
	}
	return out, nil
}

// consume returns how many tokens arg takes. Required tokens are always taken; optional ones
// only come from the surplus left after reserving the minimum of later arguments.
func consume(arg *signature.Argument, available, reserved int) (int, error) {
	n := arg.Nargs
	need := n.Min()
	if available < need {
		if n > 0 {
			return 0, fmt.Errorf("argument %s: expected %d arguments", arg.Metavar, int(n))
		}
		return 0, missing(arg)
	}
	surplus := max(available-reserved-need, 0)
	switch n {
	case signature.NargsOptional:
		return min(surplus, 1), nil
	case signature.NargsAny, signature.NargsMany:
		return need + surplus, nil
	}
	return need, nil
}

func missing(arg *signature.Argument) error {
	return fmt.Errorf("the following arguments are required: %s", arg.Metavar)
}
