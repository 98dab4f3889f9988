// Package tool dispatches the sub-commands of the command line tool.
package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrUsage marks errors caused by bad arguments; Run prints the command help
// after them.
var ErrUsage = errors.New("usage")

type Command struct {
	Name        string
	Description string
	Help        string
	Fn          func(ctx context.Context, args []string) error
}

// Run runs the command named by args[0] and returns the process exit code.
func Run(ctx context.Context, stderr io.Writer, commands map[string]*Command, args []string) int {
	if len(args) == 0 {
		Usage(stderr, commands)
		return 1
	}

	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "command %q not found\n", args[0])
		Usage(stderr, commands)
		return 1
	}

	if err := cmd.Fn(ctx, args[1:]); err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", cmd.Name, err)
		if errors.Is(err, ErrUsage) && cmd.Help != "" {
			_, _ = fmt.Fprintln(stderr, cmd.Help)
		}
		return 1
	}
	return 0
}

func Usage(w io.Writer, commands map[string]*Command) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintln(w, "USAGE")
	_, _ = fmt.Fprintln(w)
	for _, n := range names {
		_, _ = fmt.Fprintf(w, "\teinstein %-10s // %s\n", n, commands[n].Description)
	}
}
