package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kanengo/einstein/internal/tool"
)

//go:generate go install

func main() {
	_, _ = fmt.Fprintln(os.Stderr, "Einstein")

	commands := newCommands(os.Stdout, os.Stderr)
	flag.Usage = func() {
		tool.Usage(os.Stderr, commands)
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := tool.Run(ctx, os.Stderr, commands, flag.Args())
	stop()
	os.Exit(code)
}
