package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/kanengo/einstein/internal/check"
	"github.com/kanengo/einstein/internal/codegen"
	"github.com/kanengo/einstein/internal/config"
	"github.com/kanengo/einstein/internal/files"
	"github.com/kanengo/einstein/internal/frontend"
	"github.com/kanengo/einstein/internal/logging"
	"github.com/kanengo/einstein/internal/tool"
	"github.com/kanengo/einstein/internal/version"
)

const app = "einstein"

const dumpUsage = `Write the declaration document of a translation unit.
Usage:
  einstein dump [flags] <file.cpp> [-- <compiler flags>]

Flags:
  -config <file>   TOML configuration (default ./einstein.toml if present)
  -o <file>        output file, "-" for stdout (default "-")
  -v               debug logging on stderr

The document can be fed back with "einstein generate -decls <file>".`

type cli struct {
	stdout io.Writer
	stderr io.Writer

	// newFrontend builds the clang front end; tests replace it.
	newFrontend func(cfg *config.Config, logger *slog.Logger) frontend.Frontend
}

func newCommands(stdout, stderr io.Writer) map[string]*tool.Command {
	c := &cli{
		stdout: stdout,
		stderr: stderr,
		newFrontend: func(cfg *config.Config, logger *slog.Logger) frontend.Frontend {
			return frontend.NewClang(cfg.Clang, logger)
		},
	}
	return c.commands()
}

func (c *cli) commands() map[string]*tool.Command {
	return map[string]*tool.Command{
		"generate": {
			Name:        "generate",
			Description: "print Load/Save routines for annotated classes",
			Help:        codegen.Usage,
			Fn:          c.generate,
		},
		"dump": {
			Name:        "dump",
			Description: "write the declaration document of a translation unit",
			Help:        dumpUsage,
			Fn:          c.dump,
		},
		"version": {
			Name:        "version",
			Description: "print the version",
			Fn: func(context.Context, []string) error {
				_, err := fmt.Fprintln(c.stdout, app, version.Version)
				return err
			},
		},
	}
}

// splitArgs separates the source file from the compiler flags after "--".
func splitArgs(args []string) (file string, flags []string, err error) {
	if i := slices.Index(args, "--"); i >= 0 {
		args, flags = args[:i], args[i+1:]
	}
	if len(args) != 1 {
		return "", nil, fmt.Errorf("%w: want exactly one source file, got %d", tool.ErrUsage, len(args))
	}
	if strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: source file %q looks like a flag", tool.ErrUsage, args[0])
	}
	return args[0], flags, nil
}

func (c *cli) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configFile := fs.String("config", "", "")
	declsFile := fs.String("decls", "", "")
	checkFile := fs.String("check", "", "")
	verbose := fs.Bool("v", false, "")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", tool.ErrUsage, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	logger := logging.New(c.stderr, app, *verbose)

	var fe frontend.Frontend
	var unit frontend.Unit
	if *declsFile != "" {
		if fs.NArg() > 0 {
			return fmt.Errorf("%w: -decls takes no source file", tool.ErrUsage)
		}
		fe, unit = frontend.Decls{}, frontend.Unit{File: *declsFile}
	} else {
		file, flags, err := splitArgs(fs.Args())
		if err != nil {
			return err
		}
		fe, unit = c.newFrontend(cfg, logger), frontend.Unit{File: file, Args: flags}
	}

	out, err := codegen.Generate(ctx, fe, unit, cfg, logger)
	if err != nil {
		return err
	}
	if *checkFile != "" {
		return check.File(c.stderr, *checkFile, out.Bytes())
	}
	_, err = out.WriteTo(c.stdout)
	return err
}

func (c *cli) dump(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configFile := fs.String("config", "", "")
	output := fs.String("o", "-", "")
	verbose := fs.Bool("v", false, "")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", tool.ErrUsage, err)
	}
	file, flags, err := splitArgs(fs.Args())
	if err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	logger := logging.New(c.stderr, app, *verbose)

	tu, err := c.newFrontend(cfg, logger).Parse(ctx, frontend.Unit{File: file, Args: flags})
	if err != nil {
		return err
	}
	if *output == "-" {
		return frontend.WriteDecls(c.stdout, tu)
	}
	return files.WriteFile(*output, func(w io.Writer) error {
		return frontend.WriteDecls(w, tu)
	})
}
