package codegen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kanengo/einstein/internal/config"
	"github.com/kanengo/einstein/internal/decl"
	"github.com/kanengo/einstein/internal/frontend"
)

const Usage = `Generate Load/Save routines for annotated C++ classes.
Usage:
  einstein generate [flags] <file.cpp> [-- <compiler flags>]

Description:
  Parse the translation unit with the clang front end (compiled with
  -DEINSTEIN_GEN), find classes annotated SL-generate and print a Load and
  a Save routine for each of them on stdout. All Load routines are printed
  first, then all Save routines.

Flags:
  -config <file>   TOML configuration (default ./einstein.toml if present)
  -decls <file>    read a declaration document written by "einstein dump"
                   instead of running clang
  -check <file>    compare the generated text with file and exit 1 on drift
  -v               debug logging on stderr

Examples:
  # Print the routines for foo.cpp.
  einstein generate foo.cpp -- -Iinclude -std=c++17

  # Fail if foo_gen.inc is out of date.
  einstein generate -check foo_gen.inc foo.cpp -- -Iinclude`

type printFn func(format string, args ...any)

// Output holds the generated text of one run.
type Output struct {
	Load    bytes.Buffer
	Save    bytes.Buffer
	Classes []string // qualified names, in emission order
}

// WriteTo writes all Load routines followed by all Save routines.
func (o *Output) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(o.Load.Bytes())
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(o.Save.Bytes())
	return int64(n + m), err
}

func (o *Output) Bytes() []byte {
	b := make([]byte, 0, o.Load.Len()+o.Save.Len())
	b = append(b, o.Load.Bytes()...)
	return append(b, o.Save.Bytes()...)
}

type generator struct {
	cfg      *config.Config
	classify *Classifier
	logger   *slog.Logger
	out      *Output
}

func newGenerator(cfg *config.Config, logger *slog.Logger) *generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &generator{
		cfg:      cfg,
		classify: NewClassifier(cfg.Markers, cfg.Containers),
		logger:   logger,
		out:      &Output{},
	}
}

// Generate runs one pass over unit: the front end walks the translation unit
// and feeds a fresh work list, then a Load/Save pair is emitted for every
// queued class in work-list order.
func Generate(ctx context.Context, fe frontend.Frontend, unit frontend.Unit, cfg *config.Config, logger *slog.Logger) (*Output, error) {
	g := newGenerator(cfg, logger)

	tu, err := fe.Parse(ctx, unit)
	if err != nil {
		return nil, err
	}

	wl := NewWorkList()
	collect(tu, wl, cfg.Markers.Generate, g.logger)
	g.logger.Debug("work list built", "file", tu.File, "classes", wl.Len())

	return g.generate(wl), nil
}

// collect routes every class of tu through wl.
func collect(tu *decl.TranslationUnit, wl *WorkList, marker string, logger *slog.Logger) {
	tu.Walk(func(c *decl.Class) {
		if wl.Add(c, marker) {
			logger.Debug("class queued", "class", c.QualifiedName, "location", c.Location)
		}
	})
}

func (g *generator) generate(wl *WorkList) *Output {
	load := func(format string, args ...any) {
		_, _ = fmt.Fprintln(&g.out.Load, fmt.Sprintf(format, args...))
	}
	save := func(format string, args ...any) {
		_, _ = fmt.Fprintln(&g.out.Save, fmt.Sprintf(format, args...))
	}

	for _, c := range wl.Classes() {
		g.generateClass(load, save, c)
		g.out.Classes = append(g.out.Classes, c.QualifiedName)
	}
	return g.out
}

// generateClass appends the Load and Save routines of c. Fields are visited
// once, in declaration order, so the two routines list their shared members
// in the same order.
func (g *generator) generateClass(load, save printFn, c *decl.Class) {
	e := g.cfg.Emit
	load(`%s {`, g.signature(c, e.LoadRoutine))
	save(`%s {`, g.signature(c, e.SaveRoutine))

	var swizzled, paired int
	for _, f := range c.Fields {
		switch g.classify.Classify(f) {
		case PointerSwizzle:
			load(`%s%s(%s);`, e.Indent, e.SwizzleCall, f.Name)
			swizzled++
		case ContainerOrNonPOD:
			load(`%s%s(%s); // %s`, e.Indent, e.LoadCall, f.Name, f.Type.Spelling)
			save(`%s%s(%s); // %s`, e.Indent, e.SaveCall, f.Name, f.Type.Spelling)
			paired++
		}
	}

	load(`}`)
	load(``)
	save(`}`)
	save(``)

	g.logger.Debug("class generated", "class", c.QualifiedName,
		"fields", len(c.Fields), "paired", paired, "swizzled", swizzled)
}

func (g *generator) signature(c *decl.Class, routine string) string {
	sig := fmt.Sprintf("%s::%s(%s)", c.QualifiedName, routine, g.cfg.Emit.StreamParam)
	if rt := g.cfg.Emit.ReturnType; rt != "" {
		return rt + " " + sig
	}
	return sig
}
