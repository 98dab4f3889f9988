package logging

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Options struct {
	App string
	// Run identifies one invocation; it is generated when empty.
	Run string

	Attrs []slog.Attr
}

// LogHandler writes JSON records carrying the fixed app and run attributes
// and the caller position. Groups opened with WithGroup nest the attributes
// added after them; the fixed attributes and the source stay at the top level.
type LogHandler struct {
	opts Options
	*slog.JSONHandler
}

var _ slog.Handler = (*LogHandler)(nil)

func NewLogHandler(w io.Writer, opts Options, level slog.Leveler) *LogHandler {
	h := &LogHandler{opts: opts}
	if h.opts.Run == "" {
		h.opts.Run = gonanoid.Must(8)
	}
	h.opts.Attrs = slices.Clip(h.opts.Attrs)
	if opts.App != "" {
		h.opts.Attrs = append(h.opts.Attrs, slog.String("app", opts.App))
	}
	h.opts.Attrs = append(h.opts.Attrs, slog.String("run", h.opts.Run))

	base := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource:   true,
		Level:       level,
		ReplaceAttr: replaceAttr,
	})
	h.JSONHandler = base.WithAttrs(h.opts.Attrs).(*slog.JSONHandler)
	return h
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Value = slog.StringValue(a.Value.Time().Format(time.DateTime))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok {
			a.Value = slog.StringValue(fmt.Sprintf("%s:%d", src.File, src.Line))
		}
	}
	return a
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.JSONHandler = h.JSONHandler.WithAttrs(attrs).(*slog.JSONHandler)
	return &c
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.JSONHandler = h.JSONHandler.WithGroup(name).(*slog.JSONHandler)
	return &c
}

// New returns the logger used by the command line tool: warnings only, or
// everything down to debug when verbose is set.
func New(w io.Writer, app string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewLogHandler(w, Options{App: app}, level))
}
