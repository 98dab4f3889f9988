// Package check compares freshly generated routines with a previously
// generated file and reports drift as a line diff.
package check

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// ErrDrift reports that the file on disk does not match the generated text.
var ErrDrift = errors.New("generated code is out of date")

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 3

// File compares generated with the contents of file. On mismatch it writes a
// diff to w, colored when w is a terminal, and returns an error wrapping
// ErrDrift.
func File(w io.Writer, file string, generated []byte) error {
	existing, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	if bytes.Equal(existing, generated) {
		return nil
	}
	_, _ = io.WriteString(w, Diff(file, string(existing), string(generated), isTerminal(w)))
	return fmt.Errorf("%s: %w", file, ErrDrift)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type line struct {
	op   diffpatch.Operation
	text string
}

// Diff renders a line diff from oldText to newText. Runs of unchanged lines longer
// than twice the context are elided.
func Diff(name, oldText, newText string, colored bool) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var all []line
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, l := range strings.Split(text, "\n") {
			all = append(all, line{op: d.Type, text: l})
		}
	}

	del, ins, hdr := color.New(color.FgRed), color.New(color.FgGreen), color.New(color.FgCyan)
	for _, c := range []*color.Color{del, ins, hdr} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var sb strings.Builder
	sb.WriteString(hdr.Sprintf("--- %s", name) + "\n")
	sb.WriteString(hdr.Sprintf("+++ %s (generated)", name) + "\n")
	for i := 0; i < len(all); i++ {
		l := all[i]
		switch l.op {
		case diffpatch.DiffDelete:
			sb.WriteString(del.Sprint("-"+l.text) + "\n")
		case diffpatch.DiffInsert:
			sb.WriteString(ins.Sprint("+"+l.text) + "\n")
		default:
			j := i
			for j < len(all) && all[j].op == diffpatch.DiffEqual {
				j++
			}
			run := all[i:j]
			head, tail := contextLines, contextLines
			if i == 0 {
				head = 0
			}
			if j == len(all) {
				tail = 0
			}
			if len(run) > head+tail {
				for _, e := range run[:head] {
					sb.WriteString(" " + e.text + "\n")
				}
				sb.WriteString(hdr.Sprintf("@@ %d unchanged lines @@", len(run)-head-tail) + "\n")
				run = run[len(run)-tail:]
			}
			for _, e := range run {
				sb.WriteString(" " + e.text + "\n")
			}
			i = j - 1
		}
	}
	return sb.String()
}
