package frontend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/kanengo/einstein/internal/config"
	"github.com/kanengo/einstein/internal/decl"
)

// Clang runs clang on the translation unit with the marker define set and
// reads the JSON AST it dumps.
type Clang struct {
	cfg    config.Clang
	logger *slog.Logger
	stderr io.Writer
}

var _ Frontend = (*Clang)(nil)

func NewClang(cfg config.Clang, logger *slog.Logger) *Clang {
	return &Clang{cfg: cfg, logger: logger, stderr: os.Stderr}
}

func (c *Clang) args(unit Unit) []string {
	args := []string{"-fsyntax-only", "-Xclang", "-ast-dump=json", "-D" + c.cfg.Define}
	args = append(args, c.cfg.Args...)
	args = append(args, unit.Args...)
	return append(args, unit.File)
}

func (c *Clang) Parse(ctx context.Context, unit Unit) (*decl.TranslationUnit, error) {
	args := c.args(unit)
	c.logger.Debug("running front end", "path", c.cfg.Path, "args", args)

	cmd := exec.CommandContext(ctx, c.cfg.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrontend, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrontend, err)
	}

	root, decodeErr := decodeAST(stdout)
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	// Diagnostics belong to the front end and are passed through untouched.
	if stderr.Len() > 0 {
		_, _ = c.stderr.Write(stderr.Bytes())
	}
	if waitErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFrontend, unit.File, waitErr)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: decoding AST: %v", ErrFrontend, unit.File, decodeErr)
	}

	return newResolver(os.ReadFile).translationUnit(root, unit.File), nil
}
