// Package frontend connects the generator to a C++ front end. A Frontend
// turns one translation unit into a decl.TranslationUnit; it owns parsing,
// name resolution and attribute recognition.
package frontend

import (
	"context"
	"errors"

	"github.com/kanengo/einstein/internal/decl"
)

// ErrFrontend reports that the front end rejected the translation unit. Its
// own diagnostics have already been written to stderr.
var ErrFrontend = errors.New("front end failed")

// Unit is one translation unit and the compiler flags it is built with.
type Unit struct {
	File string
	Args []string
}

type Frontend interface {
	Parse(ctx context.Context, unit Unit) (*decl.TranslationUnit, error)
}
