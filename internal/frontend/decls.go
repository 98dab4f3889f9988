package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kanengo/einstein/internal/decl"
)

// Decls reads a declaration document written by WriteDecls. Unit.File names
// the document; Unit.Args is ignored.
type Decls struct{}

var _ Frontend = Decls{}

func (Decls) Parse(_ context.Context, unit Unit) (*decl.TranslationUnit, error) {
	f, err := os.Open(unit.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrontend, err)
	}
	defer f.Close()

	tu, err := ReadDecls(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFrontend, unit.File, err)
	}
	return tu, nil
}

func ReadDecls(r io.Reader) (*decl.TranslationUnit, error) {
	var tu decl.TranslationUnit
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tu); err != nil {
		return nil, err
	}
	for i, c := range tu.Classes {
		if c == nil || c.QualifiedName == "" {
			return nil, fmt.Errorf("class %d has no qualified name", i)
		}
		for j, f := range c.Fields {
			if f.Name == "" {
				return nil, fmt.Errorf("%s: field %d has no name", c.QualifiedName, j)
			}
			if f.Type.Kind == decl.Record && f.Type.Record == nil {
				return nil, fmt.Errorf("%s.%s: record type without record", c.QualifiedName, f.Name)
			}
		}
	}
	return &tu, nil
}

func WriteDecls(w io.Writer, tu *decl.TranslationUnit) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tu)
}
