package codegen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/kanengo/einstein/internal/config"
	"github.com/kanengo/einstein/internal/decl"
	"github.com/kanengo/einstein/internal/frontend"
)

// fakeFrontend returns a fixed translation unit.
type fakeFrontend struct {
	tu    *decl.TranslationUnit
	err   error
	calls int
}

func (f *fakeFrontend) Parse(context.Context, frontend.Unit) (*decl.TranslationUnit, error) {
	f.calls++
	return f.tu, f.err
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test archives")
	}

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			sections := make(map[string][]byte)
			for _, f := range ar.Files {
				sections[f.Name] = f.Data
			}

			cfg := config.Default()
			if b, ok := sections["einstein.toml"]; ok {
				if cfg, err = config.Parse(string(b)); err != nil {
					t.Fatal(err)
				}
			}

			decls := filepath.Join(t.TempDir(), "decls.json")
			if err := os.WriteFile(decls, sections["decls.json"], 0o644); err != nil {
				t.Fatal(err)
			}

			out, err := Generate(context.Background(), frontend.Decls{}, frontend.Unit{File: decls}, cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(string(sections["want"]), string(out.Bytes())); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}

			var buf bytes.Buffer
			if _, err := out.WriteTo(&buf); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf.Bytes(), out.Bytes()) {
				t.Fatalf("WriteTo and Bytes disagree")
			}
		})
	}
}

func field(name string, kind decl.Kind, record string, annotations ...string) decl.Field {
	f := decl.Field{Name: name, Type: decl.Type{Spelling: name + "_t", Kind: kind}}
	if kind == decl.Record {
		f.Type.Record = &decl.RecordRef{QualifiedName: record, Annotations: annotations}
	}
	return f
}

func orderingUnit() *decl.TranslationUnit {
	return &decl.TranslationUnit{Classes: []*decl.Class{{
		QualifiedName: "ns::K",
		Annotations:   []string{"SL-generate"},
		Fields: []decl.Field{
			field("f1", decl.Record, "std::vector"),
			field("f2", decl.Pointer, ""),
			field("f3", decl.Other, ""),
			field("f4", decl.Record, "ns::P", "SL-non-pod"),
			field("f5", decl.Record, "ns::Q"),
			field("f6", decl.Pointer, ""),
			field("f7", decl.Record, "std::__1::deque"),
			field("f8", decl.Other, ""),
		},
	}}}
}

// referenced returns the member names referenced by the calls in text, in order.
func referenced(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		lp, rp := strings.IndexByte(line, '('), strings.IndexByte(line, ')')
		if !strings.HasPrefix(line, "  ") || lp < 0 || rp < lp {
			continue
		}
		names = append(names, line[lp+1:rp])
	}
	return names
}

func TestOrderingProperties(t *testing.T) {
	tu := orderingUnit()
	out, err := Generate(context.Background(), &fakeFrontend{tu: tu}, frontend.Unit{}, config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}

	classify := NewClassifier(config.Default().Markers, config.Default().Containers)
	var paired, swizzled, skipped []string
	for _, f := range tu.Classes[0].Fields {
		switch classify.Classify(f) {
		case ContainerOrNonPOD:
			paired = append(paired, f.Name)
		case PointerSwizzle:
			swizzled = append(swizzled, f.Name)
		default:
			skipped = append(skipped, f.Name)
		}
	}
	if diff := cmp.Diff([]string{"f1", "f4", "f7"}, paired); diff != "" {
		t.Fatalf("paired members (-want +got):\n%s", diff)
	}

	load, save := referenced(out.Load.String()), referenced(out.Save.String())

	if diff := cmp.Diff(paired, save); diff != "" {
		t.Errorf("save order (-want +got):\n%s", diff)
	}
	var loadPaired []string
	for _, n := range load {
		if !contains(swizzled, n) {
			loadPaired = append(loadPaired, n)
		}
	}
	if diff := cmp.Diff(paired, loadPaired); diff != "" {
		t.Errorf("load order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"f1", "f2", "f4", "f6", "f7"}, load); diff != "" {
		t.Errorf("load members (-want +got):\n%s", diff)
	}

	for _, n := range swizzled {
		if contains(save, n) {
			t.Errorf("pointer member %s appears in save", n)
		}
	}
	for _, n := range skipped {
		if contains(save, n) || contains(load, n) {
			t.Errorf("skipped member %s appears in generated text", n)
		}
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func TestDeterministic(t *testing.T) {
	var prev []byte
	for i := 0; i < 3; i++ {
		out, err := Generate(context.Background(), &fakeFrontend{tu: orderingUnit()}, frontend.Unit{}, config.Default(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && !bytes.Equal(prev, out.Bytes()) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, prev, out.Bytes())
		}
		prev = out.Bytes()
	}
}

func TestDedupAcrossSightings(t *testing.T) {
	k := orderingUnit().Classes[0]
	tu := &decl.TranslationUnit{Classes: []*decl.Class{k, k, k}}
	out, err := Generate(context.Background(), &fakeFrontend{tu: tu}, frontend.Unit{}, config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"ns::K"}, out.Classes); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if n := strings.Count(out.Load.String(), "ns::K::Load("); n != 1 {
		t.Errorf("%d load routines, want 1", n)
	}
	if n := strings.Count(out.Save.String(), "ns::K::Save("); n != 1 {
		t.Errorf("%d save routines, want 1", n)
	}
}

func TestFrontendFailure(t *testing.T) {
	fe := &fakeFrontend{err: frontend.ErrFrontend}
	out, err := Generate(context.Background(), fe, frontend.Unit{File: "x.cpp"}, config.Default(), nil)
	if !errors.Is(err, frontend.ErrFrontend) {
		t.Fatalf("got %v, want ErrFrontend", err)
	}
	if out != nil {
		t.Fatalf("no output expected on front-end failure")
	}
	if fe.calls != 1 {
		t.Fatalf("front end called %d times", fe.calls)
	}
}

func TestNoMarkedClasses(t *testing.T) {
	tu := &decl.TranslationUnit{Classes: []*decl.Class{{QualifiedName: "A", Annotations: []string{"SL-non-pod"}}}}
	out, err := Generate(context.Background(), &fakeFrontend{tu: tu}, frontend.Unit{}, config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Bytes()) != 0 {
		t.Fatalf("unexpected output %q", out.Bytes())
	}
}
