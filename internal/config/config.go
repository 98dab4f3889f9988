// Package config loads the generator settings from an optional TOML file.
//
// The file is split into sections. Each section is decoded on its own, unknown
// keys are rejected and the section validates itself:
//
//	[markers]
//	generate = "SL-generate"
//	non_pod  = "SL-non-pod"
//
//	[emit]
//	stream_param = "Stream& stream"
//	load_call    = "stream.Load"
//
//	[containers]
//	names = ["std::vector", "std::list"]
//
//	[clang]
//	path   = "clang++"
//	define = "EINSTEIN_GEN"
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/exp/maps"
)

// DefaultFile is looked up in the working directory when no -config is given.
const DefaultFile = "einstein.toml"

type Config struct {
	Markers    Markers
	Emit       Emit
	Containers Containers
	Clang      Clang
}

// Markers are the annotation strings materialized by the EINSTEIN_GEN macros.
type Markers struct {
	Generate string `toml:"generate"`
	NonPOD   string `toml:"non_pod"`
}

func (m *Markers) Validate() error {
	var errs []error
	if m.Generate == "" {
		errs = append(errs, fmt.Errorf("generate marker is empty"))
	}
	if m.NonPOD == "" {
		errs = append(errs, fmt.Errorf("non_pod marker is empty"))
	}
	if m.Generate != "" && m.Generate == m.NonPOD {
		errs = append(errs, fmt.Errorf("generate and non_pod markers are both %q", m.Generate))
	}
	return errors.Join(errs...)
}

// Emit controls the text of the generated routines.
type Emit struct {
	ReturnType  string `toml:"return_type"` // empty: omitted from the signature
	LoadRoutine string `toml:"load_routine"`
	SaveRoutine string `toml:"save_routine"`
	StreamParam string `toml:"stream_param"`
	LoadCall    string `toml:"load_call"`
	SaveCall    string `toml:"save_call"`
	SwizzleCall string `toml:"swizzle_call"`
	Indent      string `toml:"indent"`
}

func (e *Emit) Validate() error {
	var errs []error
	for _, kv := range [][2]string{
		{"load_routine", e.LoadRoutine},
		{"save_routine", e.SaveRoutine},
		{"load_call", e.LoadCall},
		{"save_call", e.SaveCall},
		{"swizzle_call", e.SwizzleCall},
	} {
		if strings.TrimSpace(kv[1]) == "" {
			errs = append(errs, fmt.Errorf("%s is empty", kv[0]))
		}
	}
	if e.LoadRoutine != "" && e.LoadRoutine == e.SaveRoutine {
		errs = append(errs, fmt.Errorf("load_routine and save_routine are both %q", e.LoadRoutine))
	}
	return errors.Join(errs...)
}

// Containers is the allow-list of record types treated as non-POD without an
// annotation.
type Containers struct {
	Names []string `toml:"names"`

	// InlineNamespaces are dropped from record names before the allow-list
	// lookup, so std::__1::vector matches std::vector.
	InlineNamespaces []string `toml:"inline_namespaces"`
}

func (c *Containers) Validate() error {
	seen := make(map[string]struct{}, len(c.Names))
	for _, n := range c.Names {
		if strings.ContainsAny(n, "<> ") {
			return fmt.Errorf("container %q must be a bare qualified name", n)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("container %q listed twice", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Clang configures the clang front end.
type Clang struct {
	Path   string   `toml:"path"`
	Define string   `toml:"define"`
	Args   []string `toml:"args"`
}

func (c *Clang) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is empty")
	}
	if c.Define == "" {
		return fmt.Errorf("define is empty")
	}
	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Markers: Markers{
			Generate: "SL-generate",
			NonPOD:   "SL-non-pod",
		},
		Emit: Emit{
			LoadRoutine: "Load",
			SaveRoutine: "Save",
			StreamParam: "Stream& stream",
			LoadCall:    "stream.Load",
			SaveCall:    "stream.Save",
			SwizzleCall: "stream.Swizzle",
			Indent:      "  ",
		},
		Containers: Containers{
			Names:            []string{"std::vector", "std::list", "std::deque", "std::forward_list"},
			InlineNamespaces: []string{"__1", "__cxx11"},
		},
		Clang: Clang{
			Path:   "clang++",
			Define: "EINSTEIN_GEN",
		},
	}
}

// Load reads file on top of the defaults. Without an explicit file it tries
// DefaultFile in the working directory, then UserFile; finding neither is
// not an error.
func Load(file string) (*Config, error) {
	if file != "" {
		return loadFile(file)
	}

	candidates := []string{DefaultFile}
	if user, err := UserFile(); err == nil {
		candidates = append(candidates, user)
	}
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			return loadFile(f)
		}
	}
	return Default(), nil
}

func loadFile(file string) (*Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

// Parse decodes input section by section on top of the defaults.
func Parse(input string) (*Config, error) {
	var sections map[string]toml.Primitive
	md, err := toml.Decode(input, &sections)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dsts := map[string]interface{ Validate() error }{
		"markers":    &cfg.Markers,
		"emit":       &cfg.Emit,
		"containers": &cfg.Containers,
		"clang":      &cfg.Clang,
	}

	var unknown []string
	for _, k := range maps.Keys(sections) {
		if _, ok := dsts[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown sections %v", unknown)
	}

	keys := maps.Keys(dsts)
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		dst := dsts[k]
		if prim, ok := sections[k]; ok {
			if err := parseSection(&md, k, prim, dst); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if err := dst.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("section %q is invalid: %w", k, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseSection(md *toml.MetaData, key string, prim toml.Primitive, dst any) error {
	if err := md.PrimitiveDecode(prim, dst); err != nil {
		return fmt.Errorf("section %q: %w", key, err)
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		if len(k) > 1 && k[0] == key {
			unknown = append(unknown, k.String())
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("section %q has unknown keys %v", key, unknown)
	}
	return nil
}
