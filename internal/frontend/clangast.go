package frontend

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kanengo/einstein/internal/decl"
)

// astNode is the subset of clang's -ast-dump=json node that the generator
// reads. Value is raw because its JSON type depends on the node kind.
type astNode struct {
	Kind               string          `json:"kind"`
	Name               string          `json:"name"`
	Loc                *astLoc         `json:"loc"`
	Range              *astRange       `json:"range"`
	IsImplicit         bool            `json:"isImplicit"`
	IsInline           bool            `json:"isInline"`
	CompleteDefinition bool            `json:"completeDefinition"`
	Type               *astType        `json:"type"`
	Value              json.RawMessage `json:"value"`
	Annotation         string          `json:"annotation"`
	Inner              []*astNode      `json:"inner"`
}

type astType struct {
	QualType          string `json:"qualType"`
	DesugaredQualType string `json:"desugaredQualType"`
}

// astLoc is a source location. clang omits file and line when they did not
// change since the previously printed location; fillLocations restores them.
type astLoc struct {
	Offset       *int    `json:"offset"`
	File         string  `json:"file"`
	Line         int     `json:"line"`
	TokLen       int     `json:"tokLen"`
	SpellingLoc  *astLoc `json:"spellingLoc"`
	ExpansionLoc *astLoc `json:"expansionLoc"`
}

// spelling returns where the text of the location was written.
func (l *astLoc) spelling() *astLoc {
	if l == nil {
		return nil
	}
	if l.SpellingLoc != nil {
		return l.SpellingLoc
	}
	return l
}

type astRange struct {
	Begin *astLoc `json:"begin"`
	End   *astLoc `json:"end"`
}

func decodeAST(r io.Reader) (*astNode, error) {
	var root astNode
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}
	if root.Kind != "TranslationUnitDecl" {
		return nil, fmt.Errorf("root node is %q, want TranslationUnitDecl", root.Kind)
	}
	return &root, nil
}

type locTracker struct {
	file string
	line int
}

func (t *locTracker) loc(l *astLoc) {
	if l == nil {
		return
	}
	if l.SpellingLoc != nil || l.ExpansionLoc != nil {
		t.loc(l.SpellingLoc)
		t.loc(l.ExpansionLoc)
		return
	}
	if l.Offset == nil {
		return
	}
	if l.File != "" {
		t.file = l.File
	} else {
		l.File = t.file
	}
	if l.Line != 0 {
		t.line = l.Line
	} else {
		l.Line = t.line
	}
}

// fillLocations walks n in the order clang printed it.
func (t *locTracker) fillLocations(n *astNode) {
	t.loc(n.Loc)
	if n.Range != nil {
		t.loc(n.Range.Begin)
		t.loc(n.Range.End)
	}
	for _, c := range n.Inner {
		if c != nil {
			t.fillLocations(c)
		}
	}
}

type scopeEntry struct {
	name   string
	inline bool
}

type scope []scopeEntry

// qualify joins the scope names and name with "::". Anonymous namespaces
// have no name and are left out, since their members are reachable from
// the enclosing namespace.
func (s scope) qualify(name string, dropInline bool) string {
	parts := make([]string, 0, len(s)+1)
	for _, e := range s {
		if e.name == "" || dropInline && e.inline {
			continue
		}
		parts = append(parts, e.name)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, "::")
}

type record struct {
	name        string
	annotations []string
}

type candidate struct {
	node  *astNode
	scope scope
}

// resolver turns a clang AST into a decl.TranslationUnit.
type resolver struct {
	readFile func(string) ([]byte, error)
	sources  map[string][]byte
	records  map[string]*record
	found    []candidate
}

func newResolver(readFile func(string) ([]byte, error)) *resolver {
	return &resolver{
		readFile: readFile,
		sources:  make(map[string][]byte),
		records:  make(map[string]*record),
	}
}

func (r *resolver) translationUnit(root *astNode, file string) *decl.TranslationUnit {
	(&locTracker{}).fillLocations(root)
	r.index(root, nil, false)

	tu := &decl.TranslationUnit{File: file}
	for _, c := range r.found {
		tu.Classes = append(tu.Classes, r.class(c))
	}
	return tu
}

// index records every named record of the unit and remembers the class
// definitions that may be generated, in traversal order.
func (r *resolver) index(n *astNode, s scope, templated bool) {
	for _, c := range n.Inner {
		if c == nil {
			continue
		}
		switch c.Kind {
		case "NamespaceDecl":
			r.index(c, append(slices.Clip(s), scopeEntry{name: c.Name, inline: c.IsInline}), templated)
		case "LinkageSpecDecl", "ExportDecl":
			r.index(c, s, templated)
		case "ClassTemplateDecl":
			r.index(c, s, true)
		case "CXXRecordDecl", "ClassTemplateSpecializationDecl", "RecordDecl":
			if c.Name == "" || c.IsImplicit {
				continue
			}
			r.addRecord(c, s)
			if c.CompleteDefinition && !templated && c.Kind != "ClassTemplateSpecializationDecl" {
				r.found = append(r.found, candidate{node: c, scope: s})
			}
			r.index(c, append(slices.Clip(s), scopeEntry{name: c.Name}), templated)
		}
	}
}

func (r *resolver) addRecord(n *astNode, s scope) {
	full := s.qualify(n.Name, false)
	rec, ok := r.records[full]
	if !ok {
		rec = &record{name: full}
		r.records[full] = rec
		if short := s.qualify(n.Name, true); short != full {
			if _, taken := r.records[short]; !taken {
				r.records[short] = rec
			}
		}
	}
	for _, a := range r.annotations(n) {
		if !slices.Contains(rec.annotations, a) {
			rec.annotations = append(rec.annotations, a)
		}
	}
}

func (r *resolver) class(c candidate) *decl.Class {
	n := c.node
	class := &decl.Class{
		QualifiedName: c.scope.qualify(n.Name, false),
		Annotations:   r.annotations(n),
		Fields:        []decl.Field{},
	}
	if l := n.Loc.spelling(); l != nil && l.File != "" {
		class.Location = fmt.Sprintf("%s:%d", l.File, l.Line)
	}

	inner := append(slices.Clip(c.scope), scopeEntry{name: n.Name})
	for _, f := range n.Inner {
		if f == nil || f.Kind != "FieldDecl" || f.Name == "" || f.Type == nil {
			continue
		}
		class.Fields = append(class.Fields, decl.Field{
			Name: f.Name,
			Type: r.fieldType(f.Type, inner),
		})
	}
	return class
}

func (r *resolver) fieldType(t *astType, s scope) decl.Type {
	typ := decl.Type{Spelling: t.QualType, Kind: decl.Other}
	canonical := t.DesugaredQualType
	if canonical == "" {
		canonical = t.QualType
	}

	if isPointer(canonical) {
		typ.Kind = decl.Pointer
		return typ
	}
	name, ok := recordName(canonical)
	if !ok {
		return typ
	}
	if rec, ok := r.lookup(name, s); ok {
		typ.Kind = decl.Record
		typ.Record = &decl.RecordRef{
			QualifiedName: rec.name,
			Annotations:   slices.Clone(rec.annotations),
		}
	}
	return typ
}

// lookup resolves name from within s, innermost scope first.
func (r *resolver) lookup(name string, s scope) (*record, bool) {
	if abs, ok := strings.CutPrefix(name, "::"); ok {
		rec, ok := r.records[abs]
		return rec, ok
	}
	for i := len(s); i >= 0; i-- {
		if rec, ok := r.records[s[:i].qualify(name, false)]; ok {
			return rec, true
		}
		if rec, ok := r.records[s[:i].qualify(name, true)]; ok {
			return rec, true
		}
	}
	return nil, false
}

var (
	leadingQualRe  = regexp.MustCompile(`^(const|volatile)\s+`)
	trailingQualRe = regexp.MustCompile(`\s*\b(const|volatile|__restrict|restrict)$`)
)

// trimQualifiers drops outer cv and restrict qualifiers. A qualifier on a
// pointer follows the star with no space between them, as in "Foo *const".
func trimQualifiers(t string) string {
	t = strings.TrimSpace(t)
	for {
		trimmed := trailingQualRe.ReplaceAllString(leadingQualRe.ReplaceAllString(t, ""), "")
		if trimmed == t {
			return t
		}
		t = strings.TrimSpace(trimmed)
	}
}

func isPointer(t string) bool {
	t = trimQualifiers(t)
	return strings.HasSuffix(t, "*") || strings.Contains(t, "(*)")
}

var identRe = regexp.MustCompile(`^(::)?[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)

// recordName extracts the record name from a type spelling, dropping cv
// qualifiers, the elaborated keyword and template arguments. References,
// arrays and enums are not records.
func recordName(t string) (string, bool) {
	t = trimQualifiers(t)
	if strings.HasSuffix(t, "&") || strings.HasSuffix(t, "]") || strings.HasPrefix(t, "enum ") {
		return "", false
	}
	for _, kw := range []string{"class ", "struct ", "union "} {
		t = strings.TrimPrefix(t, kw)
	}
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	if !identRe.MatchString(t) {
		return "", false
	}
	return t, true
}

var annotateRe = regexp.MustCompile(`annotate\s*\(\s*("(?:[^"\\]|\\.)*")`)

// annotations returns the AnnotateAttr strings attached to n.
func (r *resolver) annotations(n *astNode) []string {
	var out []string
	for _, c := range n.Inner {
		if c == nil || c.Kind != "AnnotateAttr" {
			continue
		}
		if a, ok := r.annotation(c); ok && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *resolver) annotation(attr *astNode) (string, bool) {
	if attr.Annotation != "" {
		return attr.Annotation, true
	}
	if s, ok := stringLiteral(attr); ok {
		return s, true
	}

	// Older dumps carry no annotation text; read it from the attribute's
	// spelling in the source, which for the marker macros is the header.
	if attr.Range == nil {
		return "", false
	}
	begin, end := attr.Range.Begin.spelling(), attr.Range.End.spelling()
	if begin == nil || end == nil || begin.Offset == nil || end.Offset == nil || begin.File == "" || begin.File != end.File {
		return "", false
	}
	src, err := r.source(begin.File)
	if err != nil {
		return "", false
	}
	from, to := *begin.Offset, *end.Offset+end.TokLen
	if from < 0 || to > len(src) || from >= to {
		return "", false
	}
	m := annotateRe.FindSubmatch(src[from:to])
	if m == nil {
		return "", false
	}
	s, err := strconv.Unquote(string(m[1]))
	if err != nil {
		return "", false
	}
	return s, true
}

func stringLiteral(n *astNode) (string, bool) {
	for _, c := range n.Inner {
		if c == nil {
			continue
		}
		if c.Kind == "StringLiteral" && len(c.Value) > 0 {
			var lit string
			if err := json.Unmarshal(c.Value, &lit); err != nil {
				return "", false
			}
			s, err := strconv.Unquote(lit)
			if err != nil {
				return "", false
			}
			return s, true
		}
		if s, ok := stringLiteral(c); ok {
			return s, true
		}
	}
	return "", false
}

func (r *resolver) source(file string) ([]byte, error) {
	if b, ok := r.sources[file]; ok {
		return b, nil
	}
	b, err := r.readFile(file)
	if err != nil {
		return nil, err
	}
	r.sources[file] = b
	return b, nil
}
