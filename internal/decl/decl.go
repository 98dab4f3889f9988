// Package decl holds the declaration tree surfaced by a C++ front end: the
// classes of one translation unit, their data members and the types of those
// members, reduced to what the generator needs.
package decl

import (
	"fmt"
	"slices"
)

// Kind is the coarse shape of a member type.
type Kind int

const (
	Other Kind = iota
	Pointer
	Record
)

func (k Kind) String() string {
	switch k {
	case Pointer:
		return "pointer"
	case Record:
		return "record"
	default:
		return "other"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pointer":
		*k = Pointer
	case "record":
		*k = Record
	case "other", "":
		*k = Other
	default:
		return fmt.Errorf("unknown type kind %q", b)
	}
	return nil
}

// RecordRef names the struct/class a member type resolves to.
type RecordRef struct {
	QualifiedName string   `json:"qualified_name"`
	Annotations   []string `json:"annotations,omitempty"`
}

// Type describes the declared type of a data member.
type Type struct {
	Spelling string     `json:"spelling"` // e.g. "std::vector<int>"
	Kind     Kind       `json:"kind"`
	Record   *RecordRef `json:"record,omitempty"` // set when Kind == Record
}

// HasAnnotation reports whether the type resolves to a record carrying a.
func (t Type) HasAnnotation(a string) bool {
	return t.Record != nil && slices.Contains(t.Record.Annotations, a)
}

type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Class is a struct or class definition. QualifiedName is its identity.
type Class struct {
	QualifiedName string   `json:"qualified_name"`
	Fields        []Field  `json:"fields"`
	Annotations   []string `json:"annotations,omitempty"`
	Location      string   `json:"location,omitempty"`
}

// Marked reports whether the class carries the exact marker annotation.
func (c *Class) Marked(marker string) bool {
	return slices.Contains(c.Annotations, marker)
}

// TranslationUnit is what a front end returns for one source file. Classes
// are in traversal order and the same class may appear more than once.
type TranslationUnit struct {
	File    string   `json:"file"`
	Classes []*Class `json:"classes"`
}

// Walk calls visit for every class in traversal order.
func (tu *TranslationUnit) Walk(visit func(*Class)) {
	for _, c := range tu.Classes {
		visit(c)
	}
}
