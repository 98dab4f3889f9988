package codegen

import (
	"strings"

	"github.com/kanengo/einstein/internal/config"
	"github.com/kanengo/einstein/internal/decl"
)

// Treatment is how a data member is handled by the generated routines.
type Treatment int

const (
	// Skip members appear in neither routine. They are either written by
	// hand outside the generated code or not persisted at all.
	Skip Treatment = iota
	// PointerSwizzle members get a load-time fixup and nothing on save.
	PointerSwizzle
	// ContainerOrNonPOD members get matched load and save calls.
	ContainerOrNonPOD
)

func (t Treatment) String() string {
	switch t {
	case PointerSwizzle:
		return "PointerSwizzle"
	case ContainerOrNonPOD:
		return "ContainerOrNonPOD"
	default:
		return "Skip"
	}
}

// Classifier maps a member to its Treatment. It holds no state besides the
// policy it was built with.
type Classifier struct {
	nonPOD     string
	containers map[string]struct{}
	inline     map[string]struct{}
}

func NewClassifier(markers config.Markers, containers config.Containers) *Classifier {
	c := &Classifier{
		nonPOD:     markers.NonPOD,
		containers: make(map[string]struct{}, len(containers.Names)),
		inline:     make(map[string]struct{}, len(containers.InlineNamespaces)),
	}
	for _, n := range containers.Names {
		c.containers[n] = struct{}{}
	}
	for _, n := range containers.InlineNamespaces {
		c.inline[n] = struct{}{}
	}
	return c
}

func (c *Classifier) Classify(f decl.Field) Treatment {
	switch f.Type.Kind {
	case decl.Pointer:
		return PointerSwizzle
	case decl.Record:
		if f.Type.Record == nil {
			return Skip
		}
		if c.isContainer(f.Type.Record.QualifiedName) {
			return ContainerOrNonPOD
		}
		if f.Type.HasAnnotation(c.nonPOD) {
			return ContainerOrNonPOD
		}
		return Skip
	default:
		return Skip
	}
}

func (c *Classifier) isContainer(name string) bool {
	_, ok := c.containers[c.normalize(name)]
	return ok
}

// normalize reduces a record name to the form used in the allow-list:
// "class std::__1::vector<int>" -> "std::vector".
func (c *Classifier) normalize(name string) string {
	name = strings.TrimSpace(name)
	for _, kw := range []string{"class ", "struct "} {
		name = strings.TrimPrefix(name, kw)
	}
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(strings.TrimSpace(name), "::")

	parts := strings.Split(name, "::")
	kept := parts[:0]
	for _, p := range parts {
		if _, ok := c.inline[p]; ok {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "::")
}
