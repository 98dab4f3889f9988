package codegen

import "github.com/kanengo/einstein/internal/decl"

// WorkList is the ordered set of classes selected for generation. Classes are
// identified by qualified name and the first sighting wins.
type WorkList struct {
	classes []*decl.Class
	seen    map[string]struct{}
}

func NewWorkList() *WorkList {
	return &WorkList{seen: make(map[string]struct{})}
}

// Add queues c if it carries marker and has not been queued before. It
// reports whether c was added.
func (w *WorkList) Add(c *decl.Class, marker string) bool {
	if !c.Marked(marker) {
		return false
	}
	if _, ok := w.seen[c.QualifiedName]; ok {
		return false
	}
	w.seen[c.QualifiedName] = struct{}{}
	w.classes = append(w.classes, c)
	return true
}

func (w *WorkList) Len() int {
	return len(w.classes)
}

// Classes returns the queued classes in traversal order.
func (w *WorkList) Classes() []*decl.Class {
	return w.classes
}
