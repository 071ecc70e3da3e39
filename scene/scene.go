// Package scene keeps a persistent tree of SVG primitives and journals every
// change made to it.
//
// Widgets create their elements once and then only change attributes, so a
// redraw costs one patch operation per attribute that actually moved. The
// journal is flushed into a Patch that remote views apply to their own copy
// of the tree; WriteSVG renders the current state as a standalone document.
package scene

import (
	"fmt"
	"time"
)

// Kind is the SVG element name.
type Kind string

const (
	SVG      Kind = "svg"
	Group    Kind = "g"
	Line     Kind = "line"
	Circle   Kind = "circle"
	Text     Kind = "text"
	Path     Kind = "path"
	Rect     Kind = "rect"
	Defs     Kind = "defs"
	Marker   Kind = "marker"
	Gradient Kind = "linearGradient"
	Stop     Kind = "stop"
)

// Key is the typed handle of an element. The zero Key is never issued.
type Key uint32

// Role tags elements that are reconciled against data, such as one marker
// per buffer slot.
type Role string

type element struct {
	key      Key
	kind     Kind
	role     Role
	slot     int
	parent   Key
	children []Key
	attrs    []Attr
	text     string
	hasText  bool
}

type slotKey struct {
	parent Key
	role   Role
	slot   int
}

// ClaimedError is returned when a second owner tries to claim a scene.
type ClaimedError struct {
	Owner string
}

func (err ClaimedError) Error() string {
	return fmt.Sprintf("scene is already bound to %s", err.Owner)
}

// Scene is a tree of elements rooted at an <svg> element. A Scene is not safe
// for concurrent use; every call must come from the goroutine that owns it.
type Scene struct {
	elems   map[Key]*element
	slots   map[slotKey]Key
	next    Key
	root    Key
	owner   string
	journal Patch
}

// New returns a scene holding only its root element.
func New() *Scene {
	s := &Scene{
		elems: make(map[Key]*element),
		slots: make(map[slotKey]Key),
	}
	s.root = s.alloc(0, SVG, "", -1)
	s.elems[s.root].attrs = []Attr{Str("xmlns", "http://www.w3.org/2000/svg")}
	return s
}

// Root is the key of the <svg> element.
func (s *Scene) Root() Key {
	return s.root
}

// Claim marks the scene as hosting owner. A scene hosts one widget at a time.
func (s *Scene) Claim(owner string) error {
	if s.owner != "" {
		return ClaimedError{Owner: s.owner}
	}
	s.owner = owner
	return nil
}

// Release gives up a claim made with Claim.
func (s *Scene) Release() {
	s.owner = ""
}

// Owner returns the current claimant, if any.
func (s *Scene) Owner() string {
	return s.owner
}

func (s *Scene) alloc(parent Key, kind Kind, role Role, slot int) Key {
	s.next++
	k := s.next
	s.elems[k] = &element{key: k, kind: kind, role: role, slot: slot, parent: parent}
	if p, ok := s.elems[parent]; ok {
		p.children = append(p.children, k)
	}
	return k
}

func (s *Scene) get(k Key) *element {
	e, ok := s.elems[k]
	if !ok {
		panic(fmt.Sprintf("scene: unknown element %d", k))
	}
	return e
}

// Create appends a new element under parent and returns its key.
func (s *Scene) Create(parent Key, kind Kind, attrs ...Attr) Key {
	return s.create(parent, kind, "", -1, attrs)
}

// CreateRole is like Create but registers the element under (role, slot) so
// it can be found again with Lookup.
func (s *Scene) CreateRole(parent Key, kind Kind, role Role, slot int, attrs ...Attr) Key {
	k := s.create(parent, kind, role, slot, attrs)
	s.slots[slotKey{parent, role, slot}] = k
	return k
}

func (s *Scene) create(parent Key, kind Kind, role Role, slot int, attrs []Attr) Key {
	s.get(parent)
	k := s.alloc(parent, kind, role, slot)
	e := s.elems[k]
	for _, a := range attrs {
		e.set(a)
	}
	s.journal = append(s.journal, Op{
		Op:     OpCreate,
		Key:    k,
		Parent: parent,
		Kind:   kind,
		Role:   role,
		Attrs:  attrMap(e.attrs),
	})
	return k
}

// Lookup finds the element registered under (role, slot) below parent.
func (s *Scene) Lookup(parent Key, role Role, slot int) (Key, bool) {
	k, ok := s.slots[slotKey{parent, role, slot}]
	return k, ok
}

func (e *element) set(a Attr) (changed bool) {
	for i := range e.attrs {
		if e.attrs[i].Name == a.Name {
			if e.attrs[i].Value == a.Value {
				return false
			}
			e.attrs[i].Value = a.Value
			return true
		}
	}
	e.attrs = append(e.attrs, a)
	return true
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set changes attributes in place. Only values that differ from the current
// state are journalled; it reports whether anything changed.
func (s *Scene) Set(k Key, attrs ...Attr) bool {
	return s.update(k, 0, attrs)
}

// Animate is like Set but asks remote views to transition to the new values
// over d.
func (s *Scene) Animate(k Key, d time.Duration, attrs ...Attr) bool {
	return s.update(k, d, attrs)
}

func (s *Scene) update(k Key, d time.Duration, attrs []Attr) bool {
	e := s.get(k)
	var changed []Attr
	for _, a := range attrs {
		if e.set(a) {
			changed = append(changed, a)
		}
	}
	if len(changed) == 0 {
		return false
	}
	s.journal = append(s.journal, Op{
		Op:       OpUpdate,
		Key:      k,
		Attrs:    attrMap(changed),
		Duration: durationMillis(d),
	})
	return true
}

// Unset removes attributes from an element. Names that are not set are
// ignored; it reports whether anything was removed.
func (s *Scene) Unset(k Key, names ...string) bool {
	e := s.get(k)
	var removed []string
	for _, name := range names {
		for i := range e.attrs {
			if e.attrs[i].Name == name {
				e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
				removed = append(removed, name)
				break
			}
		}
	}
	if len(removed) == 0 {
		return false
	}
	s.journal = append(s.journal, Op{Op: OpUpdate, Key: k, Unset: removed})
	return true
}

// SetText replaces the text content of an element.
func (s *Scene) SetText(k Key, text string) bool {
	e := s.get(k)
	if e.hasText && e.text == text {
		return false
	}
	e.text, e.hasText = text, true
	t := text
	s.journal = append(s.journal, Op{Op: OpUpdate, Key: k, Text: &t})
	return true
}

// Attr returns the current value of an attribute.
func (s *Scene) Attr(k Key, name string) (string, bool) {
	return s.get(k).attr(name)
}

// Text returns the text content of an element.
func (s *Scene) Text(k Key) string {
	return s.get(k).text
}

// Kind returns the element type of k.
func (s *Scene) Kind(k Key) Kind {
	return s.get(k).kind
}

// Has reports whether k is still part of the scene.
func (s *Scene) Has(k Key) bool {
	_, ok := s.elems[k]
	return ok
}

// Children returns the keys directly below k in document order.
func (s *Scene) Children(k Key) []Key {
	return append([]Key(nil), s.get(k).children...)
}

// Remove deletes k and everything below it. Removing the root is not allowed.
func (s *Scene) Remove(k Key) {
	if k == s.root {
		panic("scene: cannot remove the root element")
	}
	e := s.get(k)
	if p, ok := s.elems[e.parent]; ok {
		for i, c := range p.children {
			if c == k {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	s.drop(e)
	s.journal = append(s.journal, Op{Op: OpRemove, Key: k})
}

func (s *Scene) drop(e *element) {
	for _, c := range e.children {
		s.drop(s.elems[c])
	}
	if e.role != "" {
		sk := slotKey{e.parent, e.role, e.slot}
		if s.slots[sk] == e.key {
			delete(s.slots, sk)
		}
	}
	delete(s.elems, e.key)
}

// Count returns how many live elements carry role.
func (s *Scene) Count(role Role) int {
	n := 0
	for _, e := range s.elems {
		if e.role == role {
			n++
		}
	}
	return n
}

// Len is the number of elements, root included.
func (s *Scene) Len() int {
	return len(s.elems)
}

// Pending is the number of journalled operations not yet flushed.
func (s *Scene) Pending() int {
	return len(s.journal)
}

// Flush returns the journal and starts a new one.
func (s *Scene) Flush() Patch {
	p := s.journal
	s.journal = nil
	return p
}

// Replay describes the whole current tree as a patch: an update of the root
// followed by a create for every other element in document order. A remote
// view that applies it ends up identical to this scene.
func (s *Scene) Replay() Patch {
	root := s.elems[s.root]
	p := Patch{{Op: OpUpdate, Key: s.root, Attrs: attrMap(root.attrs)}}
	for _, c := range root.children {
		p = s.replay(p, c)
	}
	return p
}

func (s *Scene) replay(p Patch, k Key) Patch {
	e := s.elems[k]
	op := Op{
		Op:     OpCreate,
		Key:    k,
		Parent: e.parent,
		Kind:   e.kind,
		Role:   e.role,
		Attrs:  attrMap(e.attrs),
	}
	if e.hasText {
		t := e.text
		op.Text = &t
	}
	p = append(p, op)
	for _, c := range e.children {
		p = s.replay(p, c)
	}
	return p
}
