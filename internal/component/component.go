package component

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dshills/gesture/internal/event/topic"
	"github.com/dshills/gesture/internal/input/pointer"
)

// Errors returned by tree operations.
var (
	ErrCycle       = errors.New("component would become its own ancestor")
	ErrHasParent   = errors.New("component already has a parent")
	ErrNotAChild   = errors.New("component is not a child")
	ErrForeignNode = errors.New("node does not embed *component.Base")
)

// Node is a component in the tree.
type Node interface {
	ID() string
	Name() string
	Parent() Node
	Children() []Node
}

// Wrapper is implemented by components that wrap another component to add
// behavior. FindActualTarget searches through wrappers.
type Wrapper interface {
	Node
	WrapsTarget()
}

// Rect is an axis-aligned rectangle in host coordinates. Right and Bottom
// are exclusive.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// PointerListener handles a pointer event travelling through the tree.
type PointerListener func(ev *pointer.Event)

// Event is a gesture-level event that bubbles through the tree.
type Event interface {
	EventTopic() topic.Topic
}

// Listener handles a bubbling gesture-level event.
type Listener func(ev Event)

type pointerEntry struct {
	id uint64
	fn PointerListener
}

type listenerEntry struct {
	id      uint64
	pattern topic.Topic
	fn      Listener
}

// Base implements Node and is embedded by concrete components.
// A *Base is itself a usable leaf component.
type Base struct {
	id       string
	name     string
	parent   Node
	children []Node
	bounds   Rect

	nextID    uint64
	pointers  map[pointer.Kind][]pointerEntry
	listeners []listenerEntry
	sink      func(Event)
}

// NewBase creates a component with a fresh ID.
func NewBase(name string) *Base {
	return &Base{
		id:       uuid.NewString(),
		name:     name,
		pointers: make(map[pointer.Kind][]pointerEntry),
	}
}

func (b *Base) base() *Base { return b }

// ID returns the component's unique identifier.
func (b *Base) ID() string { return b.id }

// Name returns the component's name.
func (b *Base) Name() string { return b.name }

// Parent returns the parent component, or nil for a root.
func (b *Base) Parent() Node { return b.parent }

// Children returns the child components in order.
func (b *Base) Children() []Node {
	out := make([]Node, len(b.children))
	copy(out, b.children)
	return out
}

// Bounds returns the component's hit area.
func (b *Base) Bounds() Rect { return b.bounds }

// SetBounds sets the component's hit area.
func (b *Base) SetBounds(r Rect) { b.bounds = r }

// Contains reports whether (x, y) is inside the component's bounds.
func (b *Base) Contains(x, y float64) bool { return b.bounds.Contains(x, y) }

// AddPointerListener installs fn for events of kind and returns a function
// that removes it.
func (b *Base) AddPointerListener(kind pointer.Kind, fn PointerListener) func() {
	b.nextID++
	id := b.nextID
	b.pointers[kind] = append(b.pointers[kind], pointerEntry{id: id, fn: fn})
	return func() {
		entries := b.pointers[kind]
		for i, e := range entries {
			if e.id == id {
				b.pointers[kind] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// OnGesture installs fn for bubbling events whose topic matches pattern and
// returns a function that removes it.
func (b *Base) OnGesture(pattern topic.Topic, fn Listener) func() {
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listenerEntry{id: id, pattern: pattern, fn: fn})
	return func() {
		for i, e := range b.listeners {
			if e.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// SetSink sets the function that receives events after they bubble past
// this component without a parent to continue to.
func (b *Base) SetSink(fn func(Event)) { b.sink = fn }

type embedsBase interface {
	base() *Base
}

func baseOf(n Node) (*Base, bool) {
	if n == nil {
		return nil, false
	}
	eb, ok := n.(embedsBase)
	if !ok {
		return nil, false
	}
	return eb.base(), true
}

// Append makes child the last child of parent.
func Append(parent, child Node) error {
	pb, ok := baseOf(parent)
	if !ok {
		return ErrForeignNode
	}
	cb, ok := baseOf(child)
	if !ok {
		return ErrForeignNode
	}
	if cb.parent != nil {
		return ErrHasParent
	}
	for n := parent; n != nil; n = n.Parent() {
		if n.ID() == child.ID() {
			return ErrCycle
		}
	}
	cb.parent = parent
	pb.children = append(pb.children, child)
	return nil
}

// Remove detaches child from parent.
func Remove(parent, child Node) error {
	pb, ok := baseOf(parent)
	if !ok {
		return ErrForeignNode
	}
	for i, c := range pb.children {
		if c.ID() == child.ID() {
			pb.children = append(pb.children[:i:i], pb.children[i+1:]...)
			if cb, ok := baseOf(child); ok {
				cb.parent = nil
			}
			return nil
		}
	}
	return ErrNotAChild
}

// Root returns the topmost ancestor of n.
func Root(n Node) Node {
	for n != nil && n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// Find returns the node with the given ID in the subtree rooted at n.
func Find(n Node, id string) Node {
	if n == nil {
		return nil
	}
	if n.ID() == id {
		return n
	}
	for _, c := range n.Children() {
		if found := Find(c, id); found != nil {
			return found
		}
	}
	return nil
}

// HitTest returns the deepest node under root whose bounds contain (x, y).
// Later children are on top of earlier ones.
func HitTest(root Node, x, y float64) Node {
	b, ok := baseOf(root)
	if !ok || !b.Contains(x, y) {
		return nil
	}
	for i := len(b.children) - 1; i >= 0; i-- {
		if hit := HitTest(b.children[i], x, y); hit != nil {
			return hit
		}
	}
	return root
}

// DispatchPointer delivers ev to target's listeners for ev.Kind and then to
// each ancestor's, innermost first. Listeners are snapshotted per node so a
// listener may remove itself.
func DispatchPointer(target Node, ev *pointer.Event) {
	for n := target; n != nil; n = n.Parent() {
		b, ok := baseOf(n)
		if !ok {
			continue
		}
		entries := append([]pointerEntry(nil), b.pointers[ev.Kind]...)
		for _, e := range entries {
			e.fn(ev)
		}
	}
}

// Emit bubbles ev from n to the root, calling every listener whose pattern
// matches ev's topic, then hands it to the root's sink.
func Emit(n Node, ev Event) {
	t := ev.EventTopic()
	var last *Base
	for cur := n; cur != nil; cur = cur.Parent() {
		b, ok := baseOf(cur)
		if !ok {
			continue
		}
		last = b
		entries := append([]listenerEntry(nil), b.listeners...)
		for _, e := range entries {
			if t.Matches(e.pattern) {
				e.fn(ev)
			}
		}
	}
	if last != nil && last.sink != nil {
		last.sink(ev)
	}
}
