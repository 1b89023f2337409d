package component

// FindActualTarget returns the first non-wrapper descendant of n in
// depth-first order, searching through wrapper children. It returns nil
// when every descendant is a wrapper or n has no children.
func FindActualTarget(n Node) Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children() {
		if _, ok := child.(Wrapper); !ok {
			return child
		}
		if found := FindActualTarget(child); found != nil {
			return found
		}
	}
	return nil
}

// Mixin is embedded by behavior wrappers. It supplies the Wrapper marker
// and target resolution.
type Mixin struct {
	*Base
}

// NewMixin creates a wrapper component.
func NewMixin(name string) Mixin {
	return Mixin{Base: NewBase(name)}
}

// WrapsTarget marks the component as a wrapper.
func (Mixin) WrapsTarget() {}

// ActualTarget returns the concrete component this wrapper affects.
func (m Mixin) ActualTarget() Node {
	return FindActualTarget(m.Base)
}
