package gesture

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type attribute struct {
	value int
	min   int
}

// defineAttribute must be called before the recognizer is shared.
func (r *Recognizer) defineAttribute(name string, value, min int) {
	r.attrs[name] = &attribute{value: value, min: min}
}

// SetAttribute updates a threshold from its string form. Values must be
// integers no smaller than the attribute's minimum; anything else is
// rejected with a *ConfigError and the previous value is kept. The new
// value applies from the next gesture.
func (r *Recognizer) SetAttribute(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attrs[name]
	if !ok {
		return r.reject(name, value, ErrUnknownAttribute)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return r.reject(name, value, ErrNotInteger)
	}
	if n < a.min {
		return r.reject(name, value, fmt.Errorf("%w: minimum is %d", ErrOutOfRange, a.min))
	}
	a.value = n
	r.log.Debug("attribute updated", "attribute", name, "value", n)
	return nil
}

func (r *Recognizer) reject(name, value string, err error) error {
	r.log.Debug("attribute rejected", "attribute", name, "value", value, "error", err)
	return &ConfigError{Recognizer: r.kind, Attribute: name, Value: value, Err: err}
}

// Attribute returns the current value of a threshold.
func (r *Recognizer) Attribute(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attrs[name]
	if !ok {
		return 0, false
	}
	return a.value, true
}

// HasAttribute reports whether name is a recognized attribute.
func (r *Recognizer) HasAttribute(name string) bool {
	_, ok := r.Attribute(name)
	return ok
}

// AttributeNames returns the recognizer's attribute names in sorted order.
func (r *Recognizer) AttributeNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.attrs))
	for name := range r.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// attr reads a value without the existence check. Callers hold r.mu.
func (r *Recognizer) attr(name string) int {
	return r.attrs[name].value
}
