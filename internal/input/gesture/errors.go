package gesture

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAttribute is reported for an attribute the recognizer does not have.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrNotInteger is reported when an attribute value is not an integer.
	ErrNotInteger = errors.New("value is not an integer")

	// ErrOutOfRange is reported when an attribute value is below its minimum.
	ErrOutOfRange = errors.New("value out of range")
)

// ConfigError describes a rejected attribute update.
type ConfigError struct {
	Recognizer string
	Attribute  string
	Value      string
	Err        error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: attribute %s=%q: %v", e.Recognizer, e.Attribute, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
