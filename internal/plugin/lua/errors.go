package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call runs past its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrFunctionNotFound is returned when calling an undefined global.
	ErrFunctionNotFound = errors.New("lua function not found")
)

// HookError reports a failing hook.
type HookError struct {
	Hook string
	Err  error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("lua hook %s: %v", e.Hook, e.Err)
}

// Unwrap returns the underlying error.
func (e *HookError) Unwrap() error {
	return e.Err
}
