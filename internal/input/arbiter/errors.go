package arbiter

import (
	"errors"
	"fmt"

	"github.com/dshills/gesture/internal/input/pointer"
)

var (
	// ErrContention is reported when a pointer is already owned by another component.
	ErrContention = errors.New("pointer already captured")

	// ErrPlatformCapture is reported when the host capture primitive fails.
	ErrPlatformCapture = errors.New("platform capture failed")
)

// CaptureError describes a refused capture request.
type CaptureError struct {
	Pointer  pointer.ID
	Claimant string
	Owner    string
	Err      error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("capture of pointer %d by %s refused (owner %s): %v", e.Pointer, e.Claimant, e.Owner, e.Err)
	}
	return fmt.Sprintf("capture of pointer %d by %s refused: %v", e.Pointer, e.Claimant, e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Err
}
