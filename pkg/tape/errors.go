package tape

import (
	"errors"
	"fmt"
)

// Sentinel errors. Each typed error below matches its sentinel with errors.Is.
var (
	ErrNoMockFound      = errors.New("no mock found")
	ErrInvalidLayer     = errors.New("invalid mock path layer")
	ErrCaptureCollision = errors.New("capture collision")
	ErrFilesystem       = errors.New("fixture filesystem error")
	ErrSessionActive    = errors.New("session already active")
	ErrNoActiveSession  = errors.New("no active session")
)

// NoMockFoundError is returned when no stack entry holds a fixture for a
// request while mocking.
type NoMockFoundError struct {
	Method string
	URL    string
	// Path is the fixture file expected at the top of the mock path stack.
	Path string
}

func (e *NoMockFoundError) Error() string {
	return fmt.Sprintf("mocking: no fixture found for %s %s (expected %s)", e.Method, e.URL, e.Path)
}

// Is reports whether target is ErrNoMockFound.
func (e *NoMockFoundError) Is(target error) bool {
	return target == ErrNoMockFound
}

// InvalidLayerError is returned when the top of the mock path stack does not
// end in an integer layer name.
type InvalidLayerError struct {
	Entry string
}

func (e *InvalidLayerError) Error() string {
	if e.Entry == "" {
		return "invalid layer: mock path stack is empty (was the vignette started?)"
	}
	return fmt.Sprintf("invalid layer: %q does not end in an integer layer (was the vignette started?)", e.Entry)
}

// Is reports whether target is ErrInvalidLayer.
func (e *InvalidLayerError) Is(target error) bool {
	return target == ErrInvalidLayer
}

// CaptureCollisionError is returned when every variant name for a fixture
// path is already taken by different content in the current session.
type CaptureCollisionError struct {
	Path     string
	Variants int
}

func (e *CaptureCollisionError) Error() string {
	return fmt.Sprintf("capture collision: %s already has %d distinct variants in this session", e.Path, e.Variants)
}

// Is reports whether target is ErrCaptureCollision.
func (e *CaptureCollisionError) Is(target error) bool {
	return target == ErrCaptureCollision
}

// FilesystemError wraps a failure reading or writing a fixture.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("fixture %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFilesystem.
func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}
