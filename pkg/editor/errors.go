package editor

import (
	"errors"
	"fmt"
)

// ErrNotSelecting is returned by pending-selection operations outside an effect selection session.
var ErrNotSelecting = errors.New("not selecting effects")

// ErrClosed is returned once the controller has been closed.
var ErrClosed = errors.New("controller closed")

// ExportError is a failed save. It is the one failure meant to be shown to the user.
type ExportError struct {
	// Op is the step that failed: "flatten", "backup", or "encode".
	Op string
	// Path is the destination file.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("save %s [%s]: %v", e.Path, e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
