package session

import (
	"fmt"

	"github.com/almarkwork/sevenpack/internal/archive"
)

// WriteError is any failure while creating, updating or finalizing an
// archive. Msg carries the engine callback's description when one was
// reported, otherwise a generic description of the failed step.
type WriteError struct {
	Path string
	Msg  string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Msg, e.Path)
	}
	return e.Msg
}

func (e *WriteError) Unwrap() error { return e.Err }

// UnsupportedOperationError is returned when the engine reports that the
// requested update is not implemented for the format.
type UnsupportedOperationError struct {
	Format archive.Format
	Err    error
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation for the %s format", e.Format)
}

func (e *UnsupportedOperationError) Unwrap() error { return e.Err }
