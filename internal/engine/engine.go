// Package engine defines the boundary to the external compression engine:
// the handles an engine must provide for creating and updating archives,
// the item callback it drives during an update, and the sentinel results
// this layer interprets. The built-in reference implementation lives in the
// builtin subpackage; any other engine satisfying these interfaces can be
// plugged in.
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/almarkwork/sevenpack/internal/archive"
)

var (
	// ErrNotImplemented is reported by an engine when the requested update
	// operation is not implemented for the format or mode.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrFailed is reported by an engine for a generic failure with no
	// further detail; the callback's error message, when present, carries
	// the specifics.
	ErrFailed = errors.New("operation failed")
)

// OutArchive is a writable archive handle obtained from an Engine, either
// freshly created or pre-seeded with an existing archive's entries.
type OutArchive interface {
	// UpdateItems writes the archive to out, pulling the count items to add
	// or replace from the callback. It returns nil on success,
	// ErrNotImplemented when the operation is unsupported, ErrFailed for a
	// generic failure, or any other error the callback can describe.
	UpdateItems(out io.Writer, count int, cb UpdateCallback) error
}

// PropertySetter is the optional property-setting capability of an
// OutArchive, discovered by type assertion. Names and values are parallel;
// values are bool, uint32 or string.
type PropertySetter interface {
	SetProperties(names []string, values []any) error
}

// InputArchive is a read handle over an existing archive, opened to seed an
// in-place update. It must be closed before the updated archive is renamed
// over the original.
type InputArchive interface {
	// Updatable returns a writable handle pre-seeded with the archive's
	// existing entries.
	Updatable() (OutArchive, error)

	io.Closer
}

// Engine creates and opens archives of the supported formats.
type Engine interface {
	// CreateOutArchive returns a writable handle for a new, empty archive.
	CreateOutArchive(format archive.Format) (OutArchive, error)

	// OpenArchive opens an existing archive for update.
	OpenArchive(format archive.Format, r io.ReaderAt, size int64) (InputArchive, error)
}

// Item is a single entry to add to or replace in an archive.
type Item struct {
	// Name is the entry's path inside the archive.
	Name string

	// Size is the entry's uncompressed size in bytes, or -1 when unknown.
	Size int64

	// Open returns a fresh reader over the entry's content.
	Open func() (io.ReadCloser, error)
}

// UpdateCallback supplies items to an engine during UpdateItems and
// collects progress and error detail.
type UpdateCallback interface {
	// ItemCount returns the number of items the update will process.
	ItemCount() int

	// ItemAt returns the item at index i, 0 <= i < ItemCount().
	ItemAt(i int) (Item, error)

	// SetTotal and SetCompleted report overall progress in bytes.
	SetTotal(total uint64)
	SetCompleted(completed uint64)

	// Password returns the configured password, or "" for none.
	Password() string

	// ReportError records a failure description for the current item;
	// ErrorMessage returns the last recorded description, or "".
	ReportError(msg string)
	ErrorMessage() string
}

// ApplyProperties hands the serialized configuration to the archive handle
// through its property-setting capability. An empty list is a no-op: the
// engine's defaults stand. A non-empty list against a handle without the
// capability, or a rejected list, aborts the operation before any data is
// written.
func ApplyProperties(out OutArchive, props []archive.Property) error {
	if len(props) == 0 {
		return nil
	}

	setter, ok := out.(PropertySetter)
	if !ok {
		return errors.New("engine does not support setting archive properties")
	}

	names := make([]string, len(props))
	values := make([]any, len(props))
	for i, p := range props {
		names[i] = p.Name
		values[i] = p.Value
	}

	if err := setter.SetProperties(names, values); err != nil {
		return fmt.Errorf("cannot set properties of the archive: %w", err)
	}
	return nil
}
