package engine

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Callback is the default UpdateCallback: it serves a fixed item list,
// logs progress and records the last error an engine reports.
type Callback struct {
	items    []Item
	password string
	logger   *zap.Logger

	total     uint64
	completed uint64
	errMsg    string
}

func NewCallback(items []Item, password string, logger *zap.Logger) *Callback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Callback{items: items, password: password, logger: logger}
}

func (c *Callback) ItemCount() int { return len(c.items) }

func (c *Callback) ItemAt(i int) (Item, error) {
	if i < 0 || i >= len(c.items) {
		return Item{}, fmt.Errorf("item index %d out of range [0, %d)", i, len(c.items))
	}
	return c.items[i], nil
}

func (c *Callback) SetTotal(total uint64) {
	c.total = total
	c.logger.Debug("compression started", zap.Uint64("total_bytes", total))
}

func (c *Callback) SetCompleted(completed uint64) {
	c.completed = completed
	c.logger.Debug("compression progress",
		zap.Uint64("completed_bytes", completed), zap.Uint64("total_bytes", c.total))
}

func (c *Callback) Password() string { return c.password }

func (c *Callback) ReportError(msg string) {
	c.errMsg = msg
	c.logger.Debug("engine reported error", zap.String("message", msg))
}

func (c *Callback) ErrorMessage() string { return c.errMsg }

// FileItems builds archive items from a list of file paths. Each item is
// stored under its base name and opened lazily, so a file's content is only
// read while the engine processes it. Directory traversal is the caller's
// concern.
func FileItems(fs afero.Fs, paths []string) ([]Item, error) {
	items := make([]Item, 0, len(paths))
	for _, path := range paths {
		info, err := fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot stat input file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("input %q is a directory, expected a file", path)
		}

		items = append(items, Item{
			Name: filepath.Base(path),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) {
				return fs.Open(path)
			},
		})
	}
	return items, nil
}
