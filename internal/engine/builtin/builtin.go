// Package builtin is the reference compression engine. It implements the
// engine boundary with pure-Go codecs: zip (store and deflate, updatable),
// gzip, xz and tar. Formats it cannot write report a not-implemented
// result, which the session layer surfaces as an unsupported operation.
package builtin

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/archive"
	"github.com/almarkwork/sevenpack/internal/engine"
)

type Engine struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

func (e *Engine) CreateOutArchive(format archive.Format) (engine.OutArchive, error) {
	switch format {
	case archive.Zip:
		return &zipArchive{logger: e.logger}, nil
	case archive.Tar:
		return &tarArchive{logger: e.logger}, nil
	case archive.GZip:
		return &gzipArchive{logger: e.logger}, nil
	case archive.Xz:
		return &xzArchive{logger: e.logger}, nil
	default:
		return &unsupportedArchive{format: format}, nil
	}
}

func (e *Engine) OpenArchive(format archive.Format, r io.ReaderAt, size int64) (engine.InputArchive, error) {
	switch format {
	case archive.Zip:
		return openZip(e.logger, r, size)
	case archive.Tar:
		return &tarInput{logger: e.logger, r: r, size: size}, nil
	default:
		return nil, fmt.Errorf("the %s format cannot be opened for update", format)
	}
}

// unsupportedArchive stands in for formats this engine cannot write. It
// accepts properties so a fully configured operation still reaches the
// not-implemented report instead of failing on configuration.
type unsupportedArchive struct {
	format archive.Format
}

func (a *unsupportedArchive) SetProperties(names []string, values []any) error {
	return nil
}

func (a *unsupportedArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	return fmt.Errorf("writing %s archives: %w", a.format, engine.ErrNotImplemented)
}

// settings is the subset of the property vocabulary this engine honors.
type settings struct {
	level    archive.Level
	hasLevel bool
	method   string
	dictCap  uint64
}

// parseSettings decodes parallel name/value arrays. Unknown names are
// ignored rather than rejected, like an engine with a larger vocabulary.
func parseSettings(names []string, values []any) (settings, error) {
	var s settings
	for i, name := range names {
		if i >= len(values) {
			return s, fmt.Errorf("property %q has no value", name)
		}
		switch name {
		case "x":
			level, ok := values[i].(uint32)
			if !ok {
				return s, fmt.Errorf("property %q: expected uint32, got %T", name, values[i])
			}
			s.level = archive.Level(level)
			s.hasLevel = true
		case "m", "0":
			method, ok := values[i].(string)
			if !ok {
				return s, fmt.Errorf("property %q: expected string, got %T", name, values[i])
			}
			s.method = method
		case "d", "0d", "mem", "0mem":
			text, ok := values[i].(string)
			if !ok {
				return s, fmt.Errorf("property %q: expected string, got %T", name, values[i])
			}
			size, err := strconv.ParseUint(strings.TrimSuffix(text, "b"), 10, 64)
			if err != nil {
				return s, fmt.Errorf("property %q: %w", name, err)
			}
			s.dictCap = size
		}
	}
	return s, nil
}

// flateLevel maps the engine's 0-9 ordinal onto the deflate levels this
// codec knows.
func flateLevel(level archive.Level) int {
	switch {
	case level == archive.LevelNone:
		return flate.NoCompression
	case level <= archive.LevelFast:
		return flate.BestSpeed
	case level <= archive.LevelNormal:
		return flate.DefaultCompression
	default:
		return flate.BestCompression
	}
}

// run pushes every callback item through write, reporting progress as each
// item completes. Failures are described through the callback before being
// returned.
func run(cb engine.UpdateCallback, count int, write func(item engine.Item) error) error {
	var total uint64
	for i := 0; i < count; i++ {
		item, err := cb.ItemAt(i)
		if err != nil {
			return err
		}
		if item.Size > 0 {
			total += uint64(item.Size)
		}
	}
	cb.SetTotal(total)

	var completed uint64
	for i := 0; i < count; i++ {
		item, err := cb.ItemAt(i)
		if err != nil {
			return err
		}
		if err := write(item); err != nil {
			cb.ReportError(fmt.Sprintf("cannot compress %q: %v", item.Name, err))
			return err
		}
		if item.Size > 0 {
			completed += uint64(item.Size)
		}
		cb.SetCompleted(completed)
	}
	return nil
}

func copyItem(w io.Writer, item engine.Item) error {
	rc, err := item.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return err
	}
	return nil
}
