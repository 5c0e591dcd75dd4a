package builtin

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/engine"
)

// zipArchive writes zip containers with the store or deflate method. When
// existing is set the output is seeded with that archive's entries; entries
// shadowed by an incoming item of the same name are replaced.
type zipArchive struct {
	logger   *zap.Logger
	existing *zip.Reader
	settings settings
}

func (a *zipArchive) SetProperties(names []string, values []any) error {
	s, err := parseSettings(names, values)
	if err != nil {
		return err
	}
	switch s.method {
	case "", "Copy", "Deflate":
	default:
		return fmt.Errorf("the built-in zip writer does not support the %s method", s.method)
	}
	a.settings = s
	return nil
}

func (a *zipArchive) method() uint16 {
	if a.settings.method == "Copy" {
		return zip.Store
	}
	return zip.Deflate
}

func (a *zipArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	zw := zip.NewWriter(out)
	if a.settings.hasLevel {
		level := flateLevel(a.settings.level)
		zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, level)
		})
	}

	replaced := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		item, err := cb.ItemAt(i)
		if err != nil {
			return err
		}
		replaced[item.Name] = true
	}

	if a.existing != nil {
		for _, f := range a.existing.File {
			if replaced[f.Name] {
				a.logger.Debug("replacing archive entry", zap.String("name", f.Name))
				continue
			}
			if err := a.copyEntry(zw, f); err != nil {
				cb.ReportError(fmt.Sprintf("cannot carry over entry %q: %v", f.Name, err))
				return err
			}
		}
	}

	method := a.method()
	err := run(cb, count, func(item engine.Item) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     item.Name,
			Method:   method,
			Modified: time.Now(),
		})
		if err != nil {
			return err
		}
		return copyItem(w, item)
	})
	if err != nil {
		return err
	}

	return zw.Close()
}

func (a *zipArchive) copyEntry(zw *zip.Writer, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	header := f.FileHeader
	w, err := zw.CreateHeader(&header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		return err
	}
	return nil
}

type zipInput struct {
	logger *zap.Logger
	reader *zip.Reader
}

func openZip(logger *zap.Logger, r io.ReaderAt, size int64) (*zipInput, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("cannot read zip archive: %w", err)
	}
	return &zipInput{logger: logger, reader: reader}, nil
}

func (in *zipInput) Updatable() (engine.OutArchive, error) {
	return &zipArchive{logger: in.logger, existing: in.reader}, nil
}

// Close is a no-op: the underlying file handle is owned and released by the
// session.
func (in *zipInput) Close() error { return nil }
