package builtin

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/engine"
)

// gzipArchive writes a gzip stream. The container holds exactly one entry.
type gzipArchive struct {
	logger   *zap.Logger
	settings settings
}

func (a *gzipArchive) SetProperties(names []string, values []any) error {
	s, err := parseSettings(names, values)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

func (a *gzipArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	if count != 1 {
		err := fmt.Errorf("a gzip archive holds exactly one entry, got %d", count)
		cb.ReportError(err.Error())
		return err
	}

	level := gzip.DefaultCompression
	if a.settings.hasLevel {
		level = flateLevel(a.settings.level)
	}
	gw, err := gzip.NewWriterLevel(out, level)
	if err != nil {
		return err
	}

	if err := run(cb, count, func(item engine.Item) error {
		gw.Name = item.Name
		return copyItem(gw, item)
	}); err != nil {
		return err
	}

	return gw.Close()
}

// xzArchive writes an xz stream (LZMA2). The container holds exactly one
// entry. A configured dictionary size becomes the LZMA2 dictionary
// capacity.
type xzArchive struct {
	logger   *zap.Logger
	settings settings
}

func (a *xzArchive) SetProperties(names []string, values []any) error {
	s, err := parseSettings(names, values)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

func (a *xzArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	if count != 1 {
		err := fmt.Errorf("an xz archive holds exactly one entry, got %d", count)
		cb.ReportError(err.Error())
		return err
	}

	cfg := xz.WriterConfig{}
	if a.settings.dictCap > 0 {
		cfg.DictCap = int(a.settings.dictCap)
	}
	xw, err := cfg.NewWriter(out)
	if err != nil {
		return err
	}

	if err := run(cb, count, func(item engine.Item) error {
		return copyItem(xw, item)
	}); err != nil {
		return err
	}

	return xw.Close()
}
