package builtin

import (
	"archive/tar"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/engine"
)

// tarArchive writes uncompressed tar containers. Tar is copy-only, so no
// properties apply; when existing is set its entries are carried over
// unless an incoming item shadows them.
type tarArchive struct {
	logger   *zap.Logger
	existing *tar.Reader
}

func (a *tarArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	tw := tar.NewWriter(out)

	replaced := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		item, err := cb.ItemAt(i)
		if err != nil {
			return err
		}
		replaced[item.Name] = true
	}

	if a.existing != nil {
		for {
			header, err := a.existing.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				cb.ReportError(fmt.Sprintf("cannot read existing archive: %v", err))
				return err
			}
			if replaced[header.Name] {
				a.logger.Debug("replacing archive entry", zap.String("name", header.Name))
				continue
			}
			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			if _, err := io.Copy(tw, a.existing); err != nil {
				cb.ReportError(fmt.Sprintf("cannot carry over entry %q: %v", header.Name, err))
				return err
			}
		}
	}

	err := run(cb, count, func(item engine.Item) error {
		if item.Size < 0 {
			return fmt.Errorf("tar entries need a known size, %q has none", item.Name)
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:    item.Name,
			Mode:    0o644,
			Size:    item.Size,
			ModTime: time.Now(),
		}); err != nil {
			return err
		}
		return copyItem(tw, item)
	})
	if err != nil {
		return err
	}

	return tw.Close()
}

type tarInput struct {
	logger *zap.Logger
	r      io.ReaderAt
	size   int64
}

func (in *tarInput) Updatable() (engine.OutArchive, error) {
	section := io.NewSectionReader(in.r, 0, in.size)
	return &tarArchive{logger: in.logger, existing: tar.NewReader(section)}, nil
}

func (in *tarInput) Close() error { return nil }
