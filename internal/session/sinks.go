package session

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Sink is the sequential-write destination handed to the engine. All sink
// variants (single file, multi-volume set, caller-provided writer) expose
// the same contract.
type Sink interface {
	io.Writer
	io.Closer
}

// writerSink adapts a caller-provided writer (in-memory buffer, network
// stream) to the sink contract. Closing it is a no-op; the caller owns the
// writer.
type writerSink struct {
	w io.Writer
}

func (s *writerSink) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *writerSink) Close() error                { return nil }

// multiVolumeSink splits the output across numbered part files, rolling to
// the next part whenever the size threshold is reached. Parts are named
// <base>.001, <base>.002 and so on, in sequence.
type multiVolumeSink struct {
	fs       afero.Fs
	base     string
	partSize uint64

	part      afero.File
	partIndex int
	written   uint64
}

func newMultiVolumeSink(fs afero.Fs, base string, partSize uint64) *multiVolumeSink {
	return &multiVolumeSink{fs: fs, base: base, partSize: partSize}
}

func volumeName(base string, index int) string {
	return fmt.Sprintf("%s.%03d", base, index)
}

func (s *multiVolumeSink) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if s.part == nil {
			s.partIndex++
			part, err := s.fs.Create(volumeName(s.base, s.partIndex))
			if err != nil {
				return total, fmt.Errorf("cannot create volume %d: %w", s.partIndex, err)
			}
			s.part = part
			s.written = 0
		}

		chunk := uint64(len(p))
		if remaining := s.partSize - s.written; chunk > remaining {
			chunk = remaining
		}

		n, err := s.part.Write(p[:chunk])
		total += n
		s.written += uint64(n)
		if err != nil {
			return total, err
		}
		p = p[n:]

		if s.written == s.partSize {
			if err := s.part.Close(); err != nil {
				return total, fmt.Errorf("cannot close volume %d: %w", s.partIndex, err)
			}
			s.part = nil
		}
	}
	return total, nil
}

func (s *multiVolumeSink) Close() error {
	if s.part == nil {
		return nil
	}
	part := s.part
	s.part = nil
	return part.Close()
}
