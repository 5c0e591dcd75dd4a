// Package session orchestrates a single archive creation or update
// operation: it serializes the configuration into engine properties,
// acquires the right output sink variant, drives the engine's update
// operation and, for in-place updates, performs the temp-file swap that
// makes the update crash safe.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/archive"
	"github.com/almarkwork/sevenpack/internal/engine"
)

// Session runs creation/update operations for one configuration. A session
// assumes operations against the same target are serialized by the caller;
// it provides no internal locking.
type Session struct {
	eng    engine.Engine
	cfg    *archive.CreatorConfig
	fs     afero.Fs
	logger *zap.Logger
}

type Option func(*Session)

// WithFs replaces the filesystem the session writes through.
func WithFs(fs afero.Fs) Option {
	return func(s *Session) { s.fs = fs }
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func New(eng engine.Engine, cfg *archive.CreatorConfig, opts ...Option) *Session {
	s := &Session{
		eng:    eng,
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// priorArchive owns the read handle over the archive being updated. Both
// the engine handle and the underlying file must be released before the
// temp file is renamed over the original; renaming a path that still has
// open handles against it is unsafe on common file systems.
type priorArchive struct {
	arc  engine.InputArchive
	file afero.File
}

func (p *priorArchive) Close() error {
	return errors.Join(p.arc.Close(), p.file.Close())
}

// CompressToPath writes the configured archive to the given path, updating
// it in place via a temp-file swap when the path already exists and update
// mode allows it.
func (s *Session) CompressToPath(path string, items []engine.Item) error {
	// The multi-volume stream has no update protocol; rather than silently
	// ignoring update mode, the combination is rejected up front.
	if s.cfg.VolumeSize() > 0 && s.cfg.UpdateMode() {
		return &WriteError{Path: path, Msg: "update mode is not supported with multi-volume output"}
	}

	if s.cfg.VolumeSize() > 0 {
		out, err := s.newOutArchive()
		if err != nil {
			return &WriteError{Path: path, Msg: "cannot configure output archive", Err: err}
		}
		s.logger.Debug("creating multi-volume archive",
			zap.String("path", path), zap.Uint64("volume_size", s.cfg.VolumeSize()))
		return s.compress(out, newMultiVolumeSink(s.fs, path, s.cfg.VolumeSize()), items, path)
	}

	file, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		// The update path derives its engine handle from the archive being
		// updated; no fresh handle is created for it.
		return s.updateExisting(path, items)
	}
	if err != nil {
		return &WriteError{Path: path, Msg: "cannot create output archive file", Err: err}
	}

	out, err := s.newOutArchive()
	if err != nil {
		// The file was created for this operation only; a configuration
		// failure must not leave an empty archive behind.
		s.discardFile(file, path)
		return &WriteError{Path: path, Msg: "cannot configure output archive", Err: err}
	}
	s.logger.Debug("creating new archive", zap.String("path", path))
	return s.compress(out, file, items, path)
}

// CompressToWriter streams the configured archive to a caller-provided
// writer, such as an in-memory buffer. Update mode has no meaning here.
func (s *Session) CompressToWriter(w io.Writer, items []engine.Item) error {
	out, err := s.newOutArchive()
	if err != nil {
		return &WriteError{Msg: "cannot configure output archive", Err: err}
	}
	return s.compress(out, &writerSink{w: w}, items, "")
}

// newOutArchive creates a fresh engine handle with the serialized
// configuration applied. Property failures abort before any stream exists.
func (s *Session) newOutArchive() (engine.OutArchive, error) {
	out, err := s.eng.CreateOutArchive(s.cfg.Format())
	if err != nil {
		return nil, err
	}
	if err := engine.ApplyProperties(out, archive.BuildProperties(s.cfg)); err != nil {
		return nil, err
	}
	return out, nil
}

// updateExisting rewrites the pre-existing archive at path: the engine
// writes a new archive to a temporary sibling, seeded with the existing
// entries, and the temp file replaces the original only after the engine
// reports success and every handle is closed.
func (s *Session) updateExisting(path string, items []engine.Item) error {
	format := s.cfg.Format()

	if !s.cfg.UpdateMode() {
		return &WriteError{Path: path, Msg: "cannot update existing archive file without update mode"}
	}
	if !format.HasFeature(archive.MultipleFiles) {
		return &WriteError{
			Path: path,
			Msg:  fmt.Sprintf("the %s format does not support updating existing archive files", format),
		}
	}

	tmpPath := path + ".tmp"
	tmp, err := s.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &WriteError{Path: path, Msg: "cannot create temp archive file", Err: err}
	}

	prior, out, err := s.openPrior(path)
	if err != nil {
		s.discardFile(tmp, tmpPath)
		return err
	}
	if err := engine.ApplyProperties(out, archive.BuildProperties(s.cfg)); err != nil {
		_ = prior.Close()
		s.discardFile(tmp, tmpPath)
		return &WriteError{Path: path, Msg: "cannot configure output archive", Err: err}
	}

	s.logger.Debug("updating existing archive",
		zap.String("path", path), zap.String("temp", tmpPath))

	cb := engine.NewCallback(items, s.cfg.Password(), s.logger)
	if err := s.runUpdate(out, tmp, cb); err != nil {
		_ = prior.Close()
		s.discardFile(tmp, tmpPath)
		return err
	}

	if err := prior.Close(); err != nil {
		s.discardFile(tmp, tmpPath)
		return &WriteError{Path: path, Msg: "cannot close archive being updated", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Msg: "cannot close temp archive file", Err: err}
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		// The temp file is left on disk for manual recovery; the original
		// archive is untouched.
		return &WriteError{Path: path, Msg: "cannot finalize updated archive", Err: err}
	}
	return nil
}

// openPrior opens the existing archive read-only and derives an updatable
// engine handle pre-seeded with its entries.
func (s *Session) openPrior(path string) (*priorArchive, engine.OutArchive, error) {
	file, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, &WriteError{Path: path, Msg: "cannot open existing archive", Err: err}
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, &WriteError{Path: path, Msg: "cannot open existing archive", Err: err}
	}
	arc, err := s.eng.OpenArchive(s.cfg.Format(), file, info.Size())
	if err != nil {
		_ = file.Close()
		return nil, nil, &WriteError{Path: path, Msg: "cannot open existing archive", Err: err}
	}
	out, err := arc.Updatable()
	if err != nil {
		_ = arc.Close()
		_ = file.Close()
		return nil, nil, &WriteError{Path: path, Msg: "cannot open existing archive for update", Err: err}
	}
	return &priorArchive{arc: arc, file: file}, out, nil
}

// discardFile closes and removes a file this operation created but will
// not keep.
func (s *Session) discardFile(file afero.File, path string) {
	if err := file.Close(); err != nil {
		s.logger.Warn("failed to close discarded archive file", zap.String("path", path), zap.Error(err))
	}
	if err := s.fs.Remove(path); err != nil {
		s.logger.Warn("failed to remove discarded archive file", zap.String("path", path), zap.Error(err))
	}
}

// compress drives the engine into the sink and closes it on every path.
func (s *Session) compress(out engine.OutArchive, sink Sink, items []engine.Item, path string) error {
	cb := engine.NewCallback(items, s.cfg.Password(), s.logger)
	if err := s.runUpdate(out, sink, cb); err != nil {
		_ = sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return &WriteError{Path: path, Msg: "cannot close output archive", Err: err}
	}
	return nil
}

// runUpdate invokes the engine and interprets its result: a not-implemented
// report is an unsupported operation, a generic failure with no callback
// message gets a generic description, and anything else surfaces the
// callback's message verbatim.
func (s *Session) runUpdate(out engine.OutArchive, sink io.Writer, cb engine.UpdateCallback) error {
	err := out.UpdateItems(sink, cb.ItemCount(), cb)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrNotImplemented):
		return &UnsupportedOperationError{Format: s.cfg.Format(), Err: err}
	case errors.Is(err, engine.ErrFailed) && cb.ErrorMessage() == "":
		return &WriteError{Msg: "failed operation (unknown error)", Err: err}
	default:
		msg := cb.ErrorMessage()
		if msg == "" {
			msg = err.Error()
		}
		return &WriteError{Msg: msg, Err: err}
	}
}
