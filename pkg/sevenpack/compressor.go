// Package sevenpack is the public archive-creation API. A Compressor binds
// a format and a compression configuration to an engine and produces or
// updates archives from explicit file lists. Directory traversal and entry
// selection are the caller's concern.
package sevenpack

import (
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/archive"
	"github.com/almarkwork/sevenpack/internal/engine"
	"github.com/almarkwork/sevenpack/internal/engine/builtin"
	"github.com/almarkwork/sevenpack/internal/session"
)

// Format tags re-exported for callers.
const (
	SevenZip = archive.SevenZip
	Zip      = archive.Zip
	Tar      = archive.Tar
	Wim      = archive.Wim
	GZip     = archive.GZip
	BZip2    = archive.BZip2
	Xz       = archive.Xz
)

// Method tags re-exported for callers.
const (
	Copy        = archive.Copy
	PPMd        = archive.PPMd
	LZMA        = archive.LZMA
	LZMA2       = archive.LZMA2
	BZip2Method = archive.BZip2Method
	Deflate     = archive.Deflate
	Deflate64   = archive.Deflate64
)

// Compressor creates and updates archives of a single format.
type Compressor struct {
	config *archive.CreatorConfig
	engine engine.Engine
	fs     afero.Fs
	logger *zap.Logger
}

type Option func(*Compressor)

// WithEngine replaces the built-in engine.
func WithEngine(eng engine.Engine) Option {
	return func(c *Compressor) { c.engine = eng }
}

// WithFs replaces the filesystem inputs are read from and archives are
// written to.
func WithFs(fs afero.Fs) Option {
	return func(c *Compressor) { c.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compressor) { c.logger = logger }
}

// NewCompressor returns a compressor for the given format, configured with
// the format's defaults and backed by the built-in engine unless an option
// says otherwise.
func NewCompressor(format archive.Format, opts ...Option) *Compressor {
	return NewCompressorFromConfig(archive.NewCreatorConfig(format), opts...)
}

// NewCompressorFromConfig wraps an already-built configuration.
func NewCompressorFromConfig(cfg *archive.CreatorConfig, opts ...Option) *Compressor {
	c := &Compressor{
		config: cfg,
		fs:     afero.NewOsFs(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = builtin.New(c.logger)
	}
	return c
}

// Config exposes the mutable compression configuration. It must not be
// mutated while a Compress call is in flight.
func (c *Compressor) Config() *archive.CreatorConfig {
	return c.config
}

// Compress archives the given files at outPath. If outPath already exists
// and update mode is enabled, the archive is updated in place.
func (c *Compressor) Compress(paths []string, outPath string) error {
	items, err := engine.FileItems(c.fs, paths)
	if err != nil {
		return err
	}
	return c.newSession().CompressToPath(outPath, items)
}

// CompressTo archives the given files into the writer, for in-memory or
// streamed destinations.
func (c *Compressor) CompressTo(paths []string, w io.Writer) error {
	items, err := engine.FileItems(c.fs, paths)
	if err != nil {
		return err
	}
	return c.newSession().CompressToWriter(w, items)
}

func (c *Compressor) newSession() *session.Session {
	return session.New(c.engine, c.config,
		session.WithFs(c.fs), session.WithLogger(c.logger))
}
