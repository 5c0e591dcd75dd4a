package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almarkwork/sevenpack/internal/archive"
	"github.com/almarkwork/sevenpack/internal/engine"
)

// mockOutArchive writes a fixed payload and fails on demand.
type mockOutArchive struct {
	payload   []byte
	updateErr error
	reportMsg string

	propNames  []string
	propValues []any
	propErr    error
	propCalls  int

	updates int
}

func (m *mockOutArchive) SetProperties(names []string, values []any) error {
	m.propCalls++
	m.propNames = names
	m.propValues = values
	return m.propErr
}

func (m *mockOutArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	m.updates++
	if m.reportMsg != "" {
		cb.ReportError(m.reportMsg)
	}
	if m.updateErr != nil {
		return m.updateErr
	}
	_, err := out.Write(m.payload)
	return err
}

// bareOutArchive has no property-setting capability.
type bareOutArchive struct{}

func (bareOutArchive) UpdateItems(out io.Writer, count int, cb engine.UpdateCallback) error {
	return nil
}

type mockInputArchive struct {
	updatable engine.OutArchive
	closed    bool
}

func (m *mockInputArchive) Updatable() (engine.OutArchive, error) { return m.updatable, nil }
func (m *mockInputArchive) Close() error {
	m.closed = true
	return nil
}

type mockEngine struct {
	created     engine.OutArchive
	input       *mockInputArchive
	openErr     error
	openCalls   int
	createCalls int
}

func (m *mockEngine) CreateOutArchive(format archive.Format) (engine.OutArchive, error) {
	m.createCalls++
	return m.created, nil
}

func (m *mockEngine) OpenArchive(format archive.Format, r io.ReaderAt, size int64) (engine.InputArchive, error) {
	m.openCalls++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.input, nil
}

// renameFailFs simulates a filesystem where the final swap fails.
type renameFailFs struct {
	afero.Fs
}

func (f *renameFailFs) Rename(oldname, newname string) error {
	return errors.New("rename refused")
}

func items(names ...string) []engine.Item {
	out := make([]engine.Item, len(names))
	for i, name := range names {
		content := []byte("content of " + name)
		out[i] = engine.Item{
			Name: name,
			Size: int64(len(content)),
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(content)), nil
			},
		}
	}
	return out
}

func TestSession_FreshCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	created := &mockOutArchive{payload: []byte("archive-bytes")}
	eng := &mockEngine{created: created}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	s := New(eng, cfg, WithFs(fs))

	require.NoError(t, s.CompressToPath("/out.7z", items("a.txt")))

	content, err := afero.ReadFile(fs, "/out.7z")
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(content))
	assert.Equal(t, 1, created.updates)
	assert.Nil(t, created.propNames, "default config makes no property call")
}

func TestSession_PropertiesReachTheEngine(t *testing.T) {
	fs := afero.NewMemMapFs()
	created := &mockOutArchive{payload: []byte("x")}
	eng := &mockEngine{created: created}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetLevel(archive.LevelUltra)
	cfg.SetSolidMode(true)

	require.NoError(t, New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt")))

	assert.Equal(t, []string{"x", "s"}, created.propNames)
	assert.Equal(t, []any{uint32(9), true}, created.propValues)
}

func TestSession_PropertyFailureAbortsBeforeAnyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	created := &mockOutArchive{propErr: errors.New("bad property")}
	eng := &mockEngine{created: created}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetLevel(archive.LevelUltra)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	exists, statErr := afero.Exists(fs, "/out.7z")
	require.NoError(t, statErr)
	assert.False(t, exists, "no file may be created when properties are rejected")
	assert.Zero(t, created.updates)
}

func TestSession_MissingPropertyCapability(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := &mockEngine{created: bareOutArchive{}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetLevel(archive.LevelUltra)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "cannot configure output archive")
}

func TestSession_ExistingTargetWithoutUpdateMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.7z", []byte("original"), 0o644))
	eng := &mockEngine{created: &mockOutArchive{payload: []byte("new")}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "without update mode")

	content, readErr := afero.ReadFile(fs, "/out.7z")
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(content), "the original archive is untouched")
	exists, _ := afero.Exists(fs, "/out.7z.tmp")
	assert.False(t, exists)
}

func TestSession_ExistingTargetDiagnosedBeforeAnyEngineHandle(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.7z", []byte("original"), 0o644))
	eng := &mockEngine{created: &mockOutArchive{propErr: errors.New("bad property")}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetLevel(archive.LevelUltra)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "without update mode",
		"the update-mode refusal is not masked by a property failure")
	assert.Zero(t, eng.createCalls, "no fresh handle is created for an existing target")
}

func TestSession_ExistingTargetFormatCannotBeUpdated(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.gz", []byte("original"), 0o644))
	eng := &mockEngine{created: &mockOutArchive{}}

	cfg := archive.NewCreatorConfig(archive.GZip)
	cfg.SetUpdateMode(true)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.gz", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "does not support updating")
}

func TestSession_UpdateExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.7z", []byte("original"), 0o644))

	created := &mockOutArchive{payload: []byte("unused")}
	updatable := &mockOutArchive{payload: []byte("updated-archive")}
	input := &mockInputArchive{updatable: updatable}
	eng := &mockEngine{created: created, input: input}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetUpdateMode(true)
	cfg.SetLevel(archive.LevelMax)

	require.NoError(t, New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt")))

	content, err := afero.ReadFile(fs, "/out.7z")
	require.NoError(t, err)
	assert.Equal(t, "updated-archive", string(content), "the target holds the new content")

	exists, _ := afero.Exists(fs, "/out.7z.tmp")
	assert.False(t, exists, "no temp file remains after a successful update")

	assert.True(t, input.closed, "the prior archive handle is released")
	assert.Equal(t, 1, eng.openCalls)
	assert.Zero(t, eng.createCalls, "update mode never creates a fresh handle")
	assert.Zero(t, created.updates)
	assert.Equal(t, 1, updatable.propCalls,
		"properties are applied exactly once, to the updatable handle")
	assert.Equal(t, 1, updatable.updates)
	assert.Equal(t, []string{"x"}, updatable.propNames)
}

func TestSession_UpdateFinalizeRenameFails(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/out.7z", []byte("original"), 0o644))
	fs := &renameFailFs{Fs: mem}

	updatable := &mockOutArchive{payload: []byte("updated-archive")}
	eng := &mockEngine{
		created: &mockOutArchive{},
		input:   &mockInputArchive{updatable: updatable},
	}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetUpdateMode(true)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "cannot finalize updated archive")

	content, readErr := afero.ReadFile(mem, "/out.7z")
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(content), "the original archive is untouched")

	tmp, readErr := afero.ReadFile(mem, "/out.7z.tmp")
	require.NoError(t, readErr, "the temp file is left on disk for manual recovery")
	assert.Equal(t, "updated-archive", string(tmp))
}

func TestSession_UpdateEngineFailureRemovesTemp(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.7z", []byte("original"), 0o644))

	updatable := &mockOutArchive{updateErr: fmt.Errorf("disk exploded")}
	input := &mockInputArchive{updatable: updatable}
	eng := &mockEngine{created: &mockOutArchive{}, input: input}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetUpdateMode(true)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))
	require.Error(t, err)

	content, readErr := afero.ReadFile(fs, "/out.7z")
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(content))

	exists, _ := afero.Exists(fs, "/out.7z.tmp")
	assert.False(t, exists, "a failed update leaves no temp file behind")
	assert.True(t, input.closed)
}

func TestSession_NotImplementedResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := &mockEngine{created: &mockOutArchive{
		updateErr: fmt.Errorf("7z writing: %w", engine.ErrNotImplemented),
	}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, archive.SevenZip, unsupported.Format)
}

func TestSession_GenericFailureWithoutMessage(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := &mockEngine{created: &mockOutArchive{updateErr: engine.ErrFailed}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "failed operation (unknown error)", writeErr.Msg)
}

func TestSession_CallbackMessageSurfacesVerbatim(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := &mockEngine{created: &mockOutArchive{
		updateErr: errors.New("boom"),
		reportMsg: "cannot compress \"a.txt\": permission denied",
	}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "cannot compress \"a.txt\": permission denied", writeErr.Msg)
}

func TestSession_MultiVolume(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := &mockEngine{created: &mockOutArchive{payload: bytes.Repeat([]byte("x"), 10)}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetVolumeSize(4)

	require.NoError(t, New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt")))

	for i, want := range []int{4, 4, 2} {
		content, err := afero.ReadFile(fs, fmt.Sprintf("/out.7z.%03d", i+1))
		require.NoError(t, err)
		assert.Len(t, content, want)
	}
	exists, _ := afero.Exists(fs, "/out.7z.004")
	assert.False(t, exists)
}

func TestSession_MultiVolumeRejectsUpdateMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	eng := &mockEngine{created: &mockOutArchive{}}

	cfg := archive.NewCreatorConfig(archive.SevenZip)
	cfg.SetVolumeSize(4)
	cfg.SetUpdateMode(true)

	err := New(eng, cfg, WithFs(fs)).CompressToPath("/out.7z", items("a.txt"))

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "multi-volume")
}

func TestSession_CompressToWriter(t *testing.T) {
	eng := &mockEngine{created: &mockOutArchive{payload: []byte("in-memory")}}
	cfg := archive.NewCreatorConfig(archive.SevenZip)

	var buf bytes.Buffer
	require.NoError(t, New(eng, cfg).CompressToWriter(&buf, items("a.txt")))
	assert.Equal(t, "in-memory", buf.String())
}
