package session

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiVolumeSink_RollsAtThreshold(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := newMultiVolumeSink(fs, "/arc.7z", 5)

	n, err := sink.Write([]byte("0123456789ab"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	require.NoError(t, sink.Close())

	first, err := afero.ReadFile(fs, "/arc.7z.001")
	require.NoError(t, err)
	assert.Equal(t, "01234", string(first))

	second, err := afero.ReadFile(fs, "/arc.7z.002")
	require.NoError(t, err)
	assert.Equal(t, "56789", string(second))

	third, err := afero.ReadFile(fs, "/arc.7z.003")
	require.NoError(t, err)
	assert.Equal(t, "ab", string(third))
}

func TestMultiVolumeSink_ManySmallWrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := newMultiVolumeSink(fs, "/arc.7z", 4)

	for i := 0; i < 6; i++ {
		_, err := sink.Write([]byte("xy"))
		require.NoError(t, err)
	}
	require.NoError(t, sink.Close())

	for _, name := range []string{"/arc.7z.001", "/arc.7z.002", "/arc.7z.003"} {
		content, err := afero.ReadFile(fs, name)
		require.NoError(t, err)
		assert.Len(t, content, 4)
	}
	exists, _ := afero.Exists(fs, "/arc.7z.004")
	assert.False(t, exists)
}

func TestMultiVolumeSink_ExactMultipleLeavesNoEmptyPart(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := newMultiVolumeSink(fs, "/arc.7z", 4)

	_, err := sink.Write([]byte("01234567"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	exists, _ := afero.Exists(fs, "/arc.7z.003")
	assert.False(t, exists, "an exact multiple of the part size must not open an empty part")
}

func TestMultiVolumeSink_CloseWithoutWrites(t *testing.T) {
	sink := newMultiVolumeSink(afero.NewMemMapFs(), "/arc.7z", 4)
	require.NoError(t, sink.Close())
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &writerSink{w: &buf}

	_, err := sink.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.Equal(t, "data", buf.String())
}
