package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meta() Meta {
	now := time.Now()
	return Meta{
		ID:         "rec1",
		BaseName:   "screenrecording",
		MimeType:   "video/webm;codecs=vp8,opus",
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}
}

func readAll(t *testing.T, a *Artifact) string {
	t.Helper()
	r, err := a.Open()
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestBuffer_KeepsEmissionOrder(t *testing.T) {
	b := NewBuffer("")
	var want string
	for i := 0; i < 50; i++ {
		c := fmt.Sprintf("chunk-%02d|", i)
		want += c
		require.NoError(t, b.WriteChunk(t.Context(), []byte(c)))
	}

	a, err := b.Finalize(t.Context(), meta())
	require.NoError(t, err)
	assert.Equal(t, "screenrecording.webm", a.Filename)
	assert.Equal(t, 50, a.Chunks)
	assert.Equal(t, int64(len(want)), a.Size)
	assert.Empty(t, a.Path)
	assert.Equal(t, want, readAll(t, a))
}

func TestBuffer_CopiesChunks(t *testing.T) {
	b := NewBuffer("")
	chunk := []byte("abc")
	require.NoError(t, b.WriteChunk(t.Context(), chunk))
	chunk[0] = 'x'

	a, err := b.Finalize(t.Context(), meta())
	require.NoError(t, err)
	assert.Equal(t, "abc", readAll(t, a))
}

func TestBuffer_ZeroChunksIsEmptyArtifact(t *testing.T) {
	b := NewBuffer("")
	a, err := b.Finalize(t.Context(), meta())
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.Size)
	assert.Equal(t, 0, a.Chunks)
	assert.Equal(t, "", readAll(t, a))
}

func TestBuffer_UnknownMimeHasNoExtension(t *testing.T) {
	b := NewBuffer("")
	m := meta()
	m.MimeType = "video/x-unknown"
	a, err := b.Finalize(t.Context(), m)
	require.NoError(t, err)
	assert.Equal(t, "screenrecording", a.Filename)
}

func TestBuffer_WritesToDir(t *testing.T) {
	dir := t.TempDir()
	b := NewBuffer(dir)
	require.NoError(t, b.WriteChunk(t.Context(), []byte("hello")))

	a, err := b.Finalize(t.Context(), meta())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rec1-screenrecording.webm"), a.Path)
	assert.Equal(t, "screenrecording.webm", a.Filename)

	got, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, "hello", readAll(t, a))
}

func TestBuffer_FinalizeOnce(t *testing.T) {
	b := NewBuffer("")
	_, err := b.Finalize(t.Context(), meta())
	require.NoError(t, err)

	_, err = b.Finalize(t.Context(), meta())
	require.ErrorIs(t, err, ErrFinalized)
	require.ErrorIs(t, b.WriteChunk(t.Context(), []byte("late")), ErrFinalized)
}

func TestFile_StreamsChunksToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "capture.webm")
	f, err := NewFile(path)
	require.NoError(t, err)

	require.NoError(t, f.WriteChunk(t.Context(), []byte("one-")))
	// bytes are on disk before finalization
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one-", string(got))

	require.NoError(t, f.WriteChunk(t.Context(), []byte("two")))
	a, err := f.Finalize(t.Context(), meta())
	require.NoError(t, err)

	assert.Equal(t, "capture.webm", a.Filename)
	assert.Equal(t, path, a.Path)
	assert.Equal(t, 2, a.Chunks)
	assert.Equal(t, int64(7), a.Size)
	assert.Equal(t, "one-two", readAll(t, a))

	_, err = f.Finalize(t.Context(), meta())
	require.ErrorIs(t, err, ErrFinalized)
}

func TestFile_AbortRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.webm")
	f, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteChunk(t.Context(), []byte("partial")))

	require.NoError(t, f.Abort())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, f.Abort())
}

func TestFile_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewFile(filepath.Join(blocker, "capture.webm"))
	require.Error(t, err)
}
