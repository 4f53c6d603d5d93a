package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitReplaces(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	f, err := Create(dest)
	require.NoError(t, err)
	_, err = f.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, f.Commit())

	blob, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(blob))

	// committed, so the deferred cancel pattern is a no-op
	assert.NoError(t, f.Cancel())
	_, err = f.Write([]byte("x"))
	assert.Error(t, err)
}

func TestCancelKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	f, err := Create(dest)
	require.NoError(t, err)
	_, err = f.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, f.Cancel())

	blob, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(blob))

	// no stray temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, WriteFile(dest, []byte("payload")))
	blob, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(blob))
}
