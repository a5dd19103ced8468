package writer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWriter_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heap.img")
	require.NoError(t, os.WriteFile(path, []byte("old image"), 0o600))

	w := &FileWriter{Path: path}
	require.NoError(t, w.WriteImage([]byte{1, 2, 3, 4}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, DefaultPerm, info.Mode().Perm())
	}
}

func TestFileWriter_Perm(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "heap.img")
	w := &FileWriter{Path: path, Perm: 0o600}
	require.NoError(t, w.WriteImage([]byte("x")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileWriter_MissingDir(t *testing.T) {
	w := &FileWriter{Path: filepath.Join(t.TempDir(), "nope", "heap.img")}
	require.Error(t, w.WriteImage([]byte("x")))
}

func TestMemWriter(t *testing.T) {
	var w MemWriter
	src := []byte("first")
	require.NoError(t, w.WriteImage(src))
	src[0] = 'F'
	require.Equal(t, []byte("first"), w.Buf, "image must be copied")

	require.NoError(t, w.WriteImage([]byte("2nd")))
	require.Equal(t, []byte("2nd"), w.Buf)
	require.Equal(t, 2, w.Writes)
}
