//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestFile(t *testing.T) *File {
	t.Helper()
	p, err := OpenFile(filepath.Join(t.TempDir(), "heap.bin"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestFileMapGrowsBackingFile(t *testing.T) {
	p := openTestFile(t)
	page := p.PageSize()

	a, err := p.Map(2 * page)
	require.NoError(t, err)
	b, err := p.Map(page)
	require.NoError(t, err)
	require.EqualValues(t, 3*page, p.Size())

	for i := range b {
		if b[i] != 0 {
			t.Fatalf("byte %d not zero", i)
		}
	}

	a[0], b[0] = 0xAA, 0xBB
	require.NoError(t, p.Sync())

	raw, err := os.ReadFile(p.Name())
	require.NoError(t, err)
	require.Len(t, raw, 3*page)
	require.Equal(t, byte(0xAA), raw[0])
	require.Equal(t, byte(0xBB), raw[2*page])
}

func TestFileUnmapKeepsContent(t *testing.T) {
	p := openTestFile(t)
	page := p.PageSize()

	a, err := p.Map(page)
	require.NoError(t, err)
	a[7] = 0x42
	require.NoError(t, p.Sync())
	require.NoError(t, p.Unmap(a))
	require.NoError(t, p.Unmap(a), "second Unmap is a no-op")

	// The next window lies past the released one and starts zeroed.
	b, err := p.Map(page)
	require.NoError(t, err)
	require.Zero(t, b[7])
	require.EqualValues(t, 2*page, p.Size())

	raw, err := os.ReadFile(p.Name())
	require.NoError(t, err)
	require.Equal(t, byte(0x42), raw[7])
}

func TestFileRejectsUnalignedAndClosed(t *testing.T) {
	p := openTestFile(t)

	_, err := p.Map(p.PageSize() + 1)
	require.ErrorIs(t, err, ErrUnaligned)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	_, err = p.Map(p.PageSize())
	require.ErrorIs(t, err, os.ErrClosed)
	require.Empty(t, p.Name())
}

func TestFileLimited(t *testing.T) {
	p := openTestFile(t)
	lim := Limit(p, p.PageSize())

	mem, err := lim.Map(p.PageSize())
	require.NoError(t, err)
	_, err = lim.Map(p.PageSize())
	require.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, lim.Unmap(mem))
	require.Zero(t, lim.Used())
}
