//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// Package mmfile maps page-aligned windows of a file read-write and shared,
// so stores through the mapping land in the file.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Supported reports whether file windows can be mapped on this platform.
const Supported = true

// ErrNoSpace indicates the file system refused to grow the backing file.
var ErrNoSpace = errors.New("mmfile: no space to extend file")

// Window extends f to at least off+n bytes and maps [off, off+n). off must be
// a multiple of the OS page size. Bytes added by the extension read as zero.
func Window(f *os.File, off int64, n int) ([]byte, error) {
	if n <= 0 || off < 0 {
		return nil, fmt.Errorf("mmfile: bad window [%d, +%d)", off, n)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if end := off + int64(n); info.Size() < end {
		if err := f.Truncate(end); err != nil {
			if errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EFBIG) {
				return nil, fmt.Errorf("%w: %d bytes: %w", ErrNoSpace, end, err)
			}
			return nil, fmt.Errorf("mmfile: extend to %d bytes: %w", end, err)
		}
	}
	data, err := unix.Mmap(int(f.Fd()), off, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmfile: map %d bytes at %d: %w", n, off, err)
	}
	return data, nil
}

// Unmap releases a window returned by Window.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// Sync flushes a whole window to the file. Darwin requires the address to be
// the one mmap returned, so callers pass the window, not a sub-slice.
func Sync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}
