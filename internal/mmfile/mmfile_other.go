//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

// Package mmfile maps page-aligned windows of a file read-write and shared,
// so stores through the mapping land in the file.
package mmfile

import (
	"errors"
	"os"
)

// Supported reports whether file windows can be mapped on this platform.
const Supported = false

// ErrNoSpace indicates the file system refused to grow the backing file.
var ErrNoSpace = errors.New("mmfile: no space to extend file")

// Window is not available on this platform.
func Window(*os.File, int64, int) ([]byte, error) {
	return nil, errors.ErrUnsupported
}

// Unmap is not available on this platform.
func Unmap([]byte) error { return errors.ErrUnsupported }

// Sync is not available on this platform.
func Sync([]byte) error { return errors.ErrUnsupported }
