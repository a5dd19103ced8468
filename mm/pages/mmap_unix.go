//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package pages

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap maps extents as anonymous private memory. The kernel zero-fills them.
type Mmap struct {
	pageSize int
}

// NewMmap returns an mmap-backed provider using the host page size.
func NewMmap() *Mmap {
	return &Mmap{pageSize: unix.Getpagesize()}
}

// Map implements Provider.
func (m *Mmap) Map(n int) ([]byte, error) {
	if err := checkSize(n, m.pageSize); err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		if errors.Is(err, unix.ENOMEM) {
			return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrExhausted, n, err)
		}
		return nil, fmt.Errorf("pages: mmap %d bytes: %w", n, err)
	}
	return mem, nil
}

// PageSize implements Provider.
func (m *Mmap) PageSize() int { return m.pageSize }

// Unmap implements Releaser.
func (m *Mmap) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	err := unix.Munmap(b)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	if err != nil {
		return fmt.Errorf("pages: munmap: %w", err)
	}
	return nil
}

var (
	_ Provider = (*Mmap)(nil)
	_ Releaser = (*Mmap)(nil)
)
