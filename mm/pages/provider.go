// Package pages supplies the page-mapping primitive the allocator builds on.
//
// A Provider hands out zero-filled, page-sized regions on demand and reports
// failure distinctly from success. Regions are independent: the allocator
// never asks a provider to move or resize one. Providers that can give
// memory back also implement Releaser.
//
// Implementations:
//
//   - Mmap: anonymous private mappings (golang.org/x/sys/unix) where
//     available, Go heap slices elsewhere
//   - Heap: Go heap slices with a fixed 4KB page size
//   - File: shared windows of a growing backing file, flushed with Sync
//   - Limited: caps the total bytes another provider may hand out, used to
//     exercise exhaustion paths
package pages

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the page size used when the platform does not report one.
const DefaultPageSize = 4096

var (
	// ErrExhausted indicates the provider has no more address space to give.
	ErrExhausted = errors.New("pages: address space exhausted")

	// ErrUnaligned indicates a request that is not a positive multiple of the page size.
	ErrUnaligned = errors.New("pages: size must be a positive multiple of the page size")
)

// Provider maps fresh extents.
type Provider interface {
	// Map returns a zero-filled, writable region of exactly n bytes.
	// n must be a positive multiple of PageSize.
	Map(n int) ([]byte, error)

	// PageSize returns the native page size in bytes (a power of two).
	PageSize() int
}

// Releaser is implemented by providers that can take a region back.
type Releaser interface {
	// Unmap releases a region previously returned by Map. The slice must be
	// the one Map returned, not a sub-slice.
	Unmap(b []byte) error
}

func checkSize(n, pageSize int) error {
	if n <= 0 || n%pageSize != 0 {
		return fmt.Errorf("%w (got %d, page %d)", ErrUnaligned, n, pageSize)
	}
	return nil
}
