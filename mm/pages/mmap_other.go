//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package pages

// Mmap falls back to Go heap slices where anonymous mappings are not available.
type Mmap struct {
	Heap
}

// NewMmap returns a heap-backed provider with DefaultPageSize pages.
func NewMmap() *Mmap {
	return &Mmap{Heap: Heap{pageSize: DefaultPageSize}}
}
