package pages

// Heap maps extents from the Go heap. It never runs out on its own; wrap it
// with Limit to model a bounded address space.
type Heap struct {
	pageSize int
}

// NewHeap returns a heap-backed provider with DefaultPageSize pages.
func NewHeap() *Heap {
	return &Heap{pageSize: DefaultPageSize}
}

// Map implements Provider.
func (h *Heap) Map(n int) ([]byte, error) {
	if err := checkSize(n, h.pageSize); err != nil {
		return nil, err
	}
	return make([]byte, n), nil
}

// PageSize implements Provider.
func (h *Heap) PageSize() int { return h.pageSize }

// Unmap implements Releaser. The garbage collector reclaims the slice.
func (h *Heap) Unmap([]byte) error { return nil }

var (
	_ Provider = (*Heap)(nil)
	_ Releaser = (*Heap)(nil)
)
