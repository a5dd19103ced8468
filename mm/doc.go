// Package mm provides a first-fit block allocator over page-granular extents.
//
// # Overview
//
// A Heap requests whole multi-page extents from a pages.Provider and carves
// them into 16-byte aligned blocks. Each block is preceded by a 16-byte
// header recording its size and an allocated flag; blocks are walked
// forward by size, so no footer is needed. Each extent is bracketed by a
// page header (back-link to the previous extent) and a page footer
// (forward-link to the next one), and its block run ends with a zero-size
// allocated terminator.
//
// # Heap Interface
//
//   - Alloc(n): return a payload of at least n bytes
//   - Free(p): release a payload, coalescing with free neighbours
//   - Realloc(p, n): move a payload into a block of at least n bytes
//   - CanFree(p): report whether Free(p) is currently valid
//   - Check(): walk every extent and verify the layout
//   - GrowByPages(n): map an extra n-page extent up front
//   - Payload(p), Blocks(), Stats(), Image(): inspect live state
//
// # Usage Example
//
//	h, err := mm.New(pages.NewMmap(), nil)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	p, buf, err := h.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	if err := h.Free(p); err != nil {
//	    return err
//	}
//
// # Placement
//
// Allocation is first-fit in address order, always starting from the oldest
// extent. When nothing fits, a new extent is mapped and the request is placed
// at its start without rescanning. A chosen block is split when its surplus
// exceeds format.SplitThreshold (32 bytes); smaller surpluses stay with the
// allocation as internal fragmentation.
//
// # Addresses
//
// Ptr values are addresses in a private virtual space: the first extent
// starts at 0x1000 and later extents follow contiguously in mapping order.
// Nil (0) is never a valid payload. Use Payload to get the bytes behind a Ptr.
//
// # Thread Safety
//
// Heap instances are not thread-safe. Callers must synchronize access
// externally.
//
// # Related Packages
//
//   - github.com/joshuapare/pagealloc/mm/pages: page providers (anonymous
//     mmap, Go heap, file-backed, capped)
//   - github.com/joshuapare/pagealloc/internal/format: block and page codecs
package mm
