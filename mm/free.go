package mm

import (
	"fmt"

	"github.com/joshuapare/pagealloc/internal/format"
)

// Free releases the block at p and merges it with free neighbours in the
// same extent.
//
// Free(Nil) is a no-op. A pointer that is not the payload address of a
// block in this heap yields ErrBadRef; releasing a block twice yields
// ErrNotAllocated. In both cases the heap is left unchanged.
func (h *Heap) Free(p Ptr) error {
	if !h.ready {
		return ErrNotInitialized
	}
	if p == Nil {
		return nil
	}

	i, hdr, prev, err := h.locate(p)
	if err != nil {
		h.log.Warn("free: rejected", "ptr", fmt.Sprintf("0x%X", uint64(p)), "err", err)
		return err
	}
	e := &h.extents[i]
	mem := e.mem

	if !format.IsAllocated(mem, hdr) {
		h.log.Warn("free: double release", "ptr", fmt.Sprintf("0x%X", uint64(p)))
		return fmt.Errorf("%w: 0x%X", ErrNotAllocated, uint64(p))
	}

	h.stats.FreeCalls++
	sz := format.BlockSize(mem, hdr)
	h.stats.BytesFreed += int64(sz)
	e.free += sz
	format.SetAllocated(mem, hdr, false)

	// Coalesce forward. The terminator is marked allocated, so this never
	// runs past the end of the block run.
	next := hdr + sz
	if !format.IsAllocated(mem, next) {
		h.stats.CoalesceForward++
		sz += format.BlockSize(mem, next)
		format.SetBlockSize(mem, hdr, sz)
	}

	// Coalesce backward.
	if prev >= 0 && !format.IsAllocated(mem, prev) {
		h.stats.CoalesceBackward++
		format.SetBlockSize(mem, prev, format.BlockSize(mem, prev)+sz)
	}

	return nil
}

// CanFree reports whether p is the payload address of a currently allocated
// block, i.e. whether Free(p) would succeed and release something.
func (h *Heap) CanFree(p Ptr) bool {
	if !h.ready || p == Nil {
		return false
	}
	i, hdr, _, err := h.locate(p)
	if err != nil {
		return false
	}
	return format.IsAllocated(h.extents[i].mem, hdr)
}
