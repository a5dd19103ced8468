package mm

import (
	"fmt"

	"github.com/joshuapare/pagealloc/internal/format"
)

// ValidationError describes the first structural problem Check found.
type ValidationError struct {
	Type    string
	Message string
	Extent  int // index of the extent, -1 when the chain itself is at fault
	Offset  int // offset within the extent, -1 when not applicable
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s in extent %d at offset 0x%X: %s", e.Type, e.Extent, e.Offset, e.Message)
	}
	if e.Extent >= 0 {
		return fmt.Sprintf("%s in extent %d: %s", e.Type, e.Extent, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Check walks every extent oldest to newest and verifies:
//
//   - page header and footer links agree with the extent chain
//   - every block is 16-byte aligned, at least format.MinBlockSize and
//     stays inside the block run
//   - block sizes sum to the usable span and end on a zero-size allocated
//     terminator
//   - no two free blocks are adjacent
//   - the per-extent free byte count matches the free blocks found
//
// It returns a *ValidationError for the first violation, or nil. Check never
// panics on a damaged heap.
func (h *Heap) Check() error {
	if !h.ready {
		return ErrNotInitialized
	}
	if len(h.extents) == 0 {
		return &ValidationError{Type: "Chain", Message: "no extents", Extent: -1, Offset: -1}
	}
	for i := range h.extents {
		if err := h.checkExtent(i); err != nil {
			return err
		}
	}
	return nil
}

// Healthy reports whether Check finds the heap consistent.
func (h *Heap) Healthy() bool {
	return h.Check() == nil
}

func (h *Heap) checkExtent(i int) error {
	e := &h.extents[i]
	mem := e.mem

	fail := func(typ string, off int, msg string, args ...any) error {
		return &ValidationError{
			Type:    typ,
			Message: fmt.Sprintf(msg, args...),
			Extent:  i,
			Offset:  off,
		}
	}

	if len(mem) < format.LayoutOverhead+format.MinBlockSize || len(mem)&format.AlignmentMask != 0 {
		return fail("ExtentLayout", -1, "invalid extent size %d", len(mem))
	}
	if !format.IsAligned(uint64(e.base)) {
		return fail("ExtentLayout", -1, "base 0x%X not aligned", uint64(e.base))
	}

	wantPrev := format.NoPrev
	if i > 0 {
		prev := &h.extents[i-1]
		wantPrev = uint64(prev.base)
		if e.base != prev.end() {
			return fail("Chain", -1, "base 0x%X does not follow previous extent end 0x%X",
				uint64(e.base), uint64(prev.end()))
		}
	}
	if got := format.ReadPageHeader(mem); got != wantPrev {
		return fail("PageHeader", 0, "back-link 0x%X, expected 0x%X", got, wantPrev)
	}

	wantNext := format.NoNext
	if i+1 < len(h.extents) {
		wantNext = uint64(h.extents[i+1].base)
	}
	if got := format.ReadPageFooter(mem); got != wantNext {
		return fail("PageFooter", len(mem)-format.PageFooterSize,
			"forward-link 0x%X, expected 0x%X", got, wantNext)
	}

	term := e.terminator()
	span, free := 0, 0
	prevFree := false
	for hdr := format.FirstBlock; hdr < term; {
		blk, err := format.ParseBlock(mem, hdr, term)
		if err != nil {
			return fail("Block", hdr, "%v", err)
		}
		if blk.Size < format.MinBlockSize {
			return fail("Block", hdr, "size %d below minimum %d", blk.Size, format.MinBlockSize)
		}
		if !blk.Allocated {
			if prevFree {
				return fail("Coalesce", hdr, "free block follows another free block")
			}
			free += blk.Size
		}
		prevFree = !blk.Allocated
		span += blk.Size
		hdr = blk.End()
	}

	if want := format.UsableSpan(len(mem)); span != want {
		return fail("BlockRun", -1, "block sizes sum to %d, usable span is %d", span, want)
	}
	if format.BlockSize(mem, term) != 0 || !format.IsAllocated(mem, term) {
		return fail("Terminator", term, "expected zero-size allocated sentinel, got size %d allocated=%v",
			format.BlockSize(mem, term), format.IsAllocated(mem, term))
	}
	if free != e.free {
		return fail("FreeAccounting", -1, "found %d free bytes, extent records %d", free, e.free)
	}
	return nil
}
