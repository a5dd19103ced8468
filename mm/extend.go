package mm

import (
	"fmt"
	"math"

	"github.com/joshuapare/pagealloc/internal/format"
	"github.com/joshuapare/pagealloc/mm/pages"
)

// GrowByPages maps a new extent of exactly numPages provider pages and makes
// it current. Alloc grows on its own; this is for callers that want to
// reserve space up front.
func (h *Heap) GrowByPages(numPages int) error {
	if !h.ready {
		return ErrNotInitialized
	}
	if numPages <= 0 {
		return fmt.Errorf("%w: %d pages", ErrBadSize, numPages)
	}
	if numPages > math.MaxInt/h.p.PageSize() {
		return fmt.Errorf("%w: %d pages", ErrBadSize, numPages)
	}
	size := numPages * h.p.PageSize()
	if size < format.LayoutOverhead+format.MinBlockSize {
		return fmt.Errorf("%w: %d pages", ErrBadSize, numPages)
	}
	if err := h.grow(size); err != nil {
		return fmt.Errorf("%w: %w", ErrGrowFail, err)
	}
	return nil
}

// grow maps an extent of size bytes, formats it and links it after the
// current extent. The provider is called before anything is written, so a
// refusal leaves the chain exactly as it was.
func (h *Heap) grow(size int) error {
	mem, err := h.p.Map(size)
	if err != nil {
		return err
	}
	if len(mem) != size {
		h.release(mem)
		return fmt.Errorf("provider returned %d bytes, want %d", len(mem), size)
	}

	prev := format.NoPrev
	if n := len(h.extents); n > 0 {
		prev = uint64(h.extents[n-1].base)
	}
	if err := format.FormatExtent(mem, prev); err != nil {
		h.release(mem)
		return err
	}

	base := h.cursor
	if n := len(h.extents); n > 0 {
		format.WritePageFooter(h.extents[n-1].mem, uint64(base))
	}
	h.extents = append(h.extents, extent{
		base: base,
		mem:  mem,
		free: format.UsableSpan(size),
	})
	h.cursor += Ptr(size)

	h.stats.GrowCalls++
	h.stats.GrowBytes += int64(size)

	h.log.Debug("grow: extent linked",
		"extent", len(h.extents)-1,
		"base", fmt.Sprintf("0x%X", uint64(base)),
		"size", size,
		"usable", format.UsableSpan(size),
	)

	if h.onGrow != nil {
		h.onGrow(size)
	}
	return nil
}

// release hands a region that never joined the chain back to the provider.
func (h *Heap) release(mem []byte) {
	if r, ok := h.p.(pages.Releaser); ok {
		if err := r.Unmap(mem); err != nil {
			h.log.Warn("grow: unmap of rejected extent failed", "err", err)
		}
	}
}
