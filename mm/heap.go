package mm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/joshuapare/pagealloc/internal/buf"
	"github.com/joshuapare/pagealloc/internal/format"
	"github.com/joshuapare/pagealloc/mm/pages"
)

// Heap is a first-fit allocator over extents mapped from a pages.Provider.
// The zero value is not usable; construct one with New.
type Heap struct {
	p   pages.Provider
	cfg Config
	log *slog.Logger

	// extents is the chain, oldest first. The last entry is the current
	// extent: the one most recently mapped and the one Remaining reports on.
	extents []extent

	// cursor is the virtual base assigned to the next extent.
	cursor Ptr

	ready bool

	stats Counters

	// Test hook: called after an extent is linked (nil in production)
	onGrow func(size int)
}

// New creates a heap over p and maps its first extent.
//
// Parameters:
//   - p: the page provider extents are mapped from
//   - cfg: extent sizing and logging (use nil for DefaultConfig)
func New(p pages.Provider, cfg *Config) (*Heap, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	if cfg == nil {
		cfg = &DefaultConfig
	}

	h := &Heap{
		p:   p,
		cfg: *cfg,
		log: cfg.Logger,
	}
	if h.cfg.PagesPerExtent <= 0 {
		h.cfg.PagesPerExtent = DefaultConfig.PagesPerExtent
	}
	if h.log == nil {
		h.log = defaultLogger()
	}

	if err := h.Init(); err != nil {
		return nil, err
	}
	return h, nil
}

// Init maps the first extent and lays down its header, a single free block,
// the terminator and a NoNext footer. It returns ErrInitialized when the heap
// is already live; a heap that was closed may be initialized again.
func (h *Heap) Init() error {
	if h.ready {
		return ErrInitialized
	}
	if h.p == nil {
		return ErrNoProvider
	}

	h.cursor = baseAddress
	size, ok := h.extentSize(0)
	if !ok {
		return fmt.Errorf("%w: %d pages per extent", ErrBadSize, h.cfg.PagesPerExtent)
	}
	if err := h.grow(size); err != nil {
		return fmt.Errorf("%w: %w", ErrGrowFail, err)
	}
	h.ready = true
	return nil
}

// Alloc returns the address and payload of a block holding at least n bytes.
//
// Alloc(0) returns Nil with no error. When no existing block fits, a new
// extent is mapped; if the provider refuses, Alloc returns an error wrapping
// both ErrNoSpace and the provider's error and the heap is left unchanged.
//
// The payload is not zeroed when a previously released block is reused.
func (h *Heap) Alloc(n int) (Ptr, []byte, error) {
	if !h.ready {
		return Nil, nil, ErrNotInitialized
	}
	if n < 0 {
		return Nil, nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}
	if n == 0 {
		return Nil, nil, nil
	}
	need, ok := blockSizeFor(n)
	if !ok {
		return Nil, nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}

	size, ok := h.extentSize(need)
	if !ok {
		return Nil, nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}

	h.stats.AllocCalls++

	if i, hdr, found := h.findFit(need); found {
		h.stats.AllocFastPath++
		return h.place(i, hdr, need)
	}

	if err := h.grow(size); err != nil {
		h.log.Warn("alloc: extent denied", "need", need, "err", err)
		return Nil, nil, fmt.Errorf("%w: %w", ErrNoSpace, err)
	}
	h.stats.AllocSlowPath++

	// The fresh extent is a single free block; place there directly.
	return h.place(len(h.extents)-1, format.FirstBlock, need)
}

// Realloc moves the payload at p into a block of at least n bytes.
//
// Realloc(Nil, n) behaves like Alloc(n) and Realloc(p, 0) like Free(p). If
// the current block already holds n bytes, p is returned unchanged.
// Otherwise a new block is allocated, the payload copied, and p released; on
// failure p stays allocated and untouched.
func (h *Heap) Realloc(p Ptr, n int) (Ptr, []byte, error) {
	if p == Nil {
		return h.Alloc(n)
	}
	if !h.ready {
		return Nil, nil, ErrNotInitialized
	}
	if n < 0 {
		return Nil, nil, fmt.Errorf("%w: %d", ErrBadSize, n)
	}
	if n == 0 {
		return Nil, nil, h.Free(p)
	}

	old, err := h.Payload(p)
	if err != nil {
		return Nil, nil, err
	}
	if n <= len(old) {
		return p, old, nil
	}

	np, payload, err := h.Alloc(n)
	if err != nil {
		return Nil, nil, err
	}
	copy(payload, old)
	if err := h.Free(p); err != nil {
		return Nil, nil, err
	}
	return np, payload, nil
}

// Payload returns the payload bytes of the allocated block at p.
func (h *Heap) Payload(p Ptr) ([]byte, error) {
	if !h.ready {
		return nil, ErrNotInitialized
	}
	i, hdr, _, err := h.locate(p)
	if err != nil {
		return nil, err
	}
	mem := h.extents[i].mem
	if !format.IsAllocated(mem, hdr) {
		return nil, fmt.Errorf("%w: 0x%X", ErrNotAllocated, uint64(p))
	}
	return payloadOf(mem, hdr), nil
}

// Remaining returns the free bytes left in the current extent. It is a
// coarse figure: free blocks in older extents are not included.
func (h *Heap) Remaining() int {
	if len(h.extents) == 0 {
		return 0
	}
	return h.extents[len(h.extents)-1].free
}

// Extents returns the number of mapped extents.
func (h *Heap) Extents() int { return len(h.extents) }

// Close hands every extent back to the provider if it implements
// pages.Releaser. The heap is uninitialized afterwards; every Ptr it issued
// becomes invalid.
func (h *Heap) Close() error {
	if !h.ready {
		return nil
	}
	var errs []error
	if r, ok := h.p.(pages.Releaser); ok {
		for i := len(h.extents) - 1; i >= 0; i-- {
			if err := r.Unmap(h.extents[i].mem); err != nil {
				errs = append(errs, err)
			}
		}
	}
	h.extents = nil
	h.cursor = 0
	h.ready = false
	return errors.Join(errs...)
}

// ============================================================================
// Internal helpers
// ============================================================================

// maxRequest is the largest payload whose block still fits in an extent
// size representable as an int.
const maxRequest = math.MaxInt - format.LayoutOverhead - format.BlockHeaderSize - format.AlignmentMask

// blockSizeFor converts a payload request into an aligned block size.
func blockSizeFor(n int) (int, bool) {
	if n > maxRequest {
		return 0, false
	}
	return format.Align16(n + format.BlockHeaderSize), true
}

// extentSize returns the size of the extent to map for a block of need
// bytes, or false when that size is not representable.
func (h *Heap) extentSize(need int) (int, bool) {
	pageSize := h.p.PageSize()
	if h.cfg.PagesPerExtent > math.MaxInt/pageSize {
		return 0, false
	}
	size := h.cfg.PagesPerExtent * pageSize

	floor, ok := buf.AddOverflowSafe(max(need, format.MinBlockSize), format.LayoutOverhead)
	if !ok {
		return 0, false
	}
	if size < floor {
		if _, ok := buf.AddOverflowSafe(floor, pageSize-1); !ok {
			return 0, false
		}
		size = format.AlignPage(floor, pageSize)
	}
	return size, true
}

// findFit scans every extent oldest first and returns the first free block of
// at least need bytes. Extents whose free byte count is below need are
// skipped without walking them.
func (h *Heap) findFit(need int) (int, int, bool) {
	for i := range h.extents {
		e := &h.extents[i]
		if e.free < need {
			continue
		}
		mem := e.mem
		term := e.terminator()
		for p := format.PayloadOf(format.FirstBlock); format.HeaderOf(p) < term; p = format.NextBlock(mem, p) {
			hdr := format.HeaderOf(p)
			size := format.BlockSize(mem, hdr)
			if size == 0 {
				break
			}
			if !format.IsAllocated(mem, hdr) && size >= need {
				return i, hdr, true
			}
		}
	}
	return 0, 0, false
}

// place marks the free block at hdr allocated, splitting off the tail when
// the surplus is above the split threshold.
func (h *Heap) place(i, hdr, need int) (Ptr, []byte, error) {
	e := &h.extents[i]
	mem := e.mem

	size := format.BlockSize(mem, hdr)
	if size < need || format.IsAllocated(mem, hdr) {
		return Nil, nil, fmt.Errorf("%w: block at 0x%X holds %d bytes, need %d",
			ErrNoSpace, uint64(e.base)+uint64(hdr), size, need)
	}
	if surplus := size - need; surplus > format.SplitThreshold {
		h.stats.SplitCount++
		format.SetBlockSize(mem, hdr, need)
		format.PutBlock(mem, hdr+need, surplus, false)
		size = need
	}
	format.SetAllocated(mem, hdr, true)

	e.free -= size
	h.stats.BytesAllocated += int64(size)

	return e.base + Ptr(format.PayloadOf(hdr)), payloadOf(mem, hdr), nil
}

// locate resolves p to its extent index and header offset, and returns the
// header offset of the block before it (-1 for the first block). Anything
// that is not exactly the payload address of a block yields ErrBadRef.
func (h *Heap) locate(p Ptr) (int, int, int, error) {
	i, found := h.findExtent(p)
	if !found {
		return 0, 0, 0, fmt.Errorf("%w: 0x%X outside heap", ErrBadRef, uint64(p))
	}
	e := &h.extents[i]
	mem := e.mem
	term := e.terminator()

	off := int(p - e.base)
	want := format.HeaderOf(off)
	if want < format.FirstBlock || want >= term || want&format.AlignmentMask != 0 {
		return 0, 0, 0, fmt.Errorf("%w: 0x%X not a payload address", ErrBadRef, uint64(p))
	}

	prev := -1
	for hdr := format.FirstBlock; hdr <= want; {
		if hdr == want {
			return i, hdr, prev, nil
		}
		size := format.BlockSize(mem, hdr)
		if size == 0 {
			break
		}
		prev = hdr
		hdr += size
	}
	return 0, 0, 0, fmt.Errorf("%w: 0x%X inside a block", ErrBadRef, uint64(p))
}

// findExtent finds the extent containing p by binary search over the chain.
func (h *Heap) findExtent(p Ptr) (int, bool) {
	lo, hi := 0, len(h.extents)-1

	for lo <= hi {
		mid := (lo + hi) >> 1
		e := &h.extents[mid]

		if p < e.base {
			hi = mid - 1
		} else if p >= e.end() {
			lo = mid + 1
		} else {
			return mid, true
		}
	}
	return 0, false
}

func payloadOf(mem []byte, hdr int) []byte {
	end := hdr + format.BlockSize(mem, hdr)
	return mem[format.PayloadOf(hdr):end:end]
}
