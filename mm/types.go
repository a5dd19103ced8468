package mm

import (
	"log/slog"

	"github.com/joshuapare/pagealloc/internal/format"
)

// Ptr is the virtual address of a payload.
type Ptr uint64

// Nil is the zero Ptr. Alloc(0) returns it and Free(Nil) is a no-op.
const Nil Ptr = 0

// baseAddress is the virtual address of the first extent.
const baseAddress Ptr = 0x1000

// Config controls extent sizing and logging.
type Config struct {
	// PagesPerExtent is the number of provider pages mapped per extent.
	// Requests that do not fit grow the extent to the next page multiple.
	PagesPerExtent int

	// Logger receives debug and warning events. Nil selects the package
	// default, which discards output unless PAGEALLOC_LOG_ALLOC is set.
	Logger *slog.Logger
}

// DefaultConfig maps two-page extents.
var DefaultConfig = Config{
	PagesPerExtent: 2,
}

// extent describes one mapped region. The descriptors in Heap.extents are
// the authoritative chain; the in-band page links mirror them.
type extent struct {
	base Ptr    // virtual address of mem[0]
	mem  []byte // provider-owned region
	free int    // bytes held by free blocks, headers included
}

func (e *extent) end() Ptr { return e.base + Ptr(len(e.mem)) }

func (e *extent) contains(p Ptr) bool { return p >= e.base && p < e.end() }

func (e *extent) terminator() int { return format.TerminatorOffset(len(e.mem)) }

// BlockInfo describes one block as seen by the iterator and Stats.
type BlockInfo struct {
	Extent    int // index of the extent, oldest first
	Ptr       Ptr // payload address
	Size      int // header-to-header size
	Allocated bool
}

// PayloadSize returns the usable bytes of the block.
func (b BlockInfo) PayloadSize() int { return b.Size - format.BlockHeaderSize }
