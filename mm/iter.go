package mm

import (
	"fmt"
	"io"

	"github.com/joshuapare/pagealloc/internal/format"
)

// BlockIterator walks every block of a heap in address order, oldest extent
// first. Terminators are not reported. Next returns io.EOF when done.
//
// The iterator reads headers through bounds-checked decoding, so a damaged
// extent produces an error rather than a panic. Allocating or releasing
// while iterating invalidates the iterator.
type BlockIterator struct {
	h    *Heap
	ext  int
	off  int
	done bool
}

// Blocks returns an iterator positioned at the first block of the oldest extent.
func (h *Heap) Blocks() *BlockIterator {
	return &BlockIterator{
		h:   h,
		off: format.FirstBlock,
	}
}

// Next returns the next block.
func (it *BlockIterator) Next() (BlockInfo, error) {
	for {
		if it.done || it.ext >= len(it.h.extents) {
			it.done = true
			return BlockInfo{}, io.EOF
		}

		e := &it.h.extents[it.ext]
		term := e.terminator()
		if it.off >= term {
			it.ext++
			it.off = format.FirstBlock
			continue
		}

		blk, err := format.ParseBlock(e.mem, it.off, term)
		if err != nil {
			it.done = true
			return BlockInfo{}, fmt.Errorf("mm: extent %d: %w", it.ext, err)
		}
		if blk.Size == 0 {
			it.done = true
			return BlockInfo{}, fmt.Errorf("mm: extent %d: zero-size block at 0x%X", it.ext, it.off)
		}
		it.off = blk.End()

		return BlockInfo{
			Extent:    it.ext,
			Ptr:       e.base + Ptr(blk.Payload()),
			Size:      blk.Size,
			Allocated: blk.Allocated,
		}, nil
	}
}
