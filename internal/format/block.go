package format

import (
	"fmt"

	"github.com/joshuapare/pagealloc/internal/buf"
)

// Block is a decoded block header.
//
// Offsets are relative to the start of the extent that holds the block. Size
// is the header-to-header distance, so Offset+Size is the next header.
type Block struct {
	Offset    int
	Size      int
	Allocated bool
}

// Payload returns the offset of the first payload byte.
func (blk Block) Payload() int { return blk.Offset + BlockHeaderSize }

// End returns the offset of the following block header.
func (blk Block) End() int { return blk.Offset + blk.Size }

// Terminator reports whether blk is a zero-size sentinel.
func (blk Block) Terminator() bool { return blk.Size == 0 && blk.Allocated }

// HeaderOf returns the header offset for a payload offset.
func HeaderOf(payload int) int { return payload - BlockHeaderSize }

// PayloadOf returns the payload offset for a header offset.
func PayloadOf(hdr int) int { return hdr + BlockHeaderSize }

// BlockSize reads the size field of the header at hdr.
func BlockSize(b []byte, hdr int) int {
	return int(ReadU64(b, hdr+BlockSizeOffset))
}

// SetBlockSize rewrites the size field of the header at hdr.
func SetBlockSize(b []byte, hdr, n int) {
	PutU64(b, hdr+BlockSizeOffset, uint64(n))
}

// IsAllocated reports whether the header at hdr carries the allocated flag.
func IsAllocated(b []byte, hdr int) bool {
	return b[hdr+BlockFlagsOffset]&FlagAllocated != 0
}

// SetAllocated sets or clears the allocated flag of the header at hdr.
func SetAllocated(b []byte, hdr int, allocated bool) {
	if allocated {
		b[hdr+BlockFlagsOffset] |= FlagAllocated
	} else {
		b[hdr+BlockFlagsOffset] &^= FlagAllocated
	}
}

// PutBlock writes a complete header at hdr, clearing the reserved bytes.
func PutBlock(b []byte, hdr, size int, allocated bool) {
	SetBlockSize(b, hdr, size)
	clear(b[hdr+BlockFlagsOffset : hdr+BlockHeaderSize])
	SetAllocated(b, hdr, allocated)
}

// NextBlock steps from one payload to the next one in the same extent.
// The result is only meaningful while the current block is not a terminator.
func NextBlock(b []byte, payload int) int {
	return payload + BlockSize(b, HeaderOf(payload))
}

// ParseBlock decodes the header at hdr, refusing anything that would run past
// limit (the terminator offset of the enclosing extent). Unlike the accessors
// above it never panics, which makes it suitable for consistency walks over
// memory that may already be damaged.
func ParseBlock(b []byte, hdr, limit int) (Block, error) {
	if !buf.Has(b, hdr, BlockHeaderSize) {
		return Block{}, fmt.Errorf("block at 0x%X: %w", hdr, ErrTruncated)
	}
	if hdr&AlignmentMask != 0 {
		return Block{}, fmt.Errorf("block at 0x%X: %w", hdr, ErrMisaligned)
	}
	raw := ReadU64(b, hdr+BlockSizeOffset)
	blk := Block{
		Offset:    hdr,
		Allocated: IsAllocated(b, hdr),
	}
	if hdr > limit || raw > uint64(limit-hdr) {
		return blk, fmt.Errorf("block at 0x%X: size %d runs past 0x%X", hdr, raw, limit)
	}
	blk.Size = int(raw)
	if !IsAligned(raw) {
		return blk, fmt.Errorf("block at 0x%X: size %d: %w", hdr, raw, ErrMisaligned)
	}
	return blk, nil
}
