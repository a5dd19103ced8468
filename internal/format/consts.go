// Package format houses the on-extent encoding used by the allocator: block
// headers, the page header/footer pair that chains extents together, and the
// alignment arithmetic that keeps every payload on a 16-byte boundary. The
// helpers work on plain byte slices so the allocator can keep its state in
// provider-owned memory without pointer casts.
package format

const (
	// Alignment is the allocation unit. Every block size and every payload
	// address is a multiple of it.
	Alignment = 16

	// AlignmentMask is the bitmask used for aligning to Alignment (Alignment - 1).
	AlignmentMask = Alignment - 1

	// BlockHeaderSize is the number of bytes preceding every payload.
	// Layout (little-endian):
	//
	//	Offset  Size  Field
	//	0x00    8     size (header-to-header distance, header included)
	//	0x08    1     flags (bit 0 = allocated)
	//	0x09    7     reserved
	BlockHeaderSize = 0x10

	// BlockSizeOffset and BlockFlagsOffset locate header fields.
	BlockSizeOffset  = 0x00
	BlockFlagsOffset = 0x08

	// FlagAllocated marks a block as in use.
	FlagAllocated = 0x01

	// MinBlockSize is the smallest block the allocator creates: a header plus
	// one alignment unit of payload.
	MinBlockSize = BlockHeaderSize + Alignment

	// PageHeaderSize is the size of the back-link slot at the start of an extent.
	PageHeaderSize = 0x10

	// PageFooterSize is the size of the forward-link slot at the end of an extent.
	PageFooterSize = 0x10

	// FirstBlock is the offset of the first block header inside an extent.
	FirstBlock = PageHeaderSize

	// LayoutOverhead is the number of bytes of an extent not available to the
	// block run: page header, terminator header and page footer.
	LayoutOverhead = PageHeaderSize + BlockHeaderSize + PageFooterSize

	// NoPrev is the back-link stored in the first extent's page header.
	NoPrev uint64 = 0

	// NoNext is the forward-link stored in the newest extent's page footer.
	// It is never a valid virtual address.
	NoNext uint64 = ^uint64(0)
)
