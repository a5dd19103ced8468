package format

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignPage returns n aligned up to the next multiple of pageSize.
// pageSize must be a power of two.
//
// Example:
//
//	AlignPage(1, 4096)    = 4096
//	AlignPage(4096, 4096) = 4096
//	AlignPage(4097, 4096) = 8192
func AlignPage(n, pageSize int) int {
	mask := pageSize - 1
	return (n + mask) & ^mask
}

// IsAligned reports whether n sits on an Alignment boundary.
func IsAligned(n uint64) bool {
	return n&AlignmentMask == 0
}

// SplitThreshold is the surplus a free block must exceed before the
// allocator carves a remainder block out of it: one alignment unit of payload
// plus its header, rounded to Alignment.
const SplitThreshold = (1 + BlockHeaderSize + AlignmentMask) & ^AlignmentMask
