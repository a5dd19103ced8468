package format

// Page layer. An extent starts with a back-link to the previous extent and
// ends with a forward-link to the next one:
//
//	Offset        Size  Field
//	0x00          8     back-link (virtual base of previous extent, or NoPrev)
//	0x10          ...   block run
//	E-0x20        16    terminator block (size 0, allocated)
//	E-0x10        8     forward-link (virtual base of next extent, or NoNext)

// WritePageHeader stores the back-link at the start of the extent.
func WritePageHeader(b []byte, prev uint64) {
	PutU64(b, 0, prev)
}

// ReadPageHeader returns the back-link stored at the start of the extent.
func ReadPageHeader(b []byte) uint64 {
	return ReadU64(b, 0)
}

// WritePageFooter stores the forward-link in the last aligned slot of the extent.
func WritePageFooter(b []byte, next uint64) {
	PutU64(b, len(b)-PageFooterSize, next)
}

// ReadPageFooter returns the forward-link stored at the end of the extent.
func ReadPageFooter(b []byte) uint64 {
	return ReadU64(b, len(b)-PageFooterSize)
}

// TerminatorOffset returns the header offset of the sentinel block that ends
// the block run of an extent of the given size.
func TerminatorOffset(extentSize int) int {
	return extentSize - PageFooterSize - BlockHeaderSize
}

// UsableSpan returns the number of bytes available to the block run.
func UsableSpan(extentSize int) int {
	return extentSize - LayoutOverhead
}

// FormatExtent lays out a freshly mapped extent: back-link, a single free
// block spanning the whole run, the terminator and a NoNext footer.
func FormatExtent(b []byte, prev uint64) error {
	if len(b) < LayoutOverhead+MinBlockSize {
		return ErrExtentTooSmall
	}
	if len(b)&AlignmentMask != 0 {
		return ErrMisaligned
	}
	WritePageHeader(b, prev)
	PutBlock(b, FirstBlock, UsableSpan(len(b)), false)
	PutBlock(b, TerminatorOffset(len(b)), 0, true)
	WritePageFooter(b, NoNext)
	return nil
}
