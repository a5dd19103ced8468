package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates a size or offset off the 16-byte grid.
	ErrMisaligned = errors.New("format: misaligned")
	// ErrExtentTooSmall indicates an extent cannot hold its own layout plus one block.
	ErrExtentTooSmall = errors.New("format: extent too small")
)
