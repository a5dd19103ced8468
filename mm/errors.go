package mm

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and growth failed.
	ErrNoSpace = errors.New("mm: no free block large enough")

	// ErrGrowFail indicates that mapping an extent failed.
	ErrGrowFail = errors.New("mm: grow failed")

	// ErrBadRef indicates a pointer that does not name a block in this heap.
	ErrBadRef = errors.New("mm: bad block reference")

	// ErrNotAllocated indicates an attempt to release a block that is already free.
	ErrNotAllocated = errors.New("mm: block not allocated")

	// ErrBadSize indicates a negative or unrepresentable size.
	ErrBadSize = errors.New("mm: bad size")

	// ErrInitialized indicates Init was called on a heap that is already live.
	ErrInitialized = errors.New("mm: heap already initialized")

	// ErrNotInitialized indicates an operation on a heap before Init or after Close.
	ErrNotInitialized = errors.New("mm: heap not initialized")

	// ErrNoProvider indicates a heap constructed without a page provider.
	ErrNoProvider = errors.New("mm: nil page provider")
)
