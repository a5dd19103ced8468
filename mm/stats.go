package mm

import (
	"errors"
	"io"
)

// Counters are running totals kept by the heap as it works.
type Counters struct {
	GrowCalls        int   // Number of extents mapped
	GrowBytes        int64 // Total bytes mapped
	AllocCalls       int   // Alloc() calls with a non-zero size
	AllocFastPath    int   // Allocations placed in an existing extent
	AllocSlowPath    int   // Allocations that required a new extent
	FreeCalls        int   // Successful Free() calls
	BytesAllocated   int64 // Total block bytes handed out (headers included)
	BytesFreed       int64 // Total block bytes released
	SplitCount       int   // Number of block splits
	CoalesceForward  int   // Merges with the following block
	CoalesceBackward int   // Merges with the preceding block
}

// Stats combines the running counters with a snapshot of the heap layout.
type Stats struct {
	Counters

	Extents     int   // Number of mapped extents
	MappedBytes int64 // Sum of extent sizes
	LiveBlocks  int   // Allocated blocks
	LiveBytes   int64 // Bytes held by allocated blocks, headers included
	FreeBlocks  int   // Free blocks
	FreeBytes   int64 // Bytes held by free blocks, headers included
	LargestFree int   // Size of the largest free block
}

// Utilization returns live bytes as a fraction of mapped bytes.
func (s Stats) Utilization() float64 {
	if s.MappedBytes == 0 {
		return 0
	}
	return float64(s.LiveBytes) / float64(s.MappedBytes)
}

// Counters returns the running totals without walking the heap.
func (h *Heap) Counters() Counters {
	return h.stats
}

// Stats walks the heap and returns counters plus layout totals.
func (h *Heap) Stats() (Stats, error) {
	s := Stats{
		Counters: h.stats,
		Extents:  len(h.extents),
	}
	for i := range h.extents {
		s.MappedBytes += int64(len(h.extents[i].mem))
	}

	it := h.Blocks()
	for {
		b, err := it.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return s, err
		}
		if b.Allocated {
			s.LiveBlocks++
			s.LiveBytes += int64(b.Size)
			continue
		}
		s.FreeBlocks++
		s.FreeBytes += int64(b.Size)
		s.LargestFree = max(s.LargestFree, b.Size)
	}
	return s, nil
}
