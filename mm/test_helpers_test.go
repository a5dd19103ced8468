package mm

import (
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagealloc/internal/format"
	"github.com/joshuapare/pagealloc/mm/pages"
)

const (
	// testExtentSize is the extent size with DefaultConfig over pages.Heap.
	testExtentSize = 2 * pages.DefaultPageSize

	// testUsable is the block run of a default extent.
	testUsable = testExtentSize - format.LayoutOverhead

	// firstPayload is the address of the first payload in a fresh heap.
	firstPayload = baseAddress + format.FirstBlock + format.BlockHeaderSize
)

// newTestHeap creates a heap over a Go-heap provider and closes it at cleanup.
func newTestHeap(t testing.TB, cfg *Config) *Heap {
	t.Helper()
	return newTestHeapWithProvider(t, pages.NewHeap(), cfg)
}

func newTestHeapWithProvider(t testing.TB, p pages.Provider, cfg *Config) *Heap {
	t.Helper()
	h, err := New(p, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// setupGrowCounter installs the onGrow hook and returns the call counter.
func setupGrowCounter(h *Heap) *int {
	n := 0
	h.onGrow = func(int) { n++ }
	return &n
}

// mustAlloc allocates n bytes and fails the test on error.
func mustAlloc(t testing.TB, h *Heap, n int) (Ptr, []byte) {
	t.Helper()
	p, payload, err := h.Alloc(n)
	require.NoError(t, err, "Alloc(%d)", n)
	require.NotEqual(t, Nil, p, "Alloc(%d) returned Nil", n)
	return p, payload
}

// header returns the extent memory and header offset behind p.
func header(t testing.TB, h *Heap, p Ptr) ([]byte, int) {
	t.Helper()
	i, found := h.findExtent(p)
	require.True(t, found, "0x%X not in any extent", uint64(p))
	e := &h.extents[i]
	return e.mem, format.HeaderOf(int(p - e.base))
}

// blockAt returns the size and allocated flag of the block whose payload is p.
func blockAt(t testing.TB, h *Heap, p Ptr) (int, bool) {
	t.Helper()
	mem, hdr := header(t, h, p)
	return format.BlockSize(mem, hdr), format.IsAllocated(mem, hdr)
}

// collectBlocks drains the block iterator.
func collectBlocks(t testing.TB, h *Heap) []BlockInfo {
	t.Helper()
	var out []BlockInfo
	it := h.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, b)
	}
}

// assertInvariants runs Check and verifies that live blocks are disjoint.
func assertInvariants(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Check())

	var live []BlockInfo
	for _, b := range collectBlocks(t, h) {
		if b.Allocated {
			live = append(live, b)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Ptr < live[j].Ptr })
	for i := 1; i < len(live); i++ {
		prevEnd := live[i-1].Ptr + Ptr(live[i-1].PayloadSize())
		require.LessOrEqual(t, prevEnd+format.BlockHeaderSize, live[i].Ptr,
			"live blocks 0x%X and 0x%X overlap", uint64(live[i-1].Ptr), uint64(live[i].Ptr))
	}
}

// fill writes a recognisable pattern into b.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// requirePattern verifies a pattern written by fill.
func requirePattern(t testing.TB, b []byte, seed byte) {
	t.Helper()
	for i := range b {
		if b[i] != seed+byte(i) {
			t.Fatalf("payload corrupted at byte %d: got 0x%02X want 0x%02X", i, b[i], seed+byte(i))
		}
	}
}
