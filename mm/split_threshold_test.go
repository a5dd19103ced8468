package mm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagealloc/internal/format"
)

// TestSplitThreshold places requests into a 160-byte free block and checks
// whether the surplus is split off or absorbed.
func TestSplitThreshold(t *testing.T) {
	const hole = 160

	tests := []struct {
		name      string
		n         int
		wantSize  int
		wantSplit bool
	}{
		{"surplus 48 splits", 96, 112, true},
		{"surplus 32 absorbed", 112, hole, false},
		{"surplus 16 absorbed", 128, hole, false},
		{"exact fit", 144, hole, false},
		{"surplus 64 splits", 80, 96, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHeap(t, nil)

			p, _ := mustAlloc(t, h, hole-format.BlockHeaderSize)
			mustAlloc(t, h, 16)
			require.NoError(t, h.Free(p))
			splits := h.Counters().SplitCount

			got, _ := mustAlloc(t, h, tt.n)
			require.Equal(t, p, got, "request should land in the hole")

			size, allocated := blockAt(t, h, got)
			require.True(t, allocated)
			require.Equal(t, tt.wantSize, size)

			if tt.wantSplit {
				require.Equal(t, splits+1, h.Counters().SplitCount)
				rest, restAllocated := blockAt(t, h, got+Ptr(size))
				require.False(t, restAllocated)
				require.Equal(t, hole-size, rest)
				require.GreaterOrEqual(t, rest, format.MinBlockSize)
			} else {
				require.Equal(t, splits, h.Counters().SplitCount)
			}
			assertInvariants(t, h)
		})
	}
}

func TestSplitThreshold_Value(t *testing.T) {
	require.Equal(t, 32, format.SplitThreshold)
}
