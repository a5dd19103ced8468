package mm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagealloc/internal/format"
	"github.com/joshuapare/pagealloc/internal/writer"
)

func TestImage(t *testing.T) {
	h := newTestHeap(t, nil)

	p, payload := mustAlloc(t, h, 64)
	fill(payload, 0x11)
	q, payload := mustAlloc(t, h, 9000)
	fill(payload, 0x22)
	require.Equal(t, 2, h.Extents())

	img, err := h.Image()
	require.NoError(t, err)

	var sink writer.MemWriter
	require.NoError(t, sink.WriteImage(img))
	require.Len(t, sink.Buf, int(h.cursor-baseAddress))

	off := int(p - baseAddress)
	requirePattern(t, sink.Buf[off:off+64], 0x11)
	off = int(q - baseAddress)
	requirePattern(t, sink.Buf[off:off+9000], 0x22)

	// Links inside the image are virtual addresses of the following extent.
	first := len(h.extents[0].mem)
	require.Equal(t, uint64(baseAddress)+uint64(first), format.ReadPageFooter(sink.Buf[:first]))
	require.Equal(t, uint64(baseAddress), format.ReadPageHeader(sink.Buf[first:]))

	// The image is a copy.
	sink.Buf[off] ^= 0xFF
	got, err := h.Payload(q)
	require.NoError(t, err)
	requirePattern(t, got[:9000], 0x22)
}

func TestImage_NotInitialized(t *testing.T) {
	h := newTestHeap(t, nil)
	require.NoError(t, h.Close())
	_, err := h.Image()
	require.ErrorIs(t, err, ErrNotInitialized)
}
