package mm

// Image returns a copy of every extent laid end to end in chain order. Byte i
// of the image is the byte at virtual address 0x1000+i, so a Ptr maps to
// image offset p-0x1000 and the page links inside the image stay valid.
func (h *Heap) Image() ([]byte, error) {
	if !h.ready {
		return nil, ErrNotInitialized
	}
	size := 0
	for i := range h.extents {
		size += len(h.extents[i].mem)
	}
	img := make([]byte, 0, size)
	for i := range h.extents {
		img = append(img, h.extents[i].mem...)
	}
	return img, nil
}
