package writer

// MemWriter keeps the most recent image in memory.
type MemWriter struct {
	Buf    []byte
	Writes int
}

// WriteImage copies buf, reusing the previous buffer when it is large enough.
func (w *MemWriter) WriteImage(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	w.Writes++
	return nil
}
