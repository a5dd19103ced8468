// Package writer exposes sinks for heap images.
package writer

// Sink receives a complete heap image in one call.
type Sink interface {
	WriteImage(buf []byte) error
}

var (
	_ Sink = (*FileWriter)(nil)
	_ Sink = (*MemWriter)(nil)
)
