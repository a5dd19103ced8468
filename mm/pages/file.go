package pages

import (
	"errors"
	"fmt"
	"os"

	"github.com/joshuapare/pagealloc/internal/mmfile"
)

// File maps extents from consecutive windows of a backing file. Stores made
// through the heap land in the file; Sync makes them durable.
//
// NOT thread-safe, like the heap that drives it.
type File struct {
	f        *os.File
	pageSize int
	end      int64 // file offset of the next window; only grows
	windows  []window
}

type window struct {
	off  int64
	data []byte
}

// OpenFile creates path, truncating any existing content, and returns a
// provider that maps extents from it.
func OpenFile(path string) (*File, error) {
	if !mmfile.Supported {
		return nil, fmt.Errorf("pages: file-backed extents: %w", errors.ErrUnsupported)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("pages: open backing file: %w", err)
	}
	return &File{f: f, pageSize: os.Getpagesize()}, nil
}

// Map implements Provider.
func (p *File) Map(n int) ([]byte, error) {
	if err := checkSize(n, p.pageSize); err != nil {
		return nil, err
	}
	if p.f == nil {
		return nil, fmt.Errorf("pages: backing file closed: %w", os.ErrClosed)
	}
	data, err := mmfile.Window(p.f, p.end, n)
	if err != nil {
		if errors.Is(err, mmfile.ErrNoSpace) {
			return nil, fmt.Errorf("%w: %w", ErrExhausted, err)
		}
		return nil, err
	}
	p.windows = append(p.windows, window{off: p.end, data: data})
	p.end += int64(n)
	return data, nil
}

// PageSize implements Provider.
func (p *File) PageSize() int { return p.pageSize }

// Unmap implements Releaser. The window's bytes stay in the file; later
// windows are always mapped past the end of the file, so they start zeroed.
func (p *File) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	i := p.find(b)
	if i < 0 {
		return nil
	}
	if err := mmfile.Unmap(p.windows[i].data); err != nil {
		return fmt.Errorf("pages: munmap: %w", err)
	}
	p.windows = append(p.windows[:i], p.windows[i+1:]...)
	return nil
}

// Sync flushes every live window to the backing file and syncs the file.
func (p *File) Sync() error {
	for _, w := range p.windows {
		if err := mmfile.Sync(w.data); err != nil {
			return fmt.Errorf("pages: msync window at %d: %w", w.off, err)
		}
	}
	if p.f == nil {
		return nil
	}
	return p.f.Sync()
}

// Size returns the current length of the backing file in bytes.
func (p *File) Size() int64 { return p.end }

// Name returns the path of the backing file.
func (p *File) Name() string {
	if p.f == nil {
		return ""
	}
	return p.f.Name()
}

// Close unmaps any windows still live and closes the backing file. The file
// itself is left on disk.
func (p *File) Close() error {
	if p.f == nil {
		return nil
	}
	var errs []error
	for i := len(p.windows) - 1; i >= 0; i-- {
		if err := mmfile.Unmap(p.windows[i].data); err != nil {
			errs = append(errs, err)
		}
	}
	p.windows = nil
	errs = append(errs, p.f.Close())
	p.f = nil
	return errors.Join(errs...)
}

func (p *File) find(b []byte) int {
	for i, w := range p.windows {
		if &w.data[0] == &b[0] {
			return i
		}
	}
	return -1
}

var (
	_ Provider = (*File)(nil)
	_ Releaser = (*File)(nil)
)
