package pages

import "fmt"

// Limited wraps a Provider and refuses to hand out more than a fixed number
// of bytes in total. Unmapped regions are credited back.
type Limited struct {
	p    Provider
	max  int
	used int
}

// Limit caps p at maxBytes. A cap of zero makes every Map fail.
func Limit(p Provider, maxBytes int) *Limited {
	return &Limited{p: p, max: maxBytes}
}

// Map implements Provider.
func (l *Limited) Map(n int) ([]byte, error) {
	if err := checkSize(n, l.p.PageSize()); err != nil {
		return nil, err
	}
	if n > l.max-l.used {
		return nil, fmt.Errorf("%w: want %d bytes, %d of %d in use", ErrExhausted, n, l.used, l.max)
	}
	mem, err := l.p.Map(n)
	if err != nil {
		return nil, err
	}
	l.used += n
	return mem, nil
}

// PageSize implements Provider.
func (l *Limited) PageSize() int { return l.p.PageSize() }

// Unmap implements Releaser, forwarding to the wrapped provider when it can release.
func (l *Limited) Unmap(b []byte) error {
	if r, ok := l.p.(Releaser); ok {
		if err := r.Unmap(b); err != nil {
			return err
		}
	}
	l.used -= len(b)
	return nil
}

// Used returns the number of bytes currently handed out.
func (l *Limited) Used() int { return l.used }

// SetMax changes the cap. Lowering it below Used only affects later calls.
func (l *Limited) SetMax(maxBytes int) { l.max = maxBytes }

var (
	_ Provider = (*Limited)(nil)
	_ Releaser = (*Limited)(nil)
)
