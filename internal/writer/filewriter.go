package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPerm is used when FileWriter.Perm is zero.
const DefaultPerm os.FileMode = 0o644

// FileWriter replaces the file at Path with an image. Readers see either the
// old content or the complete new image, never a partial write.
type FileWriter struct {
	Path string
	Perm os.FileMode
}

// WriteImage writes buf to a temp file beside Path, syncs it, then renames it
// over Path.
func (w *FileWriter) WriteImage(buf []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".pagealloc-image-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	perm := w.Perm
	if perm == 0 {
		perm = DefaultPerm
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(buf); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, w.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}
