package mm

import (
	"io"
	"log/slog"
	"os"
)

// Runtime debug flag for allocation logging - controlled by PAGEALLOC_LOG_ALLOC env var.
var logAlloc = os.Getenv("PAGEALLOC_LOG_ALLOC") != ""

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
