package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagealloc/internal/trace"
	"github.com/joshuapare/pagealloc/internal/writer"
	"github.com/joshuapare/pagealloc/mm"
	"github.com/joshuapare/pagealloc/mm/pages"
)

var (
	replayCheck    bool
	replayPages    int
	replayLimit    int
	replayProvider string
	replayFile     string
	replayDumpDir  string
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Check heap consistency after every operation")
	cmd.Flags().IntVar(&replayPages, "pages", mm.DefaultConfig.PagesPerExtent, "Provider pages per extent")
	cmd.Flags().IntVar(&replayLimit, "limit", 0, "Cap on mapped bytes (0 for no cap)")
	cmd.Flags().StringVar(&replayProvider, "provider", "mmap", "Page provider: mmap, heap or file")
	cmd.Flags().StringVar(&replayFile, "file", "", "Backing file for the file provider (rewritten per trace)")
	cmd.Flags().StringVar(&replayDumpDir, "dump-dir", "", "Write the final heap image of each trace to <dir>/<trace>.img")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay one or more allocation traces",
		Long: `The replay command runs each trace against a fresh heap and prints
a summary of the operations, mapped extents, peak live bytes and
utilization.

Example:
  mmtrace replay short1.rep
  mmtrace replay --check --provider heap traces/*.rep
  mmtrace replay --limit 1048576 --json realloc.rep
  mmtrace replay --provider file --file heap.bin binary.rep
  mmtrace replay --dump-dir images/ short1.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// ReplayResult summarises one replayed trace.
type ReplayResult struct {
	Trace            string  `json:"trace"`
	Ops              int     `json:"ops"`
	Allocs           int     `json:"allocs"`
	Frees            int     `json:"frees"`
	Reallocs         int     `json:"reallocs"`
	Checks           int     `json:"checks"`
	Extents          int     `json:"extents"`
	MappedBytes      int64   `json:"mapped_bytes"`
	PeakLiveBytes    int64   `json:"peak_live_bytes"`
	Utilization      float64 `json:"utilization"`
	Splits           int     `json:"splits"`
	CoalesceForward  int     `json:"coalesce_forward"`
	CoalesceBackward int     `json:"coalesce_backward"`
}

type replayOptions struct {
	check          bool
	pagesPerExtent int
	limit          int
	provider       string
	file           string
	dumpDir        string
}

func runReplay(args []string) error {
	opts := replayOptions{
		check:          replayCheck,
		pagesPerExtent: replayPages,
		limit:          replayLimit,
		provider:       replayProvider,
		file:           replayFile,
		dumpDir:        replayDumpDir,
	}

	results := make([]*ReplayResult, 0, len(args))
	for _, path := range args {
		printVerbose("Reading trace: %s\n", path)
		tr, err := trace.ParseFile(path)
		if err != nil {
			return err
		}

		printVerbose("Replaying %d operations\n", len(tr.Ops))
		res, err := replayTrace(tr, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, res)

		if !jsonOut {
			printResult(res)
		}
	}

	if jsonOut {
		return printJSON(results)
	}
	return nil
}

// binding is the block currently bound to a trace id.
type binding struct {
	ptr  mm.Ptr
	size int
}

// replayTrace runs tr against a fresh heap.
func replayTrace(tr *trace.Trace, opts replayOptions) (*ReplayResult, error) {
	p, file, err := newProvider(opts)
	if err != nil {
		return nil, err
	}
	if file != nil {
		defer file.Close()
	}

	h, err := mm.New(p, &mm.Config{PagesPerExtent: opts.pagesPerExtent, Logger: heapLogger()})
	if err != nil {
		return nil, fmt.Errorf("init heap: %w", err)
	}
	defer h.Close()

	res := &ReplayResult{Trace: tr.Name, Ops: len(tr.Ops)}
	res.Allocs, res.Frees, res.Reallocs = tr.Counts()

	// NumIDs comes from the trace file; only the op count bounds it.
	live := make(map[int]binding, min(max(tr.Header.NumIDs, 0), len(tr.Ops)))
	var liveBytes int64

	for _, op := range tr.Ops {
		if err := applyOp(h, live, op, &liveBytes); err != nil {
			return nil, fmt.Errorf("line %d: %w", op.Line, err)
		}
		res.PeakLiveBytes = max(res.PeakLiveBytes, liveBytes)

		if opts.check {
			if err := h.Check(); err != nil {
				return nil, fmt.Errorf("line %d: after %s of id %d: %w", op.Line, op.Kind, op.ID, err)
			}
			res.Checks++
		}
	}

	stats, err := h.Stats()
	if err != nil {
		return nil, err
	}
	if opts.dumpDir != "" {
		if err := dumpImage(h, filepath.Join(opts.dumpDir, tr.Name+".img")); err != nil {
			return nil, err
		}
	}
	if file != nil {
		if err := file.Sync(); err != nil {
			return nil, err
		}
		printVerbose("Synced %d bytes to %s\n", file.Size(), file.Name())
	}
	res.Extents = stats.Extents
	res.MappedBytes = stats.MappedBytes
	if stats.MappedBytes > 0 {
		res.Utilization = float64(res.PeakLiveBytes) / float64(stats.MappedBytes)
	}
	res.Splits = stats.SplitCount
	res.CoalesceForward = stats.CoalesceForward
	res.CoalesceBackward = stats.CoalesceBackward
	return res, nil
}

func applyOp(h *mm.Heap, live map[int]binding, op trace.Op, liveBytes *int64) error {
	switch op.Kind {
	case trace.Alloc:
		if _, dup := live[op.ID]; dup {
			return fmt.Errorf("alloc of id %d which is still live", op.ID)
		}
		ptr, payload, err := h.Alloc(op.Size)
		if err != nil {
			return fmt.Errorf("alloc id %d (%d bytes): %w", op.ID, op.Size, err)
		}
		fillPattern(payload[:op.Size], op.ID)
		live[op.ID] = binding{ptr: ptr, size: op.Size}
		*liveBytes += int64(op.Size)

	case trace.Realloc:
		b, ok := live[op.ID]
		if !ok {
			return fmt.Errorf("realloc of unknown id %d", op.ID)
		}
		if err := verifyPattern(h, b, op.ID); err != nil {
			return err
		}
		ptr, payload, err := h.Realloc(b.ptr, op.Size)
		if err != nil {
			return fmt.Errorf("realloc id %d (%d bytes): %w", op.ID, op.Size, err)
		}
		if bad := checkPattern(payload[:min(b.size, op.Size)], op.ID); bad >= 0 {
			return fmt.Errorf("realloc of id %d lost payload byte %d", op.ID, bad)
		}
		fillPattern(payload[:op.Size], op.ID)
		live[op.ID] = binding{ptr: ptr, size: op.Size}
		*liveBytes += int64(op.Size - b.size)

	case trace.Free:
		b, ok := live[op.ID]
		if !ok {
			return fmt.Errorf("free of unknown id %d", op.ID)
		}
		if err := verifyPattern(h, b, op.ID); err != nil {
			return err
		}
		if err := h.Free(b.ptr); err != nil {
			return fmt.Errorf("free id %d: %w", op.ID, err)
		}
		delete(live, op.ID)
		*liveBytes -= int64(b.size)
	}
	return nil
}

// newProvider builds the page provider named by opts. For the file provider
// the backing file is returned as well; the caller closes it after the heap.
func newProvider(opts replayOptions) (pages.Provider, *pages.File, error) {
	if opts.limit < 0 {
		return nil, nil, fmt.Errorf("invalid limit %d", opts.limit)
	}

	var (
		p    pages.Provider
		file *pages.File
	)
	switch opts.provider {
	case "mmap":
		p = pages.NewMmap()
	case "heap":
		p = pages.NewHeap()
	case "file":
		if opts.file == "" {
			return nil, nil, fmt.Errorf("the file provider needs --file")
		}
		f, err := pages.OpenFile(opts.file)
		if err != nil {
			return nil, nil, err
		}
		p, file = f, f
	default:
		return nil, nil, fmt.Errorf("unknown provider %q (want mmap, heap or file)", opts.provider)
	}

	if opts.limit > 0 {
		p = pages.Limit(p, opts.limit)
	}
	return p, file, nil
}

// dumpImage writes the heap image to path, replacing any previous image.
func dumpImage(h *mm.Heap, path string) error {
	img, err := h.Image()
	if err != nil {
		return err
	}
	w := &writer.FileWriter{Path: path}
	if err := w.WriteImage(img); err != nil {
		return fmt.Errorf("dump heap image: %w", err)
	}
	printVerbose("Wrote %d byte heap image to %s\n", len(img), path)
	return nil
}

func patternByte(id, i int) byte { return byte(id*31 + i) }

func fillPattern(b []byte, id int) {
	for i := range b {
		b[i] = patternByte(id, i)
	}
}

// checkPattern returns the index of the first byte that does not match, or -1.
func checkPattern(b []byte, id int) int {
	for i := range b {
		if b[i] != patternByte(id, i) {
			return i
		}
	}
	return -1
}

func verifyPattern(h *mm.Heap, b binding, id int) error {
	if b.ptr == mm.Nil {
		return nil
	}
	payload, err := h.Payload(b.ptr)
	if err != nil {
		return fmt.Errorf("id %d: %w", id, err)
	}
	if bad := checkPattern(payload[:b.size], id); bad >= 0 {
		return fmt.Errorf("payload of id %d corrupted at byte %d", id, bad)
	}
	return nil
}

func printResult(res *ReplayResult) {
	printInfo("Trace: %s\n", res.Trace)
	printInfo("  Operations:   %d (alloc %d, free %d, realloc %d)\n", res.Ops, res.Allocs, res.Frees, res.Reallocs)
	printInfo("  Extents:      %d\n", res.Extents)
	printInfo("  Mapped:       %d bytes\n", res.MappedBytes)
	printInfo("  Peak live:    %d bytes\n", res.PeakLiveBytes)
	printInfo("  Utilization:  %.1f%%\n", res.Utilization*100)
	if res.Checks > 0 {
		printInfo("  Checks:       %d passed\n", res.Checks)
	}
	printVerbose("  Splits:       %d\n", res.Splits)
	printVerbose("  Coalesced:    %d forward, %d backward\n", res.CoalesceForward, res.CoalesceBackward)
}
