// Package trace parses allocation traces in the malloc-lab text format.
//
// A trace is an optional header of four integer lines (suggested heap size,
// number of ids, number of operations, weight) followed by one operation per
// line:
//
//	a <id> <bytes>   allocate <bytes> and bind the block to <id>
//	r <id> <bytes>   resize the block bound to <id>
//	f <id>           release the block bound to <id>
//
// Blank lines and lines starting with # are ignored. Input may be UTF-8 or
// UTF-16 with a byte order mark.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// CommentPrefix starts a line that is skipped.
	CommentPrefix = "#"

	// HeaderLines is the number of integer lines in a full header.
	HeaderLines = 4

	// ScannerInitialBufferSize is the initial line buffer.
	ScannerInitialBufferSize = 4096

	// ScannerMaxLineSize bounds a single trace line.
	ScannerMaxLineSize = 64 * 1024
)

// ErrSyntax indicates a malformed trace line.
var ErrSyntax = errors.New("trace: syntax error")

// Kind identifies an operation.
type Kind byte

const (
	Alloc   Kind = 'a'
	Free    Kind = 'f'
	Realloc Kind = 'r'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	case Realloc:
		return "realloc"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // zero for Free
	Line int // 1-based source line
}

// Header holds the optional leading integers of a trace.
type Header struct {
	SuggestedHeap int
	NumIDs        int
	NumOps        int
	Weight        int
}

// Trace is a parsed trace file.
type Trace struct {
	Name      string
	Header    Header
	HasHeader bool
	Ops       []Op
}

// Counts returns the number of operations of each kind.
func (tr *Trace) Counts() (allocs, frees, reallocs int) {
	for _, op := range tr.Ops {
		switch op.Kind {
		case Alloc:
			allocs++
		case Free:
			frees++
		case Realloc:
			reallocs++
		}
	}
	return allocs, frees, reallocs
}

// ParseFile reads and parses the trace at path.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	tr, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tr.Name = filepath.Base(path)
	return tr, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	// UTF-16 input is recognised by its BOM; anything else is read as UTF-8.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	buf := make([]byte, 0, ScannerInitialBufferSize)
	scanner.Buffer(buf, ScannerMaxLineSize)

	tr := &Trace{}
	var header []int
	inHeader := true
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		if inHeader {
			if n, err := strconv.Atoi(line); err == nil && len(header) < HeaderLines {
				header = append(header, n)
				continue
			}
			inHeader = false
		}

		op, err := parseOp(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op.Line = lineNo
		tr.Ops = append(tr.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	switch len(header) {
	case 0:
	case HeaderLines:
		tr.HasHeader = true
		tr.Header = Header{
			SuggestedHeap: header[0],
			NumIDs:        header[1],
			NumOps:        header[2],
			Weight:        header[3],
		}
		if tr.Header.NumOps != len(tr.Ops) {
			return nil, fmt.Errorf("%w: header declares %d ops, found %d",
				ErrSyntax, tr.Header.NumOps, len(tr.Ops))
		}
	default:
		return nil, fmt.Errorf("%w: incomplete header (%d of %d lines)", ErrSyntax, len(header), HeaderLines)
	}
	return tr, nil
}

func parseOp(line string) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[0])
	}

	op := Op{Kind: Kind(fields[0][0])}
	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: %s takes %d fields, got %d", ErrSyntax, op.Kind, want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("%w: bad id %q", ErrSyntax, fields[1])
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("%w: bad size %q", ErrSyntax, fields[2])
		}
		op.Size = size
	}
	return op, nil
}
