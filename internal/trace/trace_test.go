package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const sample = `20000
2
5
1
a 0 512
a 1 128
r 0 640
f 1
f 0
`

func TestParse_WithHeader(t *testing.T) {
	tr, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.True(t, tr.HasHeader)
	require.Equal(t, Header{SuggestedHeap: 20000, NumIDs: 2, NumOps: 5, Weight: 1}, tr.Header)
	require.Len(t, tr.Ops, 5)
	require.Equal(t, Op{Kind: Alloc, ID: 0, Size: 512, Line: 5}, tr.Ops[0])
	require.Equal(t, Op{Kind: Realloc, ID: 0, Size: 640, Line: 7}, tr.Ops[2])
	require.Equal(t, Op{Kind: Free, ID: 1, Line: 8}, tr.Ops[3])

	allocs, frees, reallocs := tr.Counts()
	require.Equal(t, 2, allocs)
	require.Equal(t, 2, frees)
	require.Equal(t, 1, reallocs)
}

func TestParse_NoHeader(t *testing.T) {
	tr, err := Parse(strings.NewReader("# comment\n\na 3 16\n  f 3  \n"))
	require.NoError(t, err)
	require.False(t, tr.HasHeader)
	require.Len(t, tr.Ops, 2)
	require.Equal(t, 3, tr.Ops[0].Line)
	require.Equal(t, Free, tr.Ops[1].Kind)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown op", "x 1 2\n"},
		{"long op", "alloc 1 2\n"},
		{"missing size", "a 1\n"},
		{"extra field on free", "f 1 2\n"},
		{"bad id", "a one 2\n"},
		{"negative id", "f -1\n"},
		{"bad size", "a 1 lots\n"},
		{"negative size", "r 1 -5\n"},
		{"short header", "100\n2\na 0 1\n"},
		{"op count mismatch", "100\n1\n3\n1\na 0 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParse_ErrorCarriesLine(t *testing.T) {
	_, err := Parse(strings.NewReader("a 0 8\nf 0\nq\n"))
	require.ErrorContains(t, err, "line 3")
}

func TestParse_UTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.String("a 0 24\r\nf 0\r\n")
	require.NoError(t, err)

	tr, err := Parse(bytes.NewReader([]byte(encoded)))
	require.NoError(t, err)
	require.Len(t, tr.Ops, 2)
	require.Equal(t, Op{Kind: Alloc, ID: 0, Size: 24, Line: 1}, tr.Ops[0])
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short1.rep")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	tr, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, "short1.rep", tr.Name)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.rep"))
	require.Error(t, err)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "alloc", Alloc.String())
	require.Equal(t, "free", Free.String())
	require.Equal(t, "realloc", Realloc.String())
	require.Equal(t, `Kind('z')`, Kind('z').String())
}
