// Package source holds the contents of one input file, read exactly once and
// exposed as an ordered sequence of lines for the lexer and for diagnostic
// excerpts.
package source

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Buffer is an immutable in-memory copy of a source file.
type Buffer struct {
	name  string
	data  []byte
	lines [][]byte
	sum   [blake2b.Size256]byte
}

// Load reads the named file into a Buffer. The file is read in full exactly
// once; null bytes in the input are dropped.
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return New(path, data), nil
}

// New wraps raw bytes as a Buffer under the given display name.
func New(name string, data []byte) *Buffer {
	if bytes.IndexByte(data, 0) >= 0 {
		data = bytes.ReplaceAll(data, []byte{0}, nil)
	}
	b := &Buffer{
		name: name,
		data: data,
		sum:  blake2b.Sum256(data),
	}
	b.lines = bytes.Split(data, []byte{'\n'})
	return b
}

// Name returns the display name (normally the path given to Load).
func (b *Buffer) Name() string { return b.name }

// Len returns the byte length of the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// NumLines returns the number of lines. A trailing newline does not count as
// starting an extra line of content, but the empty tail is still addressable
// so diagnostics at EOF have a line to excerpt.
func (b *Buffer) NumLines() int { return len(b.lines) }

// Line returns the 1-based line without its terminator. Out-of-range requests
// return an empty slice rather than panicking; diagnostics may probe past the
// end after recovery.
func (b *Buffer) Line(n int) []byte {
	if n < 1 || n > len(b.lines) {
		return nil
	}
	return b.lines[n-1]
}

// Fingerprint returns the hex BLAKE2b-256 digest of the contents. Watch mode
// uses it to skip reparsing when a write did not change the file.
func (b *Buffer) Fingerprint() string {
	return hex.EncodeToString(b.sum[:])
}
