package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	buf := New("test.tbl", []byte("one\ntwo\nthree"))
	assert.Equal(t, 3, buf.NumLines())
	assert.Equal(t, "one", string(buf.Line(1)))
	assert.Equal(t, "two", string(buf.Line(2)))
	assert.Equal(t, "three", string(buf.Line(3)))
	assert.Nil(t, buf.Line(0))
	assert.Nil(t, buf.Line(4))
}

func TestTrailingNewline(t *testing.T) {
	buf := New("test.tbl", []byte("one\n"))
	// the empty tail stays addressable for diagnostics at EOF
	assert.Equal(t, 2, buf.NumLines())
	assert.Equal(t, "", string(buf.Line(2)))
}

func TestNullBytesIgnored(t *testing.T) {
	buf := New("test.tbl", []byte("a\x00b\nc"))
	assert.Equal(t, "ab", string(buf.Line(1)))
	assert.Equal(t, 4, buf.Len())
}

func TestFingerprint(t *testing.T) {
	a := New("a.tbl", []byte("same"))
	b := New("b.tbl", []byte("same"))
	c := New("c.tbl", []byte("different"))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.tbl")
	require.NoError(t, os.WriteFile(path, []byte("const x = 1\n"), 0o644))

	buf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, buf.Name())
	assert.Equal(t, "const x = 1", string(buf.Line(1)))

	_, err = Load(filepath.Join(dir, "missing.tbl"))
	assert.Error(t, err)
}
