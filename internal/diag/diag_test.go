package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLines map[int]string

func (f fakeLines) Line(n int) []byte {
	if s, ok := f[n]; ok {
		return []byte(s)
	}
	return nil
}

func TestConsoleFormat(t *testing.T) {
	var out bytes.Buffer
	lines := fakeLines{3: "const x = oops"}
	console := NewConsole(&out, lines, WithColor(false), WithASCIIPointers())

	console.Report(Error, "main.tbl", Span{3, 11, 3, 14}, "Expected an expression here")

	got := out.String()
	assert.Contains(t, got, "Error in 'main.tbl' at line 3, column 11: Expected an expression here")
	assert.Contains(t, got, "    3 |\tconst x = oops")
	// pointer row: ten spaces then four carets, under columns 11..14
	assert.Contains(t, got, "\t          ^^^^")
	assert.NotContains(t, got, "\x1b[", "color must be off")
}

func TestConsoleSeverities(t *testing.T) {
	for sev, label := range map[Severity]string{Note: "Note", Warning: "Warning", Error: "Error"} {
		var out bytes.Buffer
		console := NewConsole(&out, fakeLines{1: "x"}, WithColor(false))
		console.Report(sev, "f.tbl", Span{1, 1, 1, 1}, "msg")
		assert.True(t, strings.HasPrefix(out.String(), label), "got %q", out.String())
	}
}

func TestConsoleUnicodePointer(t *testing.T) {
	var out bytes.Buffer
	console := NewConsole(&out, fakeLines{1: "abc"}, WithColor(false))
	console.Report(Error, "f.tbl", Span{1, 2, 1, 2}, "msg")
	assert.Contains(t, out.String(), " ↑")
}

func TestConsoleSpanPastLineEnd(t *testing.T) {
	var out bytes.Buffer
	console := NewConsole(&out, fakeLines{1: "abc"}, WithColor(false), WithASCIIPointers())
	// a multi-line token clamps its pointer to the excerpted line
	console.Report(Error, "f.tbl", Span{1, 2, 2, 7}, "msg")
	assert.Contains(t, out.String(), "\t ^^")
}

func TestConsoleMissingLine(t *testing.T) {
	var out bytes.Buffer
	console := NewConsole(&out, fakeLines{}, WithColor(false))
	console.Report(Error, "f.tbl", Span{9, 1, 9, 1}, "msg")
	assert.Contains(t, out.String(), "line 9")
}

func TestSuggest(t *testing.T) {
	keywords := []string{"func", "const", "struct", "import", "while"}

	got, ok := Suggest("funk", keywords)
	assert.True(t, ok)
	assert.Equal(t, "func", got)

	got, ok = Suggest("strct", keywords)
	assert.True(t, ok)
	assert.Equal(t, "struct", got)

	_, ok = Suggest("zzzzzz", keywords)
	assert.False(t, ok)

	_, ok = Suggest("", keywords)
	assert.False(t, ok)
}
