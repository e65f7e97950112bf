package lexer

import (
	"testing"

	"github.com/Beefster09/table-lang/internal/source"
	"github.com/Beefster09/table-lang/internal/token"
)

// tokenExpectation describes one expected token: its type, literal text, and
// the position it starts at.
type tokenExpectation struct {
	typ  token.Type
	text string
	line int
	col  int
}

// lexString builds a lexer over an in-memory buffer.
func lexString(input string) *Lexer {
	return New(source.New("test.tbl", []byte(input)))
}

// expectTokens drains the lexer and compares against the expectations.
func expectTokens(t *testing.T, input string, expected []tokenExpectation) {
	t.Helper()
	lex := lexString(input)
	for i, want := range expected {
		got := lex.Pop()
		if got.Type != want.typ {
			t.Fatalf("token %d: expected type %v, got %v (%s)", i, want.typ, got.Type, got)
		}
		if want.text != "" && string(got.Text) != want.text {
			t.Errorf("token %d: expected text %q, got %q", i, want.text, got.Text)
		}
		if want.line != 0 && (got.Start.Line != want.line || got.Start.Col != want.col) {
			t.Errorf("token %d: expected position %d,%d, got %d,%d",
				i, want.line, want.col, got.Start.Line, got.Start.Col)
		}
	}
}
