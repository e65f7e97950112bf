// Package diag carries parse diagnostics from the lexer and parser to a sink.
// The sink is a callback; the console implementation formats each report with
// a line excerpt and a column pointer the way the language has always shown
// errors.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mattn/go-isatty"
)

// Severity of a diagnostic.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "Note"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "???"
	}
}

// Span is an inclusive region of source text.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Handler receives one diagnostic. file is the source file name; span points
// at the offending text.
type Handler func(sev Severity, file string, span Span, msg string)

// Discard is a Handler that drops everything.
func Discard(Severity, string, Span, string) {}

// LineSource yields source lines for excerpts; *source.Buffer satisfies it.
type LineSource interface {
	Line(n int) []byte
}

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiCyan    = "\x1b[36m"
	ansiGray    = "\x1b[90m"
	ansiLYellow = "\x1b[93m"
)

// Console formats diagnostics onto a writer.
type Console struct {
	out     io.Writer
	lines   LineSource
	color   bool
	unicode bool
}

// ConsoleOpt configures a Console.
type ConsoleOpt func(*Console)

// WithColor forces color on or off.
func WithColor(on bool) ConsoleOpt {
	return func(c *Console) { c.color = on }
}

// WithASCIIPointers uses '^' instead of '↑' in the pointer row.
func WithASCIIPointers() ConsoleOpt {
	return func(c *Console) { c.unicode = false }
}

// NewConsole builds a console sink writing to out, excerpting lines from src.
// Color defaults to on when out is a terminal and TERM / NO_COLOR allow it.
func NewConsole(out io.Writer, src LineSource, opts ...ConsoleOpt) *Console {
	c := &Console{
		out:     out,
		lines:   src,
		color:   colorDefault(out),
		unicode: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func colorDefault(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Handler returns the callback form of the console.
func (c *Console) Handler() Handler {
	return c.Report
}

// Report writes one diagnostic: a header line, the source line, and a pointer
// row under the span.
func (c *Console) Report(sev Severity, file string, span Span, msg string) {
	headColor := ansiCyan
	switch sev {
	case Warning:
		headColor = ansiYellow
	case Error:
		headColor = ansiRed
	}
	c.paint(headColor, sev.String())
	fmt.Fprintf(c.out, " in '%s' at line %d, column %d: %s\n", file, span.StartLine, span.StartCol, msg)

	line := c.lines.Line(span.StartLine)
	if line == nil {
		return
	}
	endCol := span.EndCol
	if span.EndLine > span.StartLine || endCol > len(line) {
		endCol = len(line)
	}
	startCol := span.StartCol
	if startCol < 1 {
		startCol = 1
	}
	if endCol < startCol {
		endCol = startCol
	}
	c.paint(ansiGray, fmt.Sprintf("%5d |\t", span.StartLine))
	fmt.Fprintf(c.out, "%s\n\t", line)

	pointer := "^"
	if c.unicode {
		pointer = "↑"
	}
	var row strings.Builder
	for i := 1; i <= endCol; i++ {
		if i < startCol {
			row.WriteByte(' ')
		} else {
			row.WriteString(pointer)
		}
	}
	c.paint(ansiLYellow, row.String())
	fmt.Fprintln(c.out)
}

func (c *Console) paint(color, text string) {
	if c.color {
		fmt.Fprint(c.out, color, text, ansiReset)
	} else {
		fmt.Fprint(c.out, text)
	}
}

// Suggest ranks candidates against a misspelled word and returns the closest
// one, if it is near enough to be worth proposing.
func Suggest(got string, candidates []string) (string, bool) {
	if got == "" {
		return "", false
	}
	lower := strings.ToLower(got)
	best := ""
	bestDist := len(got) + 1
	for _, candidate := range candidates {
		d := fuzzy.LevenshteinDistance(lower, strings.ToLower(candidate))
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best == "" || bestDist > len(got)/2+1 {
		return "", false
	}
	return best, true
}
