// Package parser builds the syntax tree from a token stream: recursive
// descent with a Pratt-style expression engine, structural error recovery at
// statement and top-level boundaries, and diagnostics through a pluggable
// sink.
package parser

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/diag"
	"github.com/Beefster09/table-lang/internal/lexer"
	"github.com/Beefster09/table-lang/internal/source"
	"github.com/Beefster09/table-lang/internal/token"
)

// Parser owns the lexer, the node storage, and the diagnostic counters for
// one file. Not safe for concurrent use; parse files in parallel with one
// parser each.
type Parser struct {
	lex       *lexer.Lexer
	file      string
	handler   diag.Handler
	logger    *slog.Logger
	readPaths []string

	errors   int
	warnings int
	notes    int
}

// Opt configures a Parser.
type Opt func(*Parser)

// WithHandler routes diagnostics to the given sink instead of the default
// console on stderr.
func WithHandler(h diag.Handler) Opt {
	return func(p *Parser) { p.handler = h }
}

// WithReadPaths adds directories searched by the #read directive, after the
// source file's own directory.
func WithReadPaths(paths []string) Opt {
	return func(p *Parser) { p.readPaths = paths }
}

// New builds a parser over an already-loaded source buffer.
func New(src *source.Buffer, opts ...Opt) *Parser {
	p := &Parser{
		lex:    lexer.New(src),
		file:   src.Name(),
		logger: newLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.handler == nil {
		p.handler = diag.NewConsole(os.Stderr, src).Handler()
	}
	return p
}

// Open reads the file and builds a parser for it.
func Open(path string, opts ...Opt) (*Parser, error) {
	src, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return New(src, opts...), nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("TABLEC_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// ErrorCount reports how many errors have been diagnosed so far.
func (p *Parser) ErrorCount() int { return p.errors }

// WarningCount reports how many warnings have been diagnosed so far.
func (p *Parser) WarningCount() int { return p.warnings }

// Execute parses the whole file into a Module. It returns nil when any error
// was diagnosed, even though a partial tree was built.
func (p *Parser) Execute() *ast.Module {
	module := &ast.Module{Scope: ast.NewOrderedMap[ast.Node]()}
	p.begin(&module.NodeInfo, ast.KindModule)

	for p.top().Type != token.EOF {
		if !p.toplevelItem(module) {
			p.logger.Debug("[PARSER] resynchronizing at top level", "at", p.top().String())
			p.seekToplevel()
		}
	}
	p.finishAt(&module.NodeInfo, p.top())
	p.logger.Debug("[PARSER] parse complete",
		"decls", module.Scope.Len(),
		"tests", len(module.Tests),
		"errors", p.errors,
		"warnings", p.warnings)

	if p.errors > 0 {
		return nil
	}
	return module
}

// ---- token access ----

func (p *Parser) top() token.Token {
	return p.lex.Peek(0)
}

func (p *Parser) la(n int) token.Token {
	return p.lex.Peek(n)
}

func (p *Parser) pop() token.Token {
	return p.lex.Pop()
}

func (p *Parser) prev() token.Token {
	return p.lex.Peek(-1)
}

// ---- spans ----

func tokenSpan(t token.Token) diag.Span {
	return diag.Span{
		StartLine: t.Start.Line, StartCol: t.Start.Col,
		EndLine: t.End.Line, EndCol: t.End.Col,
	}
}

func nodeSpan(n ast.Node) diag.Span {
	s := n.Info().Span
	return diag.Span{
		StartLine: s.StartLine, StartCol: s.StartCol,
		EndLine: s.EndLine, EndCol: s.EndCol,
	}
}

// begin stamps a node header with its kind and the position of the upcoming
// token.
func (p *Parser) begin(info *ast.NodeInfo, kind ast.Kind) {
	t := p.top()
	info.NodeKind = kind
	info.File = p.file
	info.Span = ast.Span{
		StartLine: t.Start.Line, StartCol: t.Start.Col,
		EndLine: t.Start.Line, EndCol: t.Start.Col,
	}
}

// beginFrom stamps a node header whose span starts where an existing child
// starts.
func (p *Parser) beginFrom(info *ast.NodeInfo, kind ast.Kind, from ast.Node) {
	s := from.Info().Span
	info.NodeKind = kind
	info.File = p.file
	info.Span = ast.Span{
		StartLine: s.StartLine, StartCol: s.StartCol,
		EndLine: s.EndLine, EndCol: s.EndCol,
	}
}

// finish extends a node's span through the most recently consumed token.
func (p *Parser) finish(info *ast.NodeInfo) {
	t := p.prev()
	if t.Type == token.EMPTY {
		return
	}
	info.Span.EndLine = t.End.Line
	info.Span.EndCol = t.End.Col
}

func (p *Parser) finishAt(info *ast.NodeInfo, t token.Token) {
	info.Span.EndLine = t.End.Line
	info.Span.EndCol = t.End.Col
}

// ---- diagnostics ----

// syntaxError reports a fatal error at the current token; the calling rule
// returns nil afterwards.
func (p *Parser) syntaxError(format string, args ...any) {
	p.errorAt(tokenSpan(p.top()), format, args...)
}

func (p *Parser) errorAt(span diag.Span, format string, args ...any) {
	p.errors++
	p.handler(diag.Error, p.file, span, fmt.Sprintf(format, args...))
}

func (p *Parser) errorFrom(n ast.Node, format string, args ...any) {
	p.errorAt(nodeSpan(n), format, args...)
}

func (p *Parser) warnAt(span diag.Span, format string, args ...any) {
	p.warnings++
	p.handler(diag.Warning, p.file, span, fmt.Sprintf(format, args...))
}

func (p *Parser) warn(format string, args ...any) {
	p.warnAt(tokenSpan(p.top()), format, args...)
}

func (p *Parser) noteAt(span diag.Span, format string, args ...any) {
	p.notes++
	p.handler(diag.Note, p.file, span, fmt.Sprintf(format, args...))
}

// literal returns printable text for the current token, for error messages.
func (p *Parser) literal() string {
	t := p.top()
	switch t.Type {
	case token.EOF:
		return "<EOF>"
	case token.EOL:
		return "end of line"
	default:
		return string(t.Text)
	}
}

// expect reports an error unless the current token has the wanted type.
func (p *Parser) expect(tt token.Type, format string, args ...any) bool {
	if p.top().Type != tt {
		p.syntaxError(format, args...)
		return false
	}
	return true
}

// consume is expect plus pop.
func (p *Parser) consume(tt token.Type, format string, args ...any) bool {
	if !p.expect(tt, format, args...) {
		return false
	}
	p.pop()
	return true
}

// skipEOL discards blank lines; rules that support every brace style call it
// before looking for '{'.
func (p *Parser) skipEOL() {
	for p.top().Type == token.EOL {
		p.pop()
	}
}

// endStatement consumes the EOL terminating a statement. A closing brace or
// EOF also ends it, without being consumed.
func (p *Parser) endStatement(what string) bool {
	switch p.top().Type {
	case token.EOL:
		p.pop()
		return true
	case token.RBRACE, token.EOF:
		return true
	default:
		p.syntaxError("Expected end of line after %s", what)
		return false
	}
}

// endTopLevel consumes the EOL terminating a top-level declaration; EOF also
// ends it.
func (p *Parser) endTopLevel(what string) bool {
	switch p.top().Type {
	case token.EOL:
		p.pop()
		return true
	case token.EOF:
		return true
	default:
		p.syntaxError("Expected end-of-line after %s", what)
		return false
	}
}

// ---- recovery ----

// syncStatement discards tokens after a failed statement until an EOL at
// brace depth zero. It reports whether the enclosing block can continue; an
// imbalanced closing brace ends the block instead.
func (p *Parser) syncStatement() bool {
	depth := 0
	for {
		switch p.pop().Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth < 0 {
				return false
			}
		case token.EOL:
			if depth == 0 {
				return true
			}
		case token.EOF:
			return false
		}
	}
}

// seekToplevel skips tokens until something that can begin a top-level
// declaration at depth zero, or EOF.
func (p *Parser) seekToplevel() {
	// always make progress, even when the failure happened on a token that
	// could itself begin a declaration
	if p.top().Type != token.EOF {
		p.pop()
	}
	depth := 0
	for {
		t := p.top()
		switch t.Type {
		case token.EOF:
			return
		case token.LBRACE:
			depth++
		case token.RBRACE:
			if depth > 0 {
				depth--
			}
		case token.KwPub.Type(), token.KwImport.Type(), token.KwFunc.Type(),
			token.KwMacro.Type(), token.KwConst.Type(), token.KwStruct.Type(),
			token.DIRECTIVE:
			if depth == 0 {
				return
			}
		}
		p.pop()
	}
}

// reservedName reports whether a declared name is reserved: a leading
// underscore followed by another underscore or nothing.
func reservedName(name string) bool {
	if len(name) == 0 || name[0] != '_' {
		return false
	}
	return len(name) == 1 || name[1] == '_'
}

// checkDeclName diagnoses reserved identifiers used as declaration names.
func (p *Parser) checkDeclName(name *ast.Name) {
	if name != nil && reservedName(name.Name) {
		p.errorFrom(name, "'%s' is a reserved identifier", name.Name)
	}
}
