package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/token"
)

// qualname parses one or more dot-separated identifiers. With allowEOL set,
// line breaks may appear around the dots.
func (p *Parser) qualname(allowEOL bool) *ast.Qualname {
	qn := &ast.Qualname{}
	p.begin(&qn.NodeInfo, ast.KindQualname)
	if !p.expect(token.IDENT, "Unexpected token in qualified name: %s", p.literal()) {
		return nil
	}
	for {
		qn.Parts = append(qn.Parts, string(p.pop().Str))
		if allowEOL {
			p.skipEOL()
		}
		if p.top().Type != token.DOT {
			p.finish(&qn.NodeInfo)
			return qn
		}
		p.pop() // '.'
		if allowEOL {
			p.skipEOL()
		}
		if !p.expect(token.IDENT, "Expected an identifier after '.' in qualified name") {
			return nil
		}
	}
}

// simpleName parses exactly one identifier.
func (p *Parser) simpleName() *ast.Name {
	name := &ast.Name{}
	p.begin(&name.NodeInfo, ast.KindName)
	if !p.expect(token.IDENT, "Expected an identifier here, not %s", p.literal()) {
		return nil
	}
	name.Name = string(p.pop().Str)
	p.finish(&name.NodeInfo)
	return name
}

func (p *Parser) intLiteral() *ast.Int {
	leaf := &ast.Int{}
	p.begin(&leaf.NodeInfo, ast.KindInt)
	if !p.expect(token.INT, "Expected an integer here") {
		return nil
	}
	leaf.Value = p.pop().Int
	p.finish(&leaf.NodeInfo)
	return leaf
}

func (p *Parser) floatLiteral() *ast.Float {
	leaf := &ast.Float{}
	p.begin(&leaf.NodeInfo, ast.KindFloat)
	if !p.expect(token.FLOAT, "Expected a float here") {
		return nil
	}
	leaf.Value = p.pop().Float
	p.finish(&leaf.NodeInfo)
	return leaf
}

func (p *Parser) boolLiteral() *ast.Bool {
	leaf := &ast.Bool{}
	p.begin(&leaf.NodeInfo, ast.KindBool)
	if !p.expect(token.BOOL, "Expected a boolean here") {
		return nil
	}
	leaf.Value = p.pop().Bool
	p.finish(&leaf.NodeInfo)
	return leaf
}

func (p *Parser) charLiteral() *ast.Char {
	leaf := &ast.Char{}
	p.begin(&leaf.NodeInfo, ast.KindChar)
	if !p.expect(token.CHAR, "Expected a character here") {
		return nil
	}
	leaf.Value = p.pop().Char
	p.finish(&leaf.NodeInfo)
	return leaf
}

func (p *Parser) nullLiteral() *ast.Null {
	leaf := &ast.Null{}
	p.begin(&leaf.NodeInfo, ast.KindNull)
	if !p.expect(token.NULL, "Expected 'null' here") {
		return nil
	}
	p.pop()
	p.finish(&leaf.NodeInfo)
	return leaf
}

// stringLiteral parses a string; adjacent string tokens concatenate into one
// node. With allowEOL set the pieces may be split across lines.
func (p *Parser) stringLiteral(allowEOL bool) *ast.String {
	leaf := &ast.String{}
	p.begin(&leaf.NodeInfo, ast.KindString)
	if !p.expect(token.STRING, "Expected a string here") {
		return nil
	}
	var sb strings.Builder
	sb.Write(p.pop().Str)
	for {
		if allowEOL && p.top().Type == token.EOL && p.la(1).Type == token.STRING {
			p.pop()
		}
		if p.top().Type != token.STRING {
			break
		}
		sb.Write(p.pop().Str)
	}
	leaf.Value = sb.String()
	p.finish(&leaf.NodeInfo)
	return leaf
}

// atom parses a leaf expression from the current token.
func (p *Parser) atom() ast.Node {
	switch p.top().Type {
	case token.INT:
		return nodeOrNil(p.intLiteral())
	case token.FLOAT:
		return nodeOrNil(p.floatLiteral())
	case token.BOOL:
		return nodeOrNil(p.boolLiteral())
	case token.STRING:
		return nodeOrNil(p.stringLiteral(false))
	case token.CHAR:
		return nodeOrNil(p.charLiteral())
	case token.NULL:
		return nodeOrNil(p.nullLiteral())
	case token.IDENT:
		return nodeOrNil(p.qualname(false))
	case token.DIRECTIVE:
		return p.exprDirective()
	default:
		p.syntaxError("Expected atom (an integer, float, boolean, string, or qualified name), not %s", p.literal())
		return nil
	}
}

// nodeOrNil flattens a typed nil into an untyped one so failure checks stay
// simple at call sites.
func nodeOrNil[T ast.Node](n T) ast.Node {
	var zero T
	if any(n) == any(zero) {
		return nil
	}
	return n
}

// exprDirective handles directives that are valid in expression position.
// '#read "file"' substitutes the file's contents as a string literal at
// parse time; a missing file is a fatal parse error.
func (p *Parser) exprDirective() ast.Node {
	name := string(p.top().Str)
	switch name {
	case "read":
		leaf := &ast.String{}
		p.begin(&leaf.NodeInfo, ast.KindString)
		p.pop() // '#read'
		if !p.expect(token.STRING, "Expected a file name string after #read") {
			return nil
		}
		fileTok := p.pop()
		data, err := p.readFile(string(fileTok.Str))
		if err != nil {
			p.errorAt(tokenSpan(fileTok), "#read: unable to open '%s'", fileTok.Str)
			return nil
		}
		leaf.Value = string(data)
		p.finish(&leaf.NodeInfo)
		return leaf
	default:
		p.syntaxError("Unknown directive '#%s' in expression", name)
		return nil
	}
}

// readFile resolves a #read target against the source file's directory and
// any configured read paths.
func (p *Parser) readFile(name string) ([]byte, error) {
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	dirs := append([]string{filepath.Dir(p.file)}, p.readPaths...)
	var firstErr error
	for _, dir := range dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
