package parser

import (
	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/token"
)

// statement parses one statement, dispatching on the first token. A nil
// result with no new errors just means a blank line.
func (p *Parser) statement() ast.Node {
	switch p.top().Type {
	case token.EOL:
		p.pop()
		return nil

	case token.KwIf.Type():
		return nodeOrNil(p.ifStmt())
	case token.KwWhile.Type():
		return nodeOrNil(p.whileLoop())
	case token.KwFor.Type():
		return nodeOrNil(p.forLoop())
	case token.KwWith.Type():
		return nodeOrNil(p.withStmt())
	case token.KwMatch.Type():
		return nodeOrNil(p.matchStmt())
	case token.KwReturn.Type():
		return nodeOrNil(p.returnStmt())
	case token.KwBreak.Type():
		return nodeOrNil(p.breakStmt())
	case token.KwSkip.Type():
		return nodeOrNil(p.skipStmt())
	case token.KwFail.Type():
		return nodeOrNil(p.failStmt())
	case token.KwAssert.Type():
		return nodeOrNil(p.assertStmt())
	case token.KwDefer.Type():
		return nodeOrNil(p.deferStmt())
	case token.KwCancel.Type():
		return nodeOrNil(p.cancelStmt())

	case token.LBRACE:
		return nodeOrNil(p.block())

	case token.IDENT:
		if p.la(1).Type == token.COLON {
			return nodeOrNil(p.declaration())
		}
	}

	expression := p.expr(0)
	if expression == nil {
		return nil
	}
	switch p.top().Type {
	case token.ASSIGN:
		return nodeOrNil(p.assignment(expression))
	case token.COMMA:
		p.syntaxError("Parallel assignment is not implemented")
		return nil
	case token.EOL:
		p.pop()
		return expression
	case token.RBRACE, token.EOF:
		return expression
	default:
		if isBinopToken(p.top().Type) && p.la(1).Type == token.ASSIGN {
			return nodeOrNil(p.opAssignment(expression))
		}
		p.syntaxError("Expected end of line or assignment here")
		return nil
	}
}

// declaration parses 'name: [type] [= value]'.
func (p *Parser) declaration() *ast.VarDecl {
	decl := &ast.VarDecl{}
	p.begin(&decl.NodeInfo, ast.KindVarDecl)

	decl.Name = p.simpleName()
	if decl.Name == nil {
		return nil
	}
	p.checkDeclName(decl.Name)

	if !p.consume(token.COLON, "Expected colon in variable declaration") {
		return nil
	}
	if p.top().Type != token.ASSIGN {
		decl.Type = p.typeExpr(0)
		if decl.Type == nil {
			return nil
		}
	}
	switch p.top().Type {
	case token.EOL, token.RBRACE, token.EOF:
	case token.ASSIGN:
		p.pop() // '='
		decl.Value = p.expr(0)
		if decl.Value == nil {
			return nil
		}
	default:
		p.syntaxError("Unexpected token after type of variable declaration")
		return nil
	}
	if !p.endStatement("variable declaration") {
		return nil
	}
	p.finish(&decl.NodeInfo)
	return decl
}

// block parses '{ statements }'. After a failed statement it discards tokens
// to the next line at this depth and keeps going; an imbalanced closing
// brace gives the block up.
func (p *Parser) block() *ast.Block {
	blk := &ast.Block{}
	p.begin(&blk.NodeInfo, ast.KindBlock)
	if !p.consume(token.LBRACE, "Expected '{' to begin a block") {
		return nil
	}
	for p.top().Type != token.RBRACE {
		if p.top().Type == token.EOF {
			p.syntaxError("Unexpected end of file inside a block")
			return nil
		}
		errorsBefore := p.errors
		stmt := p.statement()
		if stmt != nil {
			blk.Body = append(blk.Body, stmt)
		} else if p.errors > errorsBefore {
			if !p.syncStatement() {
				return nil
			}
		}
	}
	if !p.consume(token.RBRACE, "Expected end of block") {
		return nil
	}
	p.finish(&blk.NodeInfo)
	return blk
}

func (p *Parser) ifStmt() *ast.IfStatement {
	cond := &ast.IfStatement{}
	p.begin(&cond.NodeInfo, ast.KindIfStatement)
	p.pop() // 'if'
	cond.Cond = p.expr(0)
	if cond.Cond == nil {
		return nil
	}
	p.skipEOL() // support ALL the brace styles
	if !p.expect(token.LBRACE, "Expected if condition to be followed by a block") {
		return nil
	}
	cond.Body = p.block()
	if cond.Body == nil {
		return nil
	}
	p.skipEOL()
	if p.top().Type == token.KwElse.Type() {
		p.pop()
		p.skipEOL()
		switch p.top().Type {
		case token.KwIf.Type():
			alt := p.ifStmt()
			if alt == nil {
				return nil
			}
			cond.Alt = alt
		case token.LBRACE:
			alt := p.block()
			if alt == nil {
				return nil
			}
			cond.Alt = alt
		default:
			p.syntaxError("Expected 'if' or '{' after 'else'")
			return nil
		}
	}
	p.finish(&cond.NodeInfo)
	return cond
}

func (p *Parser) whileLoop() *ast.WhileLoop {
	loop := &ast.WhileLoop{}
	p.begin(&loop.NodeInfo, ast.KindWhileLoop)
	p.pop() // 'while'
	loop.Cond = p.expr(0)
	if loop.Cond == nil {
		return nil
	}
	p.skipEOL() // support ALL the brace styles
	if !p.expect(token.LBRACE, "Expected while condition to be followed by a block") {
		return nil
	}
	loop.Body = p.block()
	if loop.Body == nil {
		return nil
	}
	p.finish(&loop.NodeInfo)
	return loop
}

// forLoop parses 'for [label:] [par|gpu] names in iterables { ... }'.
func (p *Parser) forLoop() *ast.ForLoop {
	loop := &ast.ForLoop{}
	p.begin(&loop.NodeInfo, ast.KindForLoop)
	p.pop() // 'for'

	if p.top().Type == token.IDENT && p.la(1).Type == token.COLON {
		loop.Label = string(p.pop().Str)
		p.pop() // ':'
	}

	switch p.top().Type {
	case token.KwPar.Type():
		loop.Mode = ast.ForParallelMode
		p.pop()
	case token.KwGpu.Type():
		loop.Mode = ast.ForGpu
		p.pop()
	}

	for {
		binding := p.simpleName()
		if binding == nil {
			return nil
		}
		p.checkDeclName(binding)
		loop.Bindings = append(loop.Bindings, binding)
		if p.top().Type != token.COMMA {
			break
		}
		p.pop()
	}

	if !p.consume(token.KwIn.Type(), "Expected 'in' after loop bindings") {
		return nil
	}

	for {
		iterable := p.expr(0)
		if iterable == nil {
			return nil
		}
		loop.Iterables = append(loop.Iterables, iterable)
		if p.top().Type != token.COMMA {
			break
		}
		p.pop()
	}

	p.skipEOL()
	if !p.expect(token.LBRACE, "Expected loop body") {
		return nil
	}
	loop.Body = p.block()
	if loop.Body == nil {
		return nil
	}
	p.finish(&loop.NodeInfo)
	return loop
}

// withStmt parses 'with [name =] expr, ... { ... }'.
func (p *Parser) withStmt() *ast.With {
	with := &ast.With{}
	p.begin(&with.NodeInfo, ast.KindWith)
	p.pop() // 'with'

	for {
		ctx := &ast.Context{}
		p.begin(&ctx.NodeInfo, ast.KindContext)
		if p.top().Type == token.IDENT && p.la(1).Type == token.ASSIGN {
			ctx.Name = p.simpleName()
			p.checkDeclName(ctx.Name)
			p.pop() // '='
		}
		ctx.Value = p.expr(0)
		if ctx.Value == nil {
			return nil
		}
		p.finish(&ctx.NodeInfo)
		with.Contexts = append(with.Contexts, ctx)
		if p.top().Type != token.COMMA {
			break
		}
		p.pop()
	}

	p.skipEOL()
	if !p.expect(token.LBRACE, "Expected 'with' contexts to be followed by a block") {
		return nil
	}
	with.Body = p.block()
	if with.Body == nil {
		return nil
	}
	p.finish(&with.NodeInfo)
	return with
}

// matchStmt parses 'match expr { case ... }'. Arms are ordered; 'else' is
// the arm with no patterns.
func (p *Parser) matchStmt() *ast.Match {
	match := &ast.Match{}
	p.begin(&match.NodeInfo, ast.KindMatch)
	p.pop() // 'match'

	if p.top().Type == token.KwType.Type() {
		p.syntaxError("type match is not implemented")
		return nil
	}

	match.Subject = p.expr(0)
	if match.Subject == nil {
		return nil
	}
	p.skipEOL()
	if !p.consume(token.LBRACE, "Expected match subject to be followed by a block") {
		return nil
	}

	for {
		p.skipEOL()
		switch p.top().Type {
		case token.RBRACE:
			p.pop()
			p.finish(&match.NodeInfo)
			return match

		case token.KwCase.Type():
			arm := &ast.MatchCase{}
			p.begin(&arm.NodeInfo, ast.KindMatchCase)
			p.pop() // 'case'
			for {
				pattern := p.expr(0)
				if pattern == nil {
					return nil
				}
				arm.Patterns = append(arm.Patterns, pattern)
				if p.top().Type != token.COMMA {
					break
				}
				p.pop()
			}
			p.skipEOL()
			if !p.expect(token.LBRACE, "Expected case patterns to be followed by a block") {
				return nil
			}
			arm.Body = p.block()
			if arm.Body == nil {
				return nil
			}
			p.finish(&arm.NodeInfo)
			match.Cases = append(match.Cases, arm)

		case token.KwElse.Type():
			arm := &ast.MatchCase{}
			p.begin(&arm.NodeInfo, ast.KindMatchCase)
			p.pop() // 'else'
			p.skipEOL()
			if !p.expect(token.LBRACE, "Expected 'else' to be followed by a block") {
				return nil
			}
			arm.Body = p.block()
			if arm.Body == nil {
				return nil
			}
			p.finish(&arm.NodeInfo)
			match.Cases = append(match.Cases, arm)

		case token.EOF:
			p.syntaxError("Unexpected end of file inside match")
			return nil

		default:
			p.syntaxError("Expected 'case', 'else', or end of match, not %s", p.literal())
			return nil
		}
	}
}

func (p *Parser) returnStmt() *ast.Return {
	ret := &ast.Return{}
	p.begin(&ret.NodeInfo, ast.KindReturn)
	p.pop() // 'return'
	switch p.top().Type {
	case token.EOL, token.RBRACE, token.EOF:
	default:
		ret.Value = p.expr(0)
		if ret.Value == nil {
			return nil
		}
	}
	if !p.endStatement("return") {
		return nil
	}
	p.finish(&ret.NodeInfo)
	return ret
}

func (p *Parser) breakStmt() *ast.Break {
	brk := &ast.Break{}
	p.begin(&brk.NodeInfo, ast.KindBreak)
	p.pop() // 'break'
	if p.top().Type == token.IDENT {
		brk.Label = string(p.pop().Str)
	}
	if !p.endStatement("break") {
		return nil
	}
	p.finish(&brk.NodeInfo)
	return brk
}

func (p *Parser) skipStmt() *ast.Skip {
	skip := &ast.Skip{}
	p.begin(&skip.NodeInfo, ast.KindSkip)
	p.pop() // 'skip'
	if p.top().Type == token.IDENT {
		skip.Label = string(p.pop().Str)
	}
	if !p.endStatement("skip") {
		return nil
	}
	p.finish(&skip.NodeInfo)
	return skip
}

func (p *Parser) failStmt() *ast.Fail {
	fail := &ast.Fail{}
	p.begin(&fail.NodeInfo, ast.KindFail)
	p.pop() // 'fail'
	switch p.top().Type {
	case token.EOL, token.RBRACE, token.EOF:
	default:
		fail.Value = p.expr(0)
		if fail.Value == nil {
			return nil
		}
	}
	if !p.endStatement("fail") {
		return nil
	}
	p.finish(&fail.NodeInfo)
	return fail
}

func (p *Parser) assertStmt() *ast.Assert {
	assert := &ast.Assert{}
	p.begin(&assert.NodeInfo, ast.KindAssert)
	p.pop() // 'assert'
	assert.Cond = p.expr(0)
	if assert.Cond == nil {
		return nil
	}
	if p.top().Type == token.COMMA {
		p.pop()
		assert.Message = p.expr(0)
		if assert.Message == nil {
			return nil
		}
	}
	if !p.endStatement("assert") {
		return nil
	}
	p.finish(&assert.NodeInfo)
	return assert
}

func (p *Parser) deferStmt() *ast.Defer {
	def := &ast.Defer{}
	p.begin(&def.NodeInfo, ast.KindDefer)
	p.pop() // 'defer'
	if p.top().Type == token.EOL {
		p.syntaxError("Expected a statement after 'defer'")
		return nil
	}
	stmt := p.statement()
	if stmt == nil {
		return nil
	}
	def.Stmt = stmt
	p.finish(&def.NodeInfo)
	return def
}

func (p *Parser) cancelStmt() *ast.Cancel {
	cancel := &ast.Cancel{}
	p.begin(&cancel.NodeInfo, ast.KindCancel)
	p.pop() // 'cancel'
	switch p.top().Type {
	case token.EOL, token.RBRACE, token.EOF:
	default:
		cancel.Value = p.expr(0)
		if cancel.Value == nil {
			return nil
		}
	}
	if !p.endStatement("cancel") {
		return nil
	}
	p.finish(&cancel.NodeInfo)
	return cancel
}

// assignment parses '= expr' chains after the first target: every
// expression before the final '=' is another target. Compound operators may
// not appear inside a chain.
func (p *Parser) assignment(lhs ast.Node) *ast.AssignChain {
	chain := &ast.AssignChain{Targets: []ast.Node{lhs}}
	p.beginFrom(&chain.NodeInfo, ast.KindAssignChain, lhs)

	for p.top().Type == token.ASSIGN {
		p.pop() // '='
		e := p.expr(0)
		if e == nil {
			return nil
		}
		if p.top().Type == token.ASSIGN {
			chain.Targets = append(chain.Targets, e)
			continue
		}
		if isBinopToken(p.top().Type) && p.la(1).Type == token.ASSIGN {
			p.syntaxError("Compound assignment cannot appear inside an assignment chain")
			return nil
		}
		chain.Value = e
		break
	}
	if !p.endStatement("assignment") {
		return nil
	}
	p.finish(&chain.NodeInfo)
	return chain
}

// opAssignment parses 'lhs op= expr'.
func (p *Parser) opAssignment(lhs ast.Node) *ast.OpAssign {
	op := &ast.OpAssign{LHS: lhs}
	p.beginFrom(&op.NodeInfo, ast.KindOpAssign, lhs)
	op.Op = string(p.pop().Text)
	if !p.consume(token.ASSIGN, "Expected '=' after compound assignment operator") {
		return nil
	}
	op.RHS = p.expr(0)
	if op.RHS == nil {
		return nil
	}
	if !p.endStatement("assignment") {
		return nil
	}
	p.finish(&op.NodeInfo)
	return op
}
