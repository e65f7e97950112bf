package parser

import (
	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/token"
)

// Precedence levels. Parity encodes associativity: odd levels are
// right-associative, even levels left-associative. Recursion tightens the
// bound with `prec | 1`, which makes left-associative operators refuse
// equal-precedence binding from the right.
const (
	rerefPrec     = 150
	expPrec       = 101
	unaryPrec     = 99
	muldivPrec    = 80
	addsubPrec    = 70
	wordPrec      = 60
	orelsePrec    = 50
	ternaryPrec   = 40
	barPrec       = 30
	lambdaPrec    = 25
	asyncPrec     = 20
	cmpPrec       = 10
	notPrec       = 8
	andPrec       = 6
	orPrec        = 4
	semicolonPrec = 2
)

// precedenceOf classifies an operator by its first character; custom
// operators inherit the class of their leading character, defaulting to word
// operator precedence.
func precedenceOf(firstChar byte) int {
	switch firstChar {
	case '^':
		return expPrec
	case '*', '/', '%', '&':
		return muldivPrec
	case '+', '-', '~':
		return addsubPrec
	case '?':
		return orelsePrec
	case '|':
		return barPrec
	case '=', '<', '>':
		return cmpPrec
	case ';':
		return semicolonPrec
	default:
		return wordPrec
	}
}

func isComparison(t token.Type) bool {
	switch t {
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return true
	default:
		return false
	}
}

func isBinopToken(t token.Type) bool {
	switch t {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.TILDE,
		token.PERCENT, token.CARET, token.AMP, token.BAR, token.QMARK,
		token.SEMICOLON, token.CUSTOM_OPERATOR:
		return true
	default:
		return false
	}
}

// expr is the Pratt loop. It accumulates into a single sub-expression,
// deciding at each token whether to extend, recurse, or return.
func (p *Parser) expr(precBefore int) ast.Node {
	var subExpr ast.Node
	ternarySeen := precBefore == ternaryPrec // ternary is non-associative

	for {
		t := p.top()
		switch {
		case t.Type == token.IDENT && subExpr == nil && p.la(1).Type == token.ARROW:
			subExpr = p.lambda()
			if subExpr == nil {
				return nil
			}

		case t.Type == token.IDENT || t.Type == token.INT || t.Type == token.FLOAT ||
			t.Type == token.BOOL || t.Type == token.STRING || t.Type == token.CHAR ||
			t.Type == token.NULL || t.Type == token.DIRECTIVE:
			if subExpr != nil {
				p.syntaxError("Unexpected atom in expression")
				return nil
			}
			subExpr = p.atom()
			if subExpr == nil {
				return nil
			}

		case t.Type == token.BACKSLASH:
			if subExpr == nil {
				p.syntaxError("Unexpected backslash")
				return nil
			}
			if wordPrec < precBefore|1 {
				return subExpr
			}
			subExpr = p.wordOp(subExpr)
			if subExpr == nil {
				return nil
			}

		case isBinopToken(t.Type):
			if subExpr != nil {
				if p.la(1).Type == token.ASSIGN {
					// compound assignment: hand control back to the
					// statement layer
					return subExpr
				}
				prec := precedenceOf(t.Text[0])
				if prec < precBefore|1 {
					return subExpr
				}
				op := &ast.Binop{LHS: subExpr, Op: string(p.pop().Text)}
				p.beginFrom(&op.NodeInfo, ast.KindBinop, subExpr)
				op.RHS = p.expr(precedenceOf(op.Op[0]))
				if op.RHS == nil {
					return nil
				}
				p.finish(&op.NodeInfo)
				subExpr = op
			} else {
				switch t.Type {
				case token.PLUS, token.MINUS, token.TILDE:
					// unary
				case token.CUSTOM_OPERATOR:
					switch t.Text[0] {
					case '+', '-', '~':
					default:
						p.syntaxError("'%s' cannot begin an expression", t.Text)
						return nil
					}
				default:
					p.syntaxError("'%s' cannot begin an expression", t.Text)
					return nil
				}
				op := &ast.Unary{}
				p.begin(&op.NodeInfo, ast.KindUnary)
				op.Op = string(p.pop().Text)
				op.Expr = p.expr(unaryPrec)
				if op.Expr == nil {
					return nil
				}
				p.finish(&op.NodeInfo)
				subExpr = op
			}

		case t.Type == token.AT:
			if subExpr != nil {
				p.syntaxError("Re-referencing must occur before a value")
				return nil
			}
			reref := &ast.Reref{}
			p.begin(&reref.NodeInfo, ast.KindReref)
			for p.top().Type == token.AT {
				p.pop()
				reref.Levels++
			}
			reref.Target = p.expr(rerefPrec)
			if reref.Target == nil {
				return nil
			}
			p.finish(&reref.NodeInfo)
			subExpr = reref

		case t.Type == token.KwNot.Type():
			if subExpr != nil {
				p.syntaxError("Boolean 'not' must precede a value")
				return nil
			}
			op := &ast.Not{}
			p.begin(&op.NodeInfo, ast.KindNot)
			p.pop()
			op.Expr = p.expr(notPrec)
			if op.Expr == nil {
				return nil
			}
			p.finish(&op.NodeInfo)
			subExpr = op

		case t.Type == token.KwAsync.Type() || t.Type == token.KwAwait.Type():
			if subExpr != nil {
				p.syntaxError("'%s' must precede a value", t.Keyword)
				return nil
			}
			isAsync := t.Type == token.KwAsync.Type()
			p.pop()
			if isAsync {
				op := &ast.Async{}
				p.begin(&op.NodeInfo, ast.KindAsync)
				op.NodeInfo.Span.StartLine, op.NodeInfo.Span.StartCol = t.Start.Line, t.Start.Col
				op.Expr = p.expr(asyncPrec)
				if op.Expr == nil {
					return nil
				}
				p.finish(&op.NodeInfo)
				subExpr = op
			} else {
				op := &ast.Await{}
				p.begin(&op.NodeInfo, ast.KindAwait)
				op.NodeInfo.Span.StartLine, op.NodeInfo.Span.StartCol = t.Start.Line, t.Start.Col
				op.Expr = p.expr(asyncPrec)
				if op.Expr == nil {
					return nil
				}
				p.finish(&op.NodeInfo)
				subExpr = op
			}

		case t.Type == token.KwType.Type():
			p.syntaxError("type expressions are not implemented")
			return nil

		case t.Type == token.KwAnd.Type():
			if subExpr == nil {
				p.syntaxError("Boolean 'and' requires an expression to its left")
				return nil
			}
			if andPrec <= precBefore {
				return subExpr
			}
			p.pop()
			op := &ast.And{LHS: subExpr}
			p.beginFrom(&op.NodeInfo, ast.KindAnd, subExpr)
			op.RHS = p.expr(andPrec)
			if op.RHS == nil {
				return nil
			}
			p.finish(&op.NodeInfo)
			subExpr = op

		case t.Type == token.KwOr.Type():
			if subExpr == nil {
				p.syntaxError("Boolean 'or' requires an expression to its left")
				return nil
			}
			if orPrec <= precBefore {
				return subExpr
			}
			p.pop()
			op := &ast.Or{LHS: subExpr}
			p.beginFrom(&op.NodeInfo, ast.KindOr, subExpr)
			op.RHS = p.expr(orPrec)
			if op.RHS == nil {
				return nil
			}
			p.finish(&op.NodeInfo)
			subExpr = op

		case isComparison(t.Type):
			if subExpr == nil {
				p.syntaxError("Comparison operator is missing left side expression")
				return nil
			}
			if cmpPrec <= precBefore {
				return subExpr
			}
			chain := &ast.ComparisonChain{}
			p.beginFrom(&chain.NodeInfo, ast.KindComparisonChain, subExpr)
			chain.Operands = append(chain.Operands, subExpr)
			for {
				chain.Ops = append(chain.Ops, string(p.pop().Text))
				operand := p.expr(cmpPrec)
				if operand == nil {
					return nil
				}
				chain.Operands = append(chain.Operands, operand)
				if !isComparison(p.top().Type) {
					break
				}
			}
			p.finish(&chain.NodeInfo)
			subExpr = chain

		case t.Type == token.KwIf.Type():
			if subExpr == nil {
				p.syntaxError("'if' requires a preceding sub-expression in an expression context")
				return nil
			}
			if ternaryPrec <= precBefore {
				return subExpr
			}
			if ternarySeen {
				p.syntaxError("ternary is non-associative")
				return nil
			}
			ternary := &ast.Ternary{TrueExpr: subExpr}
			p.beginFrom(&ternary.NodeInfo, ast.KindTernary, subExpr)
			p.pop() // 'if'
			ternary.Cond = p.expr(0)
			if ternary.Cond == nil {
				return nil
			}
			if !p.consume(token.KwElse.Type(), "Expected 'else' after ternary condition") {
				return nil
			}
			ternary.FalseExpr = p.expr(ternaryPrec)
			if ternary.FalseExpr == nil {
				return nil
			}
			p.finish(&ternary.NodeInfo)
			subExpr = ternary
			ternarySeen = true

		case t.Type == token.KwElse.Type():
			if subExpr == nil || ternaryPrec < precBefore {
				p.syntaxError("Unexpected 'else' in expression")
				return nil
			}
			return subExpr

		case t.Type == token.LPAREN:
			if subExpr != nil {
				p.pop() // '('
				call := p.funcCall(subExpr)
				if call == nil {
					return nil
				}
				if !p.consume(token.RPAREN, "Expected ')' at end of argument list") {
					return nil
				}
				p.finish(&call.NodeInfo)
				subExpr = call
			} else if p.parenLambdaAhead() {
				subExpr = p.lambda()
				if subExpr == nil {
					return nil
				}
			} else {
				p.pop() // '('
				inner := p.expr(0)
				if inner == nil {
					return nil
				}
				if !p.consume(token.RPAREN, "Expected ')' at end of parenthesized sub-expression") {
					return nil
				}
				subExpr = inner
				p.finish(subExpr.Info())
			}

		case t.Type == token.LSQUARE:
			if subExpr != nil {
				if p.la(1).Type == token.RSQUARE {
					bc := &ast.Broadcast{Target: subExpr}
					p.beginFrom(&bc.NodeInfo, ast.KindBroadcast, subExpr)
					p.pop() // '['
					p.pop() // ']'
					p.finish(&bc.NodeInfo)
					subExpr = bc
				} else {
					p.pop() // '['
					sub := p.subscript(subExpr)
					if sub == nil {
						return nil
					}
					if !p.consume(token.RSQUARE, "Expected ']' at end of subscript") {
						return nil
					}
					p.finish(&sub.NodeInfo)
					subExpr = sub
				}
			} else {
				p.pop() // '['
				arr := p.arrayLiteral()
				if arr == nil {
					return nil
				}
				if !p.consume(token.RSQUARE, "Expected ']' at end of array literal") {
					return nil
				}
				p.finish(&arr.NodeInfo)
				subExpr = arr
			}

		case t.Type == token.DOT:
			if subExpr == nil {
				p.syntaxError("Expected value before field access")
				return nil
			}
			p.pop() // '.'
			fa := &ast.FieldAccess{Base: subExpr}
			p.beginFrom(&fa.NodeInfo, ast.KindFieldAccess, subExpr)
			fa.Field = p.qualname(false)
			if fa.Field == nil {
				return nil
			}
			p.finish(&fa.NodeInfo)
			subExpr = fa

		case t.Type == token.ERROR:
			p.syntaxError("Malformed token '%s'", t.Text)
			return nil

		default:
			// terminators and anything of lower precedence
			if subExpr != nil {
				return subExpr
			}
			p.syntaxError("Expected an expression here")
			return nil
		}
	}
}

// parenLambdaAhead recognizes a parenthesized lambda parameter list within
// the lookahead window: '()' before '=>', or '(' IDENT followed by ',' or
// ') =>'.
func (p *Parser) parenLambdaAhead() bool {
	if p.la(1).Type == token.RPAREN && p.la(2).Type == token.ARROW {
		return true
	}
	if p.la(1).Type == token.IDENT {
		switch p.la(2).Type {
		case token.COMMA:
			return true
		case token.RPAREN:
			return p.la(3).Type == token.ARROW
		}
	}
	return false
}

// lambda parses 'x => expr' or '(a, b) => expr' into an anonymous function
// whose body returns the expression.
func (p *Parser) lambda() ast.Node {
	fn := &ast.FuncDef{Params: ast.NewOrderedMap[*ast.Param]()}
	p.begin(&fn.NodeInfo, ast.KindFuncDef)

	addParam := func() bool {
		param := &ast.Param{}
		p.begin(&param.NodeInfo, ast.KindParam)
		param.Name = p.simpleName()
		if param.Name == nil {
			return false
		}
		p.finish(&param.NodeInfo)
		if !fn.Params.Put(param.Name.Name, param) {
			p.errorFrom(param.Name, "There is already a parameter named '%s'", param.Name.Name)
		}
		return true
	}

	if p.top().Type == token.LPAREN {
		p.pop()
		for p.top().Type != token.RPAREN {
			if !addParam() {
				return nil
			}
			if p.top().Type == token.COMMA {
				p.pop()
			} else if !p.expect(token.RPAREN, "Expected comma or end of lambda parameter list") {
				return nil
			}
		}
		p.pop() // ')'
	} else if !addParam() {
		return nil
	}

	if !p.consume(token.ARROW, "Expected '=>' after lambda parameters") {
		return nil
	}

	value := p.expr(lambdaPrec)
	if value == nil {
		return nil
	}
	ret := &ast.Return{Value: value}
	p.beginFrom(&ret.NodeInfo, ast.KindReturn, value)
	body := &ast.Block{Body: []ast.Node{ret}}
	p.beginFrom(&body.NodeInfo, ast.KindBlock, value)
	fn.Body = body
	p.finish(&fn.NodeInfo)
	return fn
}

// wordOp parses '\name expr' as a function call with the left operand as the
// first positional argument.
func (p *Parser) wordOp(leftSide ast.Node) ast.Node {
	call := &ast.FuncCall{IsWordOp: true}
	p.beginFrom(&call.NodeInfo, ast.KindFuncCall, leftSide)
	p.pop() // '\'
	if !p.expect(token.IDENT, "Expected qualified name here (for word operator)") {
		return nil
	}
	fn := p.qualname(false)
	if fn == nil {
		return nil
	}
	call.Func = fn
	call.PosArgs = append(call.PosArgs, leftSide)
	rhs := p.expr(wordPrec)
	if rhs == nil {
		return nil
	}
	call.PosArgs = append(call.PosArgs, rhs)
	p.finish(&call.NodeInfo)
	return call
}

// arrayLiteral parses the comma-separated elements after '['; the caller
// consumes the brackets.
func (p *Parser) arrayLiteral() *ast.Array {
	arr := &ast.Array{}
	p.begin(&arr.NodeInfo, ast.KindArray)
	for p.top().Type != token.RSQUARE {
		elem := p.expr(0)
		if elem == nil {
			return nil
		}
		arr.Elements = append(arr.Elements, elem)
		if p.top().Type == token.COMMA {
			p.pop()
		} else if !p.expect(token.RSQUARE, "Expected a comma here.") {
			return nil
		}
	}
	return arr
}

// funcCall parses the argument list after '('; the caller consumes the
// parentheses. Named arguments are 'name = expr'; positional arguments may
// not follow them.
func (p *Parser) funcCall(fn ast.Node) *ast.FuncCall {
	call := &ast.FuncCall{Func: fn}
	p.beginFrom(&call.NodeInfo, ast.KindFuncCall, fn)
	seenKwarg := false
	for p.top().Type != token.RPAREN {
		if p.top().Type == token.COMMA {
			p.syntaxError("Expected an argument to be supplied here")
			return nil
		}
		if p.top().Type == token.IDENT && p.la(1).Type == token.ASSIGN {
			seenKwarg = true
			keyTok := p.top()
			key := string(keyTok.Str)
			p.pop() // identifier
			p.pop() // '='
			value := p.expr(0)
			if value == nil {
				return nil
			}
			if call.KwArgs == nil {
				call.KwArgs = ast.NewOrderedMap[ast.Node]()
			}
			if !call.KwArgs.Put(key, value) {
				p.errorAt(tokenSpan(keyTok), "Repeated named argument '%s'", key)
			}
		} else {
			if seenKwarg {
				p.errorAt(tokenSpan(p.top()), "Positional arguments cannot be supplied after named arguments.")
			}
			arg := p.expr(0)
			if arg == nil {
				return nil
			}
			call.PosArgs = append(call.PosArgs, arg)
		}
		if p.top().Type == token.COMMA {
			p.pop()
		} else if !p.expect(token.RPAREN, "Expected a comma here.") {
			return nil
		}
	}
	return call
}

// subscript parses the comma-separated subscripts after '['. Each subscript
// is an expression or a slice; slices are recognized by a range token or a
// leading ':'.
func (p *Parser) subscript(array ast.Node) *ast.Subscript {
	sub := &ast.Subscript{Array: array}
	p.beginFrom(&sub.NodeInfo, ast.KindSubscript, array)
	for p.top().Type != token.RSQUARE {
		item := p.subscriptItem()
		if item == nil {
			return nil
		}
		sub.Subscripts = append(sub.Subscripts, item)
		if p.top().Type == token.COMMA {
			p.pop()
		} else if !p.expect(token.RSQUARE, "Expected a comma here.") {
			return nil
		}
	}
	return sub
}

func (p *Parser) subscriptItem() ast.Node {
	switch p.top().Type {
	case token.RANGE, token.ELLIPSIS, token.COLON:
		return nodeOrNil(p.slice(nil))
	}
	start := p.expr(0)
	if start == nil {
		return nil
	}
	switch p.top().Type {
	case token.RANGE, token.ELLIPSIS, token.COLON:
		return nodeOrNil(p.slice(start))
	}
	return start
}

// slice parses the remainder of a slice once its start (possibly nil) is
// known. The inclusive flag comes from the flavor of the range token; a step
// follows ':'.
func (p *Parser) slice(start ast.Node) *ast.Slice {
	sl := &ast.Slice{Start: start}
	if start != nil {
		p.beginFrom(&sl.NodeInfo, ast.KindSlice, start)
	} else {
		p.begin(&sl.NodeInfo, ast.KindSlice)
	}

	hadRange := false
	switch p.top().Type {
	case token.RANGE:
		p.pop()
		hadRange = true
	case token.ELLIPSIS:
		sl.Inclusive = true
		p.pop()
		hadRange = true
	}

	switch p.top().Type {
	case token.COLON, token.COMMA, token.RSQUARE:
		// no end
	default:
		end := p.expr(0)
		if end == nil {
			return nil
		}
		sl.End = end
	}

	if p.top().Type == token.COLON {
		p.pop()
		step := p.expr(0)
		if step == nil {
			return nil
		}
		sl.Step = step
	}

	p.finish(&sl.NodeInfo)
	switch {
	case sl.Start == nil && sl.End == nil && sl.Step == nil:
		p.noteAt(nodeSpan(sl), "This slice selects everything")
	case hadRange && !sl.Inclusive && sl.End == nil:
		p.errorFrom(sl, "Exclusive slices must have an explicit end")
		return nil
	}
	return sl
}
