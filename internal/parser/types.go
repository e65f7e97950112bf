package parser

import (
	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/token"
)

// Type precedence levels; the expression levels do not apply here.
const (
	modifierPrec = 100
	unionPrec    = 20
	funcTypePrec = 15
)

// isTypeStart reports whether a token can begin a type.
func isTypeStart(t token.Type) bool {
	switch t {
	case token.IDENT, token.AT, token.LSQUARE, token.BAR, token.LPAREN,
		token.ARROW, token.QMARK, token.BANG,
		token.KwMut.Type(), token.KwOpt.Type():
		return true
	default:
		return false
	}
}

// typeExpr is the Pratt engine for types. Prefix modifiers bind tightest;
// unions and function arrows are the only infix forms.
func (p *Parser) typeExpr(precBefore int) ast.Node {
	var subType ast.Node

	for {
		t := p.top()
		switch t.Type {
		case token.IDENT:
			if subType != nil {
				p.syntaxError("Unexpected identifier in type")
				return nil
			}
			subType = p.simpleOrTemplateType()
			if subType == nil {
				return nil
			}

		case token.KwMut.Type(), token.BANG:
			if subType != nil {
				p.syntaxError("'%s' must precede a type", p.literal())
				return nil
			}
			subType = p.mutableType()
			if subType == nil {
				return nil
			}

		case token.KwOpt.Type(), token.QMARK:
			if subType != nil {
				p.syntaxError("'%s' must precede a type", p.literal())
				return nil
			}
			subType = p.optionalType()
			if subType == nil {
				return nil
			}

		case token.AT:
			if subType != nil {
				p.syntaxError("Pointer designations must precede a type")
				return nil
			}
			ptr := &ast.PointerType{}
			p.begin(&ptr.NodeInfo, ast.KindPointerType)
			p.pop() // '@'
			ptr.Base = p.typeExpr(modifierPrec)
			if ptr.Base == nil {
				return nil
			}
			p.finish(&ptr.NodeInfo)
			subType = ptr

		case token.LSQUARE:
			if subType != nil {
				p.syntaxError("Unexpected '[' after a type")
				return nil
			}
			subType = p.arrayType()
			if subType == nil {
				return nil
			}

		case token.BAR:
			if subType == nil {
				p.syntaxError("Union type chain requires a type to the left")
				return nil
			}
			if unionPrec <= precBefore {
				return subType
			}
			union := &ast.UnionType{}
			p.beginFrom(&union.NodeInfo, ast.KindUnionType, subType)
			union.Variants = append(union.Variants, subType)
			for p.top().Type == token.BAR {
				p.pop() // '|'
				variant := p.typeExpr(unionPrec)
				if variant == nil {
					return nil
				}
				union.Variants = append(union.Variants, variant)
			}
			p.finish(&union.NodeInfo)
			subType = union

		case token.ARROW:
			if funcTypePrec < precBefore {
				if subType == nil {
					p.syntaxError("Expected a type here")
				}
				return subType
			}
			fn := &ast.FuncType{}
			if subType != nil {
				p.beginFrom(&fn.NodeInfo, ast.KindFuncType, subType)
				fn.ParamTypes = append(fn.ParamTypes, subType)
			} else {
				p.begin(&fn.NodeInfo, ast.KindFuncType)
			}
			if !p.funcTypeRHS(fn) {
				return nil
			}
			p.finish(&fn.NodeInfo)
			subType = fn

		case token.LPAREN:
			if subType != nil {
				p.syntaxError("Unexpected '(' after a type")
				return nil
			}
			if p.la(1).Type == token.RPAREN && p.la(2).Type == token.ARROW {
				fn := &ast.FuncType{}
				p.begin(&fn.NodeInfo, ast.KindFuncType)
				p.pop() // '('
				p.pop() // ')'
				if !p.funcTypeRHS(fn) {
					return nil
				}
				p.finish(&fn.NodeInfo)
				subType = fn
				break
			}
			p.pop() // '('
			inner := p.typeExpr(precBefore & 1)
			if inner == nil {
				return nil
			}
			if p.top().Type == token.COMMA {
				// a parenthesized comma list must be function parameters
				fn := &ast.FuncType{}
				p.beginFrom(&fn.NodeInfo, ast.KindFuncType, inner)
				fn.ParamTypes = append(fn.ParamTypes, inner)
				for p.top().Type == token.COMMA {
					p.pop() // ','
					param := p.typeExpr(0)
					if param == nil {
						return nil
					}
					fn.ParamTypes = append(fn.ParamTypes, param)
				}
				if !p.consume(token.RPAREN, "Expected end of parameter type list here") {
					return nil
				}
				if !p.expect(token.ARROW, "Expected function arrow here") {
					return nil
				}
				if !p.funcTypeRHS(fn) {
					return nil
				}
				p.finish(&fn.NodeInfo)
				subType = fn
			} else {
				if !p.consume(token.RPAREN, "Expected matching parenthesis here") {
					return nil
				}
				subType = inner
				p.finish(subType.Info())
			}

		default:
			if subType != nil {
				return subType
			}
			p.syntaxError("Expected a type here")
			return nil
		}
	}
}

// funcTypeRHS consumes '=>' and an optional return type; absent means the
// unit function type.
func (p *Parser) funcTypeRHS(fn *ast.FuncType) bool {
	p.pop() // '=>'
	switch p.top().Type {
	case token.LPAREN:
		if p.la(1).Type == token.RPAREN && p.la(2).Type != token.ARROW {
			p.pop() // '('
			p.pop() // ')'
			return true
		}
	default:
		if !isTypeStart(p.top().Type) {
			return true
		}
	}
	ret := p.typeExpr(funcTypePrec)
	if ret == nil {
		return false
	}
	fn.ReturnType = ret
	return true
}

// simpleOrTemplateType parses a qualified name, possibly instantiated with
// template arguments.
func (p *Parser) simpleOrTemplateType() ast.Node {
	simple := &ast.SimpleType{}
	p.begin(&simple.NodeInfo, ast.KindSimpleType)
	base := p.qualname(false)
	if base == nil {
		return nil
	}
	simple.Base = base

	if p.top().Type == token.LPAREN {
		tmpl := &ast.TemplateType{Base: base}
		p.beginFrom(&tmpl.NodeInfo, ast.KindTemplateType, base)
		p.pop() // '('
		for p.top().Type != token.RPAREN {
			arg := p.typeExpr(0)
			if arg == nil {
				return nil
			}
			tmpl.Args = append(tmpl.Args, arg)
			if p.top().Type == token.COMMA {
				p.pop()
			} else if !p.expect(token.RPAREN, "Expected comma or end of template arguments") {
				return nil
			}
		}
		p.pop() // ')'
		p.finish(&tmpl.NodeInfo)
		return tmpl
	}

	p.finish(&simple.NodeInfo)
	return simple
}

// mutableType parses 'mut T' or '!T'. A directly nested mutable collapses
// with a warning.
func (p *Parser) mutableType() ast.Node {
	mut := &ast.MutableType{}
	p.begin(&mut.NodeInfo, ast.KindMutableType)
	p.pop() // 'mut' or '!'
	base := p.typeExpr(modifierPrec)
	if base == nil {
		return nil
	}
	if inner, ok := base.(*ast.MutableType); ok {
		p.warnAt(nodeSpan(inner), "Duplicated mutability modifier")
		return inner
	}
	mut.Base = base
	p.finish(&mut.NodeInfo)
	return mut
}

// optionalType parses 'opt T' or '?T'. The canonical form keeps MutableType
// outermost: opt mut T becomes mut opt T. A directly nested optional
// collapses with a warning.
func (p *Parser) optionalType() ast.Node {
	opt := &ast.OptionalType{}
	p.begin(&opt.NodeInfo, ast.KindOptionalType)
	p.pop() // 'opt' or '?'
	base := p.typeExpr(modifierPrec)
	if base == nil {
		return nil
	}
	if inner, ok := base.(*ast.OptionalType); ok {
		p.warnAt(nodeSpan(inner), "Duplicated optional modifier")
		return inner
	}
	if mut, ok := base.(*ast.MutableType); ok {
		opt.Base = mut.Base
		p.finish(&opt.NodeInfo)
		mut.Base = opt
		mut.Span = opt.Span
		return mut
	}
	opt.Base = base
	p.finish(&opt.NodeInfo)
	return opt
}

// arrayType parses the prefix '[shape]T' forms: '[]T' is 1-D dynamic, '[:N]T'
// is N-dimensional with runtime shape, otherwise a comma list of extents
// where '?' marks a runtime-determined dimension.
func (p *Parser) arrayType() ast.Node {
	arr := &ast.ArrayType{}
	p.begin(&arr.NodeInfo, ast.KindArrayType)
	p.pop() // '['

	switch p.top().Type {
	case token.COLON:
		p.pop()
		if !p.expect(token.INT, "Integer dimensionality required here") {
			return nil
		}
		dims := int(p.top().Int)
		if dims == 0 {
			p.errorAt(tokenSpan(p.top()), "Arrays cannot be zero-dimensional")
		}
		p.pop()
		arr.Shape = make([]ast.Node, dims)

	case token.RSQUARE:
		arr.IsDynamic = true

	default:
		for {
			if p.top().Type == token.QMARK {
				p.pop()
				arr.Shape = append(arr.Shape, nil)
			} else {
				dim := p.expr(0)
				if dim == nil {
					return nil
				}
				arr.Shape = append(arr.Shape, dim)
			}
			if p.top().Type == token.RSQUARE {
				break
			}
			if !p.consume(token.COMMA, "Expected comma or end of array dimensions") {
				return nil
			}
		}
	}

	if !p.consume(token.RSQUARE, "Expected right square bracket to end array dimensions") {
		return nil
	}

	elem := p.typeExpr(modifierPrec)
	if elem == nil {
		return nil
	}
	arr.Elem = elem
	p.finish(&arr.NodeInfo)
	return arr
}
