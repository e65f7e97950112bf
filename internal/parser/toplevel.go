package parser

import (
	"fmt"

	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/diag"
	"github.com/Beefster09/table-lang/internal/token"
)

// toplevelItem parses one top-level declaration into the module. It reports
// whether parsing can continue without resynchronizing.
func (p *Parser) toplevelItem(module *ast.Module) bool {
	p.skipEOL() // filter empty lines

	isPub := false
	if p.top().Type == token.KwPub.Type() {
		p.pop()
		isPub = true
	}

	switch p.top().Type {
	case token.KwPub.Type():
		p.syntaxError("Repeated 'pub'")
		return false

	case token.KwImport.Type():
		if isPub {
			p.errorAt(tokenSpan(p.top()), "'pub' cannot be applied to import statements")
		}
		imp := p.importDef()
		if imp == nil {
			return false
		}
		if imp.LocalName != nil {
			p.register(module, imp.LocalName.Name, imp, imp.LocalName)
		} else if imp.IsUsing {
			key := fmt.Sprintf(".import_%d", module.Scope.Len())
			module.Scope.Put(key, imp)
		}
		return true

	case token.KwFunc.Type():
		fn := p.funcDef()
		if fn == nil {
			return false
		}
		fn.Pub = isPub
		if fn.Name == nil {
			p.errorFrom(fn, "This function in module scope does not have a name.")
			return false
		}
		if existing, ok := module.Scope.Get(fn.Name.Name); ok {
			if overload, isOverload := existing.(*ast.FuncOverload); isOverload {
				overload.Overloads = append(overload.Overloads, fn)
			} else {
				p.errorFrom(fn.Name, "Function definition for '%s' conflicts with something already in scope.", fn.Name.Name)
			}
		} else {
			overload := &ast.FuncOverload{Name: fn.Name.Name}
			p.beginFrom(&overload.NodeInfo, ast.KindFuncOverload, fn)
			overload.Overloads = append(overload.Overloads, fn)
			module.Scope.Put(overload.Name, overload)
		}
		return p.endTopLevel("function definition")

	case token.KwMacro.Type():
		mac := p.macroDef()
		if mac == nil {
			return false
		}
		mac.Pub = isPub
		p.register(module, mac.Name.Name, mac, mac.Name)
		return true

	case token.KwConst.Type():
		return p.constItem(module, isPub)

	case token.KwStruct.Type():
		st := p.structDef()
		if st == nil {
			return false
		}
		st.Pub = isPub
		p.register(module, st.Name.Name, st, st.Name)
		return true

	case token.DIRECTIVE:
		return p.toplevelDirective(module, isPub)

	case token.RPAREN:
		p.syntaxError("Unmatched parenthesis")
		return false
	case token.RBRACE:
		p.syntaxError("Unmatched curly brace")
		return false
	case token.RSQUARE:
		p.syntaxError("Unmatched square bracket")
		return false

	case token.EOL:
		if isPub {
			p.syntaxError("'pub' must be followed by a top-level declaration")
			return false
		}
		p.pop()
		return true

	case token.EOF:
		if isPub {
			p.syntaxError("'pub' must be followed by a top-level declaration")
			return false
		}
		return true

	case token.ERROR:
		p.syntaxError("Malformed token '%s'", p.top().Text)
		return false

	default:
		msg := fmt.Sprintf("Top level scope cannot begin with '%s'", p.literal())
		if p.top().Type == token.IDENT {
			if hint, ok := diag.Suggest(string(p.top().Str), token.KeywordNames()); ok {
				msg += fmt.Sprintf(" (did you mean '%s'?)", hint)
			}
		}
		p.syntaxError("%s", msg)
		return false
	}
}

// register inserts a named declaration into the module scope, diagnosing
// duplicates without dropping the parse.
func (p *Parser) register(module *ast.Module, name string, decl ast.Node, at ast.Node) {
	if !module.Scope.Put(name, decl) {
		p.errorFrom(at, "Something named '%s' already exists in this module.", name)
	}
}

// constItem handles both the single 'const name ...' form and the
// 'const { ... }' block form.
func (p *Parser) constItem(module *ast.Module, isPub bool) bool {
	p.pop() // 'const'
	if p.top().Type == token.LBRACE {
		p.pop() // '{'
		if !p.consume(token.EOL, "Expected end of line to begin const block.") {
			return false
		}
		for p.top().Type != token.RBRACE {
			if p.top().Type == token.EOL { // skip empty lines
				p.pop()
				continue
			}
			if p.top().Type == token.EOF {
				p.syntaxError("Unexpected end of file inside const block")
				return false
			}
			constant := p.constDef()
			if constant == nil {
				return false
			}
			constant.Pub = isPub
			p.register(module, constant.Name.Name, constant, constant.Name)
			if !p.consume(token.EOL, "Expected end of line after block constant") {
				return false
			}
		}
		p.pop() // '}'
		return p.endTopLevel("const block")
	}

	constant := p.constDef()
	if constant == nil {
		return false
	}
	constant.Pub = isPub
	p.register(module, constant.Name.Name, constant, constant.Name)
	return p.endTopLevel("const")
}

// constDef parses 'name [: type] = value' after the 'const' keyword has been
// consumed.
func (p *Parser) constDef() *ast.Const {
	constant := &ast.Const{}
	p.begin(&constant.NodeInfo, ast.KindConst)

	if !p.expect(token.IDENT, "Expected name of constant") {
		return nil
	}
	constant.Name = p.simpleName()
	if constant.Name == nil {
		return nil
	}
	p.checkDeclName(constant.Name)

	switch p.top().Type {
	case token.COLON:
		p.pop() // ':'
		if p.top().Type != token.ASSIGN {
			constant.Type = p.typeExpr(0)
			if constant.Type == nil {
				return nil
			}
			if !p.expect(token.ASSIGN, "Expected '=' after type") {
				return nil
			}
		}
		fallthrough
	case token.ASSIGN:
		p.pop() // '='
		constant.Value = p.expr(0)
		if constant.Value == nil {
			return nil
		}
	default:
		p.syntaxError("Expected ':' or '=' after constant name")
		return nil
	}

	p.finish(&constant.NodeInfo)
	return constant
}

// importDef parses the import statement forms:
//
//	import a.b.c
//	import name = a.b.c
//	import name = "path"
//	import using a.b.c
//	import using "path"
func (p *Parser) importDef() *ast.Import {
	imp := &ast.Import{}
	p.begin(&imp.NodeInfo, ast.KindImport)
	p.pop() // 'import'

	switch p.top().Type {
	case token.KwUsing.Type():
		imp.IsUsing = true
		p.pop()
		switch p.top().Type {
		case token.STRING:
			imp.Path = string(p.pop().Str)
			if !p.consume(token.EOL, "Expected end-of-line after 'using' pathname import") {
				return nil
			}
			p.finish(&imp.NodeInfo)
			return imp
		case token.IDENT:
			imp.Qualified = p.qualname(false)
			if imp.Qualified == nil {
				return nil
			}
			local := &ast.Name{Name: imp.Qualified.Join()}
			p.beginFrom(&local.NodeInfo, ast.KindName, imp.Qualified)
			imp.LocalName = local
			if !p.consume(token.EOL, "Expected end-of-line after 'using' qualified name import") {
				return nil
			}
			p.finish(&imp.NodeInfo)
			return imp
		default:
			p.syntaxError("Invalid target of 'using' import")
			return nil
		}

	case token.IDENT:
		// valid, but not sure which form this is yet

	case token.EOL:
		p.syntaxError("import statement is missing its target")
		return nil
	default:
		p.syntaxError("Invalid target of import")
		return nil
	}

	switch p.la(1).Type {
	case token.EOL, token.EOF, token.DOT: // qualified name form
		imp.Qualified = p.qualname(false)
		if imp.Qualified == nil {
			return nil
		}
		local := &ast.Name{Name: imp.Qualified.Join()}
		p.beginFrom(&local.NodeInfo, ast.KindName, imp.Qualified)
		imp.LocalName = local
		if !p.consume(token.EOL, "Expected end-of-line after qualified name import") {
			return nil
		}
		p.finish(&imp.NodeInfo)
		return imp

	case token.ASSIGN: // local name form
		imp.LocalName = p.simpleName()
		if imp.LocalName == nil {
			return nil
		}
		p.checkDeclName(imp.LocalName)
		p.pop() // '='
		switch p.top().Type {
		case token.STRING:
			imp.Path = string(p.pop().Str)
			if !p.consume(token.EOL, "Expected end-of-line after pathname import") {
				return nil
			}
		case token.IDENT:
			imp.Qualified = p.qualname(false)
			if imp.Qualified == nil {
				return nil
			}
			if !p.consume(token.EOL, "Expected end-of-line after localized import") {
				return nil
			}
		case token.EOL:
			p.syntaxError("localized import statement is missing its target")
			return nil
		default:
			p.syntaxError("Invalid target of localized import")
			return nil
		}
		p.finish(&imp.NodeInfo)
		return imp

	default:
		p.pop()
		p.syntaxError("Unexpected token in import statement: '%s'", p.literal())
		return nil
	}
}

// isOperatorName reports whether a token can name an operator function.
func isOperatorName(t token.Type) bool {
	switch t {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.TILDE,
		token.PERCENT, token.CARET, token.AMP, token.BAR,
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE,
		token.CUSTOM_OPERATOR:
		return true
	default:
		return false
	}
}

// funcDef parses a function definition after 'func'. Functions may be named
// by an identifier or an operator; a missing name is allowed here and
// rejected by the module-scope caller.
func (p *Parser) funcDef() *ast.FuncDef {
	fn := &ast.FuncDef{Params: ast.NewOrderedMap[*ast.Param]()}
	p.begin(&fn.NodeInfo, ast.KindFuncDef)
	p.pop() // 'func'

	switch {
	case p.top().Type == token.IDENT:
		fn.Name = p.simpleName()
		if fn.Name == nil {
			return nil
		}
		p.checkDeclName(fn.Name)
	case isOperatorName(p.top().Type):
		name := &ast.Name{}
		p.begin(&name.NodeInfo, ast.KindName)
		opTok := p.pop()
		if opTok.Type == token.CUSTOM_OPERATOR {
			name.Name = string(opTok.Str)
		} else {
			name.Name = string(opTok.Text)
		}
		p.finish(&name.NodeInfo)
		fn.Name = name
	case p.top().Type == token.LPAREN:
		// no name
	default:
		p.syntaxError("Expected an identifier or operator to name this function")
		return nil
	}

	if !p.paramList(fn.Params, fn.Name) {
		return nil
	}

	if p.top().Type == token.COLON {
		p.pop()
		fn.RetType = p.typeExpr(0)
		if fn.RetType == nil {
			return nil
		}
	}

	if !p.expect(token.LBRACE, "Expected function body") {
		return nil
	}
	fn.Body = p.block()
	if fn.Body == nil {
		return nil
	}
	p.finish(&fn.NodeInfo)
	return fn
}

// paramList parses '( ... )' of parameters into params. A lone ellipsis
// switches to keyword-only parameters; a typed parameter may carry its own
// vararg ellipsis; defaults follow '='.
func (p *Parser) paramList(params *ast.OrderedMap[*ast.Param], funcName *ast.Name) bool {
	if !p.consume(token.LPAREN, "Expected a parameter list") {
		return false
	}
	varargSeen := false
	for p.top().Type != token.RPAREN {
		if !varargSeen && p.top().Type == token.ELLIPSIS {
			p.pop()
			varargSeen = true
			if !p.consume(token.COMMA, "Expected comma after lone ellipsis in parameter list") {
				return false
			}
			if !p.expect(token.IDENT, "Expected a keyword-only parameter after lone ellipsis") {
				return false
			}
		}
		if !p.expect(token.IDENT, "Expected the name of a parameter") {
			return false
		}
		param := &ast.Param{IsKwOnly: varargSeen}
		p.begin(&param.NodeInfo, ast.KindParam)
		param.Name = p.simpleName()
		if param.Name == nil {
			return false
		}
		p.checkDeclName(param.Name)
		if params.Has(param.Name.Name) {
			who := "<anonymous>"
			if funcName != nil {
				who = funcName.Name
			}
			p.errorFrom(param.Name, "There is already a parameter named '%s' in function '%s'", param.Name.Name, who)
		}
		if p.top().Type == token.COLON {
			p.pop()
			param.Type = p.typeExpr(0)
			if param.Type == nil {
				return false
			}
			if p.top().Type == token.ELLIPSIS {
				if varargSeen {
					p.errorAt(tokenSpan(p.top()), "Parameter lists may only include one vararg")
				}
				p.pop()
				param.IsVararg = true
				varargSeen = true
			}
		}
		if p.top().Type == token.ASSIGN {
			if param.IsVararg {
				p.errorAt(tokenSpan(p.top()), "Varargs cannot have a default value")
			}
			p.pop()
			param.Default = p.expr(0)
			if param.Default == nil {
				return false
			}
		}
		p.finish(&param.NodeInfo)
		params.Put(param.Name.Name, param)
		if p.top().Type == token.COMMA {
			p.pop()
		} else if !p.expect(token.RPAREN, "Expected comma or end of parameter list") {
			return false
		}
	}
	p.pop() // ')'
	return true
}

// macroDef parses 'macro name(params) => template'.
func (p *Parser) macroDef() *ast.Macro {
	mac := &ast.Macro{Params: ast.NewOrderedMap[*ast.Param]()}
	p.begin(&mac.NodeInfo, ast.KindMacro)
	p.pop() // 'macro'

	mac.Name = p.simpleName()
	if mac.Name == nil {
		return nil
	}
	p.checkDeclName(mac.Name)

	if !p.paramList(mac.Params, mac.Name) {
		return nil
	}
	if !p.consume(token.ARROW, "Expected '=>' before macro template") {
		return nil
	}
	mac.Template = p.expr(0)
	if mac.Template == nil {
		return nil
	}
	p.finish(&mac.NodeInfo)
	return nilIfNoEOL(p, mac)
}

// nilIfNoEOL terminates a declaration at end of line.
func nilIfNoEOL[T ast.Node](p *Parser, n T) T {
	var zero T
	if !p.endTopLevel("declaration") {
		return zero
	}
	return n
}

// structDef parses a struct declaration:
//
//	struct Name (constraints...) {
//	    x, y: float = 0
//	    using base: Base
//	}
func (p *Parser) structDef() *ast.Struct {
	st := &ast.Struct{Fields: ast.NewOrderedMap[*ast.Field]()}
	p.begin(&st.NodeInfo, ast.KindStruct)
	p.pop() // 'struct'

	st.Name = p.simpleName()
	if st.Name == nil {
		return nil
	}
	p.checkDeclName(st.Name)

	if p.top().Type == token.LPAREN {
		p.pop()
		for p.top().Type != token.RPAREN {
			constraint := p.expr(0)
			if constraint == nil {
				return nil
			}
			st.Constraints = append(st.Constraints, constraint)
			if p.top().Type == token.COMMA {
				p.pop()
			} else if !p.expect(token.RPAREN, "Expected comma or end of struct constraints") {
				return nil
			}
		}
		p.pop() // ')'
	}

	p.skipEOL()
	if !p.consume(token.LBRACE, "Expected struct body") {
		return nil
	}
	for {
		p.skipEOL()
		if p.top().Type == token.RBRACE {
			break
		}
		if p.top().Type == token.EOF {
			p.syntaxError("Unexpected end of file inside struct")
			return nil
		}
		if !p.fieldGroup(st) {
			return nil
		}
	}
	p.pop() // '}'
	p.finish(&st.NodeInfo)
	return nilIfNoEOL(p, st)
}

// fieldGroup parses one struct field line: names sharing a type and,
// optionally, defaults. A single default applies to every name; otherwise
// defaults distribute by position.
func (p *Parser) fieldGroup(st *ast.Struct) bool {
	isUsing := false
	if p.top().Type == token.KwUsing.Type() {
		isUsing = true
		p.pop()
	}

	var names []*ast.Name
	for {
		if !p.expect(token.IDENT, "Expected the name of a field") {
			return false
		}
		name := p.simpleName()
		if name == nil {
			return false
		}
		p.checkDeclName(name)
		names = append(names, name)
		if p.top().Type != token.COMMA {
			break
		}
		p.pop()
	}

	if !p.consume(token.COLON, "Expected ':' and a type for these fields") {
		return false
	}
	fieldType := p.typeExpr(0)
	if fieldType == nil {
		return false
	}

	var defaults []ast.Node
	if p.top().Type == token.ASSIGN {
		p.pop()
		for {
			def := p.expr(0)
			if def == nil {
				return false
			}
			defaults = append(defaults, def)
			if p.top().Type != token.COMMA {
				break
			}
			p.pop()
		}
	}
	if len(defaults) > len(names) {
		p.errorFrom(defaults[len(names)], "More default values than fields in this group")
		defaults = defaults[:len(names)]
	}

	for i, name := range names {
		field := &ast.Field{Name: name, Type: fieldType, IsUsing: isUsing}
		p.beginFrom(&field.NodeInfo, ast.KindField, name)
		switch {
		case len(defaults) == 1:
			field.Default = defaults[0]
		case i < len(defaults):
			field.Default = defaults[i]
		}
		p.finishAt(&field.NodeInfo, p.prev())
		if !st.Fields.Put(name.Name, field) {
			p.errorFrom(name, "There is already a field named '%s' in struct '%s'", name.Name, st.Name.Name)
		}
	}

	if !p.consume(token.EOL, "Expected end of line after struct fields") {
		return false
	}
	return true
}

// toplevelDirective dispatches '#' directives that may appear at the top
// level.
func (p *Parser) toplevelDirective(module *ast.Module, isPub bool) bool {
	name := string(p.top().Str)
	switch name {
	case "overload":
		if isPub {
			p.errorAt(tokenSpan(p.top()), "'pub' cannot be applied to overload directives")
		}
		return p.overloadDirective(module)
	case "test":
		if isPub {
			p.errorAt(tokenSpan(p.top()), "'pub' cannot be applied to tests")
		}
		test := p.testDef()
		if test == nil {
			return false
		}
		module.Tests = append(module.Tests, test)
		return p.endTopLevel("test")
	default:
		p.syntaxError("Unknown top-level directive '#%s'", name)
		return false
	}
}

// overloadDirective parses '#overload name: a, b, c'.
func (p *Parser) overloadDirective(module *ast.Module) bool {
	overload := &ast.FuncOverload{}
	p.begin(&overload.NodeInfo, ast.KindFuncOverload)
	p.pop() // '#overload'

	name := p.simpleName()
	if name == nil {
		return false
	}
	p.checkDeclName(name)
	overload.Name = name.Name

	if !p.consume(token.COLON, "Expected ':' after overload name") {
		return false
	}
	for {
		member := p.simpleName()
		if member == nil {
			return false
		}
		overload.Overloads = append(overload.Overloads, member)
		if p.top().Type != token.COMMA {
			break
		}
		p.pop()
	}
	p.finish(&overload.NodeInfo)
	p.register(module, overload.Name, overload, name)
	return p.endTopLevel("overload directive")
}

// testDef parses '#test "description" { ... }'.
func (p *Parser) testDef() *ast.Test {
	test := &ast.Test{}
	p.begin(&test.NodeInfo, ast.KindTest)
	p.pop() // '#test'

	if p.top().Type == token.STRING {
		test.Description = p.stringLiteral(false)
		if test.Description == nil {
			return nil
		}
	}
	p.skipEOL()
	if !p.expect(token.LBRACE, "Expected test body") {
		return nil
	}
	test.Body = p.block()
	if test.Body == nil {
		return nil
	}
	p.finish(&test.NodeInfo)
	return test
}
