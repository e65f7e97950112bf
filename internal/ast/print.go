package ast

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Print writes an indented rendering of the tree rooted at node.
func Print(w io.Writer, node Node) {
	p := printer{w: w}
	p.node(node, "", 0)
}

type printer struct {
	w io.Writer
}

func (p *printer) line(depth int, format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (p *printer) node(n Node, label string, depth int) {
	if n == nil || (reflect.ValueOf(n).Kind() == reflect.Ptr && reflect.ValueOf(n).IsNil()) {
		return
	}
	prefix := ""
	if label != "" {
		prefix = label + ": "
	}
	head := prefix + n.Kind().String() + p.headDetail(n)
	p.line(depth, "%s  [%s]", head, n.Info().Span)
	for _, tag := range n.Info().Tags {
		p.node(tag, "tag", depth+1)
	}
	p.children(n, depth+1)
}

// headDetail renders the payload that fits on the header line.
func (p *printer) headDetail(n Node) string {
	switch v := n.(type) {
	case *Qualname:
		return " " + v.Join()
	case *Name:
		return " " + v.Name
	case *Int:
		return fmt.Sprintf(" %d", v.Value)
	case *Float:
		return fmt.Sprintf(" %g", v.Value)
	case *Bool:
		return fmt.Sprintf(" %t", v.Value)
	case *String:
		return fmt.Sprintf(" %q", v.Value)
	case *Char:
		return fmt.Sprintf(" %q", v.Value)
	case *Binop:
		return " " + v.Op
	case *Unary:
		return " " + v.Op
	case *OpAssign:
		return " " + v.Op
	case *ComparisonChain:
		return " " + strings.Join(v.Ops, " ")
	case *Reref:
		return fmt.Sprintf(" levels=%d", v.Levels)
	case *Import:
		out := ""
		if v.IsUsing {
			out = " using"
		}
		if v.Path != "" {
			out += fmt.Sprintf(" %q", v.Path)
		}
		return out
	case *FuncDef:
		out := ""
		if v.Name != nil {
			out = " " + v.Name.Name
		}
		if v.Pub {
			out += " pub"
		}
		return out
	case *Macro:
		return " " + v.Name.Name
	case *FuncOverload:
		return " " + v.Name
	case *Const:
		out := " " + v.Name.Name
		if v.Pub {
			out += " pub"
		}
		return out
	case *Struct:
		out := " " + v.Name.Name
		if v.Pub {
			out += " pub"
		}
		return out
	case *Field:
		out := " " + v.Name.Name
		if v.IsUsing {
			out += " using"
		}
		return out
	case *FuncCall:
		if v.IsWordOp {
			return " word-op"
		}
		return ""
	case *Slice:
		if v.Inclusive {
			return " inclusive"
		}
		return ""
	case *ArrayType:
		if v.IsDynamic {
			return " dynamic"
		}
		return ""
	case *ForLoop:
		out := " " + v.Mode.String()
		if v.Label != "" {
			out += " label=" + v.Label
		}
		return out
	case *Break:
		if v.Label != "" {
			return " " + v.Label
		}
	case *Skip:
		if v.Label != "" {
			return " " + v.Label
		}
	case *Param:
		out := " " + v.Name.Name
		if v.IsVararg {
			out += " vararg"
		}
		if v.IsKwOnly {
			out += " kw-only"
		}
		return out
	}
	return ""
}

func (p *printer) children(n Node, depth int) {
	switch v := n.(type) {
	case *Module:
		for i := 0; i < v.Scope.Len(); i++ {
			name, decl := v.Scope.At(i)
			p.node(decl, name, depth)
		}
		for _, t := range v.Tests {
			p.node(t, "test", depth)
		}
	case *Import:
		p.node(v.LocalName, "as", depth)
		p.node(v.Qualified, "from", depth)
	case *FuncDef:
		for i := 0; i < v.Params.Len(); i++ {
			_, param := v.Params.At(i)
			p.node(param, "param", depth)
		}
		p.node(v.RetType, "ret", depth)
		p.node(v.Body, "body", depth)
	case *Param:
		p.node(v.Type, "type", depth)
		p.node(v.Default, "default", depth)
	case *Macro:
		for i := 0; i < v.Params.Len(); i++ {
			_, param := v.Params.At(i)
			p.node(param, "param", depth)
		}
		p.node(v.Template, "template", depth)
	case *FuncOverload:
		for _, o := range v.Overloads {
			p.node(o, "", depth)
		}
	case *Const:
		p.node(v.Type, "type", depth)
		p.node(v.Value, "value", depth)
	case *Struct:
		for _, c := range v.Constraints {
			p.node(c, "constraint", depth)
		}
		for i := 0; i < v.Fields.Len(); i++ {
			_, f := v.Fields.At(i)
			p.node(f, "", depth)
		}
	case *Field:
		p.node(v.Type, "type", depth)
		p.node(v.Default, "default", depth)
	case *Test:
		p.node(v.Description, "desc", depth)
		p.node(v.Body, "body", depth)
	case *Tag:
		p.node(v.Name, "name", depth)
		for _, a := range v.Args {
			p.node(a, "arg", depth)
		}
	case *Binop:
		p.node(v.LHS, "lhs", depth)
		p.node(v.RHS, "rhs", depth)
	case *Unary:
		p.node(v.Expr, "", depth)
	case *Not:
		p.node(v.Expr, "", depth)
	case *And:
		p.node(v.LHS, "lhs", depth)
		p.node(v.RHS, "rhs", depth)
	case *Or:
		p.node(v.LHS, "lhs", depth)
		p.node(v.RHS, "rhs", depth)
	case *ComparisonChain:
		for _, o := range v.Operands {
			p.node(o, "", depth)
		}
	case *Ternary:
		p.node(v.Cond, "cond", depth)
		p.node(v.TrueExpr, "then", depth)
		p.node(v.FalseExpr, "else", depth)
	case *Reref:
		p.node(v.Target, "", depth)
	case *Broadcast:
		p.node(v.Target, "", depth)
	case *Async:
		p.node(v.Expr, "", depth)
	case *Await:
		p.node(v.Expr, "", depth)
	case *Array:
		for _, e := range v.Elements {
			p.node(e, "", depth)
		}
	case *FuncCall:
		p.node(v.Func, "func", depth)
		for _, a := range v.PosArgs {
			p.node(a, "arg", depth)
		}
		for i := 0; i < v.KwArgs.Len(); i++ {
			name, a := v.KwArgs.At(i)
			p.node(a, name, depth)
		}
	case *Slice:
		p.node(v.Start, "start", depth)
		p.node(v.End, "end", depth)
		p.node(v.Step, "step", depth)
	case *Subscript:
		p.node(v.Array, "array", depth)
		for _, s := range v.Subscripts {
			p.node(s, "sub", depth)
		}
	case *FieldAccess:
		p.node(v.Base, "base", depth)
		p.node(v.Field, "field", depth)
	case *SimpleType:
		p.node(v.Base, "", depth)
	case *PointerType:
		p.node(v.Base, "", depth)
	case *MutableType:
		p.node(v.Base, "", depth)
	case *OptionalType:
		p.node(v.Base, "", depth)
	case *ArrayType:
		for _, s := range v.Shape {
			if s == nil {
				p.line(depth, "dim: ?")
			} else {
				p.node(s, "dim", depth)
			}
		}
		p.node(v.Elem, "elem", depth)
	case *FuncType:
		for _, t := range v.ParamTypes {
			p.node(t, "param", depth)
		}
		p.node(v.ReturnType, "ret", depth)
	case *TemplateType:
		p.node(v.Base, "base", depth)
		for _, a := range v.Args {
			p.node(a, "arg", depth)
		}
	case *UnionType:
		for _, t := range v.Variants {
			p.node(t, "", depth)
		}
	case *Block:
		for _, s := range v.Body {
			p.node(s, "", depth)
		}
	case *VarDecl:
		p.node(v.Name, "name", depth)
		p.node(v.Type, "type", depth)
		p.node(v.Value, "value", depth)
	case *OpAssign:
		p.node(v.LHS, "lhs", depth)
		p.node(v.RHS, "rhs", depth)
	case *AssignChain:
		for _, t := range v.Targets {
			p.node(t, "target", depth)
		}
		p.node(v.Value, "value", depth)
	case *AssignParallel:
		for _, t := range v.Targets {
			p.node(t, "target", depth)
		}
		for _, val := range v.Values {
			p.node(val, "value", depth)
		}
	case *IfStatement:
		p.node(v.Cond, "cond", depth)
		p.node(v.Body, "then", depth)
		p.node(v.Alt, "else", depth)
	case *WhileLoop:
		p.node(v.Cond, "cond", depth)
		p.node(v.Body, "body", depth)
	case *ForLoop:
		for _, b := range v.Bindings {
			p.node(b, "bind", depth)
		}
		for _, it := range v.Iterables {
			p.node(it, "in", depth)
		}
		p.node(v.Body, "body", depth)
	case *MatchCase:
		for _, pat := range v.Patterns {
			p.node(pat, "pattern", depth)
		}
		p.node(v.Body, "body", depth)
	case *Match:
		p.node(v.Subject, "subject", depth)
		for _, c := range v.Cases {
			p.node(c, "", depth)
		}
	case *Context:
		p.node(v.Name, "as", depth)
		p.node(v.Value, "value", depth)
	case *With:
		for _, c := range v.Contexts {
			p.node(c, "", depth)
		}
		p.node(v.Body, "body", depth)
	case *Return:
		p.node(v.Value, "", depth)
	case *Fail:
		p.node(v.Value, "", depth)
	case *Assert:
		p.node(v.Cond, "cond", depth)
		p.node(v.Message, "message", depth)
	case *Defer:
		p.node(v.Stmt, "", depth)
	case *Cancel:
		p.node(v.Value, "", depth)
	}
}
