package parser

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/diag"
)

// exprOf parses 'const x = <input>' and returns the value expression.
func exprOf(t *testing.T, input string) ast.Node {
	t.Helper()
	module := mustParse(t, "const x = "+input+"\n")
	return constOf(t, module, "x").Value
}

// sexpr renders an expression in a compact prefix form so whole shapes can be
// compared without dragging spans along.
func sexpr(n ast.Node) string {
	switch v := n.(type) {
	case nil:
		return "_"
	case *ast.Qualname:
		return v.Join()
	case *ast.Name:
		return v.Name
	case *ast.Int:
		return intString(v.Value)
	case *ast.Float:
		return floatString(v.Value)
	case *ast.Bool:
		if v.Value {
			return "true"
		}
		return "false"
	case *ast.String:
		return "\"" + v.Value + "\""
	case *ast.Char:
		return "'" + string(v.Value) + "'"
	case *ast.Null:
		return "null"
	case *ast.Binop:
		return "(" + v.Op + " " + sexpr(v.LHS) + " " + sexpr(v.RHS) + ")"
	case *ast.Unary:
		return "(" + v.Op + " " + sexpr(v.Expr) + ")"
	case *ast.Not:
		return "(not " + sexpr(v.Expr) + ")"
	case *ast.And:
		return "(and " + sexpr(v.LHS) + " " + sexpr(v.RHS) + ")"
	case *ast.Or:
		return "(or " + sexpr(v.LHS) + " " + sexpr(v.RHS) + ")"
	case *ast.ComparisonChain:
		out := "(cmp"
		for i, op := range v.Ops {
			out += " " + sexpr(v.Operands[i]) + " " + op
		}
		return out + " " + sexpr(v.Operands[len(v.Operands)-1]) + ")"
	case *ast.Ternary:
		return "(if " + sexpr(v.Cond) + " " + sexpr(v.TrueExpr) + " " + sexpr(v.FalseExpr) + ")"
	case *ast.Reref:
		out := "(reref"
		for i := 0; i < v.Levels; i++ {
			out += "@"
		}
		return out + " " + sexpr(v.Target) + ")"
	case *ast.Broadcast:
		return "(broadcast " + sexpr(v.Target) + ")"
	case *ast.Async:
		return "(async " + sexpr(v.Expr) + ")"
	case *ast.Await:
		return "(await " + sexpr(v.Expr) + ")"
	case *ast.Array:
		out := "[array"
		for _, e := range v.Elements {
			out += " " + sexpr(e)
		}
		return out + "]"
	case *ast.FuncCall:
		out := "(call"
		if v.IsWordOp {
			out = "(word-call"
		}
		out += " " + sexpr(v.Func)
		for _, a := range v.PosArgs {
			out += " " + sexpr(a)
		}
		for i := 0; i < v.KwArgs.Len(); i++ {
			key, val := v.KwArgs.At(i)
			out += " " + key + "=" + sexpr(val)
		}
		return out + ")"
	case *ast.Slice:
		out := "(slice " + sexpr(v.Start) + " " + sexpr(v.End) + " " + sexpr(v.Step)
		if v.Inclusive {
			out += " incl"
		}
		return out + ")"
	case *ast.Subscript:
		out := "(index " + sexpr(v.Array)
		for _, s := range v.Subscripts {
			out += " " + sexpr(s)
		}
		return out + ")"
	case *ast.FieldAccess:
		return "(field " + sexpr(v.Base) + " " + v.Field.Join() + ")"
	case *ast.FuncDef:
		out := "(lambda ("
		for i, key := range v.Params.Keys() {
			if i > 0 {
				out += " "
			}
			out += key
		}
		out += ")"
		if len(v.Body.Body) == 1 {
			if ret, ok := v.Body.Body[0].(*ast.Return); ok {
				return out + " " + sexpr(ret.Value) + ")"
			}
		}
		return out + " ...)"
	default:
		return "<" + n.Kind().String() + ">"
	}
}

func intString(v int64) string {
	return fmt.Sprintf("%d", v)
}

func floatString(v float64) string {
	return fmt.Sprintf("%g", v)
}

func TestExpressionShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"precedence mul over add", "1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"left assoc addsub", "1 - 2 + 3", "(+ (- 1 2) 3)"},
		{"right assoc exponent", "2 ^ 3 ^ 2", "(^ 2 (^ 3 2))"},
		{"parens", "(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"unary minus", "-a + b", "(+ (- a) b)"},
		{"unary binds tight", "-a ^ b", "(- (^ a b))"},
		{"comparison chain", "a < b <= c == d", "(cmp a < b <= c == d)"},
		{"single comparison", "a == b", "(cmp a == b)"},
		{"and or precedence", "a and b or c", "(or (and a b) c)"},
		{"not loose", "not a and b", "(and (not a) b)"},
		{"comparison inside and", "a < b and c < d", "(and (cmp a < b) (cmp c < d))"},
		{"ternary", "a if c else b", "(if c a b)"},
		{"or else operator", "a ? b", "(? a b)"},
		{"bar operator", "a | b", "(| a b)"},
		{"custom operator", "a ** b", "(** a b)"},
		{"custom op muldiv class is left assoc", "a ** b ** c", "(** (** a b) c)"},
		{"custom op exponent class is right assoc", "a ^^ b ^^ c", "(^^ a (^^ b c))"},
		{"reref", "@@x", "(reref@@ x)"},
		{"async", "async f(x)", "(async (call f x))"},
		{"await", "await f(x)", "(await (call f x))"},
		{"array literal", "[1, 2, 3]", "[array 1 2 3]"},
		{"array trailing comma", "[1, 2,]", "[array 1 2]"},
		{"call", "f(1, 2)", "(call f 1 2)"},
		{"call named args", "f(1, y = 2)", "(call f 1 y=2)"},
		{"call trailing comma", "f(1,)", "(call f 1)"},
		{"field access", "a.b.c", "a.b.c"},
		{"field access on call", "f(x).b", "(field (call f x) b)"},
		{"subscript", "a[1]", "(index a 1)"},
		{"subscript multi", "a[1, 2]", "(index a 1 2)"},
		{"broadcast", "a[]", "(broadcast a)"},
		{"slice exclusive", "a[1 .. 5]", "(index a (slice 1 5 _))"},
		{"slice inclusive", "a[1 ... 5]", "(index a (slice 1 5 _ incl))"},
		{"slice with step", "a[1 .. 10:2]", "(index a (slice 1 10 2))"},
		{"slice step only", "a[:2]", "(index a (slice _ _ 2))"},
		{"word operator", `u \cross v`, "(word-call cross u v)"},
		{"word op chain", `a \dot b \dot c`, "(word-call dot (word-call dot a b) c)"},
		{"lambda", "x => x + 1", "(lambda (x) (+ x 1))"},
		{"lambda parens", "(a, b) => a", "(lambda (a b) a)"},
		{"lambda no params", "() => 1", "(lambda () 1)"},
		{"string concat", `"a" "b"`, `"ab"`},
		{"null literal", "null", "null"},
		{"sequence operator", "a ; b", "(; a b)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sexpr(exprOf(t, tt.input))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("expression shape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComparisonChainInvariant(t *testing.T) {
	chain, ok := exprOf(t, "a < b <= c == d").(*ast.ComparisonChain)
	if !ok {
		t.Fatal("expected a ComparisonChain")
	}
	if len(chain.Operands) != len(chain.Ops)+1 {
		t.Errorf("chain has %d operands for %d operators", len(chain.Operands), len(chain.Ops))
	}
	wantOps := []string{"<", "<=", "=="}
	if diff := cmp.Diff(wantOps, chain.Ops); diff != "" {
		t.Errorf("operators mismatch (-want +got):\n%s", diff)
	}
}

func TestTernaryNonAssociative(t *testing.T) {
	_, diags := parseString(t, "const x = a if c1 else b if c2 else d\n")
	if errorCount(diags) == 0 {
		t.Error("chained ternary should be a syntax error")
	}
}

func TestUnexpectedAtom(t *testing.T) {
	_, diags := parseString(t, "const x = 1 2\n")
	if errorCount(diags) == 0 {
		t.Error("adjacent atoms should be a syntax error")
	}
}

func TestRepeatedNamedArgument(t *testing.T) {
	_, diags := parseString(t, "const x = f(a = 1, a = 2)\n")
	if errorCount(diags) == 0 {
		t.Error("repeated named arguments should be diagnosed")
	}
}

func TestPositionalAfterNamed(t *testing.T) {
	module, diags := parseString(t, "const x = f(a = 1, 2)\n")
	if errorCount(diags) == 0 {
		t.Error("positional after named should be diagnosed")
	}
	// parsing continues despite the diagnostic
	if module != nil {
		t.Error("module must still fail overall")
	}
}

func TestSliceAllOmittedIsNote(t *testing.T) {
	module, diags := parseString(t, "const x = a[..]\n")
	if module == nil {
		t.Fatalf("an all-open slice is only a note: %v", diags)
	}
	if errorCount(diags) != 0 {
		t.Errorf("expected no errors, got %v", diags)
	}
	hasNote := false
	for _, d := range diags {
		if d.Sev == diag.Note {
			hasNote = true
		}
	}
	if !hasNote {
		t.Error("expected a note about the all-open slice")
	}
}

func TestExclusiveSliceNeedsEnd(t *testing.T) {
	_, diags := parseString(t, "const x = a[i..]\n")
	if errorCount(diags) == 0 {
		t.Error("an exclusive slice without an end should be an error")
	}
}
