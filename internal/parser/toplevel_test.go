package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/diag"
	"github.com/Beefster09/table-lang/internal/source"
)

func TestSimpleConst(t *testing.T) {
	module := mustParse(t, "const x = 1\n")
	c := constOf(t, module, "x")
	if c.Type != nil {
		t.Error("expected no declared type")
	}
	if c.Pub {
		t.Error("expected pub to be false")
	}
	leaf, ok := c.Value.(*ast.Int)
	if !ok || leaf.Value != 1 {
		t.Fatalf("expected Int 1, got %s", sexpr(c.Value))
	}
}

func TestPubConstWithTypeAndPrecedence(t *testing.T) {
	module := mustParse(t, "pub const x: int = 1 + 2 * 3\n")
	c := constOf(t, module, "x")
	if !c.Pub {
		t.Error("expected pub")
	}
	st, ok := c.Type.(*ast.SimpleType)
	if !ok || st.Base.Join() != "int" {
		t.Fatalf("expected SimpleType int, got %v", c.Type)
	}
	if got := sexpr(c.Value); got != "(+ 1 (* 2 3))" {
		t.Errorf("expected (+ 1 (* 2 3)), got %s", got)
	}
}

func TestConstBlock(t *testing.T) {
	module := mustParse(t, "pub const {\na = 1\nb: int = 2\n\nc = 3\n}\n")
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, module.Scope.Keys()); diff != "" {
		t.Fatalf("scope keys mismatch (-want +got):\n%s", diff)
	}
	for _, name := range want {
		if !constOf(t, module, name).Pub {
			t.Errorf("const %s should inherit pub from the block", name)
		}
	}
}

func TestDuplicateName(t *testing.T) {
	_, diags := parseString(t, "const x = 1\nconst x = 2\n")
	if errorCount(diags) == 0 {
		t.Error("duplicate module-scope names should be diagnosed")
	}
}

func TestModuleScopeOrder(t *testing.T) {
	module := mustParse(t, "const b = 1\nconst a = 2\nconst z = 3\n")
	want := []string{"b", "a", "z"}
	if diff := cmp.Diff(want, module.Scope.Keys()); diff != "" {
		t.Errorf("scope must preserve insertion order (-want +got):\n%s", diff)
	}
}

func TestReservedIdentifiers(t *testing.T) {
	for _, input := range []string{
		"const _ = 1\n",
		"const __x = 1\n",
		"func __f() {\n}\n",
	} {
		t.Run(input, func(t *testing.T) {
			_, diags := parseString(t, input)
			if errorCount(diags) == 0 {
				t.Error("reserved identifier should be diagnosed")
			}
		})
	}
	// a single leading underscore with more after it is fine
	mustParse(t, "const _x = 1\n")
}

func TestRepeatedPub(t *testing.T) {
	_, diags := parseString(t, "pub pub const x = 1\n")
	if errorCount(diags) == 0 {
		t.Error("repeated pub should be diagnosed")
	}
}

func TestPubOnImport(t *testing.T) {
	_, diags := parseString(t, "pub import a.b\n")
	if errorCount(diags) == 0 {
		t.Error("pub on import should be diagnosed")
	}
}

func TestImportForms(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		key       string
		qualified string
		path      string
		using     bool
	}{
		{"qualified", "import a.b.c\n", "a.b.c", "a.b.c", "", false},
		{"local name", "import m = a.b\n", "m", "a.b", "", false},
		{"local path", `import m = "lib/m.tbl"` + "\n", "m", "", "lib/m.tbl", false},
		{"using qualified", "import using a.b\n", "a.b", "a.b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			module := mustParse(t, tt.input)
			decl := declOf(t, module, tt.key)
			imp, ok := decl.(*ast.Import)
			if !ok {
				t.Fatalf("expected Import, got %v", decl.Kind())
			}
			if tt.qualified != "" && (imp.Qualified == nil || imp.Qualified.Join() != tt.qualified) {
				t.Errorf("expected qualified %q", tt.qualified)
			}
			if imp.Path != tt.path {
				t.Errorf("expected path %q, got %q", tt.path, imp.Path)
			}
			if imp.IsUsing != tt.using {
				t.Errorf("expected using=%t", tt.using)
			}
		})
	}
}

func TestUsingPathImportSyntheticKey(t *testing.T) {
	module := mustParse(t, "import using \"lib/util.tbl\"\n")
	require.Equal(t, 1, module.Scope.Len())
	key := module.Scope.Keys()[0]
	if key == "" || key[0] != '.' {
		t.Errorf("using-path imports register under a synthetic dotted key, got %q", key)
	}
}

func TestFuncOverloadMerge(t *testing.T) {
	module := mustParse(t, "func f(a: int) {\n}\nfunc f(a: str) {\n}\n")
	decl := declOf(t, module, "f")
	overload, ok := decl.(*ast.FuncOverload)
	if !ok {
		t.Fatalf("expected FuncOverload, got %v", decl.Kind())
	}
	if len(overload.Overloads) != 2 {
		t.Errorf("expected two overloads, got %d", len(overload.Overloads))
	}
}

func TestFuncConflictsWithConst(t *testing.T) {
	_, diags := parseString(t, "const f = 1\nfunc f() {\n}\n")
	if errorCount(diags) == 0 {
		t.Error("a function conflicting with a const should be diagnosed")
	}
}

func TestOperatorFuncNames(t *testing.T) {
	module := mustParse(t, "func + (a: int, b: int): int {\nreturn 0\n}\nfunc == (a: int, b: int): bool {\nreturn true\n}\n")
	if _, ok := module.Scope.Get("+"); !ok {
		t.Errorf("operator function + missing from scope: %v", module.Scope.Keys())
	}
	if _, ok := module.Scope.Get("=="); !ok {
		t.Errorf("operator function == missing from scope: %v", module.Scope.Keys())
	}
}

func TestParams(t *testing.T) {
	module := mustParse(t, "func f(x: int, y: int = 0, rest: int..., z: int = 1) {\n}\n")
	fn := funcOf(t, module, "f")
	want := []string{"x", "y", "rest", "z"}
	if diff := cmp.Diff(want, fn.Params.Keys()); diff != "" {
		t.Fatalf("param order mismatch (-want +got):\n%s", diff)
	}
	rest, _ := fn.Params.Get("rest")
	if !rest.IsVararg {
		t.Error("rest should be a vararg")
	}
	z, _ := fn.Params.Get("z")
	if !z.IsKwOnly {
		t.Error("params after the vararg are keyword-only")
	}
	x, _ := fn.Params.Get("x")
	if x.IsKwOnly {
		t.Error("x should be positional")
	}
}

func TestKwOnlyAfterLoneEllipsis(t *testing.T) {
	module := mustParse(t, "func f(a: int, ..., b: int = 1) {\n}\n")
	fn := funcOf(t, module, "f")
	b, _ := fn.Params.Get("b")
	if b == nil || !b.IsKwOnly {
		t.Error("parameters after a lone ellipsis are keyword-only")
	}
}

func TestVarargWithDefault(t *testing.T) {
	_, diags := parseString(t, "func f(rest: int... = 1) {\n}\n")
	if errorCount(diags) == 0 {
		t.Error("a vararg with a default should be diagnosed")
	}
}

func TestDuplicateParam(t *testing.T) {
	_, diags := parseString(t, "func f(a: int, a: int) {\n}\n")
	if errorCount(diags) == 0 {
		t.Error("duplicate parameter names should be diagnosed")
	}
}

func TestAnonymousFuncAtTopLevel(t *testing.T) {
	_, diags := parseString(t, "func () {\n}\n")
	if errorCount(diags) == 0 {
		t.Error("an unnamed function at module scope should be diagnosed")
	}
}

func TestStruct(t *testing.T) {
	module := mustParse(t, `pub struct Point {
	x, y: float = 0
	using base: Node
	name: str = "origin"
}
`)
	decl := declOf(t, module, "Point")
	st, ok := decl.(*ast.Struct)
	if !ok {
		t.Fatalf("expected Struct, got %v", decl.Kind())
	}
	if !st.Pub {
		t.Error("expected pub struct")
	}
	want := []string{"x", "y", "base", "name"}
	if diff := cmp.Diff(want, st.Fields.Keys()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	x, _ := st.Fields.Get("x")
	y, _ := st.Fields.Get("y")
	if x.Default == nil || y.Default == nil {
		t.Error("a single default applies to every field in the group")
	}
	base, _ := st.Fields.Get("base")
	if !base.IsUsing {
		t.Error("base should be a using field")
	}
}

func TestStructConstraints(t *testing.T) {
	module := mustParse(t, "struct Pair(n > 0) {\na: int\n}\n")
	st := declOf(t, module, "Pair").(*ast.Struct)
	if len(st.Constraints) != 1 {
		t.Fatalf("expected one constraint, got %d", len(st.Constraints))
	}
}

func TestStructTooManyDefaults(t *testing.T) {
	_, diags := parseString(t, "struct S {\nx, y: int = 1, 2, 3\n}\n")
	if errorCount(diags) == 0 {
		t.Error("more defaults than names should be diagnosed")
	}
}

func TestMacro(t *testing.T) {
	module := mustParse(t, "macro twice(x) => x + x\n")
	decl := declOf(t, module, "twice")
	mac, ok := decl.(*ast.Macro)
	if !ok {
		t.Fatalf("expected Macro, got %v", decl.Kind())
	}
	if mac.Params.Len() != 1 {
		t.Errorf("expected one macro parameter")
	}
	if got := sexpr(mac.Template); got != "(+ x x)" {
		t.Errorf("expected (+ x x), got %s", got)
	}
}

func TestOverloadDirective(t *testing.T) {
	module := mustParse(t, "func f1() {\n}\nfunc f2() {\n}\n#overload g: f1, f2\n")
	decl := declOf(t, module, "g")
	overload, ok := decl.(*ast.FuncOverload)
	if !ok {
		t.Fatalf("expected FuncOverload, got %v", decl.Kind())
	}
	if len(overload.Overloads) != 2 {
		t.Fatalf("expected two members, got %d", len(overload.Overloads))
	}
	if _, ok := overload.Overloads[0].(*ast.Name); !ok {
		t.Errorf("directive overload members are names, got %T", overload.Overloads[0])
	}
}

func TestTestDirective(t *testing.T) {
	module := mustParse(t, "#test \"adds small numbers\" {\nassert 1 + 1 == 2\n}\n")
	if len(module.Tests) != 1 {
		t.Fatalf("expected one test, got %d", len(module.Tests))
	}
	test := module.Tests[0]
	if test.Description == nil || test.Description.Value != "adds small numbers" {
		t.Error("test description missing")
	}
	if len(test.Body.Body) != 1 {
		t.Error("test body missing")
	}
}

func TestUnmatchedBrackets(t *testing.T) {
	for _, input := range []string{")\n", "}\n", "]\n"} {
		t.Run(input, func(t *testing.T) {
			_, diags := parseString(t, input)
			if errorCount(diags) == 0 {
				t.Error("stray closing bracket should be diagnosed")
			}
		})
	}
}

func TestKeywordSuggestion(t *testing.T) {
	_, diags := parseString(t, "funk f() {\n}\n")
	if errorCount(diags) == 0 {
		t.Fatal("expected an error for 'funk'")
	}
	found := false
	for _, d := range diags {
		if d.Sev == diag.Error && strings.Contains(d.Msg, "did you mean 'func'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a did-you-mean suggestion, got %v", diags)
	}
}

func TestReadDirective(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("payload"), 0o644))
	srcPath := filepath.Join(dir, "main.tbl")
	input := "const x = #read \"data.txt\"\n"
	require.NoError(t, os.WriteFile(srcPath, []byte(input), 0o644))

	var diags []recorded
	p := New(source.New(srcPath, []byte(input)), WithHandler(
		func(sev diag.Severity, file string, span diag.Span, msg string) {
			diags = append(diags, recorded{sev, span, msg})
		}))
	module := p.Execute()
	require.NotNil(t, module, "diags: %v", diags)
	c := constOf(t, module, "x")
	str, ok := c.Value.(*ast.String)
	if !ok || str.Value != "payload" {
		t.Errorf("expected the file contents, got %s", sexpr(c.Value))
	}
}

func TestReadDirectiveMissingFileIsFatal(t *testing.T) {
	_, diags := parseString(t, "const x = #read \"no_such_file.txt\"\n")
	if errorCount(diags) == 0 {
		t.Error("a missing #read file is a fatal parse error")
	}
}
