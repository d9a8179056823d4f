package checker_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/kr/pretty"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/checker"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/parser"
	"golang.org/x/exp/slices"
)

func fatal(t *testing.T) func(err error) {
	return func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
}

func load(t *testing.T, src string, opts ...checker.Option) (*checker.Checker, error) {
	t.Helper()
	fsys := fstest.MapFS{"main.lang": &fstest.MapFile{Data: []byte(src)}}
	f, err := parser.ParseFile(fsys, "main.lang")
	fatal(t)(err)
	c, err := checker.New(opts...)
	fatal(t)(err)
	return c, c.Load(f)
}

func check(t *testing.T, src string) (*checker.Checker, error) {
	t.Helper()
	c, err := load(t, src)
	if err != nil {
		return c, err
	}
	return c, c.Check()
}

func TestCheck(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		kind diag.Kind
		ok   bool
	}{
		{name: "print", ok: true, src: `fn main() { print(1 + 2); print("a" + "b"); print(1 == 1); }`},
		{name: "no main", kind: diag.NoMain, src: `fn f() {}`},
		{name: "empty file", kind: diag.NoMain, src: ``},
		{name: "main has arguments", kind: diag.MainHasArguments, src: `fn main(x: number) {}`},
		{name: "main returns a value", kind: diag.MainNonVoidRetType, src: `fn main() -> number { 1 }`},
		{name: "duplicate function", kind: diag.NameDefined, src: `fn main() {} fn main() {}`},
		{name: "duplicate parameter", kind: diag.NameDefined, src: `fn f(a: number, a: number) {} fn main() { f(1, 2); }`},
		{name: "duplicate local", kind: diag.NameDefined, src: `fn main() { let x = 1; let x = 2; }`},
		{name: "shadowed local", ok: true, src: `fn main() { let x = 1; { let x = "a"; print(x); } print(x); }`},
		{name: "duplicate type", kind: diag.NameDefined, src: `type a; type a; fn main() {}`},
		{name: "arity", kind: diag.TypesDontMatch, src: `fn f(a: number) {} fn main() { f(); }`},
		{name: "two parameters one argument", kind: diag.TypesDontMatch, src: `fn f(a: number, b: number) {} fn main() { f(1); }`},
		{name: "argument type", kind: diag.TypesDontMatch, src: `fn f(a: number) {} fn main() { f("a"); }`},
		{name: "wrong return type", kind: diag.TypesDontMatch, src: `fn f() -> number { return "a"; } fn main() { f(); }`},
		{name: "missing return", kind: diag.TypesDontMatch, src: `fn f() -> number { 1; } fn main() { f(); }`},
		{name: "eq across types", kind: diag.TraitNotImplemented, src: `fn main() { 1 == "a"; }`},
		{name: "string minus", kind: diag.TraitNotImplemented, src: `fn main() { "a" - "b"; }`},
		{name: "negate string", kind: diag.TraitNotImplemented, src: `fn main() { -"a"; }`},
		{name: "print two arguments", kind: diag.TraitNotImplemented, src: `fn main() { print(1, 2); }`},
		{name: "unknown name", kind: diag.IdentNotFound, src: `fn main() { print(y); }`},
		{name: "not mutable", kind: diag.NotMutable, src: `fn main() { let x = 1; x = 2; }`},
		{name: "mutable", ok: true, src: `fn main() { let mut x = 1; x = x + 1; print(x); }`},
		{name: "branches", kind: diag.BranchesDontMatch, src: `fn main() { let x = if true { 1 } else { "a" }; }`},
		{name: "if condition", kind: diag.TypesDontMatch, src: `fn main() { if 1 { print(1); } }`},
		{name: "unknown trait", kind: diag.UnknownTrait, src: `impl Foo for number {} fn main() {}`},
		{name: "conflicting impl", kind: diag.ImplMismatch, src: `
			impl Add<number> for number {
				type Output = number;
				fn add(self, other: number) -> number { other }
			}
			fn main() {}`},
		{name: "bad method body", kind: diag.TypesDontMatch, src: `
			type money;
			impl Add<number> for money {
				type Output = number;
				fn add(self, other: number) -> number { "a" }
			}
			fn main() {}`},
		{name: "user impl", ok: true, src: `
			type money;
			impl Add<number> for money {
				type Output = number;
				fn add(self, other: number) -> number { other + 1 }
			}
			impl Eq<money> for money {
				fn eq(self, other: money) -> bool { true }
			}
			fn main() { print(money + 1); print(money == money); }`},
		{name: "user trait", ok: true, src: `
			trait Twice {
				type Output;
				fn twice(self) -> Output;
			}
			impl Twice for number {
				type Output = number;
				fn twice(self) -> number { self * 2 }
			}
			fn main() {}`},
		{name: "recursion", ok: true, src: `
			fn fact(n: number) -> number {
				if n == 0 { return 1; }
				return n * fact(n - 1);
			}
			fn main() { print(fact(5)); }`},
		{name: "mutual recursion", ok: true, src: `
			fn even(n: number) -> bool { return if n == 0 { true } else { odd(n - 1) }; }
			fn odd(n: number) -> bool { return if n == 0 { false } else { even(n - 1) }; }
			fn main() { print(even(4)); }`},
		{name: "closure", ok: true, src: `
			fn main() {
				let inc = fn(n: number) -> number { n + 1 };
				print(inc(1));
			}`},
		{name: "bad closure", kind: diag.TypesDontMatch, src: `
			fn main() {
				let inc = fn(n: number) -> string { n + 1 };
			}`},
		{name: "every return matches", kind: diag.TypesDontMatch, src: `fn f() -> number { return 1; return "a"; } fn main() { f(); }`},
		{name: "return in if branch", kind: diag.TypesDontMatch, src: `
			fn f(n: number) -> number { if n == 0 { return "zero"; } return n; }
			fn main() { print(f(0) + 1); }`},
		{name: "return in inner block", kind: diag.TypesDontMatch, src: `
			fn f() -> number { { return "a"; } return 1; }
			fn main() { print(f() + 1); }`},
		{name: "return in else branch", kind: diag.TypesDontMatch, src: `
			fn f(n: number) -> number { if n == 0 { return 1; } else { return "b"; } return n; }
			fn main() { print(f(0)); }`},
		{name: "nested returns match", ok: true, src: `
			fn f(n: number) -> number { if n == 0 { { return 1; } } return n; }
			fn main() { print(f(0) + 1); }`},
		{name: "return in closure", ok: true, src: `
			fn f() -> number {
				let g = fn() -> string { return "a"; };
				return 1;
			}
			fn main() { print(f()); }`},
		{name: "return in void function", kind: diag.TypesDontMatch, src: `fn main() { if true { return 1; } }`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := check(t, tt.src)
			if tt.ok {
				fatal(t)(err)
				return
			}
			d := diag.As(err)
			if d == nil || d.Kind != tt.kind {
				t.Fatalf("got %v, want %s", err, tt.kind)
			}
			if d.File != "main.lang" && tt.src != "" {
				t.Errorf("error %v is not attributed to main.lang", err)
			}
		})
	}
}

func TestReachability(t *testing.T) {
	src := `
	fn bad() -> number { "not a number" }
	fn helper() -> number { 1 }
	fn main() { print(helper()); }`
	c, err := check(t, src)
	fatal(t)(err)
	if !c.Checked("main") || !c.Checked("helper") {
		t.Error("main and helper should have been checked")
	}
	if got, want := c.Unchecked(), []string{"bad"}; !slices.Equal(got, want) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}

	c, err = load(t, src)
	fatal(t)(err)
	err = c.CheckLib()
	if d := diag.As(err); d == nil || d.Kind != diag.TypesDontMatch {
		t.Fatalf("lib mode: got %v, want TypesDontMatch from bad", err)
	}
}

func TestReachedByReference(t *testing.T) {
	for _, tt := range []struct {
		name string
		use  string
	}{
		{"alias", `fn main() { let g = bad; g(); }`},
		{"argument", `fn apply(f: fn() -> void) { f(); } fn main() { apply(bad); }`},
		{"closure", `fn main() { let h = fn() -> void { let g = bad; }; h(); }`},
		{"returned", `fn pick() -> fn() -> void { bad } fn main() { pick()(); }`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := check(t, `fn bad() { print(1 + "a"); } `+tt.use)
			if d := diag.As(err); d == nil || d.Kind != diag.TraitNotImplemented {
				t.Fatalf("got %v, want TraitNotImplemented from bad", err)
			}

			c, err := check(t, `fn bad() { print(1); } `+tt.use)
			fatal(t)(err)
			if !c.Checked("bad") {
				t.Error("bad is reached from main but was not checked")
			}
		})
	}
}

func TestCheckedOnce(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
	}{
		{"repeated calls", `
			fn leaf() -> number { 1 }
			fn main() { leaf(); leaf(); print(leaf() + leaf()); }`},
		{"two paths", `
			fn leaf() -> number { 1 }
			fn a() -> number { leaf() }
			fn b() -> number { leaf() }
			fn main() { print(a() + b()); }`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var trace bytes.Buffer
			c, err := load(t, tt.src, checker.WithTrace(&trace))
			fatal(t)(err)
			fatal(t)(c.Check())
			if n := strings.Count(trace.String(), "check fn leaf"); n != 1 {
				t.Errorf("leaf checked %d times, want 1:\n%s", n, trace.String())
			}
			if !strings.Contains(trace.String(), "load impl Add<number> for number") {
				t.Errorf("bootstrap impls missing from trace:\n%s", trace.String())
			}
		})
	}
}

func TestDefine(t *testing.T) {
	c, err := load(t, `fn bad() -> number { "a" }`)
	fatal(t)(err)
	if err := c.CheckLib(); err == nil {
		t.Fatal("bad should be rejected")
	}
	if c.Checked("bad") {
		t.Error("a rejected body must not stay marked as checked")
	}

	c, err = checker.New()
	fatal(t)(err)
	define := func(src string) error {
		f, err := parser.ParseSource("<repl>", src)
		fatal(t)(err)
		return c.Define(f)
	}
	fatal(t)(define(`type money; fn one() -> number { 1 }`))
	for _, src := range []string{
		`fn two() -> number { one() + "a" }`,
		`trait Show { fn show(self) -> string; } impl Show for money { fn show(self) -> string { 1 } }`,
		`type money;`,
	} {
		if err := define(src); err == nil {
			t.Errorf("%s: want an error", src)
		}
	}
	if got, want := c.Functions(), []string{"one"}; !slices.Equal(got, want) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}
	fatal(t)(define(`fn two() -> number { one() + 1 }`))
	fatal(t)(define(`trait Show { fn show(self) -> string; } impl Show for money { fn show(self) -> string { "m" } }`))
	if !c.Checked("two") {
		t.Error("two should be checked once defined")
	}
}

func TestCheckStmt(t *testing.T) {
	c, err := checker.New()
	fatal(t)(err)
	for _, tt := range []struct {
		src  string
		want ast.TypeData
	}{
		{`let x = 1;`, ast.Void},
		{`x + 1`, ast.Number},
		{`print(x)`, ast.Void},
		{`"a" == "b"`, ast.Bool},
	} {
		_, stmts, err := parser.ParseLine("<repl>", tt.src)
		fatal(t)(err)
		got, err := c.CheckStmt(stmts[0])
		fatal(t)(err)
		if !ast.Equal(got, tt.want) {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
	}
	_, stmts, err := parser.ParseLine("<repl>", `y`)
	fatal(t)(err)
	_, err = c.CheckStmt(stmts[0])
	if d := diag.As(err); d == nil || d.Kind != diag.IdentNotFound || d.File != "<repl>" {
		t.Errorf("got %v, want IdentNotFound in <repl>", err)
	}
}
