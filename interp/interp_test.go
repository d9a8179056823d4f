package interp_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/kr/pretty"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/checker"
	"github.com/smasher164/tlang/interp"
	"github.com/smasher164/tlang/parser"
)

func fatal(t *testing.T) func(err error) {
	return func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
}

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	fsys := fstest.MapFS{"main.lang": &fstest.MapFile{Data: []byte(src)}}
	f, err := parser.ParseFile(fsys, "main.lang")
	fatal(t)(err)
	return f
}

// run checks and then evaluates src, returning what it printed.
func run(t *testing.T, src string, opts ...interp.Option) string {
	t.Helper()
	f := parse(t, src)
	c, err := checker.New()
	fatal(t)(err)
	fatal(t)(c.Load(f))
	fatal(t)(c.Check())

	var out bytes.Buffer
	m, err := interp.New(append([]interp.Option{interp.WithOutput(&out)}, opts...)...)
	fatal(t)(err)
	fatal(t)(m.Load(f))
	v, err := m.Run()
	fatal(t)(err)
	if _, ok := v.(ast.VoidValue); !ok {
		t.Errorf("main returned %# v", pretty.Formatter(v))
	}
	return out.String()
}

func TestRun(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		want string
	}{
		{"print", `fn main() { print(1 + 2); }`, "3\n"},
		{"let then print", `fn main() -> void { let x = 1 + 2; print(x); }`, "3\n"},
		{"concat", `fn main() { print("a" + "b"); }`, "ab\n"},
		{"unused value", `fn main() { "a" + "b"; 1 + 2; }`, ""},
		{"equality", `fn main() { print(1 == 1); print(1 == 2); print("a" == "a"); print(true == false); }`, "true\nfalse\ntrue\nfalse\n"},
		{"arithmetic", `fn main() { print(7 / 2); print(2 ** 3 ** 2); print(-2 ** 2); print(10 - 2 - 3); print(2 + 3 * 4); }`, "3.5\n512\n-4\n5\n14\n"},
		{"user impl", `
			type money;
			impl Add<number> for money {
				type Output = number;
				fn add(self, other: number) -> number { other * 100 }
			}
			fn main() { print(money + 2); }`, "200\n"},
		{"user trait on unit", `
			type greeter;
			impl Call<(string)> for greeter {
				type Output = string;
				fn call(self, s: (string)) -> string { "hi" }
			}
			fn main() { print(greeter("bob")); }`, "hi\n"},
		{"operands evaluated once", `
			fn one() -> number { print("one"); return 1; }
			fn main() { print(one() + one()); }`, "one\none\n2\n"},
		{"left to right", `
			fn a() -> number { print("a"); return 1; }
			fn b() -> number { print("b"); return 2; }
			fn main() { print(a() - b()); }`, "a\nb\n-1\n"},
		{"recursion", `
			fn fact(n: number) -> number {
				if n == 0 { return 1; }
				return n * fact(n - 1);
			}
			fn main() { print(fact(5)); }`, "120\n"},
		{"early return", `
			fn f() -> number { if true { return 1; } return 2; }
			fn main() { print(f()); }`, "1\n"},
		{"return leaves nested blocks", `
			fn f() -> number { { { return 1; } } return 2; }
			fn main() { print(f()); }`, "1\n"},
		{"block value", `fn main() { let x = { let y = 2; y * 3 }; print(x); print("after"); }`, "6\nafter\n"},
		{"mutation", `fn main() { let mut x = 1; x = x + 1; { x = x * 5; } print(x); }`, "10\n"},
		{"shadowing", `fn main() { let x = 1; { let x = "inner"; print(x); } print(x); }`, "inner\n1\n"},
		{"if else", `fn main() { let s = if 1 == 2 { "yes" } else if 1 == 1 { "maybe" } else { "no" }; print(s); }`, "maybe\n"},
		{"closure", `fn main() { let inc = fn(n: number) -> number { n + 1 }; print(inc(41)); }`, "42\n"},
		{"arguments in caller frame", `
			fn id(x: number) -> number { x }
			fn main() { let x = 5; let y = 6; print(id(y)); print(x); }`, "6\n5\n"},
		{"unreached function", `
			fn unused() -> number { 1 }
			fn main() { print("ok"); }`, "ok\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, tt.src); got != tt.want {
				pretty.Ldiff(t, tt.want, got)
				t.Fail()
			}
		})
	}
}

func TestTrace(t *testing.T) {
	var trace bytes.Buffer
	run(t, `fn main() { print(1 + 2); }`, interp.WithTrace(&trace))
	for _, want := range []string{"call main", "number.add", "print.call"} {
		if !strings.Contains(trace.String(), want) {
			t.Errorf("trace lacks %q:\n%s", want, trace.String())
		}
	}
}

func TestInvariant(t *testing.T) {
	m, err := interp.New(interp.WithOutput(&bytes.Buffer{}))
	fatal(t)(err)
	fatal(t)(m.Load(parse(t, `fn main() { print(1 + "a"); }`)))
	defer func() {
		r := recover()
		if _, ok := r.(*interp.InvariantError); !ok {
			t.Fatalf("got %v, want an *InvariantError panic", r)
		}
	}()
	m.Run()
	t.Fatal("an ill-typed program ran to completion")
}

func TestCall(t *testing.T) {
	m, err := interp.New()
	fatal(t)(err)
	fatal(t)(m.Load(parse(t, `fn answer() -> number { 42 } fn inc(n: number) -> number { n + 1 }`)))
	v, err := m.Call("answer")
	fatal(t)(err)
	if v != ast.NumValue(42) {
		t.Errorf("got %v, want 42", v)
	}
	if _, err := m.Call("inc"); err == nil {
		t.Error("calling a function that takes arguments should fail")
	}
	if _, err := m.Run(); err == nil {
		t.Error("running without main should fail")
	}
}

func TestEvalStmt(t *testing.T) {
	var out bytes.Buffer
	m, err := interp.New(interp.WithOutput(&out))
	fatal(t)(err)
	var got []ast.Value
	for _, src := range []string{`let x = 2;`, `x * 3`, `print(x)`} {
		_, stmts, err := parser.ParseLine("<repl>", src)
		fatal(t)(err)
		got = append(got, m.EvalStmt(stmts[0]))
	}
	want := []ast.Value{ast.VoidValue{}, ast.NumValue(6), ast.VoidValue{}}
	if ast.Dump(got) != ast.Dump(want) {
		pretty.Ldiff(t, want, got)
		t.Fail()
	}
	if out.String() != "2\n" {
		t.Errorf("printed %q", out.String())
	}
}
