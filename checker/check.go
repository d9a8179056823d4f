package checker

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/std"
	"github.com/smasher164/tlang/types"
	"golang.org/x/exp/slices"
)

// entry is what the checker's scope holds for a name. Top-level functions
// carry their declaration and whether their body has been checked; locals
// and unit values carry neither.
type entry struct {
	decl    *ast.FnDecl
	file    string
	checked bool
}

type Checker struct {
	global *ast.Env[entry]
	repl   *ast.Env[entry]
	db     *types.TypeDB
	traits map[string]*types.Trait
	files  []*ast.File
	items  []ast.Item
	file   string
	ret    ast.TypeData // declared return type of the function being checked
	trace  io.Writer
	indent int
}

type Option func(*Checker)

// WithTrace writes an indented log of what the checker loads and checks.
func WithTrace(w io.Writer) Option {
	return func(c *Checker) { c.trace = w }
}

// New returns a checker whose environment holds the bootstrap library.
func New(opts ...Option) (*Checker, error) {
	c := &Checker{
		global: ast.NewEnv[entry](nil),
		db:     types.NewTypeDB(),
		traits: make(map[string]*types.Trait),
	}
	for _, opt := range opts {
		opt(c)
	}
	files, err := std.Files()
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap")
	}
	for _, f := range files {
		if err := c.load(f, false); err != nil {
			return nil, errors.Wrap(err, "bootstrap")
		}
	}
	return c, nil
}

func (c *Checker) tracef(format string, args ...any) func() {
	if c.trace == nil {
		return func() {}
	}
	fmt.Fprintf(c.trace, "%*s%s\n", c.indent*2, "", fmt.Sprintf(format, args...))
	c.indent++
	return func() {
		c.indent--
	}
}

// Load adds user items to the environment in file order. Impls are validated
// as they are met; the first error aborts.
func (c *Checker) Load(files ...*ast.File) error {
	for _, f := range files {
		if err := c.load(f, true); err != nil {
			return err
		}
	}
	return nil
}

// Check requires a well-formed main and checks it, along with every function
// reachable from it.
func (c *Checker) Check() error {
	defer c.tracef("check")()
	b, ok := c.global.LookupLocal("main")
	if !ok || b.Value.decl == nil {
		d := &diag.Error{Kind: diag.NoMain, Msg: "no main function found"}
		if len(c.items) > 0 {
			d.Span = c.items[0].Span()
		}
		if len(c.files) > 0 {
			d.File = c.files[0].Name
		}
		return d
	}
	decl := b.Value.decl
	switch {
	case len(decl.Sig.Params) > 0:
		return &diag.Error{File: b.Value.file, Span: decl.Loc, Kind: diag.MainHasArguments, Msg: "main function cannot take arguments"}
	case !ast.Equal(decl.Sig.Ret, ast.Void):
		return &diag.Error{File: b.Value.file, Span: decl.Loc, Kind: diag.MainNonVoidRetType, Msg: fmt.Sprintf("main function must return void, not `%s`", decl.Sig.Ret)}
	}
	return c.checkItem("main")
}

// CheckLib checks every user function, reachable or not. It does not need a
// main.
func (c *Checker) CheckLib() error {
	defer c.tracef("check lib")()
	for _, name := range c.Functions() {
		if err := c.checkItem(name); err != nil {
			return err
		}
	}
	return nil
}

// Define loads f and checks every user function, as Load and then CheckLib
// would. When either fails the receiver is left as it was, so a rejected
// definition can be corrected and entered again.
func (c *Checker) Define(f *ast.File) error {
	scratch, err := New()
	if err != nil {
		return err
	}
	if err := scratch.Load(append(slices.Clone(c.files), f)...); err != nil {
		return err
	}
	if err := scratch.CheckLib(); err != nil {
		return err
	}
	if err := c.Load(f); err != nil {
		return err
	}
	return c.CheckLib()
}

// Functions lists the user functions in the environment in load order.
func (c *Checker) Functions() []string {
	var names []string
	for _, item := range c.items {
		if fn, ok := item.(*ast.FnDecl); ok {
			names = append(names, fn.Name)
		}
	}
	return names
}

// Checked reports whether the body of function name has been checked.
func (c *Checker) Checked(name string) bool {
	v, ok := c.global.Value(name)
	return ok && v.checked
}

// Unchecked lists the user functions whose bodies were never checked.
func (c *Checker) Unchecked() []string {
	return lo.Filter(c.Functions(), func(name string, _ int) bool { return !c.Checked(name) })
}

// checkItem checks the body of top-level function name unless that has
// already happened. It is marked first so that recursion terminates, and
// unmarked again if the body is rejected.
func (c *Checker) checkItem(name string) error {
	v, ok := c.global.Value(name)
	if !ok || v.decl == nil || v.checked {
		return nil
	}
	defer c.tracef("check fn %s", name)()
	v.checked = true
	c.global.Set(name, v)
	prev := c.file
	c.file = v.file
	defer func() { c.file = prev }()
	if err := c.checkFn(c.global, v.decl.Sig, v.decl.Body); err != nil {
		v.checked = false
		c.global.Set(name, v)
		return err
	}
	return nil
}

// checkFn checks body against sig in a frame over base. The type of the
// block, that of its first direct return, must be exactly the declared one,
// and so must that of every explicit return nested anywhere in it.
func (c *Checker) checkFn(base *ast.Env[entry], sig *ast.FnSignature, body *ast.Block) error {
	prev := c.ret
	c.ret = sig.Ret
	defer func() { c.ret = prev }()
	frame := base.Push()
	for _, p := range sig.Params {
		if err := frame.Add(p.Name, ast.NoMut, p.Type, entry{}); err != nil {
			return c.diag(&types.TypeError{Kind: types.NameDefined, Span: p.Loc, Name: p.Name})
		}
	}
	got, err := c.checkBlock(frame, body)
	if err != nil {
		return err
	}
	if !ast.Equal(got, sig.Ret) {
		return c.diag(&types.TypeError{Kind: types.TypesDontMatch, Span: body.Loc, Msg: "wrong return type", Want: sig.Ret, Got: got})
	}
	return nil
}

// checkBlock walks the statements of b in a fresh frame and returns the type
// of its first direct return, or void.
func (c *Checker) checkBlock(env *ast.Env[entry], b *ast.Block) (ast.TypeData, error) {
	frame := env.Push()
	var ret ast.TypeData
	for _, stmt := range b.Stmts {
		td, err := c.checkStmt(frame, stmt)
		if err != nil {
			return nil, err
		}
		if _, ok := stmt.(*ast.Return); ok && ret == nil {
			ret = td
		}
	}
	if ret == nil {
		return ast.Void, nil
	}
	return ret, nil
}

// checkStmt checks one statement. For a return it yields the type of the
// returned expression. An explicit return leaves the enclosing function, so
// it must match that function's return type.
func (c *Checker) checkStmt(frame *ast.Env[entry], stmt ast.Expr) (ast.TypeData, error) {
	switch stmt := stmt.(type) {
	case *ast.Block:
		return c.checkBlock(frame, stmt)
	case *ast.Define:
		td, err := c.infer(frame, stmt.X)
		if err != nil {
			return nil, err
		}
		mut := ast.NoMut
		if stmt.Mut {
			mut = ast.Mut
		}
		if err := frame.Add(stmt.Name, mut, td, entry{}); err != nil {
			return nil, c.diag(&types.TypeError{Kind: types.NameDefined, Span: stmt.Loc, Name: stmt.Name})
		}
		return ast.Void, nil
	case *ast.Return:
		td, err := c.infer(frame, stmt.X)
		if err != nil {
			return nil, err
		}
		if !stmt.Implicit && c.ret != nil && !ast.Equal(td, c.ret) {
			return nil, c.diag(&types.TypeError{Kind: types.TypesDontMatch, Span: stmt.Loc, Msg: "wrong return type", Want: c.ret, Got: td})
		}
		return td, nil
	}
	return c.infer(frame, stmt)
}

// infer types x in frame, checking every top-level function it names and
// every nested block and closure body along the way. A function that is only
// aliased or passed along counts as reached.
func (c *Checker) infer(frame *ast.Env[entry], x ast.Expr) (ast.TypeData, error) {
	td, err := types.Infer(x, frame, c.db, types.Hooks{
		Ident: func(id *ast.Ident) error {
			if b, _, ok := frame.LookupStack(id.Name); ok && b.Value.decl != nil {
				return c.checkItem(id.Name)
			}
			return nil
		},
		Block: func(b *ast.Block) (ast.TypeData, error) {
			return c.checkBlock(frame, b)
		},
		Closure: func(fn *ast.FnLit) error {
			defer c.tracef("check closure")()
			return c.checkFn(c.global, fn.Sig, fn.Body)
		},
	})
	if err != nil {
		return nil, c.diag(err)
	}
	return td, nil
}

// diag classifies err and pins it to the file being checked.
func (c *Checker) diag(err error) error {
	var te *types.TypeError
	if errors.As(err, &te) {
		return te.Diag(c.file)
	}
	return diag.As(err).InFile(c.file)
}

// CheckStmt types one statement in a frame that persists across calls, so
// that bindings made by earlier statements stay visible.
func (c *Checker) CheckStmt(stmt ast.Expr) (ast.TypeData, error) {
	if c.repl == nil {
		c.repl = c.global.Push()
	}
	c.file = "<repl>"
	return c.checkStmt(c.repl, stmt)
}
