package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/std"
	"github.com/smasher164/tlang/types"
)

// InvariantError is raised, by panicking, when a program that should have
// been rejected by the checker is evaluated anyway.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "invariant violated: " + e.Msg }

func invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// Machine evaluates checked programs. It owns its environment and type table;
// nothing is shared with the checker.
type Machine struct {
	global *ast.Env[ast.Value]
	repl   *ast.Env[ast.Value]
	db     *types.TypeDB
	out    io.Writer
	trace  io.Writer
	indent int
}

type Option func(*Machine)

// WithOutput sets where print writes. The default is standard output.
func WithOutput(w io.Writer) Option {
	return func(m *Machine) { m.out = w }
}

// WithTrace writes an indented log of function calls and operator dispatch.
func WithTrace(w io.Writer) Option {
	return func(m *Machine) { m.trace = w }
}

func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		global: ast.NewEnv[ast.Value](nil),
		db:     types.NewTypeDB(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	files, err := std.Files()
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap")
	}
	if err := m.Load(files...); err != nil {
		return nil, errors.Wrap(err, "bootstrap")
	}
	return m, nil
}

func (m *Machine) tracef(format string, args ...any) func() {
	if m.trace == nil {
		return func() {}
	}
	fmt.Fprintf(m.trace, "%*s%s\n", m.indent*2, "", fmt.Sprintf(format, args...))
	m.indent++
	return func() {
		m.indent--
	}
}

// Load binds the items of files. Impls are attached to their types without
// validation; that is the checker's job.
func (m *Machine) Load(files ...*ast.File) error {
	for _, f := range files {
		for _, item := range f.Items {
			if err := m.loadItem(item); err != nil {
				return diag.As(err).InFile(f.Name)
			}
		}
	}
	return nil
}

func (m *Machine) loadItem(item ast.Item) error {
	switch item := item.(type) {
	case *ast.FnDecl:
		fn := ast.FnValue{Sig: item.Sig, Body: item.Body}
		if err := m.global.Add(item.Name, ast.NoMut, item.Sig.Type(), fn); err != nil {
			return diag.Errorf(diag.NameDefined, item.Loc, "%s", err)
		}
	case *ast.ImplDecl:
		impl, forType, err := types.BuildImpl(m.db, item)
		if err != nil {
			var te *types.TypeError
			if errors.As(err, &te) {
				return te.Diag("")
			}
			return err
		}
		forType.AddImpl(impl)
	case *ast.TypeDecl:
		unit := ast.Other{Name: item.Name}
		m.db.Register(unit)
		if err := m.global.Add(item.Name, ast.NoMut, unit, ast.UnitValue{Type: item.Name}); err != nil {
			return diag.Errorf(diag.NameDefined, item.Loc, "%s", err)
		}
	}
	return nil
}

// Run evaluates main.
func (m *Machine) Run() (ast.Value, error) {
	return m.Call("main")
}

// Call evaluates the top-level function name with no arguments.
func (m *Machine) Call(name string) (ast.Value, error) {
	v, ok := m.global.Value(name)
	if !ok {
		return nil, errors.Errorf("no function %s", name)
	}
	fn, ok := v.(ast.FnValue)
	if !ok {
		return nil, errors.Errorf("%s is not a function", name)
	}
	if len(fn.Sig.Params) != 0 {
		return nil, errors.Errorf("%s takes %d argument(s)", name, len(fn.Sig.Params))
	}
	defer m.tracef("call %s", name)()
	return m.call(fn, nil), nil
}

// EvalStmt evaluates one statement in a frame that persists across calls.
func (m *Machine) EvalStmt(stmt ast.Expr) ast.Value {
	if m.repl == nil {
		m.repl = m.global.Push()
	}
	v, _ := m.eval(m.repl, stmt)
	return v
}

// eval evaluates x in env. ret reports that an explicit return is
// propagating; it stops at the nearest call boundary.
func (m *Machine) eval(env *ast.Env[ast.Value], x ast.Expr) (v ast.Value, ret bool) {
	switch x := x.(type) {
	case *ast.Lit:
		return x.Value, false
	case *ast.FnLit:
		return ast.FnValue{Sig: x.Sig, Body: x.Body}, false
	case *ast.Ident:
		v, ok := env.Value(x.Name)
		if !ok {
			invariant("%s: unresolved identifier %s", x.Loc, x.Name)
		}
		return v, false
	case *ast.Block:
		frame := env.Push()
		for _, stmt := range x.Stmts {
			if r, ok := stmt.(*ast.Return); ok && r.Implicit {
				return m.eval(frame, r.X)
			}
			if v, ret := m.eval(frame, stmt); ret {
				return v, true
			}
		}
		return ast.VoidValue{}, false
	case *ast.Define:
		v, ret := m.eval(env, x.X)
		if ret {
			return v, true
		}
		mut := ast.NoMut
		if x.Mut {
			mut = ast.Mut
		}
		if err := env.Add(x.Name, mut, types.TypeOfValue(v), v); err != nil {
			invariant("%s: %s", x.Loc, err)
		}
		return ast.VoidValue{}, false
	case *ast.Assign:
		v, ret := m.eval(env, x.X)
		if ret {
			return v, true
		}
		if !env.Set(x.Name, v) {
			invariant("%s: unresolved identifier %s", x.Loc, x.Name)
		}
		return ast.VoidValue{}, false
	case *ast.Return:
		v, _ := m.eval(env, x.X)
		return v, true
	case *ast.Binary:
		lhs, ret := m.eval(env, x.Left)
		if ret {
			return lhs, true
		}
		rhs, ret := m.eval(env, x.Right)
		if ret {
			return rhs, true
		}
		return m.dispatch(types.BuiltinOf(x.Op), lhs, rhs), false
	case *ast.Neg:
		v, ret := m.eval(env, x.X)
		if ret {
			return v, true
		}
		return m.dispatch(types.Neg, v), false
	case *ast.Call:
		return m.evalCall(env, x)
	case *ast.If:
		cond, ret := m.eval(env, x.Cond)
		if ret {
			return cond, true
		}
		b, ok := cond.(ast.BoolValue)
		if !ok {
			invariant("%s: if condition is %s, not bool", x.Loc, types.TypeOfValue(cond))
		}
		if b {
			return m.eval(env, x.Then)
		}
		if x.Else != nil {
			return m.eval(env, x.Else)
		}
		return ast.VoidValue{}, false
	case *ast.Intrinsic:
		return m.intrinsic(env, x), false
	}
	invariant("unexpected expression %T", x)
	panic("unreachable")
}

// evalCall evaluates the callee and then the arguments, all in the caller's
// frame. Values that are not functions are called through their Call impl.
func (m *Machine) evalCall(env *ast.Env[ast.Value], x *ast.Call) (ast.Value, bool) {
	callee, ret := m.eval(env, x.Callee)
	if ret {
		return callee, true
	}
	args := make([]ast.Value, len(x.Args))
	for i, arg := range x.Args {
		v, ret := m.eval(env, arg)
		if ret {
			return v, true
		}
		args[i] = v
	}
	if fn, ok := callee.(ast.FnValue); ok {
		return m.call(fn, args), false
	}
	return m.dispatch(types.Call, callee, ast.TupleValue(args)), false
}

// call runs fn in a new frame over the global one, with its parameters bound
// positionally to args. A return from the body ends here.
func (m *Machine) call(fn ast.FnValue, args []ast.Value) ast.Value {
	if len(args) != len(fn.Sig.Params) {
		invariant("call of %s with %d argument(s)", fn.Sig.Type(), len(args))
	}
	frame := m.global.Push()
	for i, p := range fn.Sig.Params {
		if err := frame.Add(p.Name, ast.NoMut, p.Type, args[i]); err != nil {
			invariant("%s", err)
		}
	}
	v, _ := m.eval(frame, fn.Body)
	return v
}

// dispatch calls the method of the builtin trait b implemented by recv's
// type, keyed by the types of args.
func (m *Machine) dispatch(b types.Builtin, recv ast.Value, args ...ast.Value) ast.Value {
	recvType := types.TypeOfValue(recv)
	defining := make([]ast.TypeData, len(args))
	for i, arg := range args {
		defining[i] = types.TypeOfValue(arg)
	}
	impl, ok := m.db.Get(recvType).Impl(b.Trait(), defining)
	if !ok {
		invariant("trait %s not implemented for %s", ast.TraitRef(b.Trait(), defining), recvType)
	}
	method, ok := impl.Methods[b.Method()]
	if !ok {
		invariant("%s has no method %s", impl, b.Method())
	}
	defer m.tracef("%s.%s", recvType, b.Method())()
	return m.call(ast.FnValue{Sig: method.Sig, Body: method.Body}, append([]ast.Value{recv}, args...))
}
