package types

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/smasher164/tlang/ast"
)

// TypeScope answers what names are bound to. *ast.Env[T] implements it.
type TypeScope interface {
	TypeOf(name string) (ast.TypeData, bool)
	MutabilityOf(name string) (ast.Mutability, bool)
}

// Hooks let the caller of Infer take part in the walk. Any of them may be nil.
type Hooks struct {
	// Ident sees every identifier that resolves, whether it is called,
	// bound, passed or returned.
	Ident func(x *ast.Ident) error
	// Block types a nested block. Without it, a block has the type of its
	// first direct return, or void.
	Block func(b *ast.Block) (ast.TypeData, error)
	// Closure checks the body of a function literal.
	Closure func(fn *ast.FnLit) error
}

type inferer struct {
	scope TypeScope
	db    *TypeDB
	hooks Hooks
}

// Infer computes the type of x.
func Infer(x ast.Expr, scope TypeScope, db *TypeDB, hooks Hooks) (ast.TypeData, error) {
	return (&inferer{scope: scope, db: db, hooks: hooks}).infer(x)
}

func (in *inferer) infer(x ast.Expr) (ast.TypeData, error) {
	switch x := x.(type) {
	case *ast.Lit:
		return TypeOfValue(x.Value), nil
	case *ast.FnLit:
		if in.hooks.Closure != nil {
			if err := in.hooks.Closure(x); err != nil {
				return nil, err
			}
		}
		return x.Sig.Type(), nil
	case *ast.Ident:
		td, ok := in.scope.TypeOf(x.Name)
		if !ok {
			return nil, &TypeError{Kind: IdentNotFound, Span: x.Loc, Name: x.Name}
		}
		if in.hooks.Ident != nil {
			if err := in.hooks.Ident(x); err != nil {
				return nil, err
			}
		}
		return td, nil
	case *ast.Binary:
		lhs, err := in.infer(x.Left)
		if err != nil {
			return nil, err
		}
		rhs, err := in.infer(x.Right)
		if err != nil {
			return nil, err
		}
		b := BuiltinOf(x.Op)
		impl, err := in.impl(x, b, lhs, rhs)
		if err != nil {
			return nil, err
		}
		if b == Eq {
			return ast.Bool, nil
		}
		return in.output(x, impl)
	case *ast.Neg:
		t, err := in.infer(x.X)
		if err != nil {
			return nil, err
		}
		impl, err := in.impl(x, Neg, t)
		if err != nil {
			return nil, err
		}
		return in.output(x, impl)
	case *ast.Call:
		return in.inferCall(x)
	case *ast.Block:
		if in.hooks.Block != nil {
			return in.hooks.Block(x)
		}
		for _, stmt := range x.Stmts {
			if ret, ok := stmt.(*ast.Return); ok {
				return in.infer(ret.X)
			}
		}
		return ast.Void, nil
	case *ast.Return:
		if _, err := in.infer(x.X); err != nil {
			return nil, err
		}
		return ast.Never, nil
	case *ast.Define:
		if _, err := in.infer(x.X); err != nil {
			return nil, err
		}
		return ast.Void, nil
	case *ast.Assign:
		return in.inferAssign(x)
	case *ast.If:
		return in.inferIf(x)
	case *ast.Intrinsic:
		return IntrinsicType(x.Kind), nil
	}
	panic(fmt.Sprintf("unexpected expression %T", x))
}

// impl finds the impl of b on recv's type keyed by args.
func (in *inferer) impl(x ast.Expr, b Builtin, recv ast.TypeData, args ...ast.TypeData) (*ImplTrait, error) {
	if args == nil {
		args = []ast.TypeData{}
	}
	impl, ok := in.db.Get(recv).Impl(b.Trait(), args)
	if !ok {
		return nil, &TypeError{Kind: TraitNotImplemented, Span: x.Span(), Trait: b.Trait(), Args: args, Receiver: recv}
	}
	return impl, nil
}

func (in *inferer) output(x ast.Expr, impl *ImplTrait) (ast.TypeData, error) {
	out, ok := impl.Typedef(Output)
	if !ok {
		return nil, mismatch(x.Span(), "%s has no associated type `%s`", impl, Output)
	}
	return out, nil
}

func (in *inferer) inferCall(x *ast.Call) (ast.TypeData, error) {
	callee, err := in.infer(x.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]ast.TypeData, len(x.Args))
	for i, arg := range x.Args {
		if args[i], err = in.infer(arg); err != nil {
			return nil, err
		}
	}
	if fn, ok := callee.(ast.FnType); ok {
		if !fn.Sig.MatchesArgs(args) {
			return nil, &TypeError{
				Kind: TypesDontMatch,
				Span: x.Loc,
				Msg:  "wrong arguments in call",
				Want: ast.Tuple{Elems: fn.Sig.ParamTypes()},
				Got:  ast.Tuple{Elems: args},
			}
		}
		return fn.Sig.Ret, nil
	}
	impl, err := in.impl(x, Call, callee, ast.Tuple{Elems: args})
	if err != nil {
		return nil, err
	}
	return in.output(x, impl)
}

func (in *inferer) inferAssign(x *ast.Assign) (ast.TypeData, error) {
	want, ok := in.scope.TypeOf(x.Name)
	if !ok {
		return nil, &TypeError{Kind: IdentNotFound, Span: x.Loc, Name: x.Name}
	}
	if mut, _ := in.scope.MutabilityOf(x.Name); mut != ast.Mut {
		return nil, &TypeError{Kind: NotMutable, Span: x.Loc, Name: x.Name}
	}
	got, err := in.infer(x.X)
	if err != nil {
		return nil, err
	}
	if !ast.Equal(want, got) {
		return nil, &TypeError{Kind: TypesDontMatch, Span: x.X.Span(), Msg: fmt.Sprintf("cannot assign to `%s`", x.Name), Want: want, Got: got}
	}
	return ast.Void, nil
}

func (in *inferer) inferIf(x *ast.If) (ast.TypeData, error) {
	cond, err := in.infer(x.Cond)
	if err != nil {
		return nil, err
	}
	if !ast.Equal(cond, ast.Bool) {
		return nil, &TypeError{Kind: TypesDontMatch, Span: x.Cond.Span(), Msg: "if condition", Want: ast.Bool, Got: cond}
	}
	then, err := in.infer(x.Then)
	if err != nil {
		return nil, err
	}
	if x.Else == nil {
		return ast.Void, nil
	}
	els, err := in.infer(x.Else)
	if err != nil {
		return nil, err
	}
	if !ast.Equal(then, els) {
		return nil, &TypeError{Kind: BranchesDontMatch, Span: x.Loc, Want: then, Got: els}
	}
	return then, nil
}

// TypeOfValue is the type a value carries by construction.
func TypeOfValue(v ast.Value) ast.TypeData {
	switch v := v.(type) {
	case ast.NumValue:
		return ast.Number
	case ast.StrValue:
		return ast.String
	case ast.BoolValue:
		return ast.Bool
	case ast.FnValue:
		return v.Sig.Type()
	case ast.TupleValue:
		return ast.Tuple{Elems: lo.Map(v, func(e ast.Value, _ int) ast.TypeData { return TypeOfValue(e) })}
	case ast.UnitValue:
		return ast.Other{Name: v.Type}
	case ast.VoidValue:
		return ast.Void
	case ast.NeverValue:
		return ast.Never
	}
	panic(fmt.Sprintf("unexpected value %T", v))
}

func IntrinsicType(k ast.IntrinsicKind) ast.TypeData {
	switch k {
	case ast.Print:
		return ast.Void
	case ast.StrConcat:
		return ast.String
	case ast.NumEq, ast.StrEq, ast.BoolEq:
		return ast.Bool
	}
	return ast.Number
}
