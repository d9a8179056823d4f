package interp

import (
	"fmt"
	"math"

	"github.com/smasher164/tlang/ast"
)

// intrinsic runs a built-in operation on the parameters of the impl method
// whose body it appears in: self and other for operators, s for print.
func (m *Machine) intrinsic(env *ast.Env[ast.Value], x *ast.Intrinsic) ast.Value {
	switch x.Kind {
	case ast.Print:
		fmt.Fprintln(m.out, lookup(env, x, "s"))
		return ast.VoidValue{}
	case ast.NumNeg:
		return -num(env, x, "self")
	case ast.NumAdd:
		return num(env, x, "self") + num(env, x, "other")
	case ast.NumSub:
		return num(env, x, "self") - num(env, x, "other")
	case ast.NumMul:
		return num(env, x, "self") * num(env, x, "other")
	case ast.NumDiv:
		return num(env, x, "self") / num(env, x, "other")
	case ast.NumExp:
		return ast.NumValue(math.Pow(float64(num(env, x, "self")), float64(num(env, x, "other"))))
	case ast.NumEq:
		return ast.BoolValue(num(env, x, "self") == num(env, x, "other"))
	case ast.StrConcat:
		return str(env, x, "self") + str(env, x, "other")
	case ast.StrEq:
		return ast.BoolValue(str(env, x, "self") == str(env, x, "other"))
	case ast.BoolEq:
		return ast.BoolValue(boolean(env, x, "self") == boolean(env, x, "other"))
	}
	invariant("%s: unknown intrinsic %s", x.Loc, x.Kind)
	panic("unreachable")
}

func lookup(env *ast.Env[ast.Value], x *ast.Intrinsic, name string) ast.Value {
	v, ok := env.Value(name)
	if !ok {
		invariant("%s: %s used outside a method with a parameter %s", x.Loc, x.Kind, name)
	}
	return v
}

func num(env *ast.Env[ast.Value], x *ast.Intrinsic, name string) ast.NumValue {
	v, ok := lookup(env, x, name).(ast.NumValue)
	if !ok {
		invariant("%s: %s needs a number %s", x.Loc, x.Kind, name)
	}
	return v
}

func str(env *ast.Env[ast.Value], x *ast.Intrinsic, name string) ast.StrValue {
	v, ok := lookup(env, x, name).(ast.StrValue)
	if !ok {
		invariant("%s: %s needs a string %s", x.Loc, x.Kind, name)
	}
	return v
}

func boolean(env *ast.Env[ast.Value], x *ast.Intrinsic, name string) ast.BoolValue {
	v, ok := lookup(env, x, name).(ast.BoolValue)
	if !ok {
		invariant("%s: %s needs a bool %s", x.Loc, x.Kind, name)
	}
	return v
}
