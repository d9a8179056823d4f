package ast

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/tlang/lexer"
	"golang.org/x/exp/slices"
)

// TypeData is the structural shape of a type. It is compared structurally
// and used as the lookup key of the type table.
type TypeData interface {
	isTypeData()
	fmt.Stringer
}

var (
	_ TypeData = Basic(0)
	_ TypeData = Array{}
	_ TypeData = Tuple{}
	_ TypeData = FnType{}
	_ TypeData = Other{}
)

type Basic int

const (
	Number Basic = iota
	String
	Bool
	Void
	Never
	Err
	SelfRef
)

func (b Basic) String() string {
	switch b {
	case Number:
		return "number"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Void:
		return "void"
	case Never:
		return "!"
	case Err:
		return "<error>"
	case SelfRef:
		return "Self"
	default:
		panic("unreachable")
	}
}

func (Basic) isTypeData() {}

type Array struct {
	Elem TypeData
}

func (Array) isTypeData() {}

func (a Array) String() string { return "[" + a.Elem.String() + "]" }

type Tuple struct {
	Elems []TypeData
}

func (Tuple) isTypeData() {}

func (t Tuple) String() string {
	return "(" + strings.Join(lo.Map(t.Elems, func(td TypeData, _ int) string { return td.String() }), ", ") + ")"
}

type FnType struct {
	Sig *FnSignature
}

func (FnType) isTypeData() {}

func (f FnType) String() string {
	params := lo.Map(f.Sig.Params, func(p Param, _ int) string { return p.Type.String() })
	return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), f.Sig.Ret)
}

// Other names a type that is not built in: a declared unit type, a trait
// slot, or an associated type.
type Other struct {
	Name string
}

func (Other) isTypeData() {}

func (o Other) String() string { return o.Name }

type Param struct {
	Name string
	Type TypeData
	Loc  lexer.Span
}

type FnSignature struct {
	Params []Param
	Ret    TypeData
}

func (sig *FnSignature) Type() TypeData { return FnType{Sig: sig} }

func (sig *FnSignature) ParamTypes() []TypeData {
	return lo.Map(sig.Params, func(p Param, _ int) TypeData { return p.Type })
}

// Equal ignores parameter names.
func (sig *FnSignature) Equal(other *FnSignature) bool {
	if sig == other {
		return true
	}
	if sig == nil || other == nil {
		return false
	}
	return slices.EqualFunc(sig.Params, other.Params, func(a, b Param) bool {
		return Equal(a.Type, b.Type)
	}) && Equal(sig.Ret, other.Ret)
}

// MatchesArgs reports whether args can be passed positionally to sig.
func (sig *FnSignature) MatchesArgs(args []TypeData) bool {
	if len(sig.Params) != len(args) {
		return false
	}
	for i, p := range sig.Params {
		if !Equal(p.Type, args[i]) {
			return false
		}
	}
	return true
}

func Equal(a, b TypeData) bool {
	switch a := a.(type) {
	case Basic:
		b, ok := b.(Basic)
		return ok && a == b
	case Array:
		b, ok := b.(Array)
		return ok && Equal(a.Elem, b.Elem)
	case Tuple:
		b, ok := b.(Tuple)
		return ok && slices.EqualFunc(a.Elems, b.Elems, Equal)
	case FnType:
		b, ok := b.(FnType)
		return ok && a.Sig.Equal(b.Sig)
	case Other:
		b, ok := b.(Other)
		return ok && a.Name == b.Name
	case nil:
		return b == nil
	}
	return false
}

// Key renders td canonically. Key(a) == Key(b) exactly when Equal(a, b).
// Named types are marked so that one called number never collides with the
// builtin.
func Key(td TypeData) string {
	switch td := td.(type) {
	case Basic:
		return td.String()
	case Array:
		return "[" + Key(td.Elem) + "]"
	case Tuple:
		return "(" + strings.Join(lo.Map(td.Elems, func(e TypeData, _ int) string { return Key(e) }), ",") + ")"
	case FnType:
		params := lo.Map(td.Sig.Params, func(p Param, _ int) string { return Key(p.Type) })
		return "fn(" + strings.Join(params, ",") + ")->" + Key(td.Sig.Ret)
	case Other:
		return "%" + td.Name
	}
	panic(fmt.Sprintf("unexpected type data %T", td))
}

// TraitRef renders a trait applied to its defining types, e.g. Add<number>.
func TraitRef(trait string, args []TypeData) string {
	if len(args) == 0 {
		return trait
	}
	return trait + "<" + strings.Join(lo.Map(args, func(td TypeData, _ int) string { return td.String() }), ", ") + ">"
}
