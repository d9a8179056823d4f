package types

import (
	"fmt"

	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/lexer"
	"golang.org/x/exp/slices"
)

// TypeID indexes the interned type table of a TypeDB.
type TypeID int

// Type is a TypeData together with the trait implementations attached to it.
// Two Types are the same type when their Data is equal; the impls play no
// part in that.
type Type struct {
	ID          TypeID
	Data        ast.TypeData
	Impls       []*ImplTrait
	Synthesized bool
}

func (t *Type) String() string { return t.Data.String() }

func (t *Type) Equal(other *Type) bool { return ast.Equal(t.Data, other.Data) }

func (t *Type) AddImpl(impl *ImplTrait) {
	t.Impls = append(t.Impls, impl)
}

// Impl returns the first impl of trait whose defining types equal defining
// position by position. Impls are searched in the order they were added.
func (t *Type) Impl(trait string, defining []ast.TypeData) (*ImplTrait, bool) {
	for _, impl := range t.Impls {
		if impl.Trait == trait && slices.EqualFunc(impl.Defining, defining, ast.Equal) {
			return impl, true
		}
	}
	return nil, false
}

type Trait struct {
	Name    string
	Slots   []string
	Assoc   []string
	Methods map[string]*ast.FnSignature
	Order   []string
	Loc     lexer.Span
}

func NewTrait(decl *ast.TraitDecl) (*Trait, error) {
	t := &Trait{
		Name:    decl.Name,
		Slots:   decl.Slots,
		Assoc:   decl.Assoc,
		Methods: make(map[string]*ast.FnSignature, len(decl.Methods)),
		Loc:     decl.Loc,
	}
	for _, m := range decl.Methods {
		if _, ok := t.Methods[m.Name]; ok {
			return nil, &TypeError{Kind: NameDefined, Span: m.Loc, Name: m.Name}
		}
		t.Methods[m.Name] = m.Sig
		t.Order = append(t.Order, m.Name)
	}
	return t, nil
}

type Method struct {
	Sig  *ast.FnSignature
	Body *ast.Block
}

// ImplTrait realizes a trait for one type. Its defining types and typedefs
// are concrete: Self and any names bound at load time have been substituted.
type ImplTrait struct {
	Trait    string
	Defining []ast.TypeData
	For      ast.TypeData
	Typedefs map[string]ast.TypeData
	Methods  map[string]Method
	Order    []string
	Loc      lexer.Span
}

func (impl *ImplTrait) String() string {
	return fmt.Sprintf("impl %s for %s", ast.TraitRef(impl.Trait, impl.Defining), impl.For)
}

func (impl *ImplTrait) Typedef(name string) (ast.TypeData, bool) {
	td, ok := impl.Typedefs[name]
	return td, ok
}

// Builtin is a trait the language itself relies on: every operator and every
// call of a non-function value goes through one of these.
type Builtin int

const (
	Add Builtin = iota
	Sub
	Mul
	Div
	Exp
	Eq
	Neg
	Call
)

var builtinNames = [...]struct{ trait, method string }{
	Add:  {"Add", "add"},
	Sub:  {"Sub", "sub"},
	Mul:  {"Mul", "mul"},
	Div:  {"Div", "div"},
	Exp:  {"Exp", "exp"},
	Eq:   {"Eq", "eq"},
	Neg:  {"Neg", "neg"},
	Call: {"Call", "call"},
}

func (b Builtin) Trait() string  { return builtinNames[b].trait }
func (b Builtin) Method() string { return builtinNames[b].method }
func (b Builtin) String() string { return b.Trait() }

// BuiltinOf maps a binary operator to the trait that implements it.
func BuiltinOf(op ast.Op) Builtin {
	switch op {
	case ast.Add:
		return Add
	case ast.Sub:
		return Sub
	case ast.Mul:
		return Mul
	case ast.Div:
		return Div
	case ast.Exp:
		return Exp
	case ast.Eq:
		return Eq
	}
	panic(fmt.Sprintf("no trait for operator %s", op))
}

// Output is the associated type operator and call traits produce.
const Output = "Output"
