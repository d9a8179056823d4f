package types

import (
	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
	"github.com/smasher164/tlang/ast"
	"golang.org/x/exp/slices"
)

// MethodHook is called for every method of an impl that matched its trait,
// with the method signature after substitution. db still has the impl's
// bindings pushed.
type MethodHook func(db *TypeDB, name string, sig *ast.FnSignature, body *ast.Block) error

// BuildImpl turns an impl declaration into an ImplTrait for the declared
// type. Self and the impl's own typedef names are substituted away, so the
// result refers only to concrete types.
func BuildImpl(db *TypeDB, decl *ast.ImplDecl) (*ImplTrait, *Type, error) {
	forType := db.Get(decl.For)
	db.Push()
	defer db.Pop()
	db.Bind(ast.SelfRef, forType.ID)

	impl := &ImplTrait{
		Trait:    decl.Trait,
		For:      decl.For,
		Defining: lo.Map(decl.Args, func(td ast.TypeData, _ int) ast.TypeData { return db.Resolve(td) }),
		Typedefs: make(map[string]ast.TypeData, len(decl.Typedefs)),
		Methods:  make(map[string]Method, len(decl.Methods)),
		Loc:      decl.Loc,
	}
	for _, def := range decl.Typedefs {
		if _, ok := impl.Typedefs[def.Name]; ok {
			return nil, nil, &TypeError{Kind: NameDefined, Span: def.Loc, Name: def.Name}
		}
		td := db.Resolve(def.Type)
		impl.Typedefs[def.Name] = td
		db.Bind(ast.Other{Name: def.Name}, db.Get(td).ID)
	}
	for _, m := range decl.Methods {
		if _, ok := impl.Methods[m.Name]; ok {
			return nil, nil, &TypeError{Kind: NameDefined, Span: m.Loc, Name: m.Name}
		}
		impl.Methods[m.Name] = Method{Sig: db.ResolveSig(m.Sig), Body: m.Body}
		impl.Order = append(impl.Order, m.Name)
	}
	return impl, forType, nil
}

// MatchesTrait validates impl against its trait declaration. The trait's
// parameters and associated types are bound to the impl's choices, every
// method signature must then agree exactly, and onMethod is given each method
// body to check.
func MatchesTrait(impl *ImplTrait, trait *Trait, db *TypeDB, onMethod MethodHook) error {
	if impl.Trait != trait.Name {
		return mismatch(impl.Loc, "impl of `%s` checked against trait `%s`", impl.Trait, trait.Name)
	}
	if len(trait.Slots) != len(impl.Defining) {
		return mismatch(impl.Loc, "trait `%s` takes %d type parameter(s) but the impl supplies %d", trait.Name, len(trait.Slots), len(impl.Defining))
	}

	db.Push()
	defer db.Pop()
	db.Bind(ast.SelfRef, db.Get(impl.For).ID)
	for i, slot := range trait.Slots {
		db.Bind(ast.Other{Name: slot}, db.Get(impl.Defining[i]).ID)
	}

	want := set.From(trait.Assoc)
	have := set.From(lo.Keys(impl.Typedefs))
	if missing := want.Difference(have); missing.Size() > 0 {
		names := missing.Slice()
		slices.Sort(names)
		return mismatch(impl.Loc, "missing associated type `%s` in %s", names[0], impl)
	}
	if extra := have.Difference(want); extra.Size() > 0 {
		names := extra.Slice()
		slices.Sort(names)
		return mismatch(impl.Loc, "associated type `%s` is not a member of trait `%s`", names[0], trait.Name)
	}
	for _, name := range trait.Assoc {
		db.Bind(ast.Other{Name: name}, db.Get(impl.Typedefs[name]).ID)
	}

	for _, name := range trait.Order {
		if _, ok := impl.Methods[name]; !ok {
			return mismatch(impl.Loc, "missing method `%s` in %s", name, impl)
		}
	}
	for _, name := range impl.Order {
		sig, ok := trait.Methods[name]
		if !ok {
			return mismatch(impl.Loc, "method `%s` is not a member of trait `%s`", name, trait.Name)
		}
		expected := db.ResolveSig(sig)
		if got := impl.Methods[name].Sig; !expected.Equal(got) {
			return mismatch(impl.Loc, "method `%s` has type `%s` but trait `%s` expects `%s`", name, got.Type(), trait.Name, expected.Type())
		}
	}
	if onMethod == nil {
		return nil
	}
	for _, name := range impl.Order {
		m := impl.Methods[name]
		if err := onMethod(db, name, m.Sig, m.Body); err != nil {
			return err
		}
	}
	return nil
}
