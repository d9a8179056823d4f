package checker

import (
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/types"
)

func (c *Checker) load(f *ast.File, user bool) error {
	defer c.tracef("load %s", f.Name)()
	prev := c.file
	c.file = f.Name
	defer func() { c.file = prev }()
	if user {
		c.files = append(c.files, f)
	}
	for _, item := range f.Items {
		if user {
			c.items = append(c.items, item)
		}
		if err := c.loadItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) loadItem(item ast.Item) error {
	switch item := item.(type) {
	case *ast.FnDecl:
		fnType := item.Sig.Type()
		c.db.Register(fnType)
		if err := c.global.Add(item.Name, ast.NoMut, fnType, entry{decl: item, file: c.file}); err != nil {
			return c.diag(&types.TypeError{Kind: types.NameDefined, Span: item.Loc, Name: item.Name})
		}
	case *ast.TraitDecl:
		defer c.tracef("load trait %s", item.Name)()
		if _, ok := c.traits[item.Name]; ok {
			return c.diag(&types.TypeError{Kind: types.NameDefined, Span: item.Loc, Name: item.Name})
		}
		trait, err := types.NewTrait(item)
		if err != nil {
			return c.diag(err)
		}
		c.traits[item.Name] = trait
	case *ast.ImplDecl:
		defer c.tracef("load %s", item.ItemName())()
		trait, ok := c.traits[item.Trait]
		if !ok {
			return diag.Errorf(diag.UnknownTrait, item.Loc, "unknown trait `%s`", item.Trait).InFile(c.file)
		}
		impl, forType, err := types.BuildImpl(c.db, item)
		if err != nil {
			return c.diag(err)
		}
		if _, dup := forType.Impl(impl.Trait, impl.Defining); dup {
			return diag.Errorf(diag.ImplMismatch, item.Loc, "conflicting implementations of `%s` for type `%s`",
				ast.TraitRef(impl.Trait, impl.Defining), forType).InFile(c.file)
		}
		err = types.MatchesTrait(impl, trait, c.db, func(db *types.TypeDB, name string, sig *ast.FnSignature, body *ast.Block) error {
			defer c.tracef("check method %s", name)()
			return c.checkFn(c.global, sig, body)
		})
		if err != nil {
			return c.diag(err)
		}
		forType.AddImpl(impl)
	case *ast.TypeDecl:
		unit := ast.Other{Name: item.Name}
		if c.db.Registered(unit) {
			return c.diag(&types.TypeError{Kind: types.NameDefined, Span: item.Loc, Name: item.Name})
		}
		c.db.Register(unit)
		if err := c.global.Add(item.Name, ast.NoMut, unit, entry{}); err != nil {
			return c.diag(&types.TypeError{Kind: types.NameDefined, Span: item.Loc, Name: item.Name})
		}
	}
	return nil
}
