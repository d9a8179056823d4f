package types

import (
	"fmt"

	"github.com/smasher164/tlang/ast"
)

// TypeDB interns Types by structural key and layers override frames on top,
// so that Self and trait parameter names resolve to concrete types while an
// impl is being loaded. Frames are pushed and popped in LIFO order.
type TypeDB struct {
	table  []*Type
	index  map[string]TypeID
	frames []map[string]TypeID
}

func NewTypeDB() *TypeDB {
	db := &TypeDB{index: make(map[string]TypeID)}
	for _, td := range []ast.TypeData{ast.Number, ast.String, ast.Bool, ast.Void, ast.Never} {
		db.Register(td)
	}
	return db
}

func (db *TypeDB) Push() {
	db.frames = append(db.frames, make(map[string]TypeID))
}

// Pop drops the innermost frame. It does nothing when no frame is pushed.
func (db *TypeDB) Pop() {
	if len(db.frames) > 0 {
		db.frames = db.frames[:len(db.frames)-1]
	}
}

func (db *TypeDB) Depth() int { return len(db.frames) }

// Bind makes td resolve to id until the innermost frame is popped.
func (db *TypeDB) Bind(td ast.TypeData, id TypeID) {
	if len(db.frames) == 0 {
		panic(fmt.Sprintf("binding %s outside of a scope", td))
	}
	db.frames[len(db.frames)-1][ast.Key(td)] = id
}

func (db *TypeDB) intern(td ast.TypeData, synthesized bool) TypeID {
	key := ast.Key(td)
	if id, ok := db.index[key]; ok {
		if !synthesized {
			db.table[id].Synthesized = false
		}
		return id
	}
	id := TypeID(len(db.table))
	db.table = append(db.table, &Type{ID: id, Data: td, Synthesized: synthesized})
	db.index[key] = id
	return id
}

// Register explicitly enters td in the table.
func (db *TypeDB) Register(td ast.TypeData) TypeID {
	return db.intern(td, false)
}

// Registered reports whether td was entered with Register, as opposed to
// being synthesized by a lookup or never seen.
func (db *TypeDB) Registered(td ast.TypeData) bool {
	id, ok := db.index[ast.Key(td)]
	return ok && !db.table[id].Synthesized
}

// Lookup resolves td through the frames, then the table. It never
// synthesizes.
func (db *TypeDB) Lookup(td ast.TypeData) (*Type, bool) {
	key := ast.Key(td)
	for i := len(db.frames) - 1; i >= 0; i-- {
		if id, ok := db.frames[i][key]; ok {
			return db.table[id], true
		}
	}
	id, ok := db.index[key]
	if !ok {
		return nil, false
	}
	return db.table[id], true
}

// Get is Lookup, except that a miss synthesizes a fresh Type with no impls.
func (db *TypeDB) Get(td ast.TypeData) *Type {
	if t, ok := db.Lookup(td); ok {
		return t
	}
	return db.table[db.intern(td, true)]
}

func (db *TypeDB) Type(id TypeID) *Type { return db.table[id] }

// Resolve substitutes every name bound in the frames, including ones nested
// inside arrays, tuples and function types.
func (db *TypeDB) Resolve(td ast.TypeData) ast.TypeData {
	switch td := td.(type) {
	case ast.Array:
		return ast.Array{Elem: db.Resolve(td.Elem)}
	case ast.Tuple:
		elems := make([]ast.TypeData, len(td.Elems))
		for i, e := range td.Elems {
			elems[i] = db.Resolve(e)
		}
		return ast.Tuple{Elems: elems}
	case ast.FnType:
		return ast.FnType{Sig: db.ResolveSig(td.Sig)}
	}
	key := ast.Key(td)
	for i := len(db.frames) - 1; i >= 0; i-- {
		if id, ok := db.frames[i][key]; ok {
			return db.table[id].Data
		}
	}
	return td
}

func (db *TypeDB) ResolveSig(sig *ast.FnSignature) *ast.FnSignature {
	out := &ast.FnSignature{Params: make([]ast.Param, len(sig.Params)), Ret: db.Resolve(sig.Ret)}
	for i, p := range sig.Params {
		out.Params[i] = ast.Param{Name: p.Name, Type: db.Resolve(p.Type), Loc: p.Loc}
	}
	return out
}
