package ast

import (
	"fmt"

	"github.com/smasher164/tlang/lexer"
)

type Node interface {
	Span() lexer.Span
}

type Expr interface {
	Node
	exprNode()
}

type Item interface {
	Node
	ItemName() string
	itemNode()
}

var (
	_ Expr = (*Lit)(nil)
	_ Expr = (*FnLit)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*Neg)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Block)(nil)
	_ Expr = (*Return)(nil)
	_ Expr = (*Define)(nil)
	_ Expr = (*Assign)(nil)
	_ Expr = (*If)(nil)
	_ Expr = (*Intrinsic)(nil)

	_ Item = (*FnDecl)(nil)
	_ Item = (*TraitDecl)(nil)
	_ Item = (*ImplDecl)(nil)
	_ Item = (*TypeDecl)(nil)
)

// Op is a binary operator. Each one is sugar for a trait method call.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Exp
	Eq
)

func (op Op) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Exp:
		return "**"
	case Eq:
		return "=="
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

type IntrinsicKind int

const (
	Print IntrinsicKind = iota
	NumAdd
	NumSub
	NumMul
	NumDiv
	NumExp
	NumNeg
	StrConcat
	NumEq
	StrEq
	BoolEq
)

// Intrinsics maps the reserved identifiers accepted in bootstrap sources to
// the primitive they stand for.
var Intrinsics = map[string]IntrinsicKind{
	"INTRINSIC_PRINT":      Print,
	"INTRINSIC_NUM_ADD":    NumAdd,
	"INTRINSIC_NUM_SUB":    NumSub,
	"INTRINSIC_NUM_MUL":    NumMul,
	"INTRINSIC_NUM_DIV":    NumDiv,
	"INTRINSIC_NUM_EXP":    NumExp,
	"INTRINSIC_NUM_NEG":    NumNeg,
	"INTRINSIC_STR_CONCAT": StrConcat,
	"INTRINSIC_NUM_EQ":     NumEq,
	"INTRINSIC_STR_EQ":     StrEq,
	"INTRINSIC_BOOL_EQ":    BoolEq,
}

func (k IntrinsicKind) String() string {
	for name, kind := range Intrinsics {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("IntrinsicKind(%d)", int(k))
}

type Lit struct {
	Value Value
	Loc   lexer.Span
}

type FnLit struct {
	Sig  *FnSignature
	Body *Block
	Loc  lexer.Span
}

type Ident struct {
	Name string
	Loc  lexer.Span
}

type Binary struct {
	Op          Op
	Left, Right Expr
	Loc         lexer.Span
}

type Neg struct {
	X   Expr
	Loc lexer.Span
}

type Call struct {
	Callee Expr
	Args   []Expr
	Loc    lexer.Span
}

// Block holds its statements in source order.
type Block struct {
	Stmts []Expr
	Loc   lexer.Span
}

// Return exits the enclosing call with X. An Implicit return is a trailing
// expression written without a semicolon; it only ends its own block, whose
// value it becomes.
type Return struct {
	X        Expr
	Implicit bool
	Loc      lexer.Span
}

// Define is a let binding; Mut marks `let mut`.
type Define struct {
	Name string
	Mut  bool
	X    Expr
	Loc  lexer.Span
}

type Assign struct {
	Name string
	X    Expr
	Loc  lexer.Span
}

// If has an Else that is nil, a *Block, or an *If.
type If struct {
	Cond Expr
	Then *Block
	Else Expr
	Loc  lexer.Span
}

type Intrinsic struct {
	Kind IntrinsicKind
	Loc  lexer.Span
}

func (x *Lit) Span() lexer.Span       { return x.Loc }
func (x *FnLit) Span() lexer.Span     { return x.Loc }
func (x *Ident) Span() lexer.Span     { return x.Loc }
func (x *Binary) Span() lexer.Span    { return x.Loc }
func (x *Neg) Span() lexer.Span       { return x.Loc }
func (x *Call) Span() lexer.Span      { return x.Loc }
func (x *Block) Span() lexer.Span     { return x.Loc }
func (x *Return) Span() lexer.Span    { return x.Loc }
func (x *Define) Span() lexer.Span    { return x.Loc }
func (x *Assign) Span() lexer.Span    { return x.Loc }
func (x *If) Span() lexer.Span        { return x.Loc }
func (x *Intrinsic) Span() lexer.Span { return x.Loc }

func (*Lit) exprNode()       {}
func (*FnLit) exprNode()     {}
func (*Ident) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Neg) exprNode()       {}
func (*Call) exprNode()      {}
func (*Block) exprNode()     {}
func (*Return) exprNode()    {}
func (*Define) exprNode()    {}
func (*Assign) exprNode()    {}
func (*If) exprNode()        {}
func (*Intrinsic) exprNode() {}

type FnDecl struct {
	Name string
	Sig  *FnSignature
	Body *Block
	Loc  lexer.Span
}

// MethodSig is a method declared by a trait. It has no body.
type MethodSig struct {
	Name string
	Sig  *FnSignature
	Loc  lexer.Span
}

type TraitDecl struct {
	Name    string
	Slots   []string
	Assoc   []string
	Methods []*MethodSig
	Loc     lexer.Span
}

type Typedef struct {
	Name string
	Type TypeData
	Loc  lexer.Span
}

type ImplDecl struct {
	Trait    string
	Args     []TypeData
	For      TypeData
	Typedefs []*Typedef
	Methods  []*FnDecl
	Loc      lexer.Span
}

// TypeDecl declares a nominal unit type. Its name is bound both as the type
// Other(Name) and as the single value of that type.
type TypeDecl struct {
	Name string
	Loc  lexer.Span
}

func (d *FnDecl) Span() lexer.Span    { return d.Loc }
func (d *TraitDecl) Span() lexer.Span { return d.Loc }
func (d *ImplDecl) Span() lexer.Span  { return d.Loc }
func (d *TypeDecl) Span() lexer.Span  { return d.Loc }

func (d *FnDecl) ItemName() string    { return d.Name }
func (d *TraitDecl) ItemName() string { return d.Name }
func (d *TypeDecl) ItemName() string  { return d.Name }
func (d *ImplDecl) ItemName() string {
	return fmt.Sprintf("impl %s for %s", TraitRef(d.Trait, d.Args), d.For)
}

func (*FnDecl) itemNode()    {}
func (*TraitDecl) itemNode() {}
func (*ImplDecl) itemNode()  {}
func (*TypeDecl) itemNode()  {}

// File is one parsed source unit.
type File struct {
	Name  string
	Items []Item
}
