package ast

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Value is a literal in the tree or a runtime value in the interpreter.
type Value interface {
	isValue()
	String() string
}

var (
	_ Value = NumValue(0)
	_ Value = StrValue("")
	_ Value = BoolValue(false)
	_ Value = FnValue{}
	_ Value = TupleValue(nil)
	_ Value = UnitValue{}
	_ Value = VoidValue{}
	_ Value = NeverValue{}
)

type NumValue float64

type StrValue string

type BoolValue bool

const (
	True  = BoolValue(true)
	False = BoolValue(false)
)

// FnValue is a function: a top-level fn, an impl method, or a closure. It
// captures no environment.
type FnValue struct {
	Sig  *FnSignature
	Body *Block
}

// TupleValue carries the arguments of a call dispatched through a Call impl.
type TupleValue []Value

// UnitValue is the single value of a unit type declared with `type Name;`.
type UnitValue struct {
	Type string
}

type VoidValue struct{}

type NeverValue struct{}

func (NumValue) isValue()   {}
func (StrValue) isValue()   {}
func (BoolValue) isValue()  {}
func (FnValue) isValue()    {}
func (TupleValue) isValue() {}
func (UnitValue) isValue()  {}
func (VoidValue) isValue()  {}
func (NeverValue) isValue() {}

func (n NumValue) String() string  { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (s StrValue) String() string  { return string(s) }
func (b BoolValue) String() string { return strconv.FormatBool(bool(b)) }
func (f FnValue) String() string   { return f.Sig.Type().String() }
func (u UnitValue) String() string { return u.Type }
func (VoidValue) String() string   { return "void" }
func (NeverValue) String() string  { return "!" }

func (t TupleValue) String() string {
	return strings.Join(lo.Map(t, func(v Value, _ int) string { return v.String() }), " ")
}
