package types

import (
	"fmt"

	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/lexer"
)

type Kind = diag.Kind

const (
	IdentNotFound       = diag.IdentNotFound
	TraitNotImplemented = diag.TraitNotImplemented
	BranchesDontMatch   = diag.BranchesDontMatch
	TypesDontMatch      = diag.TypesDontMatch
	NotMutable          = diag.NotMutable
	NameDefined         = diag.NameDefined
	ImplMismatch        = diag.ImplMismatch
	Wrapped             = diag.Wrapped
)

// TypeError is a failure to type an expression or to validate an impl. The
// fields beyond Kind and Span are filled in as the kind calls for.
type TypeError struct {
	Kind     Kind
	Span     lexer.Span
	Name     string
	Trait    string
	Args     []ast.TypeData
	Receiver ast.TypeData
	Want     ast.TypeData
	Got      ast.TypeData
	Msg      string
	Err      error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.message())
}

func (e *TypeError) Unwrap() error { return e.Err }

func (e *TypeError) message() string {
	switch e.Kind {
	case IdentNotFound:
		return fmt.Sprintf("name `%s` not defined", e.Name)
	case TraitNotImplemented:
		return fmt.Sprintf("trait `%s` not implemented for type `%s`", ast.TraitRef(e.Trait, e.Args), e.Receiver)
	case BranchesDontMatch:
		return fmt.Sprintf("if branches have different types: `%s` and `%s`", e.Want, e.Got)
	case TypesDontMatch:
		if e.Msg != "" {
			return fmt.Sprintf("%s: expected `%s`, found `%s`", e.Msg, e.Want, e.Got)
		}
		return fmt.Sprintf("expected `%s`, found `%s`", e.Want, e.Got)
	case NotMutable:
		return fmt.Sprintf("cannot assign twice to immutable variable `%s`", e.Name)
	case NameDefined:
		return fmt.Sprintf("name `%s` already defined", e.Name)
	case ImplMismatch:
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Diag converts e into the diagnostic reported for file.
func (e *TypeError) Diag(file string) *diag.Error {
	d := &diag.Error{File: file, Span: e.Span, Kind: e.Kind, Msg: e.message()}
	if e.Kind == Wrapped {
		d.Msg, d.Err = "", e.Err
	}
	return d
}

func mismatch(span lexer.Span, format string, args ...any) *TypeError {
	return &TypeError{Kind: ImplMismatch, Span: span, Msg: fmt.Sprintf(format, args...)}
}
