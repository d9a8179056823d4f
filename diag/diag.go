// Package diag defines the positioned, classified errors reported by the
// parser and the checker.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/smasher164/tlang/lexer"
)

type Kind int

const (
	Syntax Kind = iota
	NoMain
	MainHasArguments
	MainNonVoidRetType
	NameDefined
	TypesDontMatch
	TraitNotImplemented
	IdentNotFound
	BranchesDontMatch
	UnknownTrait
	ImplMismatch
	NotMutable
	Wrapped
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case NoMain:
		return "no main function"
	case MainHasArguments:
		return "main has arguments"
	case MainNonVoidRetType:
		return "main has non-void return type"
	case NameDefined:
		return "name already defined"
	case TypesDontMatch:
		return "types don't match"
	case TraitNotImplemented:
		return "trait not implemented"
	case IdentNotFound:
		return "identifier not found"
	case BranchesDontMatch:
		return "branches don't match"
	case UnknownTrait:
		return "unknown trait"
	case ImplMismatch:
		return "impl doesn't match trait"
	case NotMutable:
		return "not mutable"
	case Wrapped:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExitCode is the process status the driver exits with for an error of kind k.
func (k Kind) ExitCode() int {
	switch k {
	case Syntax:
		return 1
	case NoMain:
		return 7
	case MainHasArguments:
		return 8
	case MainNonVoidRetType:
		return 9
	case NameDefined:
		return 10
	case TypesDontMatch:
		return 11
	case TraitNotImplemented:
		return 12
	case IdentNotFound:
		return 13
	case BranchesDontMatch:
		return 14
	case UnknownTrait:
		return 15
	case ImplMismatch:
		return 16
	case NotMutable:
		return 17
	}
	return 18
}

type Error struct {
	File string
	Span lexer.Span
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	switch {
	case e.File != "" && e.Span.Start.Line > 0:
		return fmt.Sprintf("%s:%s: %s", e.File, e.Span, msg)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, msg)
	case e.Span.Start.Line > 0:
		return fmt.Sprintf("%s: %s", e.Span, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func Errorf(kind Kind, span lexer.Span, format string, args ...any) *Error {
	return &Error{Span: span, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies a lower-level error, keeping it as the cause.
func Wrap(err error, file, msg string) *Error {
	return &Error{File: file, Kind: Wrapped, Msg: msg, Err: errors.WithStack(err)}
}

// As extracts the *Error carried by err. Errors of any other type are wrapped.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var d *Error
	if errors.As(err, &d) {
		return d
	}
	return &Error{Kind: Wrapped, Err: err}
}

// InFile fills in the file of e if it is not yet known.
func (e *Error) InFile(file string) *Error {
	if e.File == "" {
		e.File = file
	}
	return e
}
