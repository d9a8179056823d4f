package ast

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

type Mutability int

const (
	NoMut Mutability = iota
	Mut
)

func (m Mutability) String() string {
	if m == Mut {
		return "mut"
	}
	return "let"
}

type Binding[T any] struct {
	Mut   Mutability
	Type  TypeData
	Value T
}

// Env is one frame of a parent-linked lexical environment. The checker stores
// lazily checked items in it, the interpreter stores runtime values.
type Env[T any] struct {
	Parent  *Env[T]
	Symbols map[string]Binding[T]
}

var ErrDuplicate = errors.New("name already defined in this scope")

func NewEnv[T any](parent *Env[T]) *Env[T] {
	return &Env[T]{
		Parent:  parent,
		Symbols: make(map[string]Binding[T]),
	}
}

func (e *Env[T]) Push() *Env[T] {
	return NewEnv(e)
}

// Pop discards the receiver and returns its parent. The root pops to itself.
func (e *Env[T]) Pop() *Env[T] {
	if e.Parent == nil {
		return e
	}
	return e.Parent
}

func (e *Env[T]) Root() *Env[T] {
	for e.Parent != nil {
		e = e.Parent
	}
	return e
}

// Add binds name in the receiver's frame. Only a collision within that frame
// is an error; outer bindings are shadowed.
func (e *Env[T]) Add(name string, mut Mutability, ty TypeData, value T) error {
	if _, ok := e.Symbols[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	e.Symbols[name] = Binding[T]{Mut: mut, Type: ty, Value: value}
	return nil
}

func (e *Env[T]) LookupLocal(name string) (Binding[T], bool) {
	b, ok := e.Symbols[name]
	return b, ok
}

func (e *Env[T]) LookupStack(name string) (b Binding[T], p *Env[T], ok bool) {
	p = e
	for p != nil {
		if b, ok = p.LookupLocal(name); ok {
			return b, p, ok
		}
		p = p.Parent
	}
	return b, nil, false
}

func (e *Env[T]) TypeOf(name string) (TypeData, bool) {
	b, _, ok := e.LookupStack(name)
	return b.Type, ok
}

func (e *Env[T]) MutabilityOf(name string) (Mutability, bool) {
	b, _, ok := e.LookupStack(name)
	return b.Mut, ok
}

func (e *Env[T]) Value(name string) (T, bool) {
	b, _, ok := e.LookupStack(name)
	return b.Value, ok
}

// Set replaces the value held by the innermost frame that binds name.
func (e *Env[T]) Set(name string, value T) bool {
	b, p, ok := e.LookupStack(name)
	if !ok {
		return false
	}
	b.Value = value
	p.Symbols[name] = b
	return true
}

func envString[T any](buf io.Writer, e *Env[T]) {
	if e.Parent != nil {
		envString(buf, e.Parent)
		fmt.Fprint(buf, "↑\n")
	}
	if len(e.Symbols) == 0 {
		fmt.Fprintf(buf, "(empty)\n")
		return
	}
	names := lo.Keys(e.Symbols)
	slices.Sort(names)
	for _, name := range names {
		b := e.Symbols[name]
		fmt.Fprintf(buf, "%s %s:\t%s\n", b.Mut, name, b.Type)
	}
}

func (e *Env[T]) String() string {
	sb := new(strings.Builder)
	buf := tabwriter.NewWriter(sb, 0, 0, 1, ' ', 0)
	envString(buf, e)
	buf.Flush()
	return sb.String()
}
