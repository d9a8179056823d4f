package parser

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/lexer"
)

const debug = false

type parser struct {
	l          *lexer.Lexer
	file       string
	tok        lexer.Token
	buf        []lexer.Token
	indent     int
	intrinsics bool
}

type Option func(*parser)

// Intrinsics makes INTRINSIC_* identifiers parse as compiler intrinsics.
// Only bootstrap sources are parsed this way.
func Intrinsics() Option {
	return func(p *parser) { p.intrinsics = true }
}

// bailout carries the first syntax error out of the recursive descent.
type bailout struct {
	err *diag.Error
}

func (p *parser) trace(msg string) func() {
	if debug {
		fmt.Printf("%*s%s\n", p.indent*2, "", msg)
		p.indent++
		return func() {
			p.indent--
		}
	}
	return func() {}
}

func newParser(l *lexer.Lexer, opts []Option) *parser {
	p := &parser{l: l, file: l.Name()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func ParseFile(fsys fs.FS, filename string, opts ...Option) (*ast.File, error) {
	l, err := lexer.Open(fsys, filename)
	if err != nil {
		return nil, diag.Wrap(err, filename, "cannot load source")
	}
	return newParser(l, opts).parseFile()
}

func ParseSource(name, src string, opts ...Option) (*ast.File, error) {
	return newParser(lexer.New(name, strings.NewReader(src)), opts).parseFile()
}

// ParseLine parses one line of interactive input. A line that starts an item
// yields a file; anything else yields the statements it contains.
func ParseLine(name, src string) (*ast.File, []ast.Expr, error) {
	p := newParser(lexer.New(name, strings.NewReader(src)), nil)
	var (
		f     *ast.File
		stmts []ast.Expr
	)
	err := p.run(func() {
		p.next()
		if p.beginsItem() {
			f = &ast.File{Name: name, Items: p.parseItems()}
			return
		}
		for p.tok.Type != lexer.EOF {
			stmt, _ := p.parseStmt()
			stmts = append(stmts, stmt)
		}
	})
	return f, stmts, err
}

func (p *parser) run(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	f()
	if lerr := p.l.Err(); lerr != nil {
		return diag.Wrap(lerr, p.file, "cannot read source")
	}
	return nil
}

func (p *parser) errorf(span lexer.Span, format string, args ...any) {
	panic(bailout{diag.Errorf(diag.Syntax, span, format, args...).InFile(p.file)})
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.Ident, lexer.Number, lexer.String:
		return fmt.Sprintf("%s %s", strings.ToLower(tok.Type.String()), tok.Data)
	case lexer.EOF:
		return "end of file"
	}
	return tok.Type.String()
}

func (p *parser) next() {
	if len(p.buf) > 0 {
		p.tok = p.buf[0]
		p.buf = p.buf[1:]
	} else {
		p.tok = p.l.Next()
	}
	if p.tok.Type == lexer.Illegal {
		p.errorf(p.tok.Span, "%s", p.tok.Data)
	}
}

func (p *parser) peek() lexer.Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.l.Next())
	}
	return p.buf[0]
}

func (p *parser) expect(ttype lexer.TokenType) lexer.Token {
	if p.tok.Type != ttype {
		p.errorf(p.tok.Span, "expected %s, found %s", ttype, describe(p.tok))
	}
	tok := p.tok
	p.next()
	return tok
}

func (p *parser) parseFile() (*ast.File, error) {
	f := &ast.File{Name: p.file}
	err := p.run(func() {
		defer p.trace("parseFile")()
		p.next()
		f.Items = p.parseItems()
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *parser) beginsItem() bool {
	switch p.tok.Type {
	case lexer.Trait, lexer.Impl, lexer.Type:
		return true
	case lexer.Fn:
		return p.peek().Type == lexer.Ident
	}
	return false
}

func (p *parser) parseItems() (items []ast.Item) {
	for p.tok.Type != lexer.EOF {
		switch p.tok.Type {
		case lexer.Fn:
			items = append(items, p.parseFnDecl(false))
		case lexer.Trait:
			items = append(items, p.parseTraitDecl())
		case lexer.Impl:
			items = append(items, p.parseImplDecl())
		case lexer.Type:
			items = append(items, p.parseTypeDecl())
		default:
			p.errorf(p.tok.Span, "expected fn, trait, impl or type, found %s", describe(p.tok))
		}
	}
	return items
}

func (p *parser) parseFnDecl(method bool) *ast.FnDecl {
	defer p.trace("parseFnDecl")()
	start := p.expect(lexer.Fn)
	name := p.expect(lexer.Ident)
	sig := p.parseSignature(method)
	body := p.parseBlock()
	return &ast.FnDecl{Name: name.Data, Sig: sig, Body: body, Loc: start.Span.Add(body.Loc)}
}

// parseSignature parses a parenthesized parameter list and optional return
// type. In methods, a leading bare `self` is typed Self.
func (p *parser) parseSignature(method bool) *ast.FnSignature {
	defer p.trace("parseSignature")()
	sig := &ast.FnSignature{Ret: ast.Void}
	p.expect(lexer.LeftParen)
	for p.tok.Type != lexer.RightParen {
		if len(sig.Params) > 0 {
			p.expect(lexer.Comma)
		}
		name := p.expect(lexer.Ident)
		if method && len(sig.Params) == 0 && name.Data == "self" && p.tok.Type != lexer.Colon {
			sig.Params = append(sig.Params, ast.Param{Name: "self", Type: ast.SelfRef, Loc: name.Span})
			continue
		}
		p.expect(lexer.Colon)
		ty := p.parseType()
		sig.Params = append(sig.Params, ast.Param{Name: name.Data, Type: ty, Loc: name.Span})
	}
	p.expect(lexer.RightParen)
	if p.tok.Type == lexer.RightArrow {
		p.next()
		sig.Ret = p.parseType()
	}
	return sig
}

var namedTypes = map[string]ast.TypeData{
	"number": ast.Number,
	"string": ast.String,
	"bool":   ast.Bool,
	"void":   ast.Void,
	"Self":   ast.SelfRef,
}

func (p *parser) parseType() ast.TypeData {
	defer p.trace("parseType")()
	switch p.tok.Type {
	case lexer.Ident:
		name := p.tok.Data
		p.next()
		if td, ok := namedTypes[name]; ok {
			return td
		}
		return ast.Other{Name: name}
	case lexer.Not:
		p.next()
		return ast.Never
	case lexer.LeftBracket:
		p.next()
		elem := p.parseType()
		p.expect(lexer.RightBracket)
		return ast.Array{Elem: elem}
	case lexer.LeftParen:
		p.next()
		return ast.Tuple{Elems: p.parseTypeList(lexer.RightParen)}
	case lexer.Fn:
		p.next()
		p.expect(lexer.LeftParen)
		params := lo.Map(p.parseTypeList(lexer.RightParen), func(td ast.TypeData, _ int) ast.Param {
			return ast.Param{Type: td}
		})
		p.expect(lexer.RightArrow)
		return ast.FnType{Sig: &ast.FnSignature{Params: params, Ret: p.parseType()}}
	}
	p.errorf(p.tok.Span, "expected type, found %s", describe(p.tok))
	panic("unreachable")
}

// parseTypeList parses comma-separated types up to and including until.
func (p *parser) parseTypeList(until lexer.TokenType) (types []ast.TypeData) {
	for p.tok.Type != until {
		if len(types) > 0 {
			p.expect(lexer.Comma)
		}
		types = append(types, p.parseType())
	}
	p.expect(until)
	return types
}

func (p *parser) parseTraitDecl() *ast.TraitDecl {
	defer p.trace("parseTraitDecl")()
	start := p.expect(lexer.Trait)
	decl := &ast.TraitDecl{Name: p.expect(lexer.Ident).Data}
	if p.tok.Type == lexer.LessThan {
		p.next()
		for p.tok.Type != lexer.GreaterThan {
			if len(decl.Slots) > 0 {
				p.expect(lexer.Comma)
			}
			decl.Slots = append(decl.Slots, p.expect(lexer.Ident).Data)
		}
		p.next()
		if dups := lo.FindDuplicates(decl.Slots); len(dups) > 0 {
			p.errorf(start.Span, "duplicate type parameter %s in trait %s", dups[0], decl.Name)
		}
	}
	p.expect(lexer.LeftBrace)
	for p.tok.Type != lexer.RightBrace {
		switch p.tok.Type {
		case lexer.Type:
			p.next()
			decl.Assoc = append(decl.Assoc, p.expect(lexer.Ident).Data)
			p.expect(lexer.Semicolon)
		case lexer.Fn:
			fnTok := p.tok
			p.next()
			name := p.expect(lexer.Ident)
			sig := p.parseSignature(true)
			end := p.expect(lexer.Semicolon)
			decl.Methods = append(decl.Methods, &ast.MethodSig{Name: name.Data, Sig: sig, Loc: fnTok.Span.Add(end.Span)})
		default:
			p.errorf(p.tok.Span, "expected type or fn in trait %s, found %s", decl.Name, describe(p.tok))
		}
	}
	end := p.expect(lexer.RightBrace)
	decl.Loc = start.Span.Add(end.Span)
	return decl
}

func (p *parser) parseImplDecl() *ast.ImplDecl {
	defer p.trace("parseImplDecl")()
	start := p.expect(lexer.Impl)
	decl := &ast.ImplDecl{Trait: p.expect(lexer.Ident).Data}
	if p.tok.Type == lexer.LessThan {
		p.next()
		decl.Args = p.parseTypeList(lexer.GreaterThan)
	}
	p.expect(lexer.For)
	decl.For = p.parseType()
	p.expect(lexer.LeftBrace)
	for p.tok.Type != lexer.RightBrace {
		switch p.tok.Type {
		case lexer.Type:
			typeTok := p.tok
			p.next()
			name := p.expect(lexer.Ident)
			p.expect(lexer.Equals)
			ty := p.parseType()
			end := p.expect(lexer.Semicolon)
			decl.Typedefs = append(decl.Typedefs, &ast.Typedef{Name: name.Data, Type: ty, Loc: typeTok.Span.Add(end.Span)})
		case lexer.Fn:
			decl.Methods = append(decl.Methods, p.parseFnDecl(true))
		default:
			p.errorf(p.tok.Span, "expected type or fn in impl, found %s", describe(p.tok))
		}
	}
	end := p.expect(lexer.RightBrace)
	decl.Loc = start.Span.Add(end.Span)
	return decl
}

func (p *parser) parseTypeDecl() *ast.TypeDecl {
	start := p.expect(lexer.Type)
	name := p.expect(lexer.Ident)
	end := p.expect(lexer.Semicolon)
	return &ast.TypeDecl{Name: name.Data, Loc: start.Span.Add(end.Span)}
}

func (p *parser) parseBlock() *ast.Block {
	defer p.trace("parseBlock")()
	lbrace := p.expect(lexer.LeftBrace)
	var stmts []ast.Expr
	for p.tok.Type != lexer.RightBrace {
		if p.tok.Type == lexer.EOF {
			p.errorf(lbrace.Span, "unclosed block")
		}
		stmt, tail := p.parseStmt()
		if tail {
			// A trailing expression without a semicolon is the block's result.
			stmt = &ast.Return{X: stmt, Implicit: true, Loc: stmt.Span()}
		}
		stmts = append(stmts, stmt)
	}
	rbrace := p.expect(lexer.RightBrace)
	return &ast.Block{Stmts: stmts, Loc: lbrace.Span.Add(rbrace.Span)}
}

func isBlockLike(x ast.Expr) bool {
	switch x.(type) {
	case *ast.Block, *ast.If:
		return true
	}
	return false
}

// parseStmt reports tail when the statement is an expression that ends its
// block without a semicolon.
func (p *parser) parseStmt() (stmt ast.Expr, tail bool) {
	defer p.trace("parseStmt")()
	switch {
	case p.tok.Type == lexer.Let:
		start := p.tok
		p.next()
		mut := false
		if p.tok.Type == lexer.Mut {
			mut = true
			p.next()
		}
		name := p.expect(lexer.Ident)
		p.expect(lexer.Equals)
		x := p.parseExpr()
		end := p.expect(lexer.Semicolon)
		return &ast.Define{Name: name.Data, Mut: mut, X: x, Loc: start.Span.Add(end.Span)}, false
	case p.tok.Type == lexer.Return:
		start := p.tok
		p.next()
		var x ast.Expr = &ast.Lit{Value: ast.VoidValue{}, Loc: start.Span}
		if p.tok.Type != lexer.Semicolon {
			x = p.parseExpr()
		}
		end := p.expect(lexer.Semicolon)
		return &ast.Return{X: x, Loc: start.Span.Add(end.Span)}, false
	case p.tok.Type == lexer.Ident && p.peek().Type == lexer.Equals:
		name := p.tok
		p.next()
		p.next()
		x := p.parseExpr()
		end := p.expect(lexer.Semicolon)
		return &ast.Assign{Name: name.Data, X: x, Loc: name.Span.Add(end.Span)}, false
	}
	x := p.parseExpr()
	switch {
	case p.tok.Type == lexer.Semicolon:
		p.next()
		return x, false
	case isBlockLike(x):
		return x, false
	case p.tok.Type == lexer.RightBrace || p.tok.Type == lexer.EOF:
		return x, true
	}
	p.errorf(p.tok.Span, "expected Semicolon, found %s", describe(p.tok))
	panic("unreachable")
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseBinaryExpr(lexer.MinPrec)
}

var binaryOps = map[lexer.TokenType]ast.Op{
	lexer.Plus:           ast.Add,
	lexer.Minus:          ast.Sub,
	lexer.Times:          ast.Mul,
	lexer.Divide:         ast.Div,
	lexer.Exponentiation: ast.Exp,
	lexer.LogicalEquals:  ast.Eq,
}

func (p *parser) parseBinaryExpr(minPrec int) ast.Expr {
	defer p.trace("parseBinaryExpr")()
	res := p.parsePrefixExpr()
	for p.tok.IsBinaryOp() && p.tok.Prec() >= minPrec {
		op := p.tok
		p.next()
		nextMinPrec := op.Prec()
		if op.IsLeftAssoc() {
			nextMinPrec++
		}
		rhs := p.parseBinaryExpr(nextMinPrec)
		res = &ast.Binary{Op: binaryOps[op.Type], Left: res, Right: rhs, Loc: res.Span().Add(rhs.Span())}
	}
	return res
}

// Negation binds looser than exponentiation: -2 ** 2 is -(2 ** 2).
func (p *parser) parsePrefixExpr() ast.Expr {
	defer p.trace("parsePrefixExpr")()
	if p.tok.IsPrefixOp() {
		op := p.tok
		p.next()
		x := p.parseBinaryExpr(lexer.Token{Type: lexer.Exponentiation}.Prec())
		return &ast.Neg{X: x, Loc: op.Span.Add(x.Span())}
	}
	return p.parsePrimaryExpr()
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	defer p.trace("parsePrimaryExpr")()
	x := p.parseOperand()
	for p.tok.Type == lexer.LeftParen {
		p.next()
		var args []ast.Expr
		for p.tok.Type != lexer.RightParen {
			if len(args) > 0 {
				p.expect(lexer.Comma)
			}
			args = append(args, p.parseExpr())
		}
		rparen := p.expect(lexer.RightParen)
		x = &ast.Call{Callee: x, Args: args, Loc: x.Span().Add(rparen.Span)}
	}
	return x
}

func (p *parser) parseOperand() ast.Expr {
	defer p.trace("parseOperand")()
	tok := p.tok
	switch tok.Type {
	case lexer.Number:
		p.next()
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.Data, "_", ""), 64)
		if err != nil {
			p.errorf(tok.Span, "invalid number %s", tok.Data)
		}
		return &ast.Lit{Value: ast.NumValue(f), Loc: tok.Span}
	case lexer.String:
		p.next()
		s, err := strconv.Unquote(tok.Data)
		if err != nil {
			p.errorf(tok.Span, "invalid string %s", tok.Data)
		}
		return &ast.Lit{Value: ast.StrValue(s), Loc: tok.Span}
	case lexer.True:
		p.next()
		return &ast.Lit{Value: ast.True, Loc: tok.Span}
	case lexer.False:
		p.next()
		return &ast.Lit{Value: ast.False, Loc: tok.Span}
	case lexer.Ident:
		p.next()
		if kind, ok := ast.Intrinsics[tok.Data]; ok && p.intrinsics {
			return &ast.Intrinsic{Kind: kind, Loc: tok.Span}
		}
		return &ast.Ident{Name: tok.Data, Loc: tok.Span}
	case lexer.LeftParen:
		p.next()
		x := p.parseExpr()
		p.expect(lexer.RightParen)
		return x
	case lexer.LeftBrace:
		return p.parseBlock()
	case lexer.If:
		return p.parseIf()
	case lexer.Fn:
		p.next()
		sig := p.parseSignature(false)
		body := p.parseBlock()
		return &ast.FnLit{Sig: sig, Body: body, Loc: tok.Span.Add(body.Loc)}
	}
	p.errorf(tok.Span, "expected expression, found %s", describe(tok))
	panic("unreachable")
}

func (p *parser) parseIf() ast.Expr {
	defer p.trace("parseIf")()
	start := p.expect(lexer.If)
	x := &ast.If{Cond: p.parseExpr()}
	x.Then = p.parseBlock()
	x.Loc = start.Span.Add(x.Then.Loc)
	if p.tok.Type == lexer.Else {
		p.next()
		if p.tok.Type == lexer.If {
			x.Else = p.parseIf()
		} else {
			x.Else = p.parseBlock()
		}
		x.Loc = x.Loc.Add(x.Else.Span())
	}
	return x
}
