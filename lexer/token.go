package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type TokenType int

const (
	EOF TokenType = iota
	Plus
	Minus
	Times
	Divide
	LessThan
	GreaterThan

	Equals
	Colon
	Not
	Comma
	Semicolon
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket

	LogicalEquals
	Exponentiation
	RightArrow

	Fn
	Let
	Mut
	Return
	Trait
	Impl
	For
	Type
	If
	Else
	True
	False

	Ident
	Number
	String
	Whitespace
	SingleLineComment
	Illegal
)

var tokenNames = [...]string{
	EOF:               "EOF",
	Plus:              "Plus",
	Minus:             "Minus",
	Times:             "Times",
	Divide:            "Divide",
	LessThan:          "LessThan",
	GreaterThan:       "GreaterThan",
	Equals:            "Equals",
	Colon:             "Colon",
	Not:               "Not",
	Comma:             "Comma",
	Semicolon:         "Semicolon",
	LeftParen:         "LeftParen",
	RightParen:        "RightParen",
	LeftBrace:         "LeftBrace",
	RightBrace:        "RightBrace",
	LeftBracket:       "LeftBracket",
	RightBracket:      "RightBracket",
	LogicalEquals:     "LogicalEquals",
	Exponentiation:    "Exponentiation",
	RightArrow:        "RightArrow",
	Fn:                "Fn",
	Let:               "Let",
	Mut:               "Mut",
	Return:            "Return",
	Trait:             "Trait",
	Impl:              "Impl",
	For:               "For",
	Type:              "Type",
	If:                "If",
	Else:              "Else",
	True:              "True",
	False:             "False",
	Ident:             "Ident",
	Number:            "Number",
	String:            "String",
	Whitespace:        "Whitespace",
	SingleLineComment: "SingleLineComment",
	Illegal:           "Illegal",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var SingleCharTokens = map[rune]TokenType{
	'+': Plus,
	'-': Minus,
	'*': Times,
	'/': Divide,
	'<': LessThan,
	'>': GreaterThan,
	'=': Equals,
	':': Colon,
	'!': Not,
	',': Comma,
	';': Semicolon,
	'(': LeftParen,
	')': RightParen,
	'{': LeftBrace,
	'}': RightBrace,
	'[': LeftBracket,
	']': RightBracket,
	eof: EOF,
}

var DoubleCharTokens = map[[2]rune]TokenType{
	{'-', '>'}: RightArrow,
	{'*', '*'}: Exponentiation,
	{'=', '='}: LogicalEquals,
}

var Keywords = map[string]TokenType{
	"fn":     Fn,
	"let":    Let,
	"mut":    Mut,
	"return": Return,
	"trait":  Trait,
	"impl":   Impl,
	"for":    For,
	"type":   Type,
	"if":     If,
	"else":   Else,
	"true":   True,
	"false":  False,
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	Start Pos
	End   Pos
}

func (span Span) Add(other Span) Span {
	return Span{span.Start.Min(other.Start), span.End.Max(other.End)}
}

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

func (b Token) Eq(a Token) bool {
	return a.Type == b.Type && a.Data == b.Data
}

func (a Token) ExactEq(b Token) bool {
	return a.Type == b.Type && a.Span == b.Span && a.Data == b.Data && slices.EqualFunc(a.LeadingTrivia, b.LeadingTrivia, Token.ExactEq)
}

func (t Token) IsBinaryOp() bool {
	switch t.Type {
	case Plus, Minus, Times, Divide, Exponentiation, LogicalEquals:
		return true
	}
	return false
}

func (t Token) IsPrefixOp() bool { return t.Type == Minus }

const MinPrec = 1

func (t Token) Prec() int {
	switch t.Type {
	case Exponentiation:
		return 50
	case Times, Divide:
		return 40
	case Plus, Minus:
		return 30
	case LogicalEquals:
		return 20
	}
	return 0
}

func (t Token) IsLeftAssoc() bool {
	switch t.Type {
	case Times, Divide, Plus, Minus, LogicalEquals:
		return true
	}
	return false
}

func (t Token) IsRightAssoc() bool { return t.Type == Exponentiation }
