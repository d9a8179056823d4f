package lexer_test

import (
	"strings"
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/kr/pretty"
	. "github.com/smasher164/tlang/lexer"
	"golang.org/x/exp/slices"
)

func single(trivia []Token, ttyp TokenType, pos Pos) Token {
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: pos, End: pos}}
}

func singleWS(wsPos Pos, ttyp TokenType, pos Pos) Token {
	return single(ws(wsPos), ttyp, pos)
}

func double(trivia []Token, ttyp TokenType, start Pos) Token {
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: start, End: Pos{Offset: start.Offset + 1, Line: start.Line, Column: start.Column + 1}}}
}

func doubleWS(wsPos Pos, ttyp TokenType, start Pos) Token {
	return double(ws(wsPos), ttyp, start)
}

func keyword(trivia []Token, ttyp TokenType, start, end Pos) Token {
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: start, End: end}}
}

func keywordWS(wsPos Pos, ttyp TokenType, start, end Pos) Token {
	return keyword(ws(wsPos), ttyp, start, end)
}

func dataTok(trivia []Token, ttyp TokenType, start Pos, data string) Token {
	dataLen := utf8.RuneCountInString(data)
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: start, End: Pos{Offset: start.Offset + dataLen - 1, Line: start.Line, Column: start.Column + dataLen - 1}}, Data: data}
}

func dataTokWS(wsPos Pos, ttyp TokenType, start Pos, data string) Token {
	return dataTok(ws(wsPos), ttyp, start, data)
}

func ws(pos Pos) []Token {
	return []Token{{nil, Whitespace, unitSpan(pos), " "}}
}

func unitSpan(pos Pos) Span {
	return Span{Start: pos, End: pos}
}

func lex(l *Lexer) []Token {
	var got []Token
	var tok Token
	for tok = l.Next(); tok.Type != EOF; tok = l.Next() {
		got = append(got, tok)
	}
	return append(got, tok)
}

func TestLexer(t *testing.T) {
	testfs := fstest.MapFS{}
	run := func(name, data string, expected []Token) {
		t.Run(name, func(t *testing.T) {
			testfs[name] = &fstest.MapFile{
				Data: []byte(data),
			}
			l, err := Open(testfs, name)
			if err != nil {
				t.Fatal(err)
			}
			got := lex(l)
			if !slices.EqualFunc(got, expected, Token.ExactEq) {
				t.Log(name)
				pretty.Ldiff(t, expected, got)
				t.Fail()
			}
		})
	}

	run("empty.lang", "", []Token{single(nil, EOF, Pos{0, 1, 1})})

	run("singlechar.lang", "+ - * / < > = : ! , ; ( ) { } [ ]", []Token{
		single(nil, Plus, Pos{0, 1, 1}),
		singleWS(Pos{1, 1, 2}, Minus, Pos{2, 1, 3}),
		singleWS(Pos{3, 1, 4}, Times, Pos{4, 1, 5}),
		singleWS(Pos{5, 1, 6}, Divide, Pos{6, 1, 7}),
		singleWS(Pos{7, 1, 8}, LessThan, Pos{8, 1, 9}),
		singleWS(Pos{9, 1, 10}, GreaterThan, Pos{10, 1, 11}),
		singleWS(Pos{11, 1, 12}, Equals, Pos{12, 1, 13}),
		singleWS(Pos{13, 1, 14}, Colon, Pos{14, 1, 15}),
		singleWS(Pos{15, 1, 16}, Not, Pos{16, 1, 17}),
		singleWS(Pos{17, 1, 18}, Comma, Pos{18, 1, 19}),
		singleWS(Pos{19, 1, 20}, Semicolon, Pos{20, 1, 21}),
		singleWS(Pos{21, 1, 22}, LeftParen, Pos{22, 1, 23}),
		singleWS(Pos{23, 1, 24}, RightParen, Pos{24, 1, 25}),
		singleWS(Pos{25, 1, 26}, LeftBrace, Pos{26, 1, 27}),
		singleWS(Pos{27, 1, 28}, RightBrace, Pos{28, 1, 29}),
		singleWS(Pos{29, 1, 30}, LeftBracket, Pos{30, 1, 31}),
		singleWS(Pos{31, 1, 32}, RightBracket, Pos{32, 1, 33}),
		single(nil, EOF, Pos{33, 1, 34}),
	})

	run("doublechar.lang", "-> ** ==", []Token{
		double(nil, RightArrow, Pos{0, 1, 1}),
		doubleWS(Pos{2, 1, 3}, Exponentiation, Pos{3, 1, 4}),
		doubleWS(Pos{5, 1, 6}, LogicalEquals, Pos{6, 1, 7}),
		single(nil, EOF, Pos{8, 1, 9}),
	})

	run("keywords.lang", "fn let mut return trait impl for type if else true false", []Token{
		keyword(nil, Fn, Pos{0, 1, 1}, Pos{1, 1, 2}),
		keywordWS(Pos{2, 1, 3}, Let, Pos{3, 1, 4}, Pos{5, 1, 6}),
		keywordWS(Pos{6, 1, 7}, Mut, Pos{7, 1, 8}, Pos{9, 1, 10}),
		keywordWS(Pos{10, 1, 11}, Return, Pos{11, 1, 12}, Pos{16, 1, 17}),
		keywordWS(Pos{17, 1, 18}, Trait, Pos{18, 1, 19}, Pos{22, 1, 23}),
		keywordWS(Pos{23, 1, 24}, Impl, Pos{24, 1, 25}, Pos{27, 1, 28}),
		keywordWS(Pos{28, 1, 29}, For, Pos{29, 1, 30}, Pos{31, 1, 32}),
		keywordWS(Pos{32, 1, 33}, Type, Pos{33, 1, 34}, Pos{36, 1, 37}),
		keywordWS(Pos{37, 1, 38}, If, Pos{38, 1, 39}, Pos{39, 1, 40}),
		keywordWS(Pos{40, 1, 41}, Else, Pos{41, 1, 42}, Pos{44, 1, 45}),
		keywordWS(Pos{45, 1, 46}, True, Pos{46, 1, 47}, Pos{49, 1, 50}),
		keywordWS(Pos{50, 1, 51}, False, Pos{51, 1, 52}, Pos{55, 1, 56}),
		single(nil, EOF, Pos{56, 1, 57}),
	})

	run("identifiers.lang", "_ __ a_b_c a12 अखिल INTRINSIC_PRINT", []Token{
		dataTok(nil, Ident, Pos{0, 1, 1}, "_"),
		dataTokWS(Pos{1, 1, 2}, Ident, Pos{2, 1, 3}, "__"),
		dataTokWS(Pos{4, 1, 5}, Ident, Pos{5, 1, 6}, "a_b_c"),
		dataTokWS(Pos{10, 1, 11}, Ident, Pos{11, 1, 12}, "a12"),
		dataTokWS(Pos{14, 1, 15}, Ident, Pos{15, 1, 16}, "अखिल"),
		dataTokWS(Pos{19, 1, 20}, Ident, Pos{20, 1, 21}, "INTRINSIC_PRINT"),
		single(nil, EOF, Pos{35, 1, 36}),
	})

	run("numbers.lang", "0 1 1.2 0.3 1.2e3 1.2e+3 1.2e-3 1_000", []Token{
		dataTok(nil, Number, Pos{0, 1, 1}, "0"),
		dataTokWS(Pos{1, 1, 2}, Number, Pos{2, 1, 3}, "1"),
		dataTokWS(Pos{3, 1, 4}, Number, Pos{4, 1, 5}, "1.2"),
		dataTokWS(Pos{7, 1, 8}, Number, Pos{8, 1, 9}, "0.3"),
		dataTokWS(Pos{11, 1, 12}, Number, Pos{12, 1, 13}, "1.2e3"),
		dataTokWS(Pos{17, 1, 18}, Number, Pos{18, 1, 19}, "1.2e+3"),
		dataTokWS(Pos{24, 1, 25}, Number, Pos{25, 1, 26}, "1.2e-3"),
		dataTokWS(Pos{31, 1, 32}, Number, Pos{32, 1, 33}, "1_000"),
		single(nil, EOF, Pos{37, 1, 38}),
	})

	run("strings.lang", `"hello" "a\n\r\t\\\"b"`, []Token{
		dataTok(nil, String, Pos{0, 1, 1}, `"hello"`),
		dataTokWS(Pos{7, 1, 8}, String, Pos{8, 1, 9}, `"a\n\r\t\\\"b"`),
		single(nil, EOF, Pos{22, 1, 23}),
	})

	run("comments.lang", "# one\nx", []Token{
		dataTok([]Token{
			dataTok(nil, SingleLineComment, Pos{0, 1, 1}, "# one"),
			{nil, Whitespace, unitSpan(Pos{5, 1, 6}), "\n"},
		}, Ident, Pos{6, 2, 1}, "x"),
		single(nil, EOF, Pos{7, 2, 2}),
	})

	run("lines.lang", "a\n\nb", []Token{
		dataTok(nil, Ident, Pos{0, 1, 1}, "a"),
		dataTok([]Token{{nil, Whitespace, Span{Pos{1, 1, 2}, Pos{2, 2, 1}}, "\n\n"}}, Ident, Pos{3, 3, 1}, "b"),
		single(nil, EOF, Pos{4, 3, 2}),
	})
}

func TestIllegal(t *testing.T) {
	for _, tt := range []struct {
		src, msg string
	}{
		{`"abc`, "unterminated string"},
		{`"a\qb"`, "unknown escape sequence"},
		{"1__0", "'_' must separate successive digits"},
		{"1e", "no digits in exponent"},
		{"@", "unexpected character '@'"},
	} {
		tok := New("illegal.lang", strings.NewReader(tt.src)).Next()
		if tok.Type != Illegal || tok.Data != tt.msg {
			t.Errorf("%q: got %s, want Illegal %q", tt.src, tok, tt.msg)
		}
	}
}

func TestOpenExtension(t *testing.T) {
	fsys := fstest.MapFS{"main.txt": &fstest.MapFile{Data: []byte("fn main() {}")}}
	if _, err := Open(fsys, "main.txt"); err == nil {
		t.Fatal("expected an error for a file without the .lang extension")
	}
}

func TestNormalization(t *testing.T) {
	toks := lex(New("nfc.lang", strings.NewReader("\u00e9 e\u0301")))
	if toks[0].Data != toks[1].Data {
		t.Errorf("identifiers differ after normalization: %q %q", toks[0].Data, toks[1].Data)
	}
}

func TestPrec(t *testing.T) {
	toks := lex(New("ops.lang", strings.NewReader("== + - * / **")))
	var precs []int
	for _, tok := range toks[:len(toks)-1] {
		if !tok.IsBinaryOp() {
			t.Errorf("%s is not a binary operator", tok)
		}
		precs = append(precs, tok.Prec())
	}
	if want := []int{20, 30, 30, 40, 40, 50}; !slices.Equal(precs, want) {
		pretty.Ldiff(t, want, precs)
		t.Fail()
	}
	if !toks[5].IsRightAssoc() || toks[5].IsLeftAssoc() {
		t.Error("** must be right associative")
	}
}
