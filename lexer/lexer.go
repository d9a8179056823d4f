package lexer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"unicode"

	"github.com/smasher164/xid"
	"golang.org/x/text/unicode/norm"
)

// Ext is the extension every source file must carry.
const Ext = ".lang"

type Lexer struct {
	name  string
	ch    rune
	pos   int
	i     int // position in buffer
	err   error
	buf   []rune
	rdr   *bufio.Reader
	lines []int
}

const eof = -1

func (l *Lexer) lexWS() Token {
	startPos := l.pos
	for unicode.IsSpace(l.ch) {
		l.next()
	}
	return Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func isLetter(ch rune) bool {
	return ch == '_' || xid.Start(ch)
}

// Identifiers are compared after NFC normalization, so differently composed
// spellings of the same name resolve to one binding.
func (l *Lexer) lexIdentOrKeyword() Token {
	startPos := l.pos
	l.next()
	for xid.Continue(l.ch) {
		l.next()
	}
	ident := norm.NFC.String(l.bufString())
	if ttyp, ok := Keywords[ident]; ok {
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	return Token{Type: Ident, Span: l.spanOf(startPos, l.pos-1), Data: ident}
}

func isDecimal(ch rune) bool { return '0' <= ch && ch <= '9' }

func (l *Lexer) lexDigits(err *Token, _allowed bool) (digitCount int) {
	setErr := func(pos int, msg string) {
		if err.Type != Illegal {
			*err = Token{Type: Illegal, Span: l.spanOf(pos, pos), Data: msg}
		}
	}
	for {
		if l.ch == '_' {
			if _allowed {
				_allowed = !_allowed
			} else {
				setErr(l.pos, "'_' must separate successive digits")
			}
		} else if isDecimal(l.ch) {
			_allowed = true
			digitCount++
		} else {
			if !_allowed && digitCount > 0 {
				setErr(l.pos-1, "'_' must separate successive digits")
			}
			return digitCount
		}
		l.next()
	}
}

func (l *Lexer) lexNumber() Token {
	var (
		startPos = l.pos
		tok      Token
	)
	setErr := func(msg string) {
		if tok.Type != Illegal {
			tok = Token{Type: Illegal, Span: l.spanOf(startPos, l.pos), Data: msg}
		}
	}
	digitCount := l.lexDigits(&tok, false)
	if l.ch == '.' && isDecimal(l.peek()) {
		l.next()
		digitCount += l.lexDigits(&tok, false)
	}
	if digitCount == 0 {
		setErr("no digits in number")
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.next()
		if l.ch == '+' || l.ch == '-' {
			l.next()
		}
		if count := l.lexDigits(&tok, false); count == 0 {
			setErr("no digits in exponent")
		}
	}
	if tok.Type == Illegal {
		return tok
	}
	return Token{Type: Number, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func (l *Lexer) lexLineComment() Token {
	startPos := l.pos
	for l.ch != '\n' && l.ch != eof {
		l.next()
	}
	return Token{Type: SingleLineComment, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

func (l *Lexer) lexEscape() string {
	switch l.ch {
	case 'n', 'r', 't', '\\', '"':
		l.next()
		return ""
	case eof:
		return "escape sequence not terminated"
	}
	l.next()
	return "unknown escape sequence"
}

func (l *Lexer) lexString() Token {
	startPos := l.pos
	var tok Token
	l.next()
	for {
		switch l.ch {
		case eof, '\n':
			return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "unterminated string"}
		case '"':
			l.next()
			if tok.Type == Illegal {
				return tok
			}
			return Token{Type: String, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
		case '\\':
			l.next()
			begPos := l.pos
			if msg := l.lexEscape(); msg != "" && tok.Type != Illegal {
				tok = Token{Type: Illegal, Span: l.spanOf(begPos, begPos), Data: msg}
			}
		default:
			l.next()
		}
	}
}

func (l *Lexer) next() {
	if l.ch == eof {
		return
	}
	l.i++
	l.pos++
	if l.i < len(l.buf) {
		l.ch = l.buf[l.i]
	} else {
		r, _, err := l.rdr.ReadRune()
		if err != nil {
			l.ch = eof
			if err != io.EOF {
				l.err = err
			}
		} else {
			l.ch = r
		}
		l.buf = append(l.buf, l.ch)
	}
	if l.ch == '\n' {
		if l.lines[len(l.lines)-1] < l.pos+1 {
			l.lines = append(l.lines, l.pos+1)
		}
	}
}

func (l *Lexer) backup() {
	if l.i > 0 {
		l.i--
		l.pos--
		l.ch = l.buf[l.i]
	}
}

func (l *Lexer) peek() rune {
	if l.ch == eof {
		return eof
	}
	l.next()
	ch := l.ch
	l.backup()
	return ch
}

func (l *Lexer) bufString() string {
	return string(l.buf[:l.i])
}

func (l *Lexer) lineIndex(offset int) int {
	line, found := sort.Find(len(l.lines), func(i int) int {
		v := l.lines[i]
		if offset == v {
			return 0
		}
		if offset < v {
			return -1
		}
		return 1
	})
	if found {
		return line
	}
	return line - 1
}

func (l *Lexer) posOf(offset int) Pos {
	line := l.lineIndex(offset)
	return Pos{Offset: offset, Line: line + 1, Column: offset - l.lines[line] + 1}
}

func (l *Lexer) spanOf(off1, off2 int) Span {
	start := l.posOf(off1)
	var end Pos
	if off1 == off2 {
		end = start
	} else {
		end = l.posOf(off2)
	}
	return Span{Start: start, End: end}
}

func (l *Lexer) resetPos() {
	l.buf = l.buf[l.i:]
	l.i = 0
	l.ch = l.buf[l.i]
}

// Name is the file name the lexer was opened with.
func (l *Lexer) Name() string { return l.name }

// Err reports the first read error encountered, if any.
func (l *Lexer) Err() error { return l.err }

func (l *Lexer) NextToken() Token {
	defer l.resetPos()
	startPos := l.pos
	switch {
	case unicode.IsSpace(l.ch):
		return l.lexWS()
	case isLetter(l.ch):
		return l.lexIdentOrKeyword()
	case isDecimal(l.ch) || l.ch == '.' && isDecimal(l.peek()):
		return l.lexNumber()
	case l.ch == '#':
		return l.lexLineComment()
	case l.ch == '"':
		return l.lexString()
	}
	if ttyp, ok := DoubleCharTokens[[2]rune{l.ch, l.peek()}]; ok {
		l.next()
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	if ttyp, ok := SingleCharTokens[l.ch]; ok {
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, startPos)}
	}
	ch := l.ch
	l.next()
	return Token{Type: Illegal, Span: l.spanOf(startPos, startPos), Data: fmt.Sprintf("unexpected character %q", ch)}
}

// Next returns the next significant token with whitespace and comments
// attached as leading trivia.
func (l *Lexer) Next() Token {
	var t Token
	var trivia []Token
	for t = l.NextToken(); t.Type == Whitespace || t.Type == SingleLineComment; t = l.NextToken() {
		trivia = append(trivia, t)
	}
	t.LeadingTrivia = trivia
	return t
}

func New(name string, r io.Reader) *Lexer {
	l := &Lexer{
		name:  name,
		rdr:   bufio.NewReader(r),
		i:     -1,
		pos:   -1,
		lines: []int{0},
	}
	l.next()
	return l
}

func Open(fsys fs.FS, filename string) (*Lexer, error) {
	if filepath.Ext(filename) != Ext {
		return nil, fmt.Errorf("invalid file extension %q, expected %q", filepath.Ext(filename), Ext)
	}
	src, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, err
	}
	return New(filename, bytes.NewReader(src)), nil
}
