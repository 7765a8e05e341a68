package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/finitefield-org/browser-tester-sub000/token"
)

// Lexer scans source text on demand. The parser pulls one token at a time
// and tells the lexer whether a '/' at the current position may start a
// regular expression literal.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int

	// newline is set when a line terminator was skipped before the token
	// being scanned.
	newline bool

	// Template interpolation tracking: templates holds the brace depth at
	// which each open `${` started.
	braceDepth int
	templates  []int
}

func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) char() rune {
	if l.eof() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

// peek returns the byte at pos+off, or 0 past the end. Lookahead is only
// needed for ASCII punctuation.
func (l *Lexer) peek(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
		return
	}
	l.col++
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) skipTrivia() {
	atLineStart := l.pos == 0
	for !l.eof() {
		switch c := l.peek(0); {
		case c == '\n':
			l.newline, atLineStart = true, true
			l.advance()
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			l.advance()
		case c == '/' && l.peek(1) == '/':
			l.skipLine()
		case c == '/' && l.peek(1) == '*':
			line := l.line
			l.advanceN(2)
			for !l.eof() && !(l.peek(0) == '*' && l.peek(1) == '/') {
				l.advance()
			}
			l.advanceN(2)
			if l.line > line {
				l.newline, atLineStart = true, true
			}
		case c == '<' && strings.HasPrefix(l.src[l.pos:], "<!--"):
			l.skipLine()
		case c == '-' && atLineStart && strings.HasPrefix(l.src[l.pos:], "-->"):
			l.skipLine()
		default:
			r := l.char()
			if r == '\u00a0' || r == '\ufeff' || r == '\u2028' || r == '\u2029' || (r > 127 && unicode.IsSpace(r)) {
				if r == '\u2028' || r == '\u2029' {
					l.newline = true
				}
				l.advance()
				continue
			}
			return
		}
	}
}

func (l *Lexer) skipLine() {
	for !l.eof() && l.peek(0) != '\n' {
		l.advance()
	}
}

// Next scans the next token. regexOK reports whether the grammar allows an
// expression to start here, which decides between '/' and a regex literal.
func (l *Lexer) Next(regexOK bool) token.Token {
	l.newline = false
	l.skipTrivia()
	tok := l.scan(regexOK)
	tok.NewlineBefore = l.newline
	return tok
}

func (l *Lexer) scan(regexOK bool) token.Token {
	line, col := l.line, l.col
	mk := func(t token.TokenType, lit string) token.Token {
		return token.Token{Type: t, Literal: lit, Line: line, Column: col}
	}
	if l.eof() {
		return mk(token.EOF, "")
	}

	c := l.peek(0)
	switch {
	case c == '}' && len(l.templates) > 0 && l.templates[len(l.templates)-1] == l.braceDepth-1:
		l.templates = l.templates[:len(l.templates)-1]
		l.braceDepth--
		l.advance()
		return l.scanTemplate(line, col, false)
	case c == '`':
		l.advance()
		return l.scanTemplate(line, col, true)
	case c == '"' || c == '\'':
		return l.scanString(line, col)
	case isDigit(rune(c)) || (c == '.' && isDigit(rune(l.peek(1)))):
		return l.scanNumber(line, col)
	case c == '/' && regexOK:
		return l.scanRegExp(line, col)
	case c == '#' && isIdentStart(l.runeAt(1)):
		l.advance()
		id := l.scanIdentifier(line, col)
		if id.Type == token.Illegal {
			return id
		}
		return mk(token.PrivateName, "#"+id.Literal)
	case isIdentStart(l.char()) || c == '\\':
		return l.scanIdentifier(line, col)
	}

	if p, ok := l.matchPunctuator(); ok {
		l.advanceN(len(p.lit))
		switch p.typ {
		case token.LeftBrace:
			l.braceDepth++
		case token.RightBrace:
			l.braceDepth--
		}
		return mk(p.typ, p.lit)
	}
	r := l.char()
	l.advance()
	return mk(token.Illegal, string(r))
}

func (l *Lexer) runeAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+off:])
	return r
}

type punctuator struct {
	lit string
	typ token.TokenType
}

// punctuators is ordered longest first so the first prefix match wins.
var punctuators = []punctuator{
	{">>>=", token.UnsignedRightShiftAssign},
	{"...", token.Spread}, {"===", token.StrictEqual}, {"!==", token.StrictNotEqual},
	{"**=", token.ExponentAssign}, {"<<=", token.LeftShiftAssign}, {">>=", token.RightShiftAssign},
	{">>>", token.UnsignedRightShift}, {"&&=", token.AndAssign}, {"||=", token.OrAssign},
	{"??=", token.NullishAssign},
	{"=>", token.Arrow}, {"==", token.Equal}, {"!=", token.NotEqual}, {"<=", token.LessThanOrEqual},
	{">=", token.GreaterThanOrEqual}, {"&&", token.And}, {"||", token.Or}, {"??", token.NullishCoalesce},
	{"?.", token.OptionalChain}, {"++", token.Increment}, {"--", token.Decrement},
	{"+=", token.PlusAssign}, {"-=", token.MinusAssign}, {"*=", token.AsteriskAssign},
	{"/=", token.SlashAssign}, {"%=", token.PercentAssign}, {"&=", token.AmpersandAssign},
	{"|=", token.PipeAssign}, {"^=", token.CaretAssign}, {"**", token.Exponent},
	{"<<", token.LeftShift}, {">>", token.RightShift},
	{"(", token.LeftParen}, {")", token.RightParen}, {"{", token.LeftBrace}, {"}", token.RightBrace},
	{"[", token.LeftBracket}, {"]", token.RightBracket}, {";", token.Semicolon}, {":", token.Colon},
	{",", token.Comma}, {".", token.Dot}, {"+", token.Plus}, {"-", token.Minus},
	{"*", token.Asterisk}, {"/", token.Slash}, {"%", token.Percent}, {"=", token.Assign},
	{"!", token.Not}, {"<", token.LessThan}, {">", token.GreaterThan}, {"&", token.BitwiseAnd},
	{"|", token.BitwiseOr}, {"^", token.BitwiseXor}, {"~", token.BitwiseNot}, {"?", token.QuestionMark},
}

func (l *Lexer) matchPunctuator() (punctuator, bool) {
	rest := l.src[l.pos:]
	for _, p := range punctuators {
		if !strings.HasPrefix(rest, p.lit) {
			continue
		}
		// a?.5 is a conditional, not an optional chain
		if p.typ == token.OptionalChain && isDigit(rune(l.peek(2))) {
			continue
		}
		return p, true
	}
	return punctuator{}, false
}

// Tokenize scans the whole input, guessing regex positions from the
// previous token. The parser does not use it; it exists for tooling and
// tests.
func Tokenize(src string) []token.Token {
	l := New(src)
	prev := token.EOF
	var out []token.Token
	for {
		tok := l.Next(RegexAllowedAfter(prev))
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
		prev = tok.Type
	}
}

// RegexAllowedAfter reports whether a '/' following a token of type prev
// starts a regex literal.
func RegexAllowedAfter(prev token.TokenType) bool {
	switch prev {
	case token.Identifier, token.PrivateName, token.Number, token.BigInt, token.String,
		token.RegExp, token.True, token.False, token.Null, token.This, token.Super,
		token.RightParen, token.RightBracket, token.RightBrace, token.Increment, token.Decrement,
		token.NoSubstitutionTemplate, token.TemplateTail:
		return false
	}
	return true
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch > 127 && unicode.IsLetter(ch))
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '\u200c' || ch == '\u200d' ||
		(ch > 127 && (unicode.IsDigit(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)))
}

func hexVal(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	}
	return -1
}
