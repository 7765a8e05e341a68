package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/finitefield-org/browser-tester-sub000/token"
)

func illegal(line, col int, msg string) token.Token {
	return token.Token{Type: token.Illegal, Literal: msg, Line: line, Column: col}
}

func (l *Lexer) scanIdentifier(line, col int) token.Token {
	start := l.pos
	var buf strings.Builder
	escaped := false
	for !l.eof() {
		r := l.char()
		if r == '\\' {
			if l.peek(1) != 'u' {
				return illegal(line, col, "invalid escape in identifier")
			}
			l.advanceN(2)
			cp := l.readUnicodeEscape()
			if cp < 0 {
				return illegal(line, col, "invalid unicode escape")
			}
			escaped = true
			buf.WriteRune(rune(cp))
			continue
		}
		if !isIdentPart(r) {
			break
		}
		buf.WriteRune(r)
		l.advance()
	}
	lit := buf.String()
	if !escaped {
		lit = l.src[start:l.pos]
	}
	if lit == "" || !isIdentStart([]rune(lit)[0]) {
		return illegal(line, col, "invalid identifier")
	}
	typ := token.LookupIdentifier(lit)
	if escaped && typ != token.Identifier {
		// escaped keywords stay identifiers
		typ = token.Identifier
	}
	return token.Token{Type: typ, Literal: lit, Line: line, Column: col}
}

// readUnicodeEscape reads the part of a \u escape after the 'u': either
// four hex digits or a braced code point. It returns -1 when malformed.
func (l *Lexer) readUnicodeEscape() int {
	val := 0
	if l.peek(0) == '{' {
		l.advance()
		digits := 0
		for !l.eof() && l.peek(0) != '}' {
			d := hexVal(l.char())
			if d < 0 {
				return -1
			}
			val = val*16 + d
			digits++
			l.advance()
		}
		if l.peek(0) != '}' || digits == 0 || val > utf8.MaxRune {
			return -1
		}
		l.advance()
		return val
	}
	for i := 0; i < 4; i++ {
		d := hexVal(l.char())
		if d < 0 {
			return -1
		}
		val = val*16 + d
		l.advance()
	}
	return val
}

// writeCodeUnit writes a UTF-16 code unit. Unpaired surrogates are kept
// as their three-byte (WTF-8) form instead of collapsing to U+FFFD.
func writeCodeUnit(buf *strings.Builder, cu int) {
	if cu < 0xD800 || cu > 0xDFFF {
		buf.WriteRune(rune(cu))
		return
	}
	buf.WriteByte(byte(0xE0 | (cu >> 12)))
	buf.WriteByte(byte(0x80 | ((cu >> 6) & 0x3F)))
	buf.WriteByte(byte(0x80 | (cu & 0x3F)))
}

// readEscape decodes one escape sequence after the backslash. inTemplate
// keeps unknown escapes verbatim, which is what a cooked template needs
// for its raw fallback. It returns false when the escape is malformed.
func (l *Lexer) readEscape(buf *strings.Builder, inTemplate bool) bool {
	c := l.peek(0)
	simple := map[byte]byte{'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f', 'v': '\v',
		'\\': '\\', '\'': '\'', '"': '"', '`': '`', '$': '$'}
	if out, ok := simple[c]; ok {
		buf.WriteByte(out)
		l.advance()
		return true
	}
	switch {
	case c >= '0' && c <= '7':
		val := int(c - '0')
		l.advance()
		for i := 0; i < 2 && l.peek(0) >= '0' && l.peek(0) <= '7'; i++ {
			next := val*8 + int(l.peek(0)-'0')
			if next > 0xFF {
				break
			}
			val = next
			l.advance()
		}
		buf.WriteRune(rune(val))
	case c == 'x':
		l.advance()
		hi, lo := hexVal(l.char()), hexVal(rune(l.peek(1)))
		if hi < 0 || lo < 0 {
			return false
		}
		l.advanceN(2)
		buf.WriteRune(rune(hi*16 + lo))
	case c == 'u':
		l.advance()
		cp := l.readUnicodeEscape()
		if cp < 0 {
			return false
		}
		if cp >= 0xD800 && cp <= 0xDBFF && strings.HasPrefix(l.src[l.pos:], "\\u") {
			save, saveCol := l.pos, l.col
			l.advanceN(2)
			low := l.readUnicodeEscape()
			if low >= 0xDC00 && low <= 0xDFFF {
				buf.WriteRune(rune(0x10000 + (cp-0xD800)*0x400 + (low - 0xDC00)))
				return true
			}
			l.pos, l.col = save, saveCol
		}
		writeCodeUnit(buf, cp)
	case c == '\r':
		l.advance()
		if l.peek(0) == '\n' {
			l.advance()
		}
	case c == '\n':
		l.advance()
	default:
		if inTemplate {
			buf.WriteByte('\\')
		}
		buf.WriteRune(l.char())
		l.advance()
	}
	return true
}

func (l *Lexer) scanString(line, col int) token.Token {
	quote := l.peek(0)
	l.advance()
	var buf strings.Builder
	for {
		if l.eof() || l.peek(0) == '\n' {
			return illegal(line, col, "unterminated string")
		}
		c := l.peek(0)
		if c == quote {
			l.advance()
			return token.Token{Type: token.String, Literal: buf.String(), Line: line, Column: col}
		}
		if c == '\\' {
			l.advance()
			if !l.readEscape(&buf, false) {
				return illegal(line, col, "invalid escape sequence")
			}
			continue
		}
		buf.WriteRune(l.char())
		l.advance()
	}
}

// scanTemplate scans a template chunk up to the closing backtick or the
// next `${`. head is true for the chunk that opened with a backtick.
func (l *Lexer) scanTemplate(line, col int, head bool) token.Token {
	var buf strings.Builder
	start := l.pos
	chunk := func(typ token.TokenType) token.Token {
		raw := strings.ReplaceAll(l.src[start:l.pos], "\r\n", "\n")
		return token.Token{Type: typ, Literal: buf.String(), Raw: strings.ReplaceAll(raw, "\r", "\n"), Line: line, Column: col}
	}
	for {
		if l.eof() {
			return illegal(line, col, "unterminated template literal")
		}
		switch {
		case l.peek(0) == '`':
			typ := token.TemplateTail
			if head {
				typ = token.NoSubstitutionTemplate
			}
			tok := chunk(typ)
			l.advance()
			return tok
		case l.peek(0) == '$' && l.peek(1) == '{':
			typ := token.TemplateMiddle
			if head {
				typ = token.TemplateHead
			}
			tok := chunk(typ)
			l.advanceN(2)
			l.templates = append(l.templates, l.braceDepth)
			l.braceDepth++
			return tok
		case l.peek(0) == '\\':
			l.advance()
			l.readEscape(&buf, true)
		case l.peek(0) == '\r':
			// line terminators normalize to \n inside templates
			l.advance()
			if l.peek(0) == '\n' {
				l.advance()
			}
			buf.WriteByte('\n')
		default:
			buf.WriteRune(l.char())
			l.advance()
		}
	}
}

func isRadixDigit(c byte, radix int) bool {
	d := hexVal(rune(c))
	return d >= 0 && d < radix
}

// scanNumber reads a numeric literal. Separators are dropped from the
// literal; an `n` suffix turns it into a BigInt token whose literal keeps
// any radix prefix.
func (l *Lexer) scanNumber(line, col int) token.Token {
	var buf strings.Builder
	digits := func(radix int) int {
		n := 0
		for !l.eof() && (isRadixDigit(l.peek(0), radix) || (l.peek(0) == '_' && n > 0)) {
			if l.peek(0) != '_' {
				buf.WriteByte(l.peek(0))
				n++
			}
			l.advance()
		}
		return n
	}
	integer := true

	if l.peek(0) == '0' {
		radix := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}[l.peek(1)]
		if radix != 0 {
			buf.WriteByte('0')
			buf.WriteByte(l.peek(1) | 0x20)
			l.advanceN(2)
			if digits(radix) == 0 {
				return illegal(line, col, "invalid numeric literal")
			}
			return l.finishNumber(line, col, buf.String(), true)
		}
	}

	digits(10)
	if l.peek(0) == '.' {
		integer = false
		buf.WriteByte('.')
		l.advance()
		digits(10)
	}
	if l.peek(0) == 'e' || l.peek(0) == 'E' {
		integer = false
		buf.WriteByte('e')
		l.advance()
		if l.peek(0) == '+' || l.peek(0) == '-' {
			buf.WriteByte(l.peek(0))
			l.advance()
		}
		if digits(10) == 0 {
			return illegal(line, col, "invalid numeric literal")
		}
	}
	return l.finishNumber(line, col, buf.String(), integer)
}

func (l *Lexer) finishNumber(line, col int, lit string, integer bool) token.Token {
	typ := token.Number
	if l.peek(0) == 'n' {
		if !integer {
			return illegal(line, col, "invalid BigInt literal")
		}
		l.advance()
		typ = token.BigInt
	}
	if isIdentStart(l.char()) {
		return illegal(line, col, "identifier starts immediately after numeric literal")
	}
	return token.Token{Type: typ, Literal: lit, Line: line, Column: col}
}

// scanRegExp reads /body/flags. The literal keeps the slashes so the
// parser can split body and flags at the last one.
func (l *Lexer) scanRegExp(line, col int) token.Token {
	start := l.pos
	l.advance()
	inClass := false
	for {
		if l.eof() || l.peek(0) == '\n' || l.peek(0) == '\r' {
			return illegal(line, col, "unterminated regexp")
		}
		c := l.peek(0)
		if c == '\\' {
			l.advance()
			if l.eof() || l.peek(0) == '\n' {
				return illegal(line, col, "unterminated regexp")
			}
			l.advance()
			continue
		}
		l.advance()
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			break
		}
	}
	for !l.eof() && isIdentPart(l.char()) {
		l.advance()
	}
	return token.Token{Type: token.RegExp, Literal: l.src[start:l.pos], Line: line, Column: col}
}
