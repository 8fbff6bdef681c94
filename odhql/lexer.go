package odhql

import (
	"strings"
	"unicode"
)

// Lexer tokenizes OdhQL query strings
type Lexer struct {
	input []rune
	pos   int
	ch    rune
	line  int
	col   int
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: []rune(input), pos: -1, line: 1}
	l.readChar()
	return l
}

// readChar advances to the next character, tracking line and column
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.pos++
	if l.pos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
	} else {
		l.ch = l.input[l.pos]
	}
	l.col++
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// readQuoted reads a string delimited by quote with backslash escapes.
// ok is false when the closing quote is missing.
func (l *Lexer) readQuoted(quote rune) (value string, ok bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for !l.atEnd() && l.ch != quote {
		if l.ch == '\\' {
			l.readChar()
			if l.atEnd() {
				break
			}
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case 'r':
				result.WriteRune('\r')
			default:
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}

	if l.atEnd() {
		return result.String(), false
	}
	l.readChar() // skip closing quote
	return result.String(), true
}

// readNumber reads an optionally negative integer or decimal. Anything
// that continues the number after that (a second point, a point without
// digits) makes the whole run invalid.
func (l *Lexer) readNumber() (string, bool) {
	var result strings.Builder
	valid := true

	if l.ch == '-' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	for isDigit(l.ch) {
		result.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
		if !isDigit(l.ch) {
			valid = false
		}
		for isDigit(l.ch) {
			result.WriteRune(l.ch)
			l.readChar()
		}
	}
	// swallow the rest of a malformed literal such as 1.2.3 or 1.-1
	for l.ch == '.' || (l.ch == '-' && !valid) || (isDigit(l.ch) && !valid) {
		valid = false
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String(), valid
}

func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for isIdentChar(l.ch) {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Line: l.line, Column: l.col}
	if l.atEnd() {
		tok.Type = TokenEOF
		return tok
	}

	single := func(typ TokenType) Token {
		tok.Type, tok.Value = typ, string(l.ch)
		l.readChar()
		return tok
	}
	double := func(typ TokenType) Token {
		tok.Type, tok.Value = typ, string(l.ch)+string(l.peekChar())
		l.readChar()
		l.readChar()
		return tok
	}

	switch l.ch {
	case '=':
		return single(TokenEqual)
	case '!':
		if l.peekChar() == '=' {
			return double(TokenNotEqual)
		}
		return single(TokenError)
	case '<':
		if l.peekChar() == '=' {
			return double(TokenLessEqual)
		}
		if l.peekChar() == '>' {
			return double(TokenNotEqual)
		}
		return single(TokenLess)
	case '>':
		if l.peekChar() == '=' {
			return double(TokenGreaterEqual)
		}
		return single(TokenGreater)
	case ',':
		return single(TokenComma)
	case '.':
		return single(TokenDot)
	case '(':
		return single(TokenLeftParen)
	case ')':
		return single(TokenRightParen)
	case '\'':
		value, ok := l.readQuoted('\'')
		tok.Type, tok.Value = TokenString, value
		if !ok {
			tok.Type, tok.Value = TokenError, "'"+value
		}
		return tok
	case '"':
		value, ok := l.readQuoted('"')
		tok.Type, tok.Value = TokenQuotedIdent, value
		if !ok {
			tok.Type, tok.Value = TokenError, `"`+value
		}
		return tok
	}

	switch {
	case isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())):
		value, ok := l.readNumber()
		tok.Type, tok.Value = TokenNumber, value
		if !ok {
			tok.Type = TokenError
		}
	case isIdentStart(l.ch):
		value := l.readIdentifier()
		tok.Type, tok.Value = TokenIdent, value
		if kw, ok := keywords[strings.ToLower(value)]; ok {
			tok.Type = kw
		}
	default:
		return single(TokenError)
	}
	return tok
}

// Tokenize splits input into tokens. The last token is always TokenEOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
