package odhql

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	// Special
	TokenEOF TokenType = iota
	TokenError

	// Literals and names
	TokenIdent
	TokenQuotedIdent
	TokenString
	TokenNumber

	// Keywords
	TokenSelect
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenAs
	TokenJoin
	TokenInner
	TokenLeft
	TokenRight
	TokenFull
	TokenOuter
	TokenOn
	TokenUnion
	TokenOrder
	TokenBy
	TokenAsc
	TokenDesc
	TokenIs
	TokenNot
	TokenNull
	TokenIn
	TokenLike
	TokenTrue
	TokenFalse
	TokenCase
	TokenWhen
	TokenThen
	TokenElse
	TokenEnd

	// Operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Punctuation
	TokenComma      // ,
	TokenDot        // .
	TokenLeftParen  // (
	TokenRightParen // )
)

var keywords = map[string]TokenType{
	"select": TokenSelect,
	"from":   TokenFrom,
	"where":  TokenWhere,
	"and":    TokenAnd,
	"or":     TokenOr,
	"as":     TokenAs,
	"join":   TokenJoin,
	"inner":  TokenInner,
	"left":   TokenLeft,
	"right":  TokenRight,
	"full":   TokenFull,
	"outer":  TokenOuter,
	"on":     TokenOn,
	"union":  TokenUnion,
	"order":  TokenOrder,
	"by":     TokenBy,
	"asc":    TokenAsc,
	"desc":   TokenDesc,
	"is":     TokenIs,
	"not":    TokenNot,
	"null":   TokenNull,
	"in":     TokenIn,
	"like":   TokenLike,
	"true":   TokenTrue,
	"false":  TokenFalse,
	"case":   TokenCase,
	"when":   TokenWhen,
	"then":   TokenThen,
	"else":   TokenElse,
	"end":    TokenEnd,
}

var tokenNames = map[TokenType]string{
	TokenEOF:          "end of input",
	TokenError:        "invalid input",
	TokenIdent:        "identifier",
	TokenQuotedIdent:  "quoted identifier",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenEqual:        "'='",
	TokenNotEqual:     "'!='",
	TokenLess:         "'<'",
	TokenLessEqual:    "'<='",
	TokenGreater:      "'>'",
	TokenGreaterEqual: "'>='",
	TokenComma:        "','",
	TokenDot:          "'.'",
	TokenLeftParen:    "'('",
	TokenRightParen:   "')'",
}

func init() {
	for word, typ := range keywords {
		tokenNames[typ] = strings.ToUpper(word)
	}
}

// String returns a readable name for error messages
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether word is a reserved word, ignoring case.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToLower(word)]
	return ok
}

// Token represents a lexical token with its 1-based position.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

// Text returns the token as it should appear in error messages.
func (t Token) Text() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return "'" + t.Value + "'"
	case TokenQuotedIdent:
		return `"` + t.Value + `"`
	default:
		return t.Value
	}
}
