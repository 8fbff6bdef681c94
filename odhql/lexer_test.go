package odhql

import (
	"testing"
)

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "case insensitive keywords",
			input: "select FROM Where",
			expected: []Token{
				{Type: TokenSelect, Value: "select"},
				{Type: TokenFrom, Value: "FROM"},
				{Type: TokenWhere, Value: "Where"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "field reference",
			input: "e.prename",
			expected: []Token{
				{Type: TokenIdent, Value: "e"},
				{Type: TokenDot, Value: "."},
				{Type: TokenIdent, Value: "prename"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "quoted identifier",
			input: `"my column"`,
			expected: []Token{
				{Type: TokenQuotedIdent, Value: "my column"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "string with escapes",
			input: `'it\'s\tok'`,
			expected: []Token{
				{Type: TokenString, Value: "it's\tok"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "numbers",
			input: "42 -7 3.25",
			expected: []Token{
				{Type: TokenNumber, Value: "42"},
				{Type: TokenNumber, Value: "-7"},
				{Type: TokenNumber, Value: "3.25"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "comparison operators",
			input: "= != <> < <= > >=",
			expected: []Token{
				{Type: TokenEqual, Value: "="},
				{Type: TokenNotEqual, Value: "!="},
				{Type: TokenNotEqual, Value: "<>"},
				{Type: TokenLess, Value: "<"},
				{Type: TokenLessEqual, Value: "<="},
				{Type: TokenGreater, Value: ">"},
				{Type: TokenGreaterEqual, Value: ">="},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "function call",
			input: "CONCAT(a.x, ' ')",
			expected: []Token{
				{Type: TokenIdent, Value: "CONCAT"},
				{Type: TokenLeftParen, Value: "("},
				{Type: TokenIdent, Value: "a"},
				{Type: TokenDot, Value: "."},
				{Type: TokenIdent, Value: "x"},
				{Type: TokenComma, Value: ","},
				{Type: TokenString, Value: " "},
				{Type: TokenRightParen, Value: ")"},
				{Type: TokenEOF, Value: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.input)
			if len(tokens) != len(tt.expected) {
				t.Fatalf("expected %d tokens, got %d", len(tt.expected), len(tokens))
			}
			for i, tok := range tokens {
				if tok.Type != tt.expected[i].Type {
					t.Errorf("token %d: expected type %v, got %v", i, tt.expected[i].Type, tok.Type)
				}
				if tok.Value != tt.expected[i].Value {
					t.Errorf("token %d: expected value %q, got %q", i, tt.expected[i].Value, tok.Value)
				}
			}
		})
	}
}

func TestLexer_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value string
	}{
		{"point without digits", "1.", "1."},
		{"negative fraction", "1.-1", "1.-1"},
		{"two points", "1.2.3", "1.2.3"},
		{"unterminated string", "'abc", "'abc"},
		{"unterminated identifier", `"abc`, `"abc`},
		{"bang", "!", "!"},
		{"unknown character", "#", "#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Tokenize(tt.input)[0]
			if tok.Type != TokenError {
				t.Fatalf("expected error token, got %v", tok.Type)
			}
			if tok.Value != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, tok.Value)
			}
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	tokens := Tokenize("SELECT a.x\n  FROM t")
	want := []struct{ line, column int }{
		{1, 1}, // SELECT
		{1, 8}, // a
		{1, 9}, // .
		{1, 10},
		{2, 3}, // FROM
		{2, 8},
	}
	for i, w := range want {
		if tokens[i].Line != w.line || tokens[i].Column != w.column {
			t.Errorf("token %d (%q): expected %d:%d, got %d:%d",
				i, tokens[i].Value, w.line, w.column, tokens[i].Line, tokens[i].Column)
		}
	}
}

func TestIsKeyword(t *testing.T) {
	for _, word := range []string{"select", "FROM", "Union", "case"} {
		if !IsKeyword(word) {
			t.Errorf("expected %q to be a keyword", word)
		}
	}
	for _, word := range []string{"prename", "concat", "table"} {
		if IsKeyword(word) {
			t.Errorf("expected %q not to be a keyword", word)
		}
	}
}
