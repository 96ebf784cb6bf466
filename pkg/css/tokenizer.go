package css

import (
	"strings"
	"unicode/utf8"
)

type TokenType int

const (
	TokenIdent TokenType = iota
	TokenHash
	TokenAtKeyword
	TokenString
	TokenNumber
	TokenDimension
	TokenPercentage
	TokenFunction // name followed by '('
	TokenDelim
	TokenColon
	TokenSemicolon
	TokenComma
	TokenLBrace
	TokenRBrace
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenEOF
)

// Token is one lexical unit of style text. Whitespace is not a token;
// SpaceBefore records that whitespace preceded it.
type Token struct {
	Type        TokenType
	Value       string
	Unit        string // for TokenDimension
	SpaceBefore bool
}

// String renders the token back to style text.
func (t Token) String() string {
	switch t.Type {
	case TokenHash:
		return "#" + t.Value
	case TokenAtKeyword:
		return "@" + t.Value
	case TokenString:
		return `"` + strings.ReplaceAll(t.Value, `"`, `\"`) + `"`
	case TokenDimension:
		return t.Value + t.Unit
	case TokenPercentage:
		return t.Value + "%"
	case TokenFunction:
		return t.Value + "("
	case TokenEOF:
		return ""
	}
	return t.Value
}

// Tokenizer splits style text into tokens. It never fails; anything it does
// not recognize becomes a TokenDelim.
type Tokenizer struct {
	input string
	pos   int
}

func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// Tokenize returns all tokens of input, ending with TokenEOF.
func Tokenize(input string) []Token {
	t := NewTokenizer(input)
	var toks []Token
	for {
		tok := t.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func (t *Tokenizer) Next() Token {
	space := t.skipWhitespaceAndComments()
	tok := t.read()
	tok.SpaceBefore = space
	return tok
}

func (t *Tokenizer) read() Token {
	if t.pos >= len(t.input) {
		return Token{Type: TokenEOF}
	}
	c := t.input[t.pos]
	switch c {
	case '{':
		t.pos++
		return Token{Type: TokenLBrace, Value: "{"}
	case '}':
		t.pos++
		return Token{Type: TokenRBrace, Value: "}"}
	case '(':
		t.pos++
		return Token{Type: TokenLParen, Value: "("}
	case ')':
		t.pos++
		return Token{Type: TokenRParen, Value: ")"}
	case '[':
		t.pos++
		return Token{Type: TokenLBracket, Value: "["}
	case ']':
		t.pos++
		return Token{Type: TokenRBracket, Value: "]"}
	case ':':
		t.pos++
		return Token{Type: TokenColon, Value: ":"}
	case ';':
		t.pos++
		return Token{Type: TokenSemicolon, Value: ";"}
	case ',':
		t.pos++
		return Token{Type: TokenComma, Value: ","}
	case '"', '\'':
		return t.readString(c)
	case '#':
		if t.pos+1 < len(t.input) && isNameByte(t.input[t.pos+1]) {
			t.pos++
			return Token{Type: TokenHash, Value: t.readName()}
		}
	case '@':
		if t.startsIdent(t.pos + 1) {
			t.pos++
			return Token{Type: TokenAtKeyword, Value: t.readName()}
		}
	}
	if t.startsNumber(t.pos) {
		return t.readNumeric()
	}
	if t.startsIdent(t.pos) {
		name := t.readName()
		if t.pos < len(t.input) && t.input[t.pos] == '(' {
			t.pos++
			return Token{Type: TokenFunction, Value: name}
		}
		return Token{Type: TokenIdent, Value: name}
	}
	r, size := utf8.DecodeRuneInString(t.input[t.pos:])
	t.pos += size
	return Token{Type: TokenDelim, Value: string(r)}
}

// skipWhitespaceAndComments reports whether any whitespace was skipped.
func (t *Tokenizer) skipWhitespaceAndComments() bool {
	space := false
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			space = true
			t.pos++
			continue
		}
		if c == '/' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '*' {
			t.skipComment()
			continue
		}
		break
	}
	return space
}

// skipComment skips a /* ... */ comment. Assumes pos is at the '/'.
func (t *Tokenizer) skipComment() {
	end := strings.Index(t.input[t.pos+2:], "*/")
	if end < 0 {
		// Unterminated comment: skip to end
		t.pos = len(t.input)
		return
	}
	t.pos += 2 + end + 2
}

func (t *Tokenizer) readString(quote byte) Token {
	t.pos++
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		switch {
		case c == quote:
			t.pos++
			return Token{Type: TokenString, Value: sb.String()}
		case c == '\n':
			// Unterminated string ends at the newline.
			return Token{Type: TokenString, Value: sb.String()}
		case c == '\\' && t.pos+1 < len(t.input):
			sb.WriteByte(t.input[t.pos+1])
			t.pos += 2
		default:
			sb.WriteByte(c)
			t.pos++
		}
	}
	return Token{Type: TokenString, Value: sb.String()}
}

func (t *Tokenizer) readName() string {
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == '\\' && t.pos+1 < len(t.input) {
			sb.WriteByte(t.input[t.pos+1])
			t.pos += 2
			continue
		}
		if !isNameByte(c) {
			break
		}
		sb.WriteByte(c)
		t.pos++
	}
	return sb.String()
}

func (t *Tokenizer) readNumeric() Token {
	start := t.pos
	if c := t.input[t.pos]; c == '+' || c == '-' {
		t.pos++
	}
	for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
		t.pos++
	}
	if t.pos+1 < len(t.input) && t.input[t.pos] == '.' && isDigit(t.input[t.pos+1]) {
		t.pos++
		for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
			t.pos++
		}
	}
	num := t.input[start:t.pos]
	if t.pos < len(t.input) && t.input[t.pos] == '%' {
		t.pos++
		return Token{Type: TokenPercentage, Value: num}
	}
	if t.startsIdent(t.pos) {
		return Token{Type: TokenDimension, Value: num, Unit: strings.ToLower(t.readName())}
	}
	return Token{Type: TokenNumber, Value: num}
}

func (t *Tokenizer) startsNumber(i int) bool {
	if i >= len(t.input) {
		return false
	}
	c := t.input[i]
	if isDigit(c) {
		return true
	}
	if c == '.' {
		return i+1 < len(t.input) && isDigit(t.input[i+1])
	}
	if c == '+' || c == '-' {
		return t.startsNumber(i+1) && t.input[i+1] != '+' && t.input[i+1] != '-'
	}
	return false
}

func (t *Tokenizer) startsIdent(i int) bool {
	if i >= len(t.input) {
		return false
	}
	c := t.input[i]
	if c == '-' {
		return i+1 < len(t.input) && (isNameStart(t.input[i+1]) || t.input[i+1] == '-')
	}
	if c == '\\' {
		return i+1 < len(t.input)
	}
	return isNameStart(c)
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c >= 0x80
}

func isNameByte(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
