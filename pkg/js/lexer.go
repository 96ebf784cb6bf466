package js

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIdent
	TokNumber
	TokString

	// keywords
	TokVar
	TokLet
	TokConst
	TokFunction
	TokReturn
	TokIf
	TokElse
	TokTrue
	TokFalse
	TokNull
	TokUndefined

	// punctuators
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent
	TokAssign
	TokEq
	TokNotEq
	TokStrictEq
	TokStrictNotEq
	TokLess
	TokGreater
	TokLessEq
	TokGreaterEq
	TokNot
	TokAnd
	TokOr
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokComma
	TokDot
	TokSemicolon
)

var tokenNames = [...]string{
	TokEOF:         "EOF",
	TokIdent:       "identifier",
	TokNumber:      "number",
	TokString:      "string",
	TokVar:         "var",
	TokLet:         "let",
	TokConst:       "const",
	TokFunction:    "function",
	TokReturn:      "return",
	TokIf:          "if",
	TokElse:        "else",
	TokTrue:        "true",
	TokFalse:       "false",
	TokNull:        "null",
	TokUndefined:   "undefined",
	TokPlus:        "+",
	TokMinus:       "-",
	TokStar:        "*",
	TokSlash:       "/",
	TokPercent:     "%",
	TokAssign:      "=",
	TokEq:          "==",
	TokNotEq:       "!=",
	TokStrictEq:    "===",
	TokStrictNotEq: "!==",
	TokLess:        "<",
	TokGreater:     ">",
	TokLessEq:      "<=",
	TokGreaterEq:   ">=",
	TokNot:         "!",
	TokAnd:         "&&",
	TokOr:          "||",
	TokLParen:      "(",
	TokRParen:      ")",
	TokLBrace:      "{",
	TokRBrace:      "}",
	TokComma:       ",",
	TokDot:         ".",
	TokSemicolon:   ";",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"var":       TokVar,
	"let":       TokLet,
	"const":     TokConst,
	"function":  TokFunction,
	"return":    TokReturn,
	"if":        TokIf,
	"else":      TokElse,
	"true":      TokTrue,
	"false":     TokFalse,
	"null":      TokNull,
	"undefined": TokUndefined,
}

// punctuators ordered longest first so that "===" wins over "==".
var punctuators = []struct {
	text string
	typ  TokenType
}{
	{"===", TokStrictEq}, {"!==", TokStrictNotEq},
	{"==", TokEq}, {"!=", TokNotEq}, {"<=", TokLessEq}, {">=", TokGreaterEq},
	{"&&", TokAnd}, {"||", TokOr},
	{"+", TokPlus}, {"-", TokMinus}, {"*", TokStar}, {"/", TokSlash}, {"%", TokPercent},
	{"=", TokAssign}, {"<", TokLess}, {">", TokGreater}, {"!", TokNot},
	{"(", TokLParen}, {")", TokRParen}, {"{", TokLBrace}, {"}", TokRBrace},
	{",", TokComma}, {".", TokDot}, {";", TokSemicolon},
}

// Token is a lexical token. Num holds the value of number tokens and Str
// the decoded value of string tokens and the name of identifiers.
type Token struct {
	Type   TokenType
	Lexeme string
	Num    float64
	Str    string
	Line   int
	Col    int
}

func (t Token) String() string {
	switch t.Type {
	case TokIdent, TokNumber:
		return t.Lexeme
	case TokString:
		return strconv.Quote(t.Str)
	}
	return t.Type.String()
}

// Lexer scans script source into tokens.
type Lexer struct {
	src  string
	pos  int
	line int // 1-based
	col  int // 1-based
}

// NewLexer creates a lexer for src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans the whole of src. The result always ends with TokEOF.
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == TokEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) err(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

// errAtEnd reports a construct left open by the end of input.
func (l *Lexer) errAtEnd(line, col int, msg string) error {
	return &SyntaxError{Line: line, Col: col, Msg: msg, AtEnd: true}
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else if l.src[l.pos]&0xC0 != 0x80 {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.advance(1)
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		case c == '/' && l.peek(1) == '*':
			line, col := l.line, l.col
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errAtEnd(line, col, "unterminated comment")
			}
			l.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

// Next returns the next token. After the end of input it keeps returning
// TokEOF.
func (l *Lexer) Next() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	line, col := l.line, l.col
	tok := Token{Line: line, Col: col}
	if l.pos >= len(l.src) {
		tok.Type = TokEOF
		return tok, nil
	}

	c := l.src[l.pos]
	switch {
	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		return l.scanNumber(tok)
	case c == '"' || c == '\'':
		return l.scanString(tok)
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.advance(1)
		}
		tok.Lexeme = l.src[start:l.pos]
		if kw, ok := keywords[tok.Lexeme]; ok {
			tok.Type = kw
		} else {
			tok.Type = TokIdent
			tok.Str = tok.Lexeme
		}
		return tok, nil
	}

	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:], p.text) {
			l.advance(len(p.text))
			tok.Type, tok.Lexeme = p.typ, p.text
			return tok, nil
		}
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return Token{}, l.err(line, col, "unexpected character %q", r)
}

func (l *Lexer) scanNumber(tok Token) (Token, error) {
	start := l.pos
	for isDigit(l.peek(0)) {
		l.advance(1)
	}
	if l.peek(0) == '.' {
		l.advance(1)
		for isDigit(l.peek(0)) {
			l.advance(1)
		}
	}
	if c := l.peek(0); c == 'e' || c == 'E' {
		n := 1
		if s := l.peek(1); s == '+' || s == '-' {
			n = 2
		}
		if !isDigit(l.peek(n)) {
			return Token{}, l.err(l.line, l.col, "malformed exponent")
		}
		l.advance(n)
		for isDigit(l.peek(0)) {
			l.advance(1)
		}
	}
	if isIdentStart(l.peek(0)) {
		return Token{}, l.err(l.line, l.col, "identifier starts immediately after number")
	}
	tok.Type = TokNumber
	tok.Lexeme = l.src[start:l.pos]
	v, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		return Token{}, l.err(tok.Line, tok.Col, "invalid number %q", tok.Lexeme)
	}
	tok.Num = v
	return tok, nil
}

func (l *Lexer) scanString(tok Token) (Token, error) {
	quote := l.src[l.pos]
	start := l.pos
	l.advance(1)
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, l.errAtEnd(tok.Line, tok.Col, "unterminated string")
		}
		if l.src[l.pos] == '\n' {
			return Token{}, l.err(tok.Line, tok.Col, "unterminated string")
		}
		c := l.src[l.pos]
		if c == quote {
			l.advance(1)
			break
		}
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			sb.WriteRune(r)
			l.advance(size)
			continue
		}

		line, col := l.line, l.col
		l.advance(1)
		if l.pos >= len(l.src) {
			return Token{}, l.errAtEnd(tok.Line, tok.Col, "unterminated string")
		}
		switch esc := l.peek(0); esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '"', '\'':
			sb.WriteByte(esc)
		case 'u':
			hex := ""
			if l.pos+5 <= len(l.src) {
				hex = l.src[l.pos+1 : l.pos+5]
			}
			v, err := strconv.ParseUint(hex, 16, 16)
			if err != nil || len(hex) != 4 {
				return Token{}, l.err(line, col, "invalid unicode escape")
			}
			sb.WriteRune(rune(v))
			l.advance(4)
		default:
			return Token{}, l.err(line, col, "invalid escape sequence \\%c", esc)
		}
		l.advance(1)
	}
	tok.Type = TokString
	tok.Lexeme = l.src[start:l.pos]
	tok.Str = sb.String()
	return tok, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
