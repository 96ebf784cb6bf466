package html

import (
	"bytes"
	gohtml "html"
	"strings"
	"unicode/utf8"
)

type TokenType int

const (
	TokenStartTag TokenType = iota
	TokenEndTag
	TokenCharacter
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenStartTag:
		return "StartTag"
	case TokenEndTag:
		return "EndTag"
	case TokenCharacter:
		return "Character"
	case TokenEOF:
		return "EndOfInput"
	}
	return "Unknown"
}

type Attribute struct {
	Name  string
	Value string
}

type Token struct {
	Type        TokenType
	TagName     string
	Attributes  []Attribute
	SelfClosing bool // True for tags ending with />
	Char        rune
}

// Attr returns the value of the named attribute.
func (t Token) Attr(name string) (string, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

type state int

const (
	stateData state = iota
	stateTagOpen
	stateEndTagOpen
	stateTagName
	stateBeforeAttributeName
	stateAttributeName
	stateAfterAttributeName
	stateBeforeAttributeValue
	stateAttributeValueDoubleQuoted
	stateAttributeValueSingleQuoted
	stateAttributeValueUnquoted
	stateAfterAttributeValueQuoted
	stateSelfClosingStartTag
	stateMarkupDeclaration
	stateBogusComment
	stateRawText
)

const eof = -1

// Tokenizer produces markup tokens lazily. It never fails: malformed input
// resynchronizes and the stream always ends with exactly one TokenEOF, which
// is then repeated on every later call.
type Tokenizer struct {
	input []byte
	pos   int
	state state

	// pending holds decoded characters of a character reference or of a
	// rejected "<" that still have to be emitted one by one.
	pending []rune

	tag      Token
	attrName strings.Builder
	attrVal  strings.Builder
	tagName  strings.Builder
	isEnd    bool

	rawTag string
	done   bool
}

func NewTokenizer(input []byte) *Tokenizer {
	return &Tokenizer{input: input}
}

func NewStringTokenizer(input string) *Tokenizer {
	return NewTokenizer([]byte(input))
}

// Done reports whether the end of input token has been produced.
func (t *Tokenizer) Done() bool { return t.done }

// SetRawText forces the tokenizer into raw text mode until </tag.
func (t *Tokenizer) SetRawText(tag string) {
	t.rawTag = tag
	t.state = stateRawText
}

func (t *Tokenizer) next() rune {
	if t.pos >= len(t.input) {
		return eof
	}
	r, size := utf8.DecodeRune(t.input[t.pos:])
	t.pos += size
	return r
}

func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return eof
	}
	r, _ := utf8.DecodeRune(t.input[t.pos:])
	return r
}

func (t *Tokenizer) startTag(end bool) {
	t.tag = Token{Type: TokenStartTag}
	if end {
		t.tag.Type = TokenEndTag
	}
	t.isEnd = end
	t.tagName.Reset()
}

func (t *Tokenizer) commitAttr() {
	if t.attrName.Len() == 0 {
		return
	}
	name := t.attrName.String()
	val := gohtml.UnescapeString(t.attrVal.String())
	t.attrName.Reset()
	t.attrVal.Reset()
	if t.isEnd {
		return
	}
	if _, dup := t.tag.Attr(name); dup {
		return
	}
	t.tag.Attributes = append(t.tag.Attributes, Attribute{Name: name, Value: val})
}

func (t *Tokenizer) emitTag() Token {
	t.commitAttr()
	t.tag.TagName = t.tagName.String()
	tok := t.tag
	t.state = stateData
	if tok.Type == TokenStartTag && isRawTextElement(tok.TagName) && !tok.SelfClosing {
		t.SetRawText(tok.TagName)
	}
	return tok
}

func (t *Tokenizer) emitEOF() Token {
	t.done = true
	return Token{Type: TokenEOF}
}

func char(r rune) Token { return Token{Type: TokenCharacter, Char: r} }

// Next returns the next token.
func (t *Tokenizer) Next() Token {
	if t.done {
		return Token{Type: TokenEOF}
	}
	if len(t.pending) > 0 {
		r := t.pending[0]
		t.pending = t.pending[1:]
		return char(r)
	}
	for {
		switch t.state {
		case stateData:
			r := t.next()
			switch {
			case r == eof:
				return t.emitEOF()
			case r == '<':
				t.state = stateTagOpen
			case r == '&':
				return t.charRef()
			default:
				return char(r)
			}

		case stateTagOpen:
			r := t.peek()
			switch {
			case r == '!':
				t.pos++
				t.state = stateMarkupDeclaration
			case r == '/':
				t.pos++
				t.state = stateEndTagOpen
			case r == '?':
				t.state = stateBogusComment
			case isASCIIAlpha(r):
				t.startTag(false)
				t.state = stateTagName
			default:
				t.state = stateData
				return char('<')
			}

		case stateEndTagOpen:
			r := t.peek()
			switch {
			case isASCIIAlpha(r):
				t.startTag(true)
				t.state = stateTagName
			case r == '>':
				t.pos++
				t.state = stateData
			case r == eof:
				t.pending = append(t.pending, '/')
				t.state = stateData
				return char('<')
			default:
				t.state = stateBogusComment
			}

		case stateTagName:
			r := t.next()
			switch {
			case isSpace(r):
				t.state = stateBeforeAttributeName
			case r == '/':
				t.state = stateSelfClosingStartTag
			case r == '>':
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.tagName.WriteRune(toLower(r))
			}

		case stateBeforeAttributeName:
			r := t.next()
			switch {
			case isSpace(r):
			case r == '/':
				t.state = stateSelfClosingStartTag
			case r == '>':
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.attrName.WriteRune(toLower(r))
				t.state = stateAttributeName
			}

		case stateAttributeName:
			r := t.next()
			switch {
			case isSpace(r):
				t.state = stateAfterAttributeName
			case r == '/':
				t.commitAttr()
				t.state = stateSelfClosingStartTag
			case r == '=':
				t.state = stateBeforeAttributeValue
			case r == '>':
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.attrName.WriteRune(toLower(r))
			}

		case stateAfterAttributeName:
			r := t.next()
			switch {
			case isSpace(r):
			case r == '/':
				t.commitAttr()
				t.state = stateSelfClosingStartTag
			case r == '=':
				t.state = stateBeforeAttributeValue
			case r == '>':
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.commitAttr()
				t.attrName.WriteRune(toLower(r))
				t.state = stateAttributeName
			}

		case stateBeforeAttributeValue:
			r := t.next()
			switch {
			case isSpace(r):
			case r == '"':
				t.state = stateAttributeValueDoubleQuoted
			case r == '\'':
				t.state = stateAttributeValueSingleQuoted
			case r == '>':
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.attrVal.WriteRune(r)
				t.state = stateAttributeValueUnquoted
			}

		case stateAttributeValueDoubleQuoted, stateAttributeValueSingleQuoted:
			quote := '"'
			if t.state == stateAttributeValueSingleQuoted {
				quote = '\''
			}
			r := t.next()
			switch r {
			case quote:
				t.commitAttr()
				t.state = stateAfterAttributeValueQuoted
			case eof:
				return t.emitEOF()
			default:
				t.attrVal.WriteRune(r)
			}

		case stateAttributeValueUnquoted:
			r := t.next()
			switch {
			case isSpace(r):
				t.commitAttr()
				t.state = stateBeforeAttributeName
			case r == '>':
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.attrVal.WriteRune(r)
			}

		case stateAfterAttributeValueQuoted:
			r := t.peek()
			switch {
			case isSpace(r):
				t.pos++
				t.state = stateBeforeAttributeName
			case r == '/':
				t.pos++
				t.state = stateSelfClosingStartTag
			case r == '>':
				t.pos++
				return t.emitTag()
			case r == eof:
				return t.emitEOF()
			default:
				t.state = stateBeforeAttributeName
			}

		case stateSelfClosingStartTag:
			r := t.peek()
			switch r {
			case '>':
				t.pos++
				t.tag.SelfClosing = true
				return t.emitTag()
			case eof:
				return t.emitEOF()
			default:
				t.state = stateBeforeAttributeName
			}

		case stateMarkupDeclaration:
			if bytes.HasPrefix(t.input[t.pos:], []byte("--")) {
				t.pos += 2
				t.skipComment()
				t.state = stateData
				continue
			}
			// <!DOCTYPE ...> and anything else up to '>'
			t.state = stateBogusComment

		case stateBogusComment:
			if i := bytes.IndexByte(t.input[t.pos:], '>'); i >= 0 {
				t.pos += i + 1
			} else {
				t.pos = len(t.input)
			}
			t.state = stateData

		case stateRawText:
			if t.atRawTextEnd() {
				t.state = stateTagOpen
				t.pos++ // '<'
				continue
			}
			r := t.next()
			if r == eof {
				return t.emitEOF()
			}
			return char(r)
		}
	}
}

// atRawTextEnd reports whether input at pos is "</rawTag" followed by a
// whitespace, '/' or '>'.
func (t *Tokenizer) atRawTextEnd() bool {
	rest := t.input[t.pos:]
	n := len(t.rawTag) + 2
	if len(rest) < n || rest[0] != '<' || rest[1] != '/' {
		return false
	}
	if !strings.EqualFold(string(rest[2:n]), t.rawTag) {
		return false
	}
	if len(rest) == n {
		return true
	}
	switch rest[n] {
	case ' ', '\t', '\n', '\r', '\f', '/', '>':
		return true
	}
	return false
}

func (t *Tokenizer) skipComment() {
	for t.pos+2 < len(t.input) {
		if t.input[t.pos] == '-' && t.input[t.pos+1] == '-' && t.input[t.pos+2] == '>' {
			t.pos += 3
			return
		}
		t.pos++
	}
	t.pos = len(t.input)
}

// charRef decodes a character reference starting after '&'. Unknown
// references pass through verbatim.
func (t *Tokenizer) charRef() Token {
	end := t.pos
	for end < len(t.input) && end-t.pos < 32 {
		c := t.input[end]
		if c == ';' {
			end++
			break
		}
		if !(c == '#' || isASCIIAlnumByte(c)) {
			break
		}
		end++
	}
	raw := "&" + string(t.input[t.pos:end])
	decoded := gohtml.UnescapeString(raw)
	if decoded == raw || end == t.pos {
		return char('&')
	}
	t.pos = end
	rs := []rune(decoded)
	t.pending = append(t.pending, rs[1:]...)
	return char(rs[0])
}

// Tokenize collects every token of input, ending with a single TokenEOF.
func Tokenize(input []byte) []Token {
	t := NewTokenizer(input)
	var out []Token
	for {
		tok := t.Next()
		out = append(out, tok)
		if tok.Type == TokenEOF {
			return out
		}
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func isASCIIAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnumByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 'a' - 'A'
	}
	return r
}
