package css

import (
	"strings"
)

type SelectorType int

const (
	ElementSelector SelectorType = iota // div, p, span
	ClassSelector                       // .classname
	IDSelector                          // #idname
)

func (t SelectorType) String() string {
	switch t {
	case ClassSelector:
		return "class"
	case IDSelector:
		return "id"
	}
	return "tag"
}

// Selector is a single simple selector.
type Selector struct {
	Type        SelectorType
	Value       string // element name, class name, or id
	Specificity int
}

func (s Selector) String() string {
	switch s.Type {
	case ClassSelector:
		return "." + s.Value
	case IDSelector:
		return "#" + s.Value
	}
	return s.Value
}

// Declaration is one property: value pair. Value is the declared text with
// any !important marker removed.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule pairs one selector with its declarations. A selector group produces
// one Rule per selector, all sharing the same SourceIndex.
type Rule struct {
	Selector     Selector
	Declarations []Declaration
	SourceIndex  int
}

// Stylesheet holds rules in source order.
type Stylesheet struct {
	Rules []Rule
	next  int
}

// Append adds the rules of other after the rules of s, keeping source order
// across both sheets.
func (s *Stylesheet) Append(other *Stylesheet) {
	if other == nil {
		return
	}
	base := s.next
	last := -1
	for _, r := range other.Rules {
		r.SourceIndex += base
		s.Rules = append(s.Rules, r)
		last = r.SourceIndex
	}
	if last >= s.next {
		s.next = last + 1
	}
}

// ParseStylesheet parses style text into rules. It never fails: malformed
// rules and declarations are skipped and everything recoverable is kept.
func ParseStylesheet(text string) *Stylesheet {
	p := &sheetParser{toks: Tokenize(text)}
	return p.parse()
}

// ParseDeclarations parses a declaration list such as a style attribute.
// Shorthand properties are expanded.
func ParseDeclarations(text string) []Declaration {
	return parseDeclarationTokens(Tokenize(text))
}

// ParseSelectors parses a selector group such as "p, .note". ok is false
// when any selector in the group is unsupported.
func ParseSelectors(text string) ([]Selector, bool) {
	toks := Tokenize(text)
	return parseSelectorGroup(toks[:len(toks)-1])
}

type sheetParser struct {
	toks  []Token
	pos   int
	sheet Stylesheet
}

func (p *sheetParser) peek() Token {
	return p.toks[p.pos]
}

func (p *sheetParser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *sheetParser) parse() *Stylesheet {
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenEOF:
			return &p.sheet
		case TokenRBrace:
			// Stray close brace
			p.advance()
		case TokenAtKeyword:
			p.skipAtRule()
		default:
			p.parseQualifiedRule()
		}
	}
}

// skipAtRule skips an at-rule statement or block.
func (p *sheetParser) skipAtRule() {
	p.advance()
	for {
		tok := p.advance()
		switch tok.Type {
		case TokenEOF, TokenSemicolon:
			return
		case TokenLBrace:
			p.consumeBlock()
			return
		}
	}
}

// consumeBlock returns the tokens up to the brace closing an already
// consumed '{'. The closing brace is consumed too.
func (p *sheetParser) consumeBlock() []Token {
	depth := 1
	start := p.pos
	for {
		tok := p.advance()
		switch tok.Type {
		case TokenEOF:
			return p.toks[start:p.pos]
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
			if depth == 0 {
				return p.toks[start : p.pos-1]
			}
		}
	}
}

func (p *sheetParser) parseQualifiedRule() {
	var prelude []Token
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenEOF:
			return
		case TokenRBrace:
			// A close brace before any block discards the prelude.
			p.advance()
			return
		case TokenLBrace:
			p.advance()
			body := p.consumeBlock()
			selectors, ok := parseSelectorGroup(prelude)
			if !ok {
				return
			}
			decls := parseDeclarationTokens(append(body[:len(body):len(body)], Token{Type: TokenEOF}))
			idx := p.sheet.next
			p.sheet.next++
			for _, sel := range selectors {
				p.sheet.Rules = append(p.sheet.Rules, Rule{Selector: sel, Declarations: decls, SourceIndex: idx})
			}
			return
		}
		prelude = append(prelude, p.advance())
	}
}

// parseSelectorGroup accepts a comma separated list of simple selectors.
// Any unsupported selector invalidates the whole group.
func parseSelectorGroup(prelude []Token) ([]Selector, bool) {
	var out []Selector
	var part []Token
	flush := func() bool {
		sel, ok := parseSimpleSelector(part)
		if !ok {
			return false
		}
		out = append(out, sel)
		part = part[:0]
		return true
	}
	for _, tok := range prelude {
		if tok.Type == TokenComma {
			if !flush() {
				return nil, false
			}
			continue
		}
		part = append(part, tok)
	}
	if !flush() {
		return nil, false
	}
	return out, true
}

func parseSimpleSelector(toks []Token) (Selector, bool) {
	switch {
	case len(toks) == 1 && toks[0].Type == TokenIdent:
		return Selector{Type: ElementSelector, Value: strings.ToLower(toks[0].Value), Specificity: 1}, true
	case len(toks) == 1 && toks[0].Type == TokenHash && !isDigit(toks[0].Value[0]):
		return Selector{Type: IDSelector, Value: toks[0].Value, Specificity: 100}, true
	case len(toks) == 2 && toks[0].Type == TokenDelim && toks[0].Value == "." &&
		toks[1].Type == TokenIdent && !toks[1].SpaceBefore:
		return Selector{Type: ClassSelector, Value: toks[1].Value, Specificity: 10}, true
	}
	return Selector{}, false
}

// parseDeclarationTokens splits toks (ending in TokenEOF) on top level
// semicolons and keeps every well-formed declaration.
func parseDeclarationTokens(toks []Token) []Declaration {
	var decls []Declaration
	var cur []Token
	depth := 0
	for _, tok := range toks {
		switch tok.Type {
		case TokenLParen, TokenFunction, TokenLBracket, TokenLBrace:
			depth++
		case TokenRParen, TokenRBracket, TokenRBrace:
			if depth > 0 {
				depth--
			}
		}
		if (tok.Type == TokenSemicolon && depth == 0) || tok.Type == TokenEOF {
			if d, ok := parseDeclaration(cur); ok {
				decls = append(decls, expandShorthand(d)...)
			}
			cur = cur[:0]
			continue
		}
		cur = append(cur, tok)
	}
	return decls
}

func parseDeclaration(toks []Token) (Declaration, bool) {
	if len(toks) < 3 || toks[0].Type != TokenIdent || toks[1].Type != TokenColon {
		return Declaration{}, false
	}
	value := toks[2:]
	important := false
	if n := len(value); n >= 2 && value[n-2].Type == TokenDelim && value[n-2].Value == "!" &&
		value[n-1].Type == TokenIdent && strings.EqualFold(value[n-1].Value, "important") {
		value = value[:n-2]
		important = true
	}
	if len(value) == 0 {
		return Declaration{}, false
	}
	var sb strings.Builder
	for i, tok := range value {
		if i > 0 && tok.SpaceBefore {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.String())
	}
	return Declaration{
		Property:  strings.ToLower(toks[0].Value),
		Value:     sb.String(),
		Important: important,
	}, true
}

// expandShorthand expands margin and padding into their four sides.
// Supports: "10px" (all), "10px 20px" (vertical horizontal),
// "10px 20px 30px" (top h bottom), "10px 20px 30px 40px" (t r b l)
func expandShorthand(d Declaration) []Declaration {
	if d.Property != "margin" && d.Property != "padding" {
		return []Declaration{d}
	}
	parts := strings.Fields(d.Value)
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return nil
	}
	side := func(name, v string) Declaration {
		return Declaration{Property: d.Property + "-" + name, Value: v, Important: d.Important}
	}
	return []Declaration{side("top", top), side("right", right), side("bottom", bottom), side("left", left)}
}
