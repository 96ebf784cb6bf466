package html

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// ScriptHost runs the source of a script element against the document being
// built. It is called synchronously when the script element closes.
type ScriptHost interface {
	Execute(doc *Document, source string) error
}

// StyleFetcher loads the text of an external stylesheet.
type StyleFetcher func(href string) (string, error)

// ScriptReport records a script that failed while the document was built.
type ScriptReport struct {
	Node NodeID
	Err  error
}

type InsertionMode int

const (
	ModeInitial InsertionMode = iota
	ModeBeforeHTML
	ModeBeforeHead
	ModeInHead
	ModeAfterHead
	ModeInBody
	ModeText
	ModeAfterBody
	ModeAfterAfterBody
)

func (m InsertionMode) String() string {
	return [...]string{"Initial", "BeforeHTML", "BeforeHead", "InHead", "AfterHead",
		"InBody", "Text", "AfterBody", "AfterAfterBody"}[m]
}

type Parser struct {
	tokenizer *Tokenizer
	doc       *Document
	stack     []NodeID
	mode      InsertionMode
	// mode to return to when a raw text element closes
	originalMode InsertionMode

	html, head, body NodeID

	host         ScriptHost
	styleFetcher StyleFetcher
	logger       *zap.Logger
	reports      []ScriptReport
	external     map[NodeID]string

	text       strings.Builder
	textTarget NodeID
}

func NewParser(input []byte) *Parser {
	doc := NewDocument()
	return &Parser{
		tokenizer: NewTokenizer(input),
		doc:       doc,
		stack:     []NodeID{doc.Root()},
		html:      InvalidNode,
		head:      InvalidNode,
		body:      InvalidNode,
		logger:    zap.NewNop(),
		external:  make(map[NodeID]string),
	}
}

// SetScriptHost enables script execution during parsing.
func (p *Parser) SetScriptHost(h ScriptHost) { p.host = h }

func (p *Parser) SetStyleFetcher(f StyleFetcher) { p.styleFetcher = f }

func (p *Parser) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	p.logger = l.Named("html")
}

// ScriptReports returns the scripts that failed during Parse.
func (p *Parser) ScriptReports() []ScriptReport { return p.reports }

// Mode returns the current insertion mode.
func (p *Parser) Mode() InsertionMode { return p.mode }

// Parse consumes the whole input. It never fails; malformed markup is
// repaired.
func (p *Parser) Parse() *Document {
	for {
		tok := p.tokenizer.Next()
		p.process(tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return p.doc
}

// ExternalStyles returns stylesheet text loaded for link elements, keyed by node.
func (p *Parser) ExternalStyles() map[NodeID]string { return p.external }

// process dispatches one token on the current insertion mode. A token that a
// mode cannot handle switches mode and is reprocessed.
func (p *Parser) process(tok Token) {
	if tok.Type != TokenCharacter {
		p.flushText(tok)
	}
	for {
		if p.step(tok) {
			return
		}
	}
}

func (p *Parser) step(tok Token) bool {
	switch p.mode {
	case ModeInitial:
		if isWhitespaceChar(tok) {
			return true
		}
		p.mode = ModeBeforeHTML
		return false

	case ModeBeforeHTML:
		switch {
		case isWhitespaceChar(tok):
			return true
		case tok.Type == TokenStartTag && tok.TagName == "html":
			p.html = p.insertElement(tok)
			p.mode = ModeBeforeHead
			return true
		case tok.Type == TokenEndTag && !isOneOf(tok.TagName, "head", "body", "html", "br"):
			return true
		}
		p.html = p.insertElement(Token{Type: TokenStartTag, TagName: "html"})
		p.mode = ModeBeforeHead
		return false

	case ModeBeforeHead:
		switch {
		case isWhitespaceChar(tok):
			return true
		case tok.Type == TokenStartTag && tok.TagName == "html":
			p.mergeAttributes(p.html, tok)
			return true
		case tok.Type == TokenStartTag && tok.TagName == "head":
			p.head = p.insertElement(tok)
			p.mode = ModeInHead
			return true
		case tok.Type == TokenStartTag && isHeadContent(tok.TagName):
			p.head = p.insertElement(Token{Type: TokenStartTag, TagName: "head"})
			p.mode = ModeInHead
			return false
		case tok.Type == TokenEndTag && !isOneOf(tok.TagName, "head", "body", "html", "br"):
			return true
		}
		p.mode = ModeAfterHead
		return false

	case ModeInHead:
		switch {
		case isWhitespaceChar(tok):
			p.insertCharacter(tok.Char)
			return true
		case tok.Type == TokenStartTag && isHeadContent(tok.TagName):
			p.startElement(tok)
			return true
		case tok.Type == TokenEndTag && tok.TagName == "head":
			p.popUntil("head")
			p.mode = ModeAfterHead
			return true
		case tok.Type == TokenStartTag && tok.TagName == "head":
			return true
		case tok.Type == TokenEndTag && !isOneOf(tok.TagName, "body", "html", "br"):
			return true
		}
		p.popUntil("head")
		p.mode = ModeAfterHead
		return false

	case ModeAfterHead:
		switch {
		case isWhitespaceChar(tok):
			p.insertCharacter(tok.Char)
			return true
		case tok.Type == TokenStartTag && tok.TagName == "body":
			p.body = p.insertElement(tok)
			p.mode = ModeInBody
			return true
		case tok.Type == TokenStartTag && isHeadContent(tok.TagName):
			// Late head content goes back into the head element.
			if p.head == InvalidNode {
				p.head = p.insertElement(Token{Type: TokenStartTag, TagName: "head"})
			} else {
				p.stack = append(p.stack, p.head)
			}
			p.mode = ModeInHead
			return false
		case tok.Type == TokenEndTag && !isOneOf(tok.TagName, "body", "html", "br"):
			return true
		}
		p.body = p.insertElement(Token{Type: TokenStartTag, TagName: "body"})
		p.mode = ModeInBody
		return false

	case ModeInBody:
		return p.inBody(tok)

	case ModeText:
		switch tok.Type {
		case TokenCharacter:
			p.insertCharacter(tok.Char)
		case TokenEndTag:
			p.closeRawText()
		case TokenEOF:
			p.closeRawText()
			return false
		}
		return true

	case ModeAfterBody:
		switch {
		case isWhitespaceChar(tok):
			return p.inBody(tok)
		case tok.Type == TokenEndTag && tok.TagName == "html":
			p.mode = ModeAfterAfterBody
			return true
		case tok.Type == TokenEOF:
			p.stack = p.stack[:1]
			return true
		}
		p.reopenBody()
		return false

	case ModeAfterAfterBody:
		switch {
		case isWhitespaceChar(tok):
			return p.inBody(tok)
		case tok.Type == TokenEOF:
			p.stack = p.stack[:1]
			return true
		}
		p.reopenBody()
		return false
	}
	return true
}

func (p *Parser) inBody(tok Token) bool {
	switch tok.Type {
	case TokenCharacter:
		p.insertCharacter(tok.Char)

	case TokenStartTag:
		switch {
		case tok.TagName == "html":
			p.mergeAttributes(p.html, tok)
		case tok.TagName == "body":
			p.mergeAttributes(p.body, tok)
		case tok.TagName == "head":
		case isOneOf(tok.TagName, "style", "script", "title", "link", "meta", "base"):
			p.startElement(tok)
		case tok.TagName == "li":
			p.closeListItem()
			p.startElement(tok)
		case isBlockElement(tok.TagName):
			p.autoCloseP()
			p.startElement(tok)
		default:
			p.startElement(tok)
		}

	case TokenEndTag:
		switch tok.TagName {
		case "body":
			if p.inStack("body") {
				p.mode = ModeAfterBody
			}
		case "html":
			if p.inStack("body") {
				p.mode = ModeAfterBody
				return false
			}
		case "br":
			p.startElement(Token{Type: TokenStartTag, TagName: "br"})
		case "p":
			if !p.inStack("p") {
				p.insertElement(Token{Type: TokenStartTag, TagName: "p"})
			}
			p.popUntil("p")
		default:
			p.closeTag(tok.TagName)
		}

	case TokenEOF:
		p.stack = p.stack[:1]
	}
	return true
}

// startElement inserts tok and, for raw text elements, switches to Text mode.
func (p *Parser) startElement(tok Token) {
	p.insertElement(tok)
	if isRawTextElement(tok.TagName) && !tok.SelfClosing {
		p.originalMode = p.mode
		p.mode = ModeText
	}
}

// insertElement creates an element for tok as the last child of the current
// node. Void and self-closing elements are not pushed.
func (p *Parser) insertElement(tok Token) NodeID {
	id := p.doc.CreateElement(tok.TagName)
	for _, a := range tok.Attributes {
		p.doc.SetAttribute(id, a.Name, a.Value)
	}
	_ = p.doc.AppendChild(p.current(), id)

	if tok.TagName == "link" {
		p.loadLink(id, tok)
	}
	if !isVoidElement(tok.TagName) && !tok.SelfClosing {
		p.stack = append(p.stack, id)
	}
	return id
}

func (p *Parser) mergeAttributes(target NodeID, tok Token) {
	if target == InvalidNode {
		return
	}
	for _, a := range tok.Attributes {
		if _, ok := p.doc.GetAttribute(target, a.Name); !ok {
			p.doc.SetAttribute(target, a.Name, a.Value)
		}
	}
}

// insertCharacter buffers c for the current node. Consecutive characters
// become one text node when the next non-character token arrives.
func (p *Parser) insertCharacter(c rune) {
	cur := p.current()
	if p.text.Len() > 0 && p.textTarget != cur {
		p.flushText(Token{Type: TokenEOF})
	}
	p.textTarget = cur
	p.text.WriteRune(c)
}

func (p *Parser) flushText(next Token) {
	if p.text.Len() == 0 {
		return
	}
	run := p.text.String()
	p.text.Reset()
	if strings.TrimLeft(run, " \t\n\r\f") == "" && !p.keepSpace(p.textTarget, next) {
		return
	}
	p.doc.AppendText(p.textTarget, run)
}

// keepSpace decides whether a whitespace-only run is kept. It is kept inside
// raw text and pre, and between inline siblings.
func (p *Parser) keepSpace(target NodeID, next Token) bool {
	if p.mode == ModeText || p.doc.TagName(target) == "pre" || p.inStack("pre") {
		return true
	}
	kids := p.doc.Children(target)
	if len(kids) == 0 {
		return false
	}
	last := kids[len(kids)-1]
	if p.doc.Type(last) == TextNode {
		return true
	}
	if tag := p.doc.TagName(last); isBlockElement(tag) || isHeadContent(tag) {
		return false
	}
	return next.Type == TokenStartTag && !isBlockElement(next.TagName) && !isHeadContent(next.TagName)
}

func (p *Parser) closeRawText() {
	el := p.current()
	p.stack = p.stack[:len(p.stack)-1]
	p.mode = p.originalMode
	if p.doc.TagName(el) == "script" {
		p.runScript(el)
	}
}

func (p *Parser) runScript(el NodeID) {
	if p.host == nil {
		return
	}
	if typ, ok := p.doc.GetAttribute(el, "type"); ok && !isScriptType(typ) {
		return
	}
	src := p.doc.TextContent(el)
	if err := p.host.Execute(p.doc, src); err != nil {
		p.logger.Warn("script failed", zap.Int("node", int(el)), zap.Error(err))
		p.reports = append(p.reports, ScriptReport{Node: el, Err: err})
	}
}

func isScriptType(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// loadLink loads the stylesheet a link element refers to.
func (p *Parser) loadLink(id NodeID, tok Token) {
	rel, _ := tok.Attr("rel")
	href, ok := tok.Attr("href")
	if !ok || !strings.Contains(strings.ToLower(rel), "stylesheet") {
		return
	}
	if css, ok := decodeDataStylesheet(href); ok {
		p.external[id] = css
		return
	}
	if p.styleFetcher == nil {
		return
	}
	css, err := p.styleFetcher(href)
	if err != nil {
		p.logger.Warn("stylesheet fetch failed", zap.String("href", href), zap.Error(err))
		return
	}
	p.external[id] = css
}

// decodeDataStylesheet decodes a data:text/css URI.
func decodeDataStylesheet(href string) (string, bool) {
	href = strings.TrimSpace(href)
	const prefix = "data:text/css,"
	if !strings.HasPrefix(href, prefix) {
		return "", false
	}
	encoded := href[len(prefix):]
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return encoded, true
	}
	return decoded, true
}

func (p *Parser) current() NodeID {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) inStack(tag string) bool {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.doc.TagName(p.stack[i]) == tag {
			return true
		}
	}
	return false
}

// popUntil pops the stack up to and including the nearest tag element.
func (p *Parser) popUntil(tag string) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.doc.TagName(p.stack[i]) == tag {
			p.stack = p.stack[:i]
			return
		}
	}
}

// closeTag pops the stack until the matching tag is found and closed.
// Unmatched end tags are ignored; html and body are never closed this way.
func (p *Parser) closeTag(tag string) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		name := p.doc.TagName(p.stack[i])
		if name == tag {
			p.stack = p.stack[:i]
			return
		}
		if name == "body" || name == "html" {
			return
		}
	}
}

// autoCloseP closes an open <p> element if one is on the stack
func (p *Parser) autoCloseP() {
	for i := len(p.stack) - 1; i >= 1; i-- {
		name := p.doc.TagName(p.stack[i])
		if name == "p" {
			p.stack = p.stack[:i]
			return
		}
		// Don't close past block-level containers
		if isBlockElement(name) || name == "body" {
			return
		}
	}
}

func (p *Parser) closeListItem() {
	for i := len(p.stack) - 1; i >= 1; i-- {
		name := p.doc.TagName(p.stack[i])
		if name == "li" {
			p.stack = p.stack[:i]
			return
		}
		if isOneOf(name, "ul", "ol", "body") {
			break
		}
	}
	p.autoCloseP()
}

func (p *Parser) reopenBody() {
	if p.body == InvalidNode {
		p.body = p.insertElement(Token{Type: TokenStartTag, TagName: "body"})
	} else if !p.inStack("body") {
		p.stack = append(p.stack[:1], p.html, p.body)
	}
	p.mode = ModeInBody
}

func isWhitespaceChar(tok Token) bool {
	return tok.Type == TokenCharacter && isSpace(tok.Char)
}

func isHeadContent(tag string) bool {
	return isOneOf(tag, "style", "script", "title", "meta", "link", "base")
}

// isBlockElement returns true for elements that auto-close <p>
func isBlockElement(tag string) bool {
	switch tag {
	case "address", "article", "aside", "blockquote", "details", "dialog",
		"dd", "div", "dl", "dt", "fieldset", "figcaption", "figure",
		"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hgroup", "hr", "li", "main", "nav", "ol",
		"p", "pre", "section", "table", "ul":
		return true
	}
	return false
}

func isOneOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Parse builds a document from input without running scripts.
func Parse(input []byte) *Document {
	return NewParser(input).Parse()
}

func ParseString(input string) *Document {
	return Parse([]byte(input))
}

// SetInnerHTML replaces the children of id with the nodes parsed from
// markup. Scripts in markup are not run.
func (d *Document) SetInnerHTML(id NodeID, markup string) {
	if !d.valid(id) {
		return
	}
	if d.nodes[id].Type == TextNode {
		d.SetTextContent(id, markup)
		return
	}
	d.SetTextContent(id, "")
	frag := ParseString(markup)
	for _, parent := range []NodeID{frag.Head(), frag.Body()} {
		if parent == InvalidNode {
			continue
		}
		for _, c := range frag.Children(parent) {
			d.AppendChild(id, d.importNode(frag, c))
		}
	}
}

// importNode copies the subtree at id in src into d, detached.
func (d *Document) importNode(src *Document, id NodeID) NodeID {
	n := src.Node(id)
	var out NodeID
	if n.Type == TextNode {
		out = d.CreateTextNode(n.Text)
	} else {
		out = d.CreateElement(n.TagName)
		for k, v := range n.Attributes {
			d.SetAttribute(out, k, v)
		}
	}
	for _, c := range n.Children {
		d.AppendChild(out, d.importNode(src, c))
	}
	return out
}
