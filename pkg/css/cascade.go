package css

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ember/pkg/html"
)

// DefaultUserAgentCSS holds the built-in styles. They rank below every
// author rule.
const DefaultUserAgentCSS = `
html, body, div, p, pre, blockquote, address, article, aside, footer, header,
nav, main, section, figure, figcaption, form, fieldset, hr, ul, ol, dl, dt,
dd, h1, h2, h3, h4, h5, h6, table, details, summary { display: block; }
li { display: list-item; }
head, style, script, title, meta, link, base, template, noscript { display: none; }

body { margin: 8px; }
p, blockquote, ul, ol, dl, pre { margin-top: 1em; margin-bottom: 1em; }
ul, ol { padding-left: 40px; }
dd { margin-left: 40px; }
h1 { font-size: 2em; font-weight: bold; margin-top: 0.67em; margin-bottom: 0.67em; }
h2 { font-size: 1.5em; font-weight: bold; margin-top: 0.83em; margin-bottom: 0.83em; }
h3 { font-size: 1.17em; font-weight: bold; margin-top: 1em; margin-bottom: 1em; }
h4 { font-weight: bold; margin-top: 1.33em; margin-bottom: 1.33em; }
h5 { font-size: 0.83em; font-weight: bold; }
h6 { font-size: 0.67em; font-weight: bold; }
b, strong, th { font-weight: bold; }
small { font-size: smaller; }
a { color: #0645ad; text-decoration: underline; }
u, ins { text-decoration: underline; }
s, del { text-decoration: line-through; }
pre { white-space: pre; }
`

var (
	uaOnce  sync.Once
	uaSheet *Stylesheet
)

// UserAgentStylesheet returns the parsed built-in stylesheet.
func UserAgentStylesheet() *Stylesheet {
	uaOnce.Do(func() {
		uaSheet = ParseStylesheet(DefaultUserAgentCSS)
	})
	return uaSheet
}

// Styles holds the computed style of every node, indexed by html.NodeID.
// Text nodes share their parent's style; detached nodes have none.
type Styles []*ComputedStyle

// Of returns the style of id, or nil.
func (s Styles) Of(id html.NodeID) *ComputedStyle {
	if id < 0 || int(id) >= len(s) {
		return nil
	}
	return s[id]
}

// Resolver computes styles from the user agent sheet plus author sheets.
type Resolver struct {
	ua     *Stylesheet
	author *Stylesheet
	logger *zap.Logger
}

// NewResolver merges sheets, in order, into one author stylesheet.
func NewResolver(sheets ...*Stylesheet) *Resolver {
	author := &Stylesheet{}
	for _, s := range sheets {
		author.Append(s)
	}
	return &Resolver{ua: UserAgentStylesheet(), author: author, logger: zap.NewNop()}
}

func (r *Resolver) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.logger = l.Named("css")
}

// Author returns the merged author stylesheet.
func (r *Resolver) Author() *Stylesheet { return r.author }

// Resolve computes the style of every node attached to the document. It
// does not modify doc, so calling it twice yields equal results.
func (r *Resolver) Resolve(doc *html.Document) Styles {
	styles := make(Styles, doc.Len())
	root := InitialStyle()
	styles[doc.Root()] = root
	for _, c := range doc.Children(doc.Root()) {
		r.resolveNode(doc, c, root, styles)
	}
	r.logger.Debug("styles resolved",
		zap.Int("nodes", doc.Len()),
		zap.Int("author_rules", len(r.author.Rules)))
	return styles
}

func (r *Resolver) resolveNode(doc *html.Document, id html.NodeID, parent *ComputedStyle, styles Styles) {
	if doc.Type(id) == html.TextNode {
		styles[id] = parent
		return
	}
	style := r.ComputeStyle(doc, id, parent)
	styles[id] = style
	for _, c := range doc.Children(id) {
		r.resolveNode(doc, c, style, styles)
	}
}

// ComputeStyle computes the final style for an element given its parent's
// computed style.
func (r *Resolver) ComputeStyle(doc *html.Document, id html.NodeID, parent *ComputedStyle) *ComputedStyle {
	var declared [NumProperties]string
	var set [NumProperties]bool
	apply := func(decls []Declaration, important bool) {
		for _, d := range decls {
			if d.Important != important {
				continue
			}
			if p, ok := LookupProperty(d.Property); ok {
				declared[p] = d.Value
				set[p] = true
			}
		}
	}

	// User agent styles first, then author rules by specificity and
	// source order, then the style attribute. Important declarations from
	// author rules and the style attribute are applied again on top.
	author := sortRules(FindMatchingRules(doc, id, r.author))
	var inline []Declaration
	if attr, ok := doc.GetAttribute(id, "style"); ok {
		inline = ParseDeclarations(attr)
	}
	for _, rule := range sortRules(FindMatchingRules(doc, id, r.ua)) {
		apply(rule.Declarations, false)
	}
	for _, important := range []bool{false, true} {
		for _, rule := range author {
			apply(rule.Declarations, important)
		}
		apply(inline, important)
	}

	return computeValues(declared, set, parent)
}

// sortRules orders rules by specificity, then source order, lowest first.
func sortRules(rules []Rule) []Rule {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Selector.Specificity != rules[j].Selector.Specificity {
			return rules[i].Selector.Specificity < rules[j].Selector.Specificity
		}
		return rules[i].SourceIndex < rules[j].SourceIndex
	})
	return rules
}

// computeValues turns declared values into computed values: inheritance,
// keyword handling and length normalization.
func computeValues(declared [NumProperties]string, set [NumProperties]bool, parent *ComputedStyle) *ComputedStyle {
	if parent == nil {
		parent = InitialStyle()
	}
	out := &ComputedStyle{}
	for i := Property(0); i < NumProperties; i++ {
		v := strings.ToLower(strings.TrimSpace(declared[i]))
		switch {
		case set[i] && v == "inherit":
			out.values[i] = parent.values[i]
		case set[i] && v == "initial":
			out.values[i] = initialValues[i]
		case set[i] && v != "":
			out.values[i] = v
		case i.Inherited():
			out.values[i] = parent.values[i]
		default:
			out.values[i] = initialValues[i]
		}
	}

	// font-size first; em lengths below depend on it.
	if set[PropFontSize] {
		out.values[PropFontSize] = formatPx(resolveFontSize(out.values[PropFontSize], parent.FontSize()))
	}
	fontSize := out.FontSize()
	for _, p := range []Property{
		PropWidth, PropHeight,
		PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft,
		PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft,
	} {
		out.values[p] = normalizeLength(out.values[p], fontSize, initialValues[p])
	}
	if _, ok := ParseColor(out.values[PropColor]); !ok {
		out.values[PropColor] = parent.values[PropColor]
	}
	if _, ok := ParseColor(out.values[PropBackgroundColor]); !ok {
		out.values[PropBackgroundColor] = initialValues[PropBackgroundColor]
	}
	return out
}

// normalizeLength converts absolute lengths to px and keeps auto and
// percentages. Invalid values fall back to fallback.
func normalizeLength(v string, fontSize float64, fallback string) string {
	if v == "auto" {
		return v
	}
	if strings.HasSuffix(v, "%") {
		if _, ok := ResolveLength(v, fontSize, 100); ok {
			return v
		}
		return fallback
	}
	px, ok := ResolveLength(v, fontSize, 0)
	if !ok {
		return fallback
	}
	return formatPx(px)
}

// CollectStylesheets gathers the style sources of doc in document order:
// the text of style elements and, for link elements, the sheet loaded for
// them in external.
func CollectStylesheets(doc *html.Document, external map[html.NodeID]string) []*Stylesheet {
	var sheets []*Stylesheet
	doc.Walk(doc.Root(), func(id html.NodeID) bool {
		switch doc.TagName(id) {
		case "style":
			sheets = append(sheets, ParseStylesheet(doc.TextContent(id)))
			return false
		case "link":
			if text, ok := external[id]; ok {
				sheets = append(sheets, ParseStylesheet(text))
			}
		}
		return true
	})
	return sheets
}

// ApplyStylesToDocument resolves doc against its own style sources.
func ApplyStylesToDocument(doc *html.Document, external map[html.NodeID]string) Styles {
	return NewResolver(CollectStylesheets(doc, external)...).Resolve(doc)
}
