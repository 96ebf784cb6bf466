package render

import (
	"fmt"
	"math"
	"strings"

	"ember/pkg/css"
	"ember/pkg/html"
	"ember/pkg/layout"
)

// ItemKind identifies what a display item paints.
type ItemKind int

const (
	// ItemRect fills a rectangle with a solid color.
	ItemRect ItemKind = iota
	// ItemText draws one text fragment.
	ItemText
	// ItemLink marks the area of a hyperlink. It paints nothing.
	ItemLink
)

func (k ItemKind) String() string {
	switch k {
	case ItemRect:
		return "Rect"
	case ItemText:
		return "Text"
	case ItemLink:
		return "Link"
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// Item is one paint operation.
type Item struct {
	Kind  ItemKind
	Node  html.NodeID
	Rect  layout.Rect
	Color css.Color

	// Text items
	Text      string
	FontSize  float64
	Bold      bool
	Underline bool

	// Link items
	Href string
}

func (it Item) String() string {
	r := it.Rect
	switch it.Kind {
	case ItemText:
		return fmt.Sprintf("Text %q at (%g,%g) size %g", it.Text, r.X, r.Y, it.FontSize)
	case ItemLink:
		return fmt.Sprintf("Link %s (%g,%g %gx%g)", it.Href, r.X, r.Y, r.Width, r.Height)
	}
	return fmt.Sprintf("Rect (%g,%g %gx%g) %s", r.X, r.Y, r.Width, r.Height, it.Color)
}

// DisplayList is the ordered list of paint operations for a page. Later
// items paint over earlier ones.
type DisplayList []Item

func (dl DisplayList) String() string {
	var sb strings.Builder
	for _, it := range dl {
		sb.WriteString(it.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Links returns the link items in paint order.
func (dl DisplayList) Links() []Item {
	var out []Item
	for _, it := range dl {
		if it.Kind == ItemLink {
			out = append(out, it)
		}
	}
	return out
}

// Build flattens a box tree into a display list. Each box contributes its
// background, then a link area if it is an anchor, then its own text, then
// its children.
func Build(doc *html.Document, root *layout.Box) DisplayList {
	if root == nil {
		return nil
	}
	var dl DisplayList
	var visit func(b *layout.Box)
	visit = func(b *layout.Box) {
		sized := finite(b.Rect())
		if b.Style != nil && sized {
			if bg, ok := b.Style.BackgroundColor(); ok && b.Width > 0 && b.Height > 0 {
				dl = append(dl, Item{Kind: ItemRect, Node: b.Node, Rect: b.Rect(), Color: bg})
			}
		}
		if href, ok := anchorHref(doc, b.Node); ok && sized {
			dl = append(dl, Item{Kind: ItemLink, Node: b.Node, Rect: b.Rect(), Href: href})
		}
		for _, f := range b.Fragments {
			if !finite(f.Rect()) {
				continue
			}
			style := f.Style
			if style == nil {
				style = css.InitialStyle()
			}
			dl = append(dl, Item{
				Kind:      ItemText,
				Node:      f.Node,
				Rect:      f.Rect(),
				Color:     style.Color(),
				Text:      f.Text,
				FontSize:  style.FontSize(),
				Bold:      style.Bold(),
				Underline: style.Underline(),
			})
		}
		for _, c := range b.Children {
			visit(c)
		}
	}
	visit(root)
	return dl
}

// finite reports whether every coordinate of r is a real number. Boxes
// sized from overflowing lengths paint nothing.
func finite(r layout.Rect) bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func anchorHref(doc *html.Document, id html.NodeID) (string, bool) {
	if doc == nil || doc.TagName(id) != "a" {
		return "", false
	}
	href, ok := doc.GetAttribute(id, "href")
	return href, ok
}
