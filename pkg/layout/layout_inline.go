package layout

import (
	"ember/pkg/css"
	"ember/pkg/html"
	"ember/pkg/text"
)

// lineBuilder places inline content on successive lines inside a
// containing block, breaking greedily at word boundaries.
type lineBuilder struct {
	e     *Engine
	left  float64
	width float64

	y      float64 // top of the current line
	x      float64 // pen offset from left
	height float64 // tallest item on the current line
	used   bool    // the current line has content
	space  bool    // a collapsible space is pending before the next word
	line   int

	// last fragment placed, for merging words of one text node
	tail struct {
		owner *Box
		index int
		line  int
	}
}

func newLineBuilder(e *Engine, left, top, width float64) *lineBuilder {
	return &lineBuilder{e: e, left: left, y: top, width: width}
}

func (lb *lineBuilder) pen() float64 { return lb.left + lb.x }

// newline ends the current line. An empty line still advances by
// minHeight.
func (lb *lineBuilder) newline(minHeight float64) {
	lb.y += max(lb.height, minHeight)
	lb.x, lb.height = 0, 0
	lb.used, lb.space = false, false
	lb.line++
	lb.tail.owner = nil
}

// breakLine ends the current line if it has content.
func (lb *lineBuilder) breakLine() {
	if lb.used {
		lb.newline(0)
		return
	}
	lb.x, lb.space = 0, false
	lb.tail.owner = nil
}

// finish closes the last line and returns the y coordinate below it.
func (lb *lineBuilder) finish() float64 {
	lb.breakLine()
	return lb.y
}

func (lb *lineBuilder) measure(s string, style *css.ComputedStyle) (float64, float64) {
	return lb.e.metrics.Measure(s, style.FontSize(), style.Bold())
}

// layoutInlineContent lays out children into lb. Text fragments are owned
// by owner; element boxes become children of owner.
func (e *Engine) layoutInlineContent(owner *Box, children []html.NodeID, lb *lineBuilder) {
	for _, c := range children {
		switch e.doc.Type(c) {
		case html.TextNode:
			lb.placeText(owner, c, e.styleOf(c), e.doc.Node(c).Text)
		case html.ElementNode:
			if !e.generatesBox(c) {
				continue
			}
			if e.styleOf(c).IsBlock() {
				lb.breakLine()
				b := e.layoutBlock(c, lb.left, lb.y, lb.width)
				owner.Children = append(owner.Children, b)
				lb.y = bottom(b)
				continue
			}
			owner.Children = append(owner.Children, e.layoutInline(c, lb))
		}
	}
}

// layoutInline lays out an inline element. Its geometry is the union of
// its fragments and child boxes.
func (e *Engine) layoutInline(id html.NodeID, lb *lineBuilder) *Box {
	return e.safely(id, Inline, lb.pen(), lb.y, func() *Box {
		style := e.styleOf(id)
		b := &Box{Node: id, Kind: Inline, Style: style}
		if e.doc.TagName(id) == "br" {
			_, h := lb.measure("", style)
			b.X, b.Y, b.Height = lb.pen(), lb.y, h
			lb.height = max(lb.height, h)
			lb.newline(h)
			return b
		}

		startX, startY := lb.pen(), lb.y
		e.layoutInlineContent(b, e.doc.Children(id), lb)

		var r Rect
		for _, f := range b.Fragments {
			r = r.Union(f.Rect())
		}
		for _, c := range b.Children {
			r = r.Union(c.Rect())
		}
		if r.Width <= 0 && r.Height <= 0 {
			r = Rect{X: startX, Y: startY}
		}
		b.X, b.Y, b.Width, b.Height = r.X, r.Y, r.Width, r.Height
		return b
	})
}

// placeText adds the text of one text node to the current lines.
func (lb *lineBuilder) placeText(owner *Box, node html.NodeID, style *css.ComputedStyle, s string) {
	if style.PreserveWhitespace() {
		for i, line := range text.Lines(s) {
			if i > 0 {
				_, h := lb.measure("", style)
				lb.newline(h)
			}
			if line != "" {
				lb.place(owner, node, style, line, false)
			}
		}
		return
	}

	collapsed := text.CollapseSpace(s)
	if collapsed == "" {
		return
	}
	if collapsed[0] == ' ' {
		lb.space = true
	}
	for i, word := range text.SplitWords(collapsed) {
		if i > 0 {
			lb.space = true
		}
		lb.place(owner, node, style, word, true)
	}
	if collapsed[len(collapsed)-1] == ' ' {
		lb.space = true
	}
}

// place puts one unbreakable run on the current line, wrapping first if it
// would overflow. A run wider than an empty line is placed anyway.
func (lb *lineBuilder) place(owner *Box, node html.NodeID, style *css.ComputedStyle, run string, wrap bool) {
	w, h := lb.measure(run, style)
	gap := 0.0
	if lb.used && lb.space {
		gap, _ = lb.measure(" ", style)
	}
	if wrap && lb.used && lb.x+gap+w > lb.width {
		lb.newline(0)
		gap = 0
	}

	if t := lb.tail; t.owner == owner && t.line == lb.line && owner.Fragments[t.index].Node == node {
		f := &owner.Fragments[t.index]
		if gap > 0 {
			f.Text += " "
		}
		f.Text += run
		f.Width, h = lb.measure(f.Text, style)
		lb.x = f.X + f.Width - lb.left
		f.Height = max(f.Height, h)
	} else {
		owner.Fragments = append(owner.Fragments, Fragment{
			Node:   node,
			Text:   run,
			X:      lb.pen() + gap,
			Y:      lb.y,
			Width:  w,
			Height: h,
			Style:  style,
		})
		lb.x += gap + w
		lb.tail.owner, lb.tail.index, lb.tail.line = owner, len(owner.Fragments)-1, lb.line
	}
	lb.height = max(lb.height, h)
	lb.used, lb.space = true, false
}
