package layout

import (
	"ember/pkg/html"
)

// layoutBlock lays out a block-level element whose margin box starts at
// (x, y) inside a containing block of the given content width.
func (e *Engine) layoutBlock(id html.NodeID, x, y, containingWidth float64) *Box {
	return e.safely(id, Block, x, y, func() *Box {
		style := e.styleOf(id)
		b := &Box{
			Node:    id,
			Kind:    Block,
			Style:   style,
			Margin:  style.Margin(containingWidth),
			Padding: style.Padding(containingWidth),
		}
		b.X = x + b.Margin.Left
		b.Y = y + b.Margin.Top
		if w, ok := style.Width(containingWidth); ok {
			b.Width = w + b.Padding.Horizontal()
		} else {
			b.Width = max(0, containingWidth-b.Margin.Horizontal())
		}

		inner := max(0, b.Width-b.Padding.Horizontal())
		content := e.layoutChildren(b, e.doc.Children(id), b.X+b.Padding.Left, b.Y+b.Padding.Top, inner)
		if h, ok := style.Height(); ok {
			content = h
		}
		b.Height = content + b.Padding.Vertical()
		return b
	})
}

// layoutChildren lays out the children of a block container whose content
// box starts at (x, y) and returns the height they occupy. Block children
// stack vertically; runs of inline content between them form lines.
func (e *Engine) layoutChildren(parent *Box, children []html.NodeID, x, y, width float64) float64 {
	lb := newLineBuilder(e, x, y, width)
	e.layoutInlineContent(parent, children, lb)
	return lb.finish() - y
}

// bottom returns the bottom margin edge of a block box, where the next
// in-flow sibling starts.
func bottom(b *Box) float64 {
	return b.Y + b.Height + b.Margin.Bottom
}
