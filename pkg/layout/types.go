package layout

import (
	"ember/pkg/css"
	"ember/pkg/html"
)

// Kind distinguishes block-level boxes from inline-level boxes.
type Kind int

const (
	Block Kind = iota
	Inline
)

func (k Kind) String() string {
	if k == Inline {
		return "Inline"
	}
	return "Block"
}

// TextMetrics measures a run of text. It is supplied by the painter so
// that layout and painting agree on glyph sizes.
type TextMetrics interface {
	Measure(text string, fontSize float64, bold bool) (width, height float64)
}

// Box is one node of the box tree. X, Y, Width and Height describe the
// border box in document coordinates.
type Box struct {
	Node     html.NodeID
	Kind     Kind
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Margin   css.BoxEdge
	Padding  css.BoxEdge
	Style    *css.ComputedStyle
	Children []*Box

	// Fragments are the text runs owned by this box, placed on lines.
	Fragments []Fragment
}

// Fragment is a run of text from one text node placed on one line.
type Fragment struct {
	Node   html.NodeID
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Style  *css.ComputedStyle
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether the point lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Union returns the smallest rectangle containing r and o. An empty
// rectangle contributes nothing.
func (r Rect) Union(o Rect) Rect {
	if r.Width <= 0 && r.Height <= 0 {
		return o
	}
	if o.Width <= 0 && o.Height <= 0 {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.X+r.Width, o.X+o.Width), max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Rect returns the border box of b.
func (b *Box) Rect() Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// ContentRect returns the content box of b.
func (b *Box) ContentRect() Rect {
	return Rect{
		X:      b.X + b.Padding.Left,
		Y:      b.Y + b.Padding.Top,
		Width:  max(0, b.Width-b.Padding.Horizontal()),
		Height: max(0, b.Height-b.Padding.Vertical()),
	}
}

// Rect returns the area covered by f.
func (f Fragment) Rect() Rect {
	return Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

// Walk calls fn for b and each descendant in document order.
func (b *Box) Walk(fn func(*Box)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Find returns the box generated for node, or nil.
func (b *Box) Find(node html.NodeID) *Box {
	if b.Node == node {
		return b
	}
	for _, c := range b.Children {
		if found := c.Find(node); found != nil {
			return found
		}
	}
	return nil
}

// HitTest returns the deepest box whose area contains the point, or nil.
// Later siblings paint over earlier ones and are tested first. Inline
// boxes are hit through their fragments so that the gaps of a wrapped
// inline do not count.
func (b *Box) HitTest(x, y float64) *Box {
	if b.Kind == Block && !b.Rect().Contains(x, y) {
		return nil
	}
	for i := len(b.Children) - 1; i >= 0; i-- {
		if hit := b.Children[i].HitTest(x, y); hit != nil {
			return hit
		}
	}
	if b.Kind == Block {
		return b
	}
	for _, f := range b.Fragments {
		if f.Rect().Contains(x, y) {
			return b
		}
	}
	return nil
}
