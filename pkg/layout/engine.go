package layout

import (
	"go.uber.org/zap"

	"ember/pkg/css"
	"ember/pkg/html"
	"ember/pkg/text"
)

// Engine lays out a styled document into a box tree.
type Engine struct {
	viewport struct {
		width  float64
		height float64
	}
	metrics TextMetrics
	logger  *zap.Logger

	doc    *html.Document
	styles css.Styles
}

// NewLayoutEngine creates an engine for a viewport. Text is measured with
// fixed metrics until SetTextMetrics is called.
func NewLayoutEngine(viewportWidth, viewportHeight float64) *Engine {
	e := &Engine{metrics: text.NewFixedMetrics(), logger: zap.NewNop()}
	e.viewport.width = viewportWidth
	e.viewport.height = viewportHeight
	return e
}

// SetTextMetrics sets the capability used to measure text runs.
func (e *Engine) SetTextMetrics(m TextMetrics) {
	if m == nil {
		m = text.NewFixedMetrics()
	}
	e.metrics = m
}

func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.logger = logger.Named("layout")
}

// Viewport returns the viewport size.
func (e *Engine) Viewport() (width, height float64) {
	return e.viewport.width, e.viewport.height
}

// Layout builds the box tree for doc. The root box belongs to the
// document node and spans the viewport width.
func (e *Engine) Layout(doc *html.Document, styles css.Styles) *Box {
	e.doc, e.styles = doc, styles
	defer func() { e.doc, e.styles = nil, nil }()

	root := &Box{
		Node:  doc.Root(),
		Kind:  Block,
		Width: e.viewport.width,
		Style: e.styleOf(doc.Root()),
	}
	content := e.layoutChildren(root, doc.Children(doc.Root()), 0, 0, e.viewport.width)
	root.Height = content

	boxes := 0
	root.Walk(func(*Box) { boxes++ })
	e.logger.Debug("layout complete",
		zap.Int("boxes", boxes),
		zap.Float64("height", root.Height))
	return root
}

func (e *Engine) styleOf(id html.NodeID) *css.ComputedStyle {
	if s := e.styles.Of(id); s != nil {
		return s
	}
	return css.InitialStyle()
}

// generatesBox reports whether id is an element that is rendered.
func (e *Engine) generatesBox(id html.NodeID) bool {
	return e.doc.IsElement(id) && !e.styleOf(id).IsNone()
}

// safely runs fn, converting a panic into a zero-size box at (x, y).
func (e *Engine) safely(id html.NodeID, kind Kind, x, y float64, fn func() *Box) (box *Box) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("layout fault, using empty box",
				zap.Int("node", int(id)),
				zap.String("tag", e.doc.TagName(id)),
				zap.Any("panic", r))
			box = &Box{Node: id, Kind: kind, X: x, Y: y, Style: e.styleOf(id)}
		}
	}()
	return fn()
}
