// Package render turns a laid out page into pixels. Build flattens the box
// tree into a DisplayList; Renderer paints a display list with gg.
package render

import (
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"ember/pkg/css"
	"ember/pkg/layout"
)

// FaceSource supplies font faces for text items. text.FixedMetrics and
// text.FontMetrics both implement it.
type FaceSource interface {
	Face(size float64, bold bool) (font.Face, error)
}

type faceKey struct {
	size float64
	bold bool
}

type Renderer struct {
	context    *gg.Context
	faces      FaceSource
	cache      map[faceKey]font.Face
	background css.Color
	logger     *zap.Logger
}

// NewRenderer creates a white canvas of the given size.
func NewRenderer(width, height int, faces FaceSource) *Renderer {
	return &Renderer{
		context:    gg.NewContext(width, height),
		faces:      faces,
		cache:      make(map[faceKey]font.Face),
		background: css.Color{R: 255, G: 255, B: 255, A: 255},
		logger:     zap.NewNop(),
	}
}

func (r *Renderer) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.logger = logger.Named("render")
}

// SetBackground sets the color the canvas is cleared to.
func (r *Renderer) SetBackground(c css.Color) { r.background = c }

// Render clears the canvas and paints dl in order, shifted up by scrollY.
func (r *Renderer) Render(dl DisplayList, scrollY float64) {
	r.setColor(r.background)
	r.context.Clear()

	width, height := r.Size()
	canvas := layout.Rect{Width: float64(width), Height: float64(height)}
	for _, it := range dl {
		rect := it.Rect
		rect.Y -= scrollY
		if !finite(rect) || rect.Y+rect.Height < 0 || rect.Y > float64(height) {
			continue
		}
		switch it.Kind {
		case ItemRect:
			rect = clip(rect, canvas)
			if rect.Width <= 0 || rect.Height <= 0 {
				continue
			}
			r.setColor(it.Color)
			r.context.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
			r.context.Fill()
		case ItemText:
			r.drawText(it, rect.X, rect.Y)
		}
	}
}

// clip intersects r with c so the rasterizer only sees canvas-sized paths.
func clip(r, c layout.Rect) layout.Rect {
	x0, y0 := max(r.X, c.X), max(r.Y, c.Y)
	x1, y1 := min(r.X+r.Width, c.X+c.Width), min(r.Y+r.Height, c.Y+c.Height)
	return layout.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (r *Renderer) drawText(it Item, x, y float64) {
	face, err := r.face(it.FontSize, it.Bold)
	if err != nil {
		r.logger.Warn("no font face", zap.Float64("size", it.FontSize), zap.Error(err))
		return
	}
	r.context.SetFontFace(face)
	r.setColor(it.Color)

	// Fragments are positioned by their top edge; gg draws on the baseline.
	baseline := y + float64(face.Metrics().Ascent.Ceil())
	r.context.DrawString(it.Text, x, baseline)

	if it.Underline {
		thickness := max(it.FontSize/12.0, 1)
		r.context.SetLineWidth(thickness)
		underlineY := baseline + it.FontSize*0.1
		r.context.DrawLine(x, underlineY, x+it.Rect.Width, underlineY)
		r.context.Stroke()
	}
}

// face returns the face for a size and weight, asking the source once per
// renderer.
func (r *Renderer) face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size, bold}
	if f, ok := r.cache[key]; ok {
		return f, nil
	}
	f, err := r.faces.Face(size, bold)
	if err != nil {
		return nil, err
	}
	r.cache[key] = f
	return f, nil
}

func (r *Renderer) setColor(c css.Color) {
	r.context.SetRGBA255(int(c.R), int(c.G), int(c.B), int(c.A))
}

// Size returns the canvas size in pixels.
func (r *Renderer) Size() (int, int) {
	return r.context.Width(), r.context.Height()
}

// Image returns the canvas. It is overwritten by the next Render.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func (r *Renderer) SavePNG(filename string) error {
	if err := r.context.SavePNG(filename); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

// EncodePNG writes the canvas to w as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	return r.context.EncodePNG(w)
}
