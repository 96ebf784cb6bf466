package text

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/math/fixed"
)

// Default cell geometry of FixedMetrics at a 16px font size.
const (
	DefaultCharWidth  = 8.0
	DefaultLineHeight = 1.25
)

// FixedMetrics measures text as a row of equal-width cells. Every rune
// advances CharWidth pixels at 16px, scaled linearly with the font size.
// The results are deterministic, which makes layout tests reproducible.
type FixedMetrics struct {
	CharWidth  float64
	LineHeight float64 // multiple of the font size
}

// NewFixedMetrics returns metrics with the default cell geometry.
func NewFixedMetrics() FixedMetrics {
	return FixedMetrics{CharWidth: DefaultCharWidth, LineHeight: DefaultLineHeight}
}

// Measure returns the advance width and line height of s. Bold text uses
// the same cells as regular text.
func (m FixedMetrics) Measure(s string, fontSize float64, bold bool) (width, height float64) {
	cw, lh := m.CharWidth, m.LineHeight
	if cw <= 0 {
		cw = DefaultCharWidth
	}
	if lh <= 0 {
		lh = DefaultLineHeight
	}
	scale := fontSize / 16
	return float64(utf8.RuneCountInString(s)) * cw * scale, fontSize * lh
}

// Face returns a new Go Mono face sized so that every glyph advances
// exactly one cell, which keeps painted text inside its measured fragment.
// Faces hold glyph caches; callers painting concurrently need their own.
func (m FixedMetrics) Face(fontSize float64, bold bool) (font.Face, error) {
	cw := m.CharWidth
	if cw <= 0 {
		cw = DefaultCharWidth
	}
	f, err := monoFont(bold)
	if err != nil {
		return nil, err
	}
	size := cw * fontSize / 16 / advanceRatio(f)
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingNone}), nil
}

// advanceRatio is the advance width of a monospaced glyph as a fraction of
// the em size.
func advanceRatio(f *truetype.Font) float64 {
	upem := f.FUnitsPerEm()
	adv := f.HMetric(fixed.Int26_6(upem), f.Index('0')).AdvanceWidth
	return float64(adv) / float64(upem)
}

var (
	monoOnce  sync.Once
	monoFonts [2]*truetype.Font
	monoErr   error
)

func monoFont(bold bool) (*truetype.Font, error) {
	monoOnce.Do(func() {
		for i, data := range [][]byte{gomono.TTF, gomonobold.TTF} {
			f, err := truetype.Parse(data)
			if err != nil {
				monoErr = fmt.Errorf("parse built-in mono font: %w", err)
				return
			}
			monoFonts[i] = f
		}
	})
	if monoErr != nil {
		return nil, monoErr
	}
	if bold {
		return monoFonts[1], nil
	}
	return monoFonts[0], nil
}
