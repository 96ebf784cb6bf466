package text

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontConfig holds paths to font files used for text measurement and
// painting. Empty paths select the built-in Go fonts.
type FontConfig struct {
	Regular string
	Bold    string
}

// Path returns the configured font path for the given weight.
func (fc FontConfig) Path(bold bool) string {
	if bold {
		return fc.Bold
	}
	return fc.Regular
}

type faceKey struct {
	size float64
	bold bool
}

// FontMetrics measures text with real outline fonts. Faces are loaded
// lazily per size and weight and cached. A FontMetrics is not safe for
// concurrent use.
type FontMetrics struct {
	config  FontConfig
	faces   map[faceKey]font.Face
	builtin map[bool]*truetype.Font
	logger  *zap.Logger
}

// NewFontMetrics creates font metrics for the given configuration.
func NewFontMetrics(config FontConfig) *FontMetrics {
	return &FontMetrics{
		config:  config,
		faces:   make(map[faceKey]font.Face),
		builtin: make(map[bool]*truetype.Font),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger used to report font loading problems.
func (m *FontMetrics) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.logger = logger.Named("text")
}

// Face returns the font face for a size and weight. A configured font
// file that cannot be loaded falls back to the built-in Go font.
func (m *FontMetrics) Face(fontSize float64, bold bool) (font.Face, error) {
	key := faceKey{size: fontSize, bold: bold}
	if face, ok := m.faces[key]; ok {
		return face, nil
	}

	var face font.Face
	if path := m.config.Path(bold); path != "" {
		f, err := gg.LoadFontFace(path, fontSize)
		if err == nil {
			face = f
		} else {
			m.logger.Warn("font load failed, using built-in font",
				zap.String("path", path), zap.Error(err))
		}
	}
	if face == nil {
		f, err := m.builtinFont(bold)
		if err != nil {
			return nil, err
		}
		face = truetype.NewFace(f, &truetype.Options{Size: fontSize})
	}
	m.faces[key] = face
	return face, nil
}

func (m *FontMetrics) builtinFont(bold bool) (*truetype.Font, error) {
	if f, ok := m.builtin[bold]; ok {
		return f, nil
	}
	data := goregular.TTF
	if bold {
		data = gobold.TTF
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse built-in font: %w", err)
	}
	m.builtin[bold] = f
	return f, nil
}

// Measure returns the advance width and line height of s. When no face
// can be loaded a rough estimate is returned instead.
func (m *FontMetrics) Measure(s string, fontSize float64, bold bool) (width, height float64) {
	face, err := m.Face(fontSize, bold)
	if err != nil {
		m.logger.Warn("measuring with estimate", zap.Error(err))
		return float64(len(s)) * fontSize * 0.6, fontSize * 1.2
	}
	advance := font.MeasureString(face, s)
	return float64(advance) / 64, float64(face.Metrics().Height) / 64
}
