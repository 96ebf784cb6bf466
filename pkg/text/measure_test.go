package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func TestFixedMetrics_Measure(t *testing.T) {
	m := NewFixedMetrics()
	tests := []struct {
		text   string
		size   float64
		width  float64
		height float64
	}{
		{"", 16, 0, 20},
		{"hello", 16, 40, 20},
		{"hello", 32, 80, 40},
		{"héllo", 16, 40, 20},
	}
	for _, tt := range tests {
		w, h := m.Measure(tt.text, tt.size, false)
		if w != tt.width || h != tt.height {
			t.Errorf("Measure(%q, %v): expected %vx%v, got %vx%v", tt.text, tt.size, tt.width, tt.height, w, h)
		}
	}

	var zero FixedMetrics
	if w, _ := zero.Measure("ab", 16, true); w != 16 {
		t.Errorf("zero value must use the default cell width, got %v", w)
	}
}

func TestFontMetrics_BuiltinFonts(t *testing.T) {
	m := NewFontMetrics(FontConfig{})

	short, h := m.Measure("abc", 16, false)
	long, _ := m.Measure("abcabc", 16, false)
	assert.Greater(t, short, 0.0)
	assert.InDelta(t, 2*short, long, 1)
	assert.Greater(t, h, 0.0)

	big, bigH := m.Measure("abc", 32, false)
	assert.Greater(t, big, short)
	assert.Greater(t, bigH, h)

	empty, _ := m.Measure("", 16, true)
	assert.Equal(t, 0.0, empty)
}

func TestFontMetrics_FaceCache(t *testing.T) {
	m := NewFontMetrics(FontConfig{})
	a, err := m.Face(16, false)
	require.NoError(t, err)
	b, err := m.Face(16, false)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := m.Face(16, true)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestFontMetrics_MissingFileFallsBack(t *testing.T) {
	m := NewFontMetrics(FontConfig{Regular: "/nonexistent/font.ttf"})
	face, err := m.Face(16, false)
	require.NoError(t, err)
	require.NotNil(t, face)

	ref := NewFontMetrics(FontConfig{})
	w1, _ := m.Measure("fallback", 16, false)
	w2, _ := ref.Measure("fallback", 16, false)
	assert.Equal(t, w2, w1)
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"a", "bb", "c"}, SplitWords("  a \n bb\tc "))
	assert.Empty(t, SplitWords(" \n\t"))
	assert.Equal(t, " a b ", CollapseSpace("\n  a \t\n b  "))
	assert.Equal(t, "ab", CollapseSpace("ab"))
	assert.Equal(t, []string{"one", " two", ""}, Lines("one\r\n two\n"))
}

func TestFixedMetrics_FaceMatchesCells(t *testing.T) {
	m := NewFixedMetrics()
	for _, size := range []float64{12, 16, 32} {
		for _, bold := range []bool{false, true} {
			face, err := m.Face(size, bold)
			require.NoError(t, err)
			want, _ := m.Measure("hello world", size, bold)
			got := float64(font.MeasureString(face, "hello world")) / 64
			assert.InDelta(t, want, got, 1, "size %v bold %v", size, bold)
		}
	}
}
