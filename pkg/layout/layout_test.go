package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ember/pkg/css"
	"ember/pkg/html"
	"ember/pkg/text"
)

// layoutMarkup parses and lays out markup with fixed 8px-per-character
// metrics and a 20px line height at the default font size.
func layoutMarkup(t *testing.T, markup string, metrics TextMetrics) (*html.Document, *Box) {
	t.Helper()
	doc := html.ParseString(markup)
	styles := css.ApplyStylesToDocument(doc, nil)
	engine := NewLayoutEngine(800, 600)
	if metrics != nil {
		engine.SetTextMetrics(metrics)
	}
	return doc, engine.Layout(doc, styles)
}

func boxOf(t *testing.T, doc *html.Document, root *Box, id string) *Box {
	t.Helper()
	n, ok := doc.GetElementByID(id)
	require.True(t, ok, "no element #%s", id)
	b := root.Find(n)
	require.NotNil(t, b, "no box for #%s", id)
	return b
}

func fragmentTexts(b *Box) []string {
	var out []string
	for _, f := range b.Fragments {
		out = append(out, f.Text)
	}
	return out
}

func TestLayout_SiblingBlocksStack(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="a">one</div><div id="b">two</div>`, nil)
	a := boxOf(t, doc, root, "a")
	b := boxOf(t, doc, root, "b")

	if a.Kind != Block || b.Kind != Block {
		t.Fatalf("expected block boxes, got %v %v", a.Kind, b.Kind)
	}
	if b.Y != a.Y+a.Height {
		t.Errorf("second.Y = %v, expected first.Y + first.Height = %v", b.Y, a.Y+a.Height)
	}
	if a.X != 8 || a.Y != 8 || a.Width != 784 || a.Height != 20 {
		t.Errorf("unexpected first box %+v", a.Rect())
	}
}

func TestLayout_VerticalStacking(t *testing.T) {
	doc, root := layoutMarkup(t, `<body style="margin:0"><div id="a" style="height:50px"></div><div id="b" style="height:50px"></div><div id="c" style="height:50px"></div></body>`, nil)
	ys := []float64{boxOf(t, doc, root, "a").Y, boxOf(t, doc, root, "b").Y, boxOf(t, doc, root, "c").Y}
	assert.Equal(t, []float64{0, 50, 100}, ys)
	assert.Equal(t, 150.0, root.Height)
}

func TestLayout_BoxModel(t *testing.T) {
	tests := []struct {
		name                string
		style               string
		x, y, width, height float64
	}{
		{"explicit size", "width:200px;height:100px", 8, 8, 200, 100},
		{"padding adds to border box", "width:100px;height:50px;padding:10px", 8, 8, 120, 70},
		{"auto width fills container", "height:10px;margin:10px", 18, 18, 764, 10},
		{"percent width", "width:50%;height:0", 8, 8, 392, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, root := layoutMarkup(t, `<div id="d" style="`+tt.style+`"></div>`, nil)
			got := boxOf(t, doc, root, "d").Rect()
			want := Rect{X: tt.x, Y: tt.y, Width: tt.width, Height: tt.height}
			if got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
		})
	}
}

func TestLayout_NestedBlocksUseMarginEdges(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="outer" style="padding:5px"><p id="p1">a</p><p id="p2">b</p></div>`, nil)
	outer := boxOf(t, doc, root, "outer")
	p1 := boxOf(t, doc, root, "p1")
	p2 := boxOf(t, doc, root, "p2")

	assert.Equal(t, outer.Y+5+16, p1.Y, "first child starts at content top plus its margin")
	assert.Equal(t, p1.Y+p1.Height+16+16, p2.Y, "bottom margin edge plus own top margin")
	assert.Equal(t, bottom(p2)-outer.Y+5, outer.Height)
	assert.Equal(t, outer.X+5, p1.X)
}

func TestLayout_DisplayNoneGeneratesNoBox(t *testing.T) {
	doc, root := layoutMarkup(t, `<head><title>t</title><style>.gone{display:none}</style></head>
		<body><div class="gone" id="g"><p id="inner">x</p></div><p id="shown">y</p></body>`, nil)

	for _, id := range []string{"g", "inner"} {
		n, _ := doc.GetElementByID(id)
		assert.Nil(t, root.Find(n), "#%s must not have a box", id)
	}
	assert.Nil(t, root.Find(doc.Head()))
	assert.NotNil(t, boxOf(t, doc, root, "shown"))

	// The box tree mirrors the rendered elements one to one.
	elements := 0
	styles := css.ApplyStylesToDocument(doc, nil)
	doc.Walk(doc.Root(), func(id html.NodeID) bool {
		if doc.IsElement(id) {
			if styles.Of(id).IsNone() {
				return false
			}
			elements++
		}
		return true
	})
	boxes := 0
	root.Walk(func(*Box) { boxes++ })
	assert.Equal(t, elements+1, boxes, "one box per rendered element plus the root")
}

func TestLayout_GreedyWrapping(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="d" style="width:100px">aaaa bbbb cccc</div>`, nil)
	d := boxOf(t, doc, root, "d")
	require.Equal(t, []string{"aaaa bbbb", "cccc"}, fragmentTexts(d))
	assert.Equal(t, Fragment{Node: d.Fragments[0].Node, Text: "aaaa bbbb", X: 8, Y: 8, Width: 72, Height: 20, Style: d.Fragments[0].Style}, d.Fragments[0])
	assert.Equal(t, 28.0, d.Fragments[1].Y)
	assert.Equal(t, 40.0, d.Height)
	for _, f := range d.Fragments {
		assert.LessOrEqual(t, f.X+f.Width, d.X+d.Width)
	}
}

func TestLayout_LongWordOverflows(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="d" style="width:40px">abcdefghij k</div>`, nil)
	d := boxOf(t, doc, root, "d")
	assert.Equal(t, []string{"abcdefghij", "k"}, fragmentTexts(d))
	assert.Equal(t, 80.0, d.Fragments[0].Width)
}

func TestLayout_LineBreaks(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="d">a<br>b<br><br>c</div>`, nil)
	d := boxOf(t, doc, root, "d")
	require.Equal(t, []string{"a", "b", "c"}, fragmentTexts(d))
	assert.Equal(t, []float64{8, 28, 68}, []float64{d.Fragments[0].Y, d.Fragments[1].Y, d.Fragments[2].Y})
	assert.Equal(t, 80.0, d.Height)
}

func TestLayout_Preformatted(t *testing.T) {
	doc, root := layoutMarkup(t, `<pre id="p">a  b
 c</pre>`, nil)
	p := boxOf(t, doc, root, "p")
	require.Equal(t, []string{"a  b", " c"}, fragmentTexts(p))
	assert.Equal(t, p.Fragments[0].Y+20, p.Fragments[1].Y)
	assert.Equal(t, 32.0, p.Fragments[0].Width)
}

func TestLayout_InlineBoxIsUnionOfFragments(t *testing.T) {
	doc, root := layoutMarkup(t, `<p id="p">aa <b id="b">bb cc</b></p>`, nil)
	p := boxOf(t, doc, root, "p")
	b := boxOf(t, doc, root, "b")

	assert.Equal(t, Inline, b.Kind)
	assert.Equal(t, []string{"aa"}, fragmentTexts(p))
	assert.Equal(t, []string{"bb cc"}, fragmentTexts(b))
	assert.Equal(t, Rect{X: 32, Y: p.Y, Width: 40, Height: 20}, b.Rect())
}

func TestLayout_InlineWrapsAcrossElements(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="d" style="width:48px">aaa <span id="s">bbb ccc</span></div>`, nil)
	d := boxOf(t, doc, root, "d")
	s := boxOf(t, doc, root, "s")

	assert.Equal(t, []string{"aaa"}, fragmentTexts(d))
	assert.Equal(t, []string{"bbb", "ccc"}, fragmentTexts(s))
	assert.Equal(t, Rect{X: 8, Y: d.Y + 20, Width: 24, Height: 40}, s.Rect())
	assert.Equal(t, 60.0, d.Height)
}

func TestLayout_BlockInsideInline(t *testing.T) {
	doc, root := layoutMarkup(t, `<div id="d"><span id="s">a<div id="inner">b</div>c</span></div>`, nil)
	d := boxOf(t, doc, root, "d")
	inner := boxOf(t, doc, root, "inner")
	s := boxOf(t, doc, root, "s")

	assert.Equal(t, Block, inner.Kind)
	assert.Equal(t, d.Y+20, inner.Y)
	assert.Equal(t, []string{"a", "c"}, fragmentTexts(s))
	assert.Equal(t, inner.Y+20, s.Fragments[1].Y)
	assert.Equal(t, 60.0, d.Height)
}

func TestLayout_FontSizeDrivesLineHeight(t *testing.T) {
	doc, root := layoutMarkup(t, `<body style="margin:0"><h1 id="h" style="margin:0">Hi</h1><p id="p" style="margin:0">x</p></body>`, nil)
	h := boxOf(t, doc, root, "h")
	assert.Equal(t, 40.0, h.Height)
	assert.Equal(t, 32.0, h.Fragments[0].Width)
	assert.Equal(t, 40.0, boxOf(t, doc, root, "p").Y)
}

func TestLayout_WhitespaceBetweenBlocksIsIgnored(t *testing.T) {
	doc, root := layoutMarkup(t, "<div id=\"a\">x</div>\n   \n<div id=\"b\">y</div>", nil)
	a := boxOf(t, doc, root, "a")
	assert.Equal(t, bottom(a), boxOf(t, doc, root, "b").Y)
}

type panickingMetrics struct {
	text.FixedMetrics
	trigger string
}

func (m panickingMetrics) Measure(s string, size float64, bold bool) (float64, float64) {
	if strings.Contains(s, m.trigger) {
		panic("measure failed")
	}
	return m.FixedMetrics.Measure(s, size, bold)
}

func TestLayout_FaultBecomesEmptyBox(t *testing.T) {
	metrics := panickingMetrics{FixedMetrics: text.NewFixedMetrics(), trigger: "boom"}
	doc, root := layoutMarkup(t, `<div id="ok">fine</div><div id="bad">boom</div><div id="after">after</div>`, metrics)

	bad := boxOf(t, doc, root, "bad")
	after := boxOf(t, doc, root, "after")
	assert.Equal(t, Rect{X: 8, Y: 28, Width: 0, Height: 0}, bad.Rect())
	assert.Empty(t, bad.Fragments)
	assert.Equal(t, bad.Y, after.Y)
	assert.Equal(t, []string{"after"}, fragmentTexts(after))
}

func TestBox_HitTest(t *testing.T) {
	doc, root := layoutMarkup(t, `<p id="p">aa <a id="link" href="/x">bb cc</a></p><div id="d" style="height:30px"></div>`, nil)
	p := boxOf(t, doc, root, "p")
	link := boxOf(t, doc, root, "link")

	assert.Same(t, link, root.HitTest(40, p.Y+5))
	assert.Same(t, p, root.HitTest(10, p.Y+5), "text owned by the block hits the block")
	assert.Same(t, p, root.HitTest(700, p.Y+5))
	assert.Same(t, boxOf(t, doc, root, "d"), root.HitTest(100, bottom(p)+16+5))
	assert.Nil(t, root.HitTest(10, root.Height+100))
}

func TestRect_Union(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: 5, Width: 10, Height: 10}
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 30, Height: 15}, a.Union(b))
	assert.Equal(t, b, Rect{}.Union(b))
	assert.Equal(t, a, a.Union(Rect{}))
}
