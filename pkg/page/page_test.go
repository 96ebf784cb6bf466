package page

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"ember/pkg/config"
	"ember/pkg/debugdump"
	"ember/pkg/js"
	"ember/pkg/layout"
	"ember/pkg/render"
	"ember/pkg/resource"
	"ember/pkg/text"
	"ember/pkg/visualtest"
)

func fixture(head []g.Node, body ...g.Node) string {
	var sb strings.Builder
	doc := h.HTML(
		h.Head(append([]g.Node{h.TitleEl(g.Text("Fixture"))}, head...)...),
		h.Body(body...),
	)
	if err := doc.Render(&sb); err != nil {
		panic(err)
	}
	return sb.String()
}

func script(src string) g.Node { return h.Script(g.Raw(src)) }

func newPage(engine string) *Page {
	return New(Options{Width: 400, Height: 300, Scripts: true, Engine: engine})
}

func texts(dl render.DisplayList) []string {
	var out []string
	for _, it := range dl {
		if it.Kind == render.ItemText {
			out = append(out, it.Text)
		}
	}
	return out
}

func textRect(t *testing.T, dl render.DisplayList, s string) layout.Rect {
	t.Helper()
	for _, it := range dl {
		if it.Kind == render.ItemText && it.Text == s {
			return it.Rect
		}
	}
	t.Fatalf("no text item %q in\n%s", s, dl)
	return layout.Rect{}
}

func TestLoad_ScriptResultIsRendered(t *testing.T) {
	for _, engine := range []string{config.EngineBuiltin, config.EngineGoja} {
		t.Run(engine, func(t *testing.T) {
			p := newPage(engine)
			src := fixture(nil,
				h.P(h.ID("out"), g.Text("pending")),
				script(`var a = 1; var b = 2; document.getElementById("out").textContent = a + b;`),
			)
			require.NoError(t, p.LoadHTML(src))

			assert.Equal(t, []string{"3"}, texts(p.DisplayList()), debugdump.Boxes(p.Document(), p.Root()))
			assert.Empty(t, p.ScriptReports())
			assert.Equal(t, "Fixture", p.Title())
		})
	}
}

func TestLoad_ScriptFaultIsIsolated(t *testing.T) {
	p := newPage(config.EngineBuiltin)
	src := fixture(nil,
		h.P(h.ID("a"), g.Text("one")),
		script(`document.getElementById("a").textContent = "changed"; missing();`),
		h.P(g.Text("two")),
		script(`console.log("still running")`),
	)
	require.NoError(t, p.LoadHTML(src))

	require.Len(t, p.ScriptReports(), 1)
	var rerr *js.RuntimeError
	require.True(t, errors.As(p.ScriptReports()[0].Err, &rerr))
	assert.Equal(t, js.ReferenceError, rerr.Kind)
	assert.Equal(t, []string{"changed", "two"}, texts(p.DisplayList()))
	require.Len(t, p.Console(), 1)
	assert.Equal(t, "still running", p.Console()[0].Text)
}

func TestLoad_ScriptsDisabled(t *testing.T) {
	p := New(Options{Width: 400, Height: 300})
	src := fixture(nil, h.P(h.ID("out"), g.Text("static")), script(`document.getElementById("out").textContent = "x"`))
	require.NoError(t, p.LoadHTML(src))

	assert.Equal(t, []string{"static"}, texts(p.DisplayList()))
	_, err := p.Evaluate("1 + 1")
	assert.True(t, errors.Is(err, ErrScriptsDisabled))
	assert.Nil(t, p.Console())
}

func TestEvaluate_NoDocument(t *testing.T) {
	_, err := newPage("").Evaluate("1")
	assert.True(t, errors.Is(err, ErrNoDocument))
}

func TestEvaluate_RecomputesLikeFreshLoad(t *testing.T) {
	p := newPage(config.EngineBuiltin)
	src := fixture(
		[]g.Node{h.StyleEl(g.Raw(".hot { background-color: red } li { color: blue }"))},
		h.Ul(h.ID("list"), h.Li(g.Text("one"))),
	)
	require.NoError(t, p.LoadHTML(src))
	before := p.DisplayList().String()

	out, err := p.Evaluate(`
		var li = document.createElement("li");
		li.className = "hot";
		li.textContent = "two";
		document.getElementById("list").appendChild(li);
		document.getElementById("list").childCount`)
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	after := p.DisplayList().String()
	assert.NotEqual(t, before, after)
	assert.Contains(t, after, `Text "two"`)

	fresh := New(Options{Width: 400, Height: 300})
	require.NoError(t, fresh.LoadHTML(p.Document().Serialize(p.Document().Root())))
	assert.Equal(t, fresh.DisplayList().String(), after)

	got, want := paint(p), paint(fresh)
	res, err := visualtest.Compare(got, want, visualtest.Options{})
	require.NoError(t, err)
	assert.True(t, res.Match, "%d pixels differ", res.DifferentPixels)
}

func paint(p *Page) image.Image {
	r := render.NewRenderer(400, 300, text.NewFixedMetrics())
	p.Paint(r, 0)
	return r.Image()
}

func TestRoot_StableWithoutMutation(t *testing.T) {
	p := newPage(config.EngineBuiltin)
	require.NoError(t, p.LoadHTML(fixture(nil, h.P(g.Text("x")))))
	root := p.Root()
	_, err := p.Evaluate(`var seen = document.getElementById("none")`)
	require.NoError(t, err)
	assert.Same(t, root, p.Root())
}

func TestLinkAt(t *testing.T) {
	p := newPage(config.EngineBuiltin)
	src := fixture(nil,
		h.P(h.A(h.Href("/next"), h.Span(g.Text("go")))),
		h.P(g.Text("plain")),
	)
	require.NoError(t, p.LoadHTML(src))

	require.Len(t, p.DisplayList().Links(), 1)
	r := textRect(t, p.DisplayList(), "go")

	href, ok := p.LinkAt(r.X+1, r.Y+1)
	assert.True(t, ok)
	assert.Equal(t, "/next", href)

	_, ok = p.LinkAt(r.X+1, r.Y+r.Height+40)
	assert.False(t, ok)
	_, ok = p.LinkAt(-5, -5)
	assert.False(t, ok)
}

func TestDecode_Charset(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   []byte
		want   string
	}{
		{"latin1 header", "text/html; charset=iso-8859-1", []byte("<p>caf\xe9</p>"), "café"},
		{"utf8 header", "text/html; charset=utf-8", []byte("<p>café</p>"), "café"},
		{"meta", "text/html", []byte(`<meta charset="windows-1252"><p>caf` + "\xe9</p>"), "café"},
		{"sniffed utf8", "", []byte("<p>café</p>"), "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Content-Type", tt.header)
			}
			p := newPage(config.EngineBuiltin)
			require.NoError(t, p.Load(&resource.Response{URL: "about:blank", Header: header, Body: tt.body}, nil))
			assert.Equal(t, []string{tt.want}, texts(p.DisplayList()))
		})
	}
}

func TestNavigate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/site/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(fixture(
			[]g.Node{h.Link(h.Rel("stylesheet"), h.Href("site.css"))},
			h.P(h.Class("box"), h.A(h.Href("next.html"), g.Text("next"))),
			script(`console.log(location.pathname)`),
		)))
	})
	mux.HandleFunc("/site/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte(".box { background-color: #00ff00 }"))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<p>not here</p>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := resource.NewFetcher("", resource.Options{})
	p := newPage(config.EngineGoja)
	require.NoError(t, p.Navigate(context.Background(), f, srv.URL+"/site/index.html"))

	dl := p.DisplayList()
	var green bool
	for _, it := range dl {
		if it.Kind == render.ItemRect && it.Color.G == 255 && it.Color.R == 0 {
			green = true
		}
	}
	assert.True(t, green, dl.String())

	r := textRect(t, dl, "next")
	href, ok := p.LinkAt(r.X+1, r.Y+1)
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/site/next.html", href)
	require.Len(t, p.Console(), 1)
	assert.Equal(t, "/site/index.html", p.Console()[0].Text)

	require.NoError(t, p.Navigate(context.Background(), f, srv.URL+"/gone"))
	assert.Equal(t, []string{"not here"}, texts(p.DisplayList()))

	err := p.Navigate(context.Background(), f, "ftp://example.com/")
	assert.True(t, errors.Is(err, resource.ErrUnsupported))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	opts := OptionsFromConfig(cfg, nil)
	assert.Equal(t, 800.0, opts.Width)
	assert.True(t, opts.Scripts)
	assert.IsType(t, text.FixedMetrics{}, opts.Metrics)

	cfg.Fonts.Metrics = config.MetricsFont
	opts = OptionsFromConfig(cfg, nil)
	assert.IsType(t, &text.FontMetrics{}, opts.Metrics)
}

func TestPaint(t *testing.T) {
	p := newPage(config.EngineBuiltin)
	require.NoError(t, p.LoadHTML(fixture(nil, h.Div(h.Style("background-color: #0000ff; height: 50px")))))
	r := render.NewRenderer(100, 100, text.NewFixedMetrics())
	p.Paint(r, 0)

	c := r.Image().At(20, 20)
	rr, gg, bb, _ := c.RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0xffff}, [3]uint32{rr, gg, bb})
}

func TestPaint_MalformedLengthsAreSkipped(t *testing.T) {
	p := newPage(config.EngineBuiltin)
	require.NoError(t, p.LoadHTML(fixture(
		[]g.Node{h.StyleEl(g.Raw("div { width: inf; height: nan; margin-left: 0x1p4; background-color: red }"))},
		h.Div(g.Text("hello world wraps here")),
	)))
	assert.NotContains(t, p.DisplayList().String(), "Inf")
	assert.NotContains(t, p.DisplayList().String(), "NaN")

	done := make(chan image.Image, 1)
	go func() { done <- paint(p) }()
	select {
	case img := <-done:
		rr, gg, bb, _ := img.At(300, 12).RGBA()
		assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{rr, gg, bb}, "width falls back to auto")
	case <-time.After(10 * time.Second):
		t.Fatal("paint did not finish")
	}
}
