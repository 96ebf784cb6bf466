// Package page ties the pipeline together for one loaded document: it
// decodes the response, builds the tree with scripts running, resolves
// style, lays out and produces the display list. Derived state is rebuilt
// whenever the document generation moves on.
package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ember/pkg/config"
	"ember/pkg/css"
	"ember/pkg/html"
	"ember/pkg/js"
	"ember/pkg/layout"
	"ember/pkg/render"
	"ember/pkg/resource"
	"ember/pkg/text"
)

// ErrNoDocument is returned by operations that need a loaded document.
var ErrNoDocument = errors.New("page: no document loaded")

// ErrScriptsDisabled is returned by Evaluate when scripting is off.
var ErrScriptsDisabled = errors.New("page: scripts disabled")

// Metrics measures text for layout and supplies faces for painting. Both
// must agree, so one value serves both.
type Metrics interface {
	layout.TextMetrics
	render.FaceSource
}

type Options struct {
	Width   float64
	Height  float64
	Scripts bool
	Engine  string
	Metrics Metrics
	Logger  *zap.Logger
}

// OptionsFromConfig derives page options from a loaded configuration.
func OptionsFromConfig(cfg config.Config, logger *zap.Logger) Options {
	if logger == nil {
		logger = zap.NewNop()
	}
	var metrics Metrics = text.NewFixedMetrics()
	if cfg.Fonts.Metrics == config.MetricsFont {
		fm := text.NewFontMetrics(text.FontConfig{Regular: cfg.Fonts.Regular, Bold: cfg.Fonts.Bold})
		fm.SetLogger(logger)
		metrics = fm
	}
	return Options{
		Width:   float64(cfg.Viewport.Width),
		Height:  float64(cfg.Viewport.Height),
		Scripts: cfg.Script.Enabled,
		Engine:  cfg.Script.Engine,
		Metrics: metrics,
		Logger:  logger,
	}
}

// Page holds one document and everything derived from it. A Page is not
// safe for concurrent use.
type Page struct {
	opts   Options
	logger *zap.Logger

	url      string
	doc      *html.Document
	external map[html.NodeID]string
	reports  []html.ScriptReport
	engine   ScriptEngine

	generation uint64
	styles     css.Styles
	root       *layout.Box
	display    render.DisplayList
}

func New(opts Options) *Page {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = text.NewFixedMetrics()
	}
	if opts.Engine == "" {
		opts.Engine = config.EngineBuiltin
	}
	return &Page{opts: opts, logger: opts.Logger.Named("page")}
}

// Navigate fetches uri and loads it. A non-2xx response with a body is
// still loaded, as browsers show error pages.
func (p *Page) Navigate(ctx context.Context, f *resource.DefaultFetcher, uri string) error {
	resp, err := f.Fetch(ctx, uri)
	if err != nil {
		if resp == nil || !errors.Is(err, resource.ErrStatus) {
			return fmt.Errorf("navigate %s: %w", uri, err)
		}
		p.logger.Warn("loading error page", zap.String("url", resp.URL), zap.Int("status", resp.StatusCode))
	}
	return p.Load(resp, f.WithBase(resp.URL).StyleFetcher(ctx))
}

// Load replaces the current document with the one in resp. styles loads
// linked stylesheets and may be nil.
func (p *Page) Load(resp *resource.Response, styles html.StyleFetcher) error {
	body, err := decodeBody(resp)
	if err != nil {
		return fmt.Errorf("load %s: %w", resp.URL, err)
	}

	p.reset()
	p.url = resp.URL

	parser := html.NewParser(body)
	parser.SetLogger(p.opts.Logger)
	parser.SetStyleFetcher(styles)
	if p.opts.Scripts {
		engine, err := newEngine(p.opts.Engine)
		if err != nil {
			return err
		}
		engine.SetLogger(p.opts.Logger)
		engine.SetURL(resp.URL)
		parser.SetScriptHost(engine)
		p.engine = engine
	}

	p.doc = parser.Parse()
	p.external = parser.ExternalStyles()
	p.reports = parser.ScriptReports()
	p.logger.Info("document loaded",
		zap.String("url", resp.URL),
		zap.Int("nodes", p.doc.Len()),
		zap.Int("script_faults", len(p.reports)))
	p.update()
	return nil
}

// LoadHTML loads markup given directly, with no linked stylesheets.
func (p *Page) LoadHTML(source string) error {
	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	return p.Load(&resource.Response{URL: "about:blank", StatusCode: http.StatusOK, Header: header, Body: []byte(source)}, nil)
}

func (p *Page) reset() {
	*p = Page{opts: p.opts, logger: p.logger}
}

// update recomputes style, layout and the display list when the document
// changed since they were built.
func (p *Page) update() {
	if p.doc == nil || (p.root != nil && p.generation == p.doc.Generation()) {
		return
	}
	resolver := css.NewResolver(css.CollectStylesheets(p.doc, p.external)...)
	resolver.SetLogger(p.opts.Logger)
	p.styles = resolver.Resolve(p.doc)

	engine := layout.NewLayoutEngine(p.opts.Width, p.opts.Height)
	engine.SetTextMetrics(p.opts.Metrics)
	engine.SetLogger(p.opts.Logger)
	p.root = engine.Layout(p.doc, p.styles)
	p.display = render.Build(p.doc, p.root)
	p.generation = p.doc.Generation()
	p.logger.Debug("page recomputed",
		zap.Uint64("generation", p.generation),
		zap.Int("items", len(p.display)))
}

func (p *Page) URL() string { return p.url }

func (p *Page) Document() *html.Document { return p.doc }

func (p *Page) Styles() css.Styles {
	p.update()
	return p.styles
}

func (p *Page) Root() *layout.Box {
	p.update()
	return p.root
}

func (p *Page) DisplayList() render.DisplayList {
	p.update()
	return p.display
}

// ScriptReports lists the scripts that failed while the document was built.
func (p *Page) ScriptReports() []html.ScriptReport { return p.reports }

// Console returns the console output of the page's scripts.
func (p *Page) Console() []js.ConsoleMessage {
	if p.engine == nil {
		return nil
	}
	return p.engine.Console()
}

// Title returns the text of the title element, trimmed.
func (p *Page) Title() string {
	if p.doc == nil {
		return ""
	}
	ids := p.doc.ElementsByTagName("title")
	if len(ids) == 0 {
		return ""
	}
	return strings.TrimSpace(text.CollapseSpace(p.doc.TextContent(ids[0])))
}

// ContentHeight is the height of the laid out document.
func (p *Page) ContentHeight() float64 {
	if root := p.Root(); root != nil {
		return root.Height
	}
	return 0
}

// Evaluate runs source against the loaded document in the page's script
// engine and returns the printed result. Mutations show up in the next
// call to Root or DisplayList.
func (p *Page) Evaluate(source string) (string, error) {
	if p.doc == nil {
		return "", ErrNoDocument
	}
	if p.engine == nil {
		return "", ErrScriptsDisabled
	}
	return p.engine.Evaluate(p.doc, source)
}

// Paint renders the page into r scrolled down by scrollY.
func (p *Page) Paint(r *render.Renderer, scrollY float64) {
	r.Render(p.DisplayList(), scrollY)
}
