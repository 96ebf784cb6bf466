// Command emberview is a small windowed browser: type a URL, click links.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"ember/pkg/config"
	"ember/pkg/logging"
	"ember/pkg/page"
	"ember/pkg/render"
	"ember/pkg/resource"
)

// pageView shows a rendered page and reports taps in page coordinates.
type pageView struct {
	widget.BaseWidget
	img    *canvas.Image
	onTap  func(x, y float64)
	width  float32
	height float32
}

func newPageView(width, height int) *pageView {
	v := &pageView{img: canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))}
	v.img.FillMode = canvas.ImageFillOriginal
	v.width, v.height = float32(width), float32(height)
	v.ExtendBaseWidget(v)
	return v
}

func (v *pageView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.img)
}

func (v *pageView) MinSize() fyne.Size {
	return fyne.NewSize(v.width, v.height)
}

func (v *pageView) Tapped(ev *fyne.PointEvent) {
	if v.onTap != nil {
		v.onTap(float64(ev.Position.X), float64(ev.Position.Y))
	}
}

func (v *pageView) show(img image.Image) {
	b := img.Bounds()
	v.width, v.height = float32(b.Dx()), float32(b.Dy())
	v.img.Image = img
	v.img.Refresh()
	v.Refresh()
}

type browser struct {
	cfg     config.Config
	logger  *zap.Logger
	fetcher *resource.DefaultFetcher

	window fyne.Window
	url    *widget.Entry
	status *widget.Label
	view   *pageView
	page   *page.Page
	cancel context.CancelFunc
	seq    int
}

// navigate loads uri on a goroutine and swaps the finished page in on the
// UI thread. A newer navigation cancels an older one still in flight, and
// a stale result is dropped. navigate must be called on the UI thread.
func (b *browser) navigate(uri string) {
	if b.cancel != nil {
		b.cancel()
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if t := b.cfg.Network.Timeout(); t > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), t)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	b.cancel = cancel
	b.seq++
	seq := b.seq
	b.status.SetText("Loading " + uri + "...")

	go func() {
		defer cancel()
		opts := page.OptionsFromConfig(b.cfg, b.logger)
		p := page.New(opts)
		err := p.Navigate(ctx, b.fetcher, uri)
		if err != nil {
			fyne.Do(func() {
				if seq == b.seq {
					b.status.SetText("Error: " + err.Error())
				}
			})
			return
		}
		height := max(b.cfg.Viewport.Height, int(p.ContentHeight()+0.5))
		r := render.NewRenderer(b.cfg.Viewport.Width, height, opts.Metrics)
		r.SetLogger(b.logger)
		p.Paint(r, 0)
		img := r.Image()

		fyne.Do(func() {
			if seq != b.seq {
				return
			}
			b.page = p
			b.view.show(img)
			b.url.SetText(p.URL())
			status := p.URL()
			if n := len(p.ScriptReports()); n > 0 {
				status = fmt.Sprintf("%s (%d script errors)", status, n)
			}
			b.status.SetText(status)
			title := "ember"
			if t := p.Title(); t != "" {
				title = t + " - ember"
			}
			b.window.SetTitle(title)
		})
	}()
}

func (b *browser) tapped(x, y float64) {
	if b.page == nil {
		return
	}
	if href, ok := b.page.LinkAt(x, y); ok {
		b.logger.Info("follow link", zap.String("href", href))
		b.navigate(href)
	}
}

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Must(cfg.Log)
	defer logger.Sync()

	a := app.New()
	w := a.NewWindow("ember")
	w.Resize(fyne.NewSize(float32(cfg.Viewport.Width), float32(cfg.Viewport.Height)+80))

	b := &browser{
		cfg:    cfg,
		logger: logger.Named("emberview"),
		fetcher: resource.NewFetcher("", resource.Options{
			Timeout:   cfg.Network.Timeout(),
			UserAgent: cfg.Network.UserAgent,
		}),
		window: w,
		url:    widget.NewEntry(),
		status: widget.NewLabel("Enter a URL and press Enter"),
		view:   newPageView(cfg.Viewport.Width, cfg.Viewport.Height),
	}
	b.fetcher.SetLogger(logger)
	b.view.onTap = b.tapped
	b.url.SetPlaceHolder("https://example.com")
	b.url.OnSubmitted = b.navigate

	content := container.NewBorder(b.url, b.status, nil, nil, container.NewVScroll(b.view))
	w.SetContent(content)
	// Focus the entry so Tab has somewhere to go.
	w.Canvas().Focus(b.url)

	if flag.NArg() > 0 {
		b.url.SetText(flag.Arg(0))
		b.navigate(flag.Arg(0))
	}
	w.ShowAndRun()
}
