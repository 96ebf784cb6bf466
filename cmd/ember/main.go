// Command ember renders a page to a PNG file or dumps its trees.
//
//	ember [flags] <url-or-file>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"ember/pkg/config"
	"ember/pkg/debugdump"
	"ember/pkg/logging"
	"ember/pkg/page"
	"ember/pkg/render"
	"ember/pkg/resource"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ember", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML configuration file")
	width := fs.Int("w", 0, "viewport width in pixels (overrides config)")
	height := fs.Int("h", 0, "viewport height in pixels (overrides config)")
	output := fs.String("o", "output.png", "output PNG file path")
	engine := fs.String("engine", "", "script engine: builtin or goja (overrides config)")
	noScript := fs.Bool("noscript", false, "do not run scripts")
	dump := fs.String("dump", "", "print a tree instead of rendering: dom, style, box or display")
	scroll := fs.Float64("scroll", 0, "vertical scroll offset in pixels")
	full := fs.Bool("full", false, "size the image to the whole document")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ember [flags] <url-or-file>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	target := fs.Arg(0)

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *width > 0 {
		cfg.Viewport.Width = *width
	}
	if *height > 0 {
		cfg.Viewport.Height = *height
	}
	if *engine != "" {
		cfg.Script.Engine = *engine
	}
	if *noScript {
		cfg.Script.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := logging.Must(cfg.Log)
	defer logger.Sync()

	fetcher := resource.NewFetcher("", resource.Options{
		Timeout:   cfg.Network.Timeout(),
		UserAgent: cfg.Network.UserAgent,
	})
	fetcher.SetLogger(logger)

	opts := page.OptionsFromConfig(cfg, logger)
	p := page.New(opts)
	if err := p.Navigate(context.Background(), fetcher, target); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, r := range p.ScriptReports() {
		fmt.Fprintf(stderr, "script error: %v\n", r.Err)
	}
	for _, m := range p.Console() {
		fmt.Fprintf(stderr, "console: %s\n", m)
	}

	switch *dump {
	case "":
	case "dom":
		fmt.Fprint(stdout, debugdump.Document(p.Document()))
		return 0
	case "style":
		fmt.Fprint(stdout, debugdump.Styles(p.Document(), p.Styles()))
		return 0
	case "box":
		fmt.Fprint(stdout, debugdump.Boxes(p.Document(), p.Root()))
		return 0
	case "display":
		fmt.Fprint(stdout, p.DisplayList().String())
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown dump %q\n", *dump)
		return 2
	}

	h := cfg.Viewport.Height
	if *full {
		h = max(h, int(p.ContentHeight()+0.5))
	}
	renderer := render.NewRenderer(cfg.Viewport.Width, h, opts.Metrics)
	renderer.SetLogger(logger)
	p.Paint(renderer, *scroll)
	if err := renderer.SavePNG(*output); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("rendered",
		zap.String("url", p.URL()),
		zap.String("output", *output),
		zap.Int("items", len(p.DisplayList())))
	fmt.Fprintf(stdout, "Rendered %s to %s (%dx%d)\n", target, *output, cfg.Viewport.Width, h)
	return 0
}
