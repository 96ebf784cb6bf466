package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ember/pkg/page"
	"ember/pkg/render"
	"ember/pkg/text"
	"ember/pkg/visualtest"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_RendersPNG(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "site.css", "div { background-color: red; height: 100px }")
	input := writeFile(t, dir, "index.html",
		`<html><head><link rel="stylesheet" href="site.css"></head><body><div></div></body></html>`)
	output := filepath.Join(dir, "out.png")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-w", "200", "-h", "150", "-o", output, input}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("expected 200x150, got %v", b)
	}
	r, g, b, _ := img.At(50, 50).RGBA()
	if r != 0xffff || g != 0 || b != 0 {
		t.Errorf("expected red at (50,50), got %d,%d,%d", r, g, b)
	}
}

func TestRun_MatchesInProcessRender(t *testing.T) {
	src := `<html><head><style>p { color: navy } div { background-color: #336699; height: 40px }</style></head>` +
		`<body><p>Hello</p><div></div><p>world</p></body></html>`
	dir := t.TempDir()
	input := writeFile(t, dir, "index.html", src)
	output := filepath.Join(dir, "out.png")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-w", "300", "-h", "200", "-noscript", "-o", output, input}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	got, err := visualtest.ReadPNG(output)
	if err != nil {
		t.Fatal(err)
	}

	p := page.New(page.Options{Width: 300, Height: 200})
	if err := p.LoadHTML(src); err != nil {
		t.Fatal(err)
	}
	r := render.NewRenderer(300, 200, text.NewFixedMetrics())
	p.Paint(r, 0)

	res, err := visualtest.Compare(got, r.Image(), visualtest.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Match {
		if err := visualtest.WritePNG(visualtest.Diff(got, r.Image(), 2), filepath.Join(dir, "diff.png")); err == nil {
			t.Logf("diff written to %s", filepath.Join(dir, "diff.png"))
		}
		t.Errorf("%d of %d pixels differ", res.DifferentPixels, res.TotalPixels)
	}
}

func TestRun_Dumps(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "index.html",
		`<p id="x">a</p><script>document.getElementById("x").textContent = 1 + 2</script>`)

	tests := []struct {
		dump string
		want string
	}{
		{"dom", `"3"`},
		{"style", "[p]  display: block"},
		{"box", "[Block]  p"},
		{"display", `Text "3"`},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		if code := run([]string{"-dump", tt.dump, input}, &stdout, &stderr); code != 0 {
			t.Errorf("%s: exit %d: %s", tt.dump, code, stderr.String())
			continue
		}
		if !strings.Contains(stdout.String(), tt.want) {
			t.Errorf("%s: expected %q in\n%s", tt.dump, tt.want, stdout.String())
		}
	}
}

func TestRun_ScriptErrorsReported(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "index.html", `<script>nope()</script><script>console.log("ok")</script>`)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-engine", "goja", "-dump", "dom", input}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "script error:") {
		t.Errorf("expected script error on stderr, got %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "console: ok") {
		t.Errorf("expected console output on stderr, got %q", stderr.String())
	}
}

func TestRun_BadArguments(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "index.html", "<p>x</p>")
	badConfig := writeFile(t, dir, "bad.toml", "[viewport]\nwidht = 1\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no target", nil, 2},
		{"unknown flag", []string{"-bogus", input}, 2},
		{"unknown dump", []string{"-dump", "tree", input}, 2},
		{"bad engine", []string{"-engine", "v8", input}, 1},
		{"bad config", []string{"-config", badConfig, input}, 1},
		{"missing file", []string{filepath.Join(dir, "absent.html")}, 1},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(tt.args, &stdout, &stderr); code != tt.code {
			t.Errorf("%s: expected exit %d, got %d (%s)", tt.name, tt.code, code, stderr.String())
		}
	}
}
