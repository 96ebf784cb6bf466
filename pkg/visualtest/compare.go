// Package visualtest compares rendered pages pixel by pixel.
package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Result describes how two images differ.
type Result struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest channel difference, 0-255
}

// Options configures a comparison.
type Options struct {
	// Tolerance is the largest per-channel difference still counted as equal.
	Tolerance int

	// FuzzyRadius lets a pixel match any expected pixel within this many
	// pixels, which absorbs one-pixel glyph shifts.
	FuzzyRadius int

	// MaxDifferentPercent accepts a mismatch when at most this share of
	// pixels differ.
	MaxDifferentPercent float64
}

// DefaultOptions allows small antialiasing differences.
func DefaultOptions() Options {
	return Options{Tolerance: 2}
}

// Compare compares actual against expected. Images of different sizes never
// match and return an error.
func Compare(actual, expected image.Image, opts Options) (Result, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return Result{}, fmt.Errorf("image sizes differ: actual=%v, expected=%v", ab.Size(), eb.Size())
	}
	res := Result{Match: true, TotalPixels: ab.Dx() * ab.Dy()}
	off := eb.Min.Sub(ab.Min)

	for y := ab.Min.Y; y < ab.Max.Y; y++ {
		for x := ab.Min.X; x < ab.Max.X; x++ {
			d := channelDiff(actual.At(x, y), expected.At(x+off.X, y+off.Y))
			res.MaxDifference = max(res.MaxDifference, d)
			if d <= opts.Tolerance {
				continue
			}
			if opts.FuzzyRadius > 0 && fuzzyMatch(actual, expected, x, y, off, opts) {
				continue
			}
			res.Match = false
			res.DifferentPixels++
		}
	}

	if !res.Match && opts.MaxDifferentPercent > 0 {
		pct := float64(res.DifferentPixels) / float64(res.TotalPixels) * 100
		res.Match = pct <= opts.MaxDifferentPercent
	}
	return res, nil
}

// Diff returns an image the size of actual with mismatched pixels in red
// and matching pixels in grey.
func Diff(actual, expected image.Image, tolerance int) image.Image {
	ab := actual.Bounds()
	off := expected.Bounds().Min.Sub(ab.Min)
	out := image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	for y := ab.Min.Y; y < ab.Max.Y; y++ {
		for x := ab.Min.X; x < ab.Max.X; x++ {
			p := image.Pt(x+off.X, y+off.Y)
			if p.In(expected.Bounds()) && channelDiff(actual.At(x, y), expected.At(p.X, p.Y)) <= tolerance {
				g := color.GrayModel.Convert(actual.At(x, y)).(color.Gray)
				out.Set(x-ab.Min.X, y-ab.Min.Y, color.RGBA{g.Y, g.Y, g.Y, 255})
				continue
			}
			out.Set(x-ab.Min.X, y-ab.Min.Y, color.RGBA{255, 0, 0, 255})
		}
	}
	return out
}

func fuzzyMatch(actual, expected image.Image, x, y int, off image.Point, opts Options) bool {
	c := actual.At(x, y)
	eb := expected.Bounds()
	for dy := -opts.FuzzyRadius; dy <= opts.FuzzyRadius; dy++ {
		for dx := -opts.FuzzyRadius; dx <= opts.FuzzyRadius; dx++ {
			p := image.Pt(x+off.X+dx, y+off.Y+dy)
			if !p.In(eb) {
				continue
			}
			if channelDiff(c, expected.At(p.X, p.Y)) <= opts.Tolerance {
				return true
			}
		}
	}
	return false
}

// channelDiff is the largest 8-bit channel difference between a and b.
func channelDiff(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absDiff(ar, br),
		absDiff(ag, bg),
		absDiff(ab, bb),
		absDiff(aa, ba),
	)
}

func absDiff(a, b uint32) int {
	d := int(a>>8) - int(b>>8)
	if d < 0 {
		return -d
	}
	return d
}

// ReadPNG decodes the PNG file at path.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// WritePNG encodes img to path.
func WritePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
