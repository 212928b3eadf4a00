package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
)

type RGB struct {
	R, G, B uint8
}

// DefaultBackground is the flat grey generated sprite sheets are rendered on.
var DefaultBackground = RGB{R: 184, G: 184, B: 184}

// ParseHexColor parses "#rrggbb" (or "rrggbb").
func ParseHexColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func (c RGB) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// Distance is the sum of per-channel absolute differences.
func (c RGB) Distance(r, g, b uint8) int {
	return absDiff(c.R, r) + absDiff(c.G, g) + absDiff(c.B, b)
}

// IsBackground reports whether a pixel is within tolerance of bg (strictly less).
func IsBackground(r, g, b uint8, bg RGB, tolerance int) bool {
	return bg.Distance(r, g, b) < tolerance
}

// DetectBackground guesses the matte colour of a sprite sheet from its dominant colour.
func DetectBackground(img image.Image) RGB {
	c := dominantcolor.Find(img)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// DetectMatte uses the colour shared by the four corners when they agree
// within tolerance and the dominant colour otherwise.
func DetectMatte(img image.Image, tolerance int) RGB {
	b := img.Bounds()
	if b.Empty() {
		return DefaultBackground
	}
	corners := [4]image.Point{
		b.Min,
		{X: b.Max.X - 1, Y: b.Min.Y},
		{X: b.Min.X, Y: b.Max.Y - 1},
		{X: b.Max.X - 1, Y: b.Max.Y - 1},
	}
	ref := rgbAt(img, corners[0])
	for _, p := range corners[1:] {
		c := rgbAt(img, p)
		if !IsBackground(c.R, c.G, c.B, ref, tolerance) {
			return DetectBackground(img)
		}
	}
	return ref
}

func rgbAt(img image.Image, p image.Point) RGB {
	c := color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
	return RGB{R: c.R, G: c.G, B: c.B}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
