package imaging

import (
	"image"
	"image/color"
)

var (
	grey = color.NRGBA{R: 184, G: 184, B: 184, A: 255}
	red  = color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	blue = color.NRGBA{R: 20, G: 40, B: 200, A: 255}
)

func filled(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Bounds(), c)
	return img
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func testOptions() ExtractOptions {
	opt := DefaultExtractOptions()
	opt.MinRegionPixels = 50
	opt.Padding = 4
	return opt
}
