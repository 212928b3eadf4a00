package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Placement is an image positioned on the canvas. Rect must have the
// image's exact size.
type Placement struct {
	Image image.Image
	Rect  image.Rectangle
}

// Composite draws layers over base in slice order using "over" blending.
// The canvas takes base's size. Nothing is scaled, and the result only
// depends on the inputs.
func Composite(base image.Image, layers []Placement) (*image.RGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty base image", ErrInvalidImage)
	}

	b := base.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, b.Min, draw.Src)

	for i, l := range layers {
		if l.Image == nil {
			return nil, fmt.Errorf("%w: layer %d has no image", ErrInvalidImage, i)
		}
		size := l.Image.Bounds().Size()
		if l.Rect.Size() != size {
			return nil, fmt.Errorf("%w: layer %d is %v but placed in %v", ErrDimensionMismatch, i, size, l.Rect.Size())
		}
		if !l.Rect.In(canvas.Bounds()) {
			return nil, fmt.Errorf("%w: layer %d at %v leaves canvas %v", ErrDimensionMismatch, i, l.Rect, canvas.Bounds())
		}
		draw.Draw(canvas, l.Rect, l.Image, l.Image.Bounds().Min, draw.Over)
	}
	return canvas, nil
}
