package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode decodes PNG, JPEG, GIF or WebP bytes.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-size image", ErrInvalidImage)
	}
	return img, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ToNRGBA copies img into a new NRGBA image whose bounds start at the origin.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	// exact copy, the generic path rounds low-alpha colours
	if src, ok := img.(*image.NRGBA); ok {
		n := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+n], src.Pix[i:i+n])
		}
		return dst
	}

	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Normalize fits img inside a size canvas, keeping its aspect ratio and
// centering it on transparent pixels. Images already at size are copied as-is.
func Normalize(img image.Image, size image.Point) *image.NRGBA {
	b := img.Bounds()
	if b.Size() == size {
		return ToNRGBA(img)
	}

	w, h := size.X, size.Y
	if b.Dx()*size.Y > b.Dy()*size.X {
		h = max(1, b.Dy()*size.X/b.Dx())
	} else {
		w = max(1, b.Dx()*size.Y/b.Dy())
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	off := image.Pt((size.X-w)/2, (size.Y-h)/2)
	draw.CatmullRom.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, img, b, draw.Src, nil)
	return dst
}

// PlaceOnCanvas draws img onto a transparent canvas of the given size with its
// top-left corner at at. When img does not fit there it is centered, and when
// it is larger than the canvas it is scaled down first.
func PlaceOnCanvas(img image.Image, size, at image.Point) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() > size.X || b.Dy() > size.Y {
		return Normalize(img, size)
	}

	canvas := image.Rect(0, 0, size.X, size.Y)
	target := image.Rectangle{Min: at, Max: at.Add(b.Size())}
	if !target.In(canvas) {
		at = image.Pt((size.X-b.Dx())/2, (size.Y-b.Dy())/2)
		target = image.Rectangle{Min: at, Max: at.Add(b.Size())}
	}

	dst := image.NewNRGBA(canvas)
	draw.Draw(dst, target, img, b.Min, draw.Src)
	return dst
}
