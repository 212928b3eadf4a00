package service

import (
	"fmt"
	"image"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
)

// PreviewTrait is one overlay of a preview. Image is a data URL or bare
// base64; At is its top-left corner on the canvas.
type PreviewTrait struct {
	Image string
	At    image.Point
}

// ComposePreview draws traits over base in slice order and returns the PNG.
// Nothing is stored and no project is involved.
func ComposePreview(base string, traits []PreviewTrait) ([]byte, error) {
	canvas, err := decodeInline(base)
	if err != nil {
		return nil, fmt.Errorf("base image: %w", err)
	}

	placements := make([]imaging.Placement, len(traits))
	for i, t := range traits {
		img, err := decodeInline(t.Image)
		if err != nil {
			return nil, fmt.Errorf("trait %d: %w", i, err)
		}
		placements[i] = imaging.Placement{
			Image: img,
			Rect:  image.Rectangle{Min: t.At, Max: t.At.Add(img.Bounds().Size())},
		}
	}

	out, err := imaging.Composite(canvas, placements)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(out)
}

func decodeInline(s string) (*image.NRGBA, error) {
	data, err := imaging.DecodeImageString(s)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.ToNRGBA(img), nil
}
