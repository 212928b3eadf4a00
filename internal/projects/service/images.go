package service

import (
	"context"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
)

func (s *ProjectService) canvas() image.Point {
	return image.Pt(s.opt.CanvasSize, s.opt.CanvasSize)
}

// storeCanvasImage encodes a canvas-sized image and saves it under the
// project's prefix.
func (s *ProjectService) storeCanvasImage(ctx context.Context, projectID, kind string, img image.Image) (*assets.Saved, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("projects/%s/%s/%s.png", projectID, kind, uuid.New().String())
	return s.sink.SavePNG(ctx, key, data)
}

// ingestImage decodes uploaded or generated bytes, optionally removes the
// matte, and normalises the result to the canvas.
func (s *ProjectService) ingestImage(data []byte, removeMatte bool) (*image.NRGBA, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	if removeMatte {
		bg := imaging.DetectMatte(img, s.opt.Extract.Tolerance)
		img = imaging.RemoveMatte(img, bg, s.opt.Extract.Tolerance)
	}
	return imaging.Normalize(img, s.canvas()), nil
}

func discardAll(ctx context.Context, saved []*assets.Saved) {
	for _, sv := range saved {
		sv.Discard(ctx)
	}
}
