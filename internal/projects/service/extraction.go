package service

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

// ExtractRequest configures one sprite sheet extraction. Zero values fall
// back to the service defaults; DetectBackground overrides Background.
type ExtractRequest struct {
	Sheet            []byte
	Background       string
	DetectBackground bool
	Tolerance        *int
	MinRegionPixels  *int
	Padding          *int
}

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func rectOf(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

type ExtractedRegion struct {
	Index  int    `json:"index"`
	Bounds Rect   `json:"bounds"`
	Crop   Rect   `json:"crop"`
	Pixels int    `json:"pixels"`
	Image  string `json:"image"`
}

type ExtractResult struct {
	Background string            `json:"background"`
	Regions    []ExtractedRegion `json:"regions"`
}

func (s *ProjectService) extractOptions(img image.Image, req ExtractRequest) (imaging.ExtractOptions, error) {
	opt := s.opt.Extract
	switch {
	case req.DetectBackground:
		opt.Background = imaging.DetectMatte(img, opt.Tolerance)
	case strings.TrimSpace(req.Background) != "":
		bg, err := imaging.ParseHexColor(req.Background)
		if err != nil {
			return opt, fmt.Errorf("%w: %v", imaging.ErrInvalidImage, err)
		}
		opt.Background = bg
	}
	if req.Tolerance != nil {
		opt.Tolerance = *req.Tolerance
	}
	if req.MinRegionPixels != nil {
		opt.MinRegionPixels = *req.MinRegionPixels
	}
	if req.Padding != nil {
		opt.Padding = *req.Padding
	}
	return opt, nil
}

func (s *ProjectService) extract(ctx context.Context, req ExtractRequest) ([]imaging.Region, imaging.ExtractOptions, error) {
	img, err := imaging.Decode(req.Sheet)
	if err != nil {
		return nil, imaging.ExtractOptions{}, err
	}
	opt, err := s.extractOptions(img, req)
	if err != nil {
		return nil, opt, err
	}
	regions, err := imaging.ExtractRegions(ctx, img, opt)
	return regions, opt, err
}

// ExtractTraits splits a sprite sheet into matted regions without touching
// any project.
func (s *ProjectService) ExtractTraits(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	regions, opt, err := s.extract(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &ExtractResult{Background: opt.Background.Hex(), Regions: make([]ExtractedRegion, 0, len(regions))}
	for i, r := range regions {
		data, err := imaging.EncodePNG(r.Image)
		if err != nil {
			return nil, err
		}
		out.Regions = append(out.Regions, ExtractedRegion{
			Index:  i,
			Bounds: rectOf(r.Bounds),
			Crop:   rectOf(r.Crop),
			Pixels: r.Pixels,
			Image:  imaging.PNGDataURL(data),
		})
	}
	return out, nil
}

// RegisterExtracted extracts a sheet and adds every region as a trait of
// layer. Each region keeps its place on the sheet by being drawn onto a
// transparent canvas at its padded rectangle.
func (s *ProjectService) RegisterExtracted(ctx context.Context, ownerID, id, layer string, req ExtractRequest) (*domain.Project, error) {
	layer = strings.TrimSpace(layer)
	if layer == "" {
		return nil, domain.ErrNameRequired
	}
	p, err := s.store.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.StatusPublished {
		return nil, domain.ErrProjectPublished
	}

	regions, _, err := s.extract(ctx, req)
	if err != nil {
		return nil, err
	}

	saved := make([]*assets.Saved, 0, len(regions))
	for _, r := range regions {
		placed := imaging.PlaceOnCanvas(r.Image, s.canvas(), r.Crop.Min)
		sv, err := s.storeCanvasImage(ctx, id, "traits", placed)
		if err != nil {
			discardAll(ctx, saved)
			return nil, err
		}
		saved = append(saved, sv)
	}

	out, err := s.store.Mutate(ctx, ownerID, id, func(p *domain.Project) error {
		name, err := s.ensureCategoryLayer(p, layer)
		if err != nil {
			return err
		}
		for i, sv := range saved {
			if err := p.AddTrait(name, domain.Trait{
				Name:        nextTraitName(p, name),
				Description: fmt.Sprintf("extracted region %d", i+1),
				ImageURL:    sv.Ref,
			}, false); err != nil {
				return err
			}
		}
		return domain.ValidateStructure(p.Layers)
	})
	if err != nil {
		discardAll(ctx, saved)
		return nil, err
	}
	return out, nil
}
