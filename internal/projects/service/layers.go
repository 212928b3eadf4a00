package service

import (
	"context"
	"strings"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

// LayerPatch changes a layer; nil fields are left alone. A rename is
// applied before the parent and position changes.
type LayerPatch struct {
	Name        *string
	ParentLayer *string
	Position    *domain.Position
}

type TraitInput struct {
	Trait domain.Trait
	// ExplicitWeight keeps Trait.Rarity; otherwise the layer is renormalised.
	ExplicitWeight bool
}

// edit runs fn on the locked project and re-validates its structure.
func (s *ProjectService) edit(ctx context.Context, ownerID, id string, fn func(*domain.Project) error) (*domain.Project, error) {
	return s.store.Mutate(ctx, ownerID, id, func(p *domain.Project) error {
		if err := fn(p); err != nil {
			return err
		}
		return domain.ValidateStructure(p.Layers)
	})
}

func (s *ProjectService) AddLayer(ctx context.Context, ownerID, id string, l domain.Layer) (*domain.Project, error) {
	if l.Position.Width == 0 && l.Position.Height == 0 && l.Position.X == 0 && l.Position.Y == 0 {
		l.Position = domain.FullCanvas(s.opt.CanvasSize)
	}
	for i := range l.Traits {
		if strings.TrimSpace(l.Traits[i].Name) == "" {
			return nil, domain.ErrInvalidTrait
		}
	}
	return s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		return p.AddLayer(l)
	})
}

func (s *ProjectService) UpdateLayer(ctx context.Context, ownerID, id, name string, patch LayerPatch) (*domain.Project, error) {
	return s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		current := name
		if patch.Name != nil {
			if err := p.RenameLayer(current, *patch.Name); err != nil {
				return err
			}
			current = strings.TrimSpace(*patch.Name)
		}
		if patch.ParentLayer != nil {
			if err := p.ReparentLayer(current, *patch.ParentLayer); err != nil {
				return err
			}
		}
		if patch.Position != nil {
			if err := p.MoveLayer(current, *patch.Position); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ProjectService) DeleteLayer(ctx context.Context, ownerID, id, name string, cascade bool) (*domain.Project, error) {
	return s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		return p.DeleteLayer(name, cascade)
	})
}

// AddTrait adds a trait to a layer. Inline image data is normalised to the
// canvas and moved to the image store first.
func (s *ProjectService) AddTrait(ctx context.Context, ownerID, id, layer string, in TraitInput) (*domain.Project, error) {
	var saved *assets.Saved
	if ref := strings.TrimSpace(in.Trait.ImageURL); ref != "" && isInlineImage(ref) {
		data, err := imaging.DecodeImageString(ref)
		if err != nil {
			return nil, err
		}
		img, err := s.ingestImage(data, false)
		if err != nil {
			return nil, err
		}
		saved, err = s.storeCanvasImage(ctx, id, "traits", img)
		if err != nil {
			return nil, err
		}
		in.Trait.ImageURL = saved.Ref
	}

	out, err := s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		return p.AddTrait(layer, in.Trait, in.ExplicitWeight)
	})
	if err != nil {
		saved.Discard(ctx)
		return nil, err
	}
	return out, nil
}

func (s *ProjectService) RemoveTrait(ctx context.Context, ownerID, id, layer, trait string) (*domain.Project, error) {
	return s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		return p.RemoveTrait(layer, trait)
	})
}

func (s *ProjectService) SetRarities(ctx context.Context, ownerID, id, layer string, rarities map[string]float64) (*domain.Project, error) {
	return s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		return p.SetRarities(layer, rarities)
	})
}

func (s *ProjectService) NormalizeLayer(ctx context.Context, ownerID, id, layer string) (*domain.Project, error) {
	return s.edit(ctx, ownerID, id, func(p *domain.Project) error {
		return p.NormalizeLayer(layer)
	})
}

// isInlineImage reports whether ref carries image bytes rather than
// pointing at them.
func isInlineImage(ref string) bool {
	if imaging.IsDataURL(ref) {
		return true
	}
	return !strings.Contains(ref, "://")
}
