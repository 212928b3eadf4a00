package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/generation"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// BatchPolicy decides what a trait batch does when some variations fail.
type BatchPolicy string

const (
	// PolicyContinue keeps the variations that succeeded and reports the rest.
	PolicyContinue BatchPolicy = "continue"
	// PolicyFailFast aborts the batch and stores nothing on the first failure.
	PolicyFailFast BatchPolicy = "fail_fast"
)

func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch BatchPolicy(s) {
	case PolicyContinue, PolicyFailFast:
		return BatchPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown batch policy %q", s)
	}
}

type TraitBatchRequest struct {
	Category         string
	Count            int
	Policy           BatchPolicy
	RemoveBackground bool
	Seed             *int64
}

type GeneratedTrait struct {
	Variation int    `json:"variation"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl"`
}

type TraitFailure struct {
	Variation int    `json:"variation"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

type TraitBatchReport struct {
	Layer     string           `json:"layer"`
	Policy    BatchPolicy      `json:"policy"`
	Requested int              `json:"requested"`
	Succeeded []GeneratedTrait `json:"succeeded"`
	Failed    []TraitFailure   `json:"failed"`
	Project   *domain.Project  `json:"project,omitempty"`
}

// GenerateBase generates the base character and installs it as the only
// trait of the Body layer.
func (s *ProjectService) GenerateBase(ctx context.Context, ownerID, id string, seed *int64) (*domain.Project, error) {
	p, err := s.store.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.StatusPublished {
		return nil, domain.ErrProjectPublished
	}

	res, err := s.generator.Generate(ctx, generation.ImageRequest{Prompt: p.Config.BasePrompt(), Seed: seed})
	if err != nil {
		return nil, err
	}
	img, err := s.ingestImage(res.Data, false)
	if err != nil {
		return nil, &generation.ServiceError{Op: "generate base", Err: err}
	}
	saved, err := s.storeCanvasImage(ctx, id, "base", img)
	if err != nil {
		return nil, err
	}

	out, err := s.store.Mutate(ctx, ownerID, id, func(p *domain.Project) error {
		return p.SetBaseCharacter(saved.Ref, s.opt.CanvasSize)
	})
	if err != nil {
		saved.Discard(ctx)
		return nil, err
	}
	return out, nil
}

type variationResult struct {
	saved *assets.Saved
	err   error
}

// GenerateTraits generates Count variations of a trait category and appends
// the successful ones to the category's layer with equal weights.
func (s *ProjectService) GenerateTraits(ctx context.Context, ownerID, id string, req TraitBatchRequest) (*TraitBatchReport, error) {
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		return nil, domain.ErrNameRequired
	}
	if req.Count < 1 || req.Count > s.opt.MaxTraitBatch {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", domain.ErrInvalidCount, s.opt.MaxTraitBatch)
	}
	if req.Policy == "" {
		req.Policy = s.opt.Policy
	}

	p, err := s.store.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.StatusPublished {
		return nil, domain.ErrProjectPublished
	}

	results := s.generateVariations(ctx, id, p.Config, req)

	report := &TraitBatchReport{
		Layer:     domain.TitleCase(req.Category),
		Policy:    req.Policy,
		Requested: req.Count,
		Succeeded: []GeneratedTrait{},
		Failed:    []TraitFailure{},
	}
	log := logger.FromContext(ctx).With().Str("project_id", id).Str("category", req.Category).Logger()
	var saved []*assets.Saved
	var firstErr error
	for i, r := range results {
		if r.err != nil {
			if firstErr == nil || (isContextErr(firstErr) && !isContextErr(r.err)) {
				firstErr = r.err
			}
			kind := failureKind(r.err)
			log.Warn().Err(r.err).Int("variation", i+1).Str("kind", kind).Msg("trait variation failed")
			report.Failed = append(report.Failed, TraitFailure{Variation: i + 1, Kind: kind, Message: r.err.Error()})
			continue
		}
		saved = append(saved, r.saved)
		report.Succeeded = append(report.Succeeded, GeneratedTrait{Variation: i + 1, ImageURL: r.saved.Ref})
	}

	if firstErr != nil && (req.Policy == PolicyFailFast || len(saved) == 0) {
		discardAll(ctx, saved)
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		discardAll(ctx, saved)
		return nil, err
	}

	out, err := s.store.Mutate(ctx, ownerID, id, func(p *domain.Project) error {
		layer, err := s.ensureCategoryLayer(p, req.Category)
		if err != nil {
			return err
		}
		report.Layer = layer
		for i := range report.Succeeded {
			name := nextTraitName(p, layer)
			report.Succeeded[i].Name = name
			if err := p.AddTrait(layer, domain.Trait{
				Name:        name,
				Description: fmt.Sprintf("%s variation %d", req.Category, report.Succeeded[i].Variation),
				ImageURL:    report.Succeeded[i].ImageURL,
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
	report.Project = out

	log.Info().
		Str("layer", report.Layer).
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Msg("trait batch finished")
	return report, nil
}

// generateVariations runs the generator for every variation on a bounded
// pool. Under fail-fast the first failure cancels the remaining calls.
func (s *ProjectService) generateVariations(ctx context.Context, projectID string, cfg domain.CharacterConfig, req TraitBatchRequest) []variationResult {
	results := make([]variationResult, req.Count)

	gctx := ctx
	var cancel context.CancelFunc = func() {}
	if req.Policy == PolicyFailFast {
		gctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var g errgroup.Group
	g.SetLimit(s.opt.Workers)
	for i := 0; i < req.Count; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			saved, err := s.generateVariation(gctx, projectID, cfg, req, i+1)
			results[i] = variationResult{saved: saved, err: err}
			if err != nil {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *ProjectService) generateVariation(ctx context.Context, projectID string, cfg domain.CharacterConfig, req TraitBatchRequest, variation int) (*assets.Saved, error) {
	var seed *int64
	if req.Seed != nil {
		v := *req.Seed + int64(variation)
		seed = &v
	}

	res, err := s.generator.Generate(ctx, generation.ImageRequest{
		Prompt: cfg.TraitPrompt(req.Category, variation),
		Seed:   seed,
	})
	if err != nil {
		return nil, err
	}
	img, err := s.ingestImage(res.Data, req.RemoveBackground)
	if err != nil {
		return nil, &generation.ServiceError{Op: "generate trait", Err: err}
	}
	return s.storeCanvasImage(ctx, projectID, "traits", img)
}

// ensureCategoryLayer returns the layer for a category, creating it under
// Body (or as a root for backgrounds) when missing.
func (s *ProjectService) ensureCategoryLayer(p *domain.Project, category string) (string, error) {
	if p.LayerIndex(category) >= 0 {
		return category, nil
	}
	name := domain.TitleCase(category)
	if p.LayerIndex(name) >= 0 {
		return name, nil
	}

	parent := ""
	if !strings.EqualFold(category, "background") {
		if p.LayerIndex(domain.BodyLayerName) >= 0 {
			parent = domain.BodyLayerName
		} else if p.LayerIndex(domain.RootLayerName) >= 0 {
			parent = domain.RootLayerName
		}
	}

	err := p.AddLayer(domain.Layer{
		Name:        name,
		Description: fmt.Sprintf("%s traits", category),
		ParentLayer: parent,
		Position:    domain.FullCanvas(s.opt.CanvasSize),
	})
	return name, err
}

func nextTraitName(p *domain.Project, layer string) string {
	l := p.Layers[p.LayerIndex(layer)]
	for n := len(l.Traits) + 1; ; n++ {
		name := fmt.Sprintf("%s %d", layer, n)
		if _, exists := l.Trait(name); !exists {
			return name
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, generation.ErrQuotaExceeded):
		return "QuotaExceeded"
	case errors.Is(err, generation.ErrGenerationFailed):
		return "GenerationServiceFailure"
	case errors.Is(err, imaging.ErrInvalidImage):
		return "InvalidImage"
	case isContextErr(err):
		return "Cancelled"
	default:
		return "Internal"
	}
}
