package service

import (
	"context"
	"errors"
	"strings"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/generation"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// Store is the project persistence the service depends on.
type Store interface {
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)
	GetOwned(ctx context.Context, ownerID, id string) (*domain.Project, error)
	List(ctx context.Context, ownerID string) ([]domain.Project, error)
	Update(ctx context.Context, ownerID, id string, in repository.UpdateInput) (*domain.Project, error)
	Mutate(ctx context.Context, ownerID, id string, fn func(*domain.Project) error) (*domain.Project, error)
	SoftDelete(ctx context.Context, ownerID, id string) (bool, error)
}

type Options struct {
	CanvasSize    int
	Extract       imaging.ExtractOptions
	Policy        BatchPolicy
	MaxTraitBatch int
	// Workers bounds concurrent generator calls within one trait batch.
	Workers int
}

func (o Options) withDefaults() Options {
	if o.CanvasSize <= 0 {
		o.CanvasSize = 1024
	}
	if o.Extract.Stride < 1 {
		o.Extract = imaging.DefaultExtractOptions()
	}
	if o.Policy == "" {
		o.Policy = PolicyContinue
	}
	if o.MaxTraitBatch <= 0 {
		o.MaxTraitBatch = 20
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	return o
}

// ProjectService runs the project lifecycle: initialisation, analysis,
// base and trait generation, sprite extraction and layer editing.
type ProjectService struct {
	store     Store
	analyzer  generation.LayerAnalyzer
	generator generation.ImageGenerator
	sink      *assets.Sink
	opt       Options
}

func NewProjectService(store Store, analyzer generation.LayerAnalyzer, generator generation.ImageGenerator, sink *assets.Sink, opt Options) *ProjectService {
	return &ProjectService{
		store:     store,
		analyzer:  analyzer,
		generator: generator,
		sink:      sink,
		opt:       opt.withDefaults(),
	}
}

// Initialize creates a project from a prompt. A failed config parse falls
// back to a config derived from the prompt words.
func (s *ProjectService) Initialize(ctx context.Context, ownerID, prompt string) (*domain.Project, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrPromptRequired
	}

	cfg := domain.FallbackConfig(prompt)
	if s.analyzer != nil {
		parsed, err := s.analyzer.ParseConfig(ctx, prompt)
		switch {
		case err == nil:
			cfg = parsed.WithDefaults(prompt)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			logger.FromContext(ctx).Warn().Err(err).Msg("config parse failed, using fallback")
		}
	}

	return s.store.Create(ctx, &domain.Project{
		OwnerID: ownerID,
		Name:    cfg.CollectionName(),
		Prompt:  prompt,
		Status:  domain.StatusInitializing,
		Config:  cfg,
		Layers:  []domain.Layer{},
	})
}

// Analyze replaces the hierarchy with the analyzer's proposal. The proposal
// is stored only if it is a valid hierarchy; it is never repaired.
func (s *ProjectService) Analyze(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	if s.analyzer == nil {
		return nil, &generation.ServiceError{Op: "analyze layers", Err: errors.New("analyzer not configured")}
	}

	p, err := s.store.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.StatusPublished {
		return nil, domain.ErrProjectPublished
	}

	layers, err := s.analyzer.AnalyzeLayers(ctx, p.Prompt)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateHierarchy(layers); err != nil {
		return nil, err
	}

	return s.store.Mutate(ctx, ownerID, id, func(p *domain.Project) error {
		if p.Status == domain.StatusPublished {
			return domain.ErrProjectPublished
		}
		base, hadBase := baseImage(p)
		p.Layers = layers
		if hadBase {
			if err := p.SetBaseCharacter(base, s.opt.CanvasSize); err != nil {
				return err
			}
		}
		return p.MarkDraft()
	})
}

func (s *ProjectService) Get(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	return s.store.GetOwned(ctx, ownerID, id)
}

func (s *ProjectService) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	return s.store.List(ctx, ownerID)
}

func (s *ProjectService) Rename(ctx context.Context, ownerID, id, name string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	return s.store.Update(ctx, ownerID, id, repository.UpdateInput{Name: &name})
}

func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	ok, err := s.store.SoftDelete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProjectNotFound
	}
	return nil
}

// Publish freezes a draft after validating the whole hierarchy.
func (s *ProjectService) Publish(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	return s.store.Mutate(ctx, ownerID, id, func(p *domain.Project) error {
		return p.Publish()
	})
}

func baseImage(p *domain.Project) (string, bool) {
	i := p.LayerIndex(domain.BodyLayerName)
	if i < 0 {
		return "", false
	}
	t, ok := p.Layers[i].Trait(domain.BaseTraitName)
	if !ok || t.ImageURL == "" {
		return "", false
	}
	return t.ImageURL, true
}
