package http

import (
	"context"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/service"
)

// Service is the project workflow the handlers drive.
type Service interface {
	Initialize(ctx context.Context, ownerID, prompt string) (*domain.Project, error)
	Analyze(ctx context.Context, ownerID, id string) (*domain.Project, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Project, error)
	List(ctx context.Context, ownerID string) ([]domain.Project, error)
	Rename(ctx context.Context, ownerID, id, name string) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
	Publish(ctx context.Context, ownerID, id string) (*domain.Project, error)

	GenerateBase(ctx context.Context, ownerID, id string, seed *int64) (*domain.Project, error)
	GenerateTraits(ctx context.Context, ownerID, id string, req service.TraitBatchRequest) (*service.TraitBatchReport, error)

	ExtractTraits(ctx context.Context, req service.ExtractRequest) (*service.ExtractResult, error)
	RegisterExtracted(ctx context.Context, ownerID, id, layer string, req service.ExtractRequest) (*domain.Project, error)

	AddLayer(ctx context.Context, ownerID, id string, l domain.Layer) (*domain.Project, error)
	UpdateLayer(ctx context.Context, ownerID, id, name string, patch service.LayerPatch) (*domain.Project, error)
	DeleteLayer(ctx context.Context, ownerID, id, name string, cascade bool) (*domain.Project, error)
	AddTrait(ctx context.Context, ownerID, id, layer string, in service.TraitInput) (*domain.Project, error)
	RemoveTrait(ctx context.Context, ownerID, id, layer, trait string) (*domain.Project, error)
	SetRarities(ctx context.Context, ownerID, id, layer string, rarities map[string]float64) (*domain.Project, error)
	NormalizeLayer(ctx context.Context, ownerID, id, layer string) (*domain.Project, error)
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc Service
	// maxUpload bounds sprite sheet uploads.
	maxUpload int64
}

func New(svc Service) *Handler {
	return &Handler{svc: svc, maxUpload: 20 << 20}
}
