package http

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/batches"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/service"
)

// Service is the collection assembly the handlers drive.
type Service interface {
	GenerateVariant(ctx context.Context, ownerID, projectID string, variantIndex int) (*domain.NFT, error)
	GenerateCollection(ctx context.Context, ownerID, projectID string, req service.CollectionRequest) (*batches.Run, error)
	LaunchCollection(ctx context.Context, ownerID, projectID string, req service.CollectionRequest) (string, error)
	CreateFromAttributes(ctx context.Context, ownerID, projectID string, attrs []domain.Attribute) (*domain.NFT, error)
	Regenerate(ctx context.Context, ownerID, nftID string, attrs []domain.Attribute) (*domain.NFT, error)
	Get(ctx context.Context, ownerID, nftID string) (*domain.NFT, error)
	List(ctx context.Context, ownerID string, f domain.Filter) ([]domain.NFT, error)
	UpdateMintStatus(ctx context.Context, ownerID, nftID string, to domain.MintStatus) (*domain.NFT, error)
	ImageBytes(ctx context.Context, nftID string) ([]byte, string, error)
	RarityReport(ctx context.Context, ownerID, projectID string) (*service.RarityReport, error)
}

// RunStore reads batch progress. A nil RunStore disables the batch routes.
type RunStore interface {
	Get(ctx context.Context, id string) (*batches.Run, error)
	ListByProject(ctx context.Context, projectID string) ([]string, error)
	Subscribe(ctx context.Context, id string) *redis.PubSub
}

// Handler bundles the dependencies for NFT HTTP endpoints.
type Handler struct {
	svc  Service
	runs RunStore
	// imageBase prefixes image links in list responses.
	imageBase string
}

func New(svc Service, runs RunStore, imageBase string) *Handler {
	return &Handler{svc: svc, runs: runs, imageBase: imageBase}
}
