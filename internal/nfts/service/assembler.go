package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/batches"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/sampler"
	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

type NFTStore interface {
	Create(ctx context.Context, n *domain.NFT) error
	GetByID(ctx context.Context, id string) (*domain.NFT, error)
	FindMany(ctx context.Context, f domain.Filter) ([]domain.NFT, error)
	// ReserveVariantIndexes hands out n unused consecutive indexes and
	// returns the first. Concurrent callers never share an index.
	ReserveVariantIndexes(ctx context.Context, projectID string, n int) (int, error)
	ReplaceContent(ctx context.Context, id, image string, attributes []domain.Attribute) (*domain.NFT, error)
	UpdateMintStatus(ctx context.Context, id string, from, to domain.MintStatus) (bool, error)
	TraitCounts(ctx context.Context, projectID string) (map[string]map[string]int, error)
}

type ProjectReader interface {
	GetOwned(ctx context.Context, ownerID, id string) (*projdomain.Project, error)
}

type ImageResolver interface {
	Image(ctx context.Context, ref string) (*image.NRGBA, error)
	Bytes(ctx context.Context, ref string) ([]byte, error)
}

type Options struct {
	Workers     int
	MaxVariants int
}

// Assembler turns a project's hierarchy into persisted NFT variants.
type Assembler struct {
	projects ProjectReader
	nfts     NFTStore
	resolver ImageResolver
	sink     *assets.Sink
	runs     batches.Store
	opt      Options
	inflight sync.WaitGroup

	// newSampler is replaced in tests for reproducible draws.
	newSampler func() *sampler.Sampler
}

func NewAssembler(projects ProjectReader, nfts NFTStore, resolver ImageResolver, sink *assets.Sink, runs batches.Store, opt Options) *Assembler {
	if opt.Workers < 1 {
		opt.Workers = 4
	}
	if opt.MaxVariants < 1 {
		opt.MaxVariants = 500
	}
	return &Assembler{
		projects:   projects,
		nfts:       nfts,
		resolver:   resolver,
		sink:       sink,
		runs:       runs,
		opt:        opt,
		newSampler: sampler.NewRandom,
	}
}

// snapshot loads a project and resolves its hierarchy. Variants built from
// one snapshot never see later edits.
func (a *Assembler) snapshot(ctx context.Context, ownerID, projectID string) (*projdomain.Project, *projdomain.Hierarchy, error) {
	p, err := a.projects.GetOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, nil, err
	}
	p = p.Clone()
	h, err := projdomain.NewHierarchy(p.Layers)
	if err != nil {
		return nil, nil, err
	}
	return p, h, nil
}

// GenerateVariant samples, composites and stores one variant. A variant
// index below 1 reserves the next free index.
func (a *Assembler) GenerateVariant(ctx context.Context, ownerID, projectID string, variantIndex int) (*domain.NFT, error) {
	p, h, err := a.snapshot(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if variantIndex < 1 {
		if variantIndex, err = a.nfts.ReserveVariantIndexes(ctx, projectID, 1); err != nil {
			return nil, err
		}
	}
	return a.buildVariant(ctx, p, h, a.newSampler(), variantIndex)
}

// CreateFromAttributes composites a variant from an explicit trait choice.
func (a *Assembler) CreateFromAttributes(ctx context.Context, ownerID, projectID string, attrs []domain.Attribute) (*domain.NFT, error) {
	p, h, err := a.snapshot(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	selections, err := selectionsFromAttributes(h, attrs)
	if err != nil {
		return nil, err
	}
	index, err := a.nfts.ReserveVariantIndexes(ctx, projectID, 1)
	if err != nil {
		return nil, err
	}
	return a.persist(ctx, p, h, selections, index)
}

func (a *Assembler) buildVariant(ctx context.Context, p *projdomain.Project, h *projdomain.Hierarchy, s *sampler.Sampler, index int) (*domain.NFT, error) {
	selections := s.Sample(h)
	if len(selections) == 0 {
		return nil, domain.ErrNothingToAssemble
	}
	return a.persist(ctx, p, h, selections, index)
}

// persist composites the selections, stores the image and writes the
// record in one insert. An uploaded image is removed again if the insert
// fails, so a failed variant leaves nothing behind.
func (a *Assembler) persist(ctx context.Context, p *projdomain.Project, h *projdomain.Hierarchy, selections []sampler.Selection, index int) (*domain.NFT, error) {
	data, err := a.composite(ctx, h, selections)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	saved, err := a.sink.SavePNG(ctx, fmt.Sprintf("nfts/%s/%s.png", p.ID, id), data)
	if err != nil {
		return nil, err
	}

	n := &domain.NFT{
		ID:           id,
		ProjectID:    p.ID,
		VariantIndex: index,
		Name:         fmt.Sprintf("%s #%d", p.Name, index),
		Description:  p.Prompt,
		Image:        saved.Ref,
		Attributes:   manifest(selections),
		MintStatus:   domain.MintPending,
	}
	if err := a.nfts.Create(ctx, n); err != nil {
		saved.Discard(ctx)
		return nil, err
	}
	return n, nil
}

// composite resolves every selected trait image and draws them in order.
// The first selection is the base and must cover the canvas.
func (a *Assembler) composite(ctx context.Context, h *projdomain.Hierarchy, selections []sampler.Selection) ([]byte, error) {
	images := make([]*image.NRGBA, len(selections))
	g, gctx := errgroup.WithContext(ctx)
	for i, sel := range selections {
		g.Go(func() error {
			if sel.Trait.ImageURL == "" {
				return &domain.TraitResolutionError{Layer: sel.Layer, Trait: sel.Trait.Name, Err: errors.New("trait has no image")}
			}
			img, err := a.resolver.Image(gctx, sel.Trait.ImageURL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &domain.TraitResolutionError{Layer: sel.Layer, Trait: sel.Trait.Name, Ref: shortRef(sel.Trait.ImageURL), Err: err}
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	base := images[0]
	canvas := base.Bounds().Sub(base.Bounds().Min)
	if r := placementRect(h, selections[0].LayerIndex, selections[0].Trait, canvas.Size(), canvas); r != canvas {
		return nil, fmt.Errorf("%w: base layer %q is placed at %v, canvas is %v", imaging.ErrDimensionMismatch, selections[0].Layer, r, canvas)
	}

	placements := make([]imaging.Placement, 0, len(selections)-1)
	for i, sel := range selections[1:] {
		img := images[i+1]
		placements = append(placements, imaging.Placement{
			Image: img,
			Rect:  placementRect(h, sel.LayerIndex, sel.Trait, img.Bounds().Size(), canvas),
		})
	}

	out, err := imaging.Composite(base, placements)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(out)
}

func manifest(selections []sampler.Selection) []domain.Attribute {
	out := make([]domain.Attribute, len(selections))
	for i, s := range selections {
		out[i] = domain.Attribute{TraitType: s.Layer, Value: s.Trait.Name}
	}
	return out
}

// selectionsFromAttributes maps a manifest back onto the hierarchy, in
// draw order. Every attribute must name an existing layer and trait, and a
// layer may appear only once.
func selectionsFromAttributes(h *projdomain.Hierarchy, attrs []domain.Attribute) ([]sampler.Selection, error) {
	if len(attrs) == 0 {
		return nil, domain.ErrNothingToAssemble
	}
	chosen := make(map[int]projdomain.Trait, len(attrs))
	for _, at := range attrs {
		i, ok := h.Index(at.TraitType)
		if !ok {
			return nil, fmt.Errorf("%w: layer %q", domain.ErrUnknownAttribute, at.TraitType)
		}
		if _, dup := chosen[i]; dup {
			return nil, fmt.Errorf("%w: layer %q given twice", domain.ErrUnknownAttribute, at.TraitType)
		}
		t, ok := h.Layer(i).Trait(at.Value)
		if !ok {
			return nil, fmt.Errorf("%w: trait %q in layer %q", domain.ErrUnknownAttribute, at.Value, at.TraitType)
		}
		chosen[i] = t
	}

	out := make([]sampler.Selection, 0, len(chosen))
	for _, i := range h.Order() {
		if t, ok := chosen[i]; ok {
			out = append(out, sampler.Selection{LayerIndex: i, Layer: h.Layer(i).Name, Trait: t})
		}
	}
	return out, nil
}

// Regenerate replaces a variant's image and attributes together. Empty
// attributes resample the whole variant.
func (a *Assembler) Regenerate(ctx context.Context, ownerID, nftID string, attrs []domain.Attribute) (*domain.NFT, error) {
	n, err := a.owned(ctx, ownerID, nftID)
	if err != nil {
		return nil, err
	}
	p, h, err := a.snapshot(ctx, ownerID, n.ProjectID)
	if err != nil {
		return nil, err
	}

	var selections []sampler.Selection
	if len(attrs) == 0 {
		selections = a.newSampler().Sample(h)
		if len(selections) == 0 {
			return nil, domain.ErrNothingToAssemble
		}
	} else if selections, err = selectionsFromAttributes(h, attrs); err != nil {
		return nil, err
	}

	data, err := a.composite(ctx, h, selections)
	if err != nil {
		return nil, err
	}
	saved, err := a.sink.SavePNG(ctx, fmt.Sprintf("nfts/%s/%s-%s.png", p.ID, n.ID, uuid.New().String()), data)
	if err != nil {
		return nil, err
	}
	out, err := a.nfts.ReplaceContent(ctx, n.ID, saved.Ref, manifest(selections))
	if err != nil {
		saved.Discard(ctx)
		return nil, err
	}
	return out, nil
}

// owned loads an NFT and checks that its project belongs to ownerID.
// Foreign records are reported as missing.
func (a *Assembler) owned(ctx context.Context, ownerID, nftID string) (*domain.NFT, error) {
	n, err := a.nfts.GetByID(ctx, nftID)
	if err != nil {
		return nil, err
	}
	if _, err := a.projects.GetOwned(ctx, ownerID, n.ProjectID); err != nil {
		if errors.Is(err, projdomain.ErrProjectNotFound) {
			return nil, domain.ErrNFTNotFound
		}
		return nil, err
	}
	return n, nil
}

func (a *Assembler) Get(ctx context.Context, ownerID, nftID string) (*domain.NFT, error) {
	return a.owned(ctx, ownerID, nftID)
}

func (a *Assembler) List(ctx context.Context, ownerID string, f domain.Filter) ([]domain.NFT, error) {
	if _, err := a.projects.GetOwned(ctx, ownerID, f.ProjectID); err != nil {
		return nil, err
	}
	return a.nfts.FindMany(ctx, f)
}

// UpdateMintStatus moves a record along pending → minted|failed, or back
// from failed to pending.
func (a *Assembler) UpdateMintStatus(ctx context.Context, ownerID, nftID string, to domain.MintStatus) (*domain.NFT, error) {
	n, err := a.owned(ctx, ownerID, nftID)
	if err != nil {
		return nil, err
	}
	if !n.MintStatus.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrMintStatusTransition, n.MintStatus, to)
	}
	ok, err := a.nfts.UpdateMintStatus(ctx, n.ID, n.MintStatus, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: status changed concurrently", domain.ErrMintStatusTransition)
	}
	return a.nfts.GetByID(ctx, n.ID)
}

// ImageBytes returns the encoded image of an NFT and its content type.
func (a *Assembler) ImageBytes(ctx context.Context, nftID string) ([]byte, string, error) {
	n, err := a.nfts.GetByID(ctx, nftID)
	if err != nil {
		return nil, "", err
	}
	data, err := a.resolver.Bytes(ctx, n.Image)
	if err != nil {
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}

func shortRef(ref string) string {
	if imaging.IsDataURL(ref) {
		return "data:…"
	}
	return ref
}
