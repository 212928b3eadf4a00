package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/batches"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/sampler"
	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

type CollectionRequest struct {
	Count int
	// Seed makes the batch reproducible: variant i samples with Seed+i.
	Seed *uint64
}

// Batch is a started collection run. Run executes it.
type Batch struct {
	a       *Assembler
	project *projdomain.Project
	h       *projdomain.Hierarchy
	req     CollectionRequest
	first   int
	tracker *batches.Tracker
}

func (b *Batch) ID() string {
	return b.tracker.ID()
}

// StartCollection validates the request, snapshots the hierarchy, reserves
// Count variant indexes and records a running batch. Nothing is generated
// until Run.
func (a *Assembler) StartCollection(ctx context.Context, ownerID, projectID string, req CollectionRequest) (*Batch, error) {
	if req.Count < 1 || req.Count > a.opt.MaxVariants {
		return nil, fmt.Errorf("%w: %d (1-%d)", domain.ErrInvalidCount, req.Count, a.opt.MaxVariants)
	}
	p, h, err := a.snapshot(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	first, err := a.nfts.ReserveVariantIndexes(ctx, projectID, req.Count)
	if err != nil {
		return nil, err
	}
	tracker, err := batches.Start(ctx, a.runs, projectID, ownerID, req.Count)
	if err != nil {
		return nil, err
	}
	return &Batch{a: a, project: p, h: h, req: req, first: first, tracker: tracker}, nil
}

// GenerateCollection builds Count variants on a bounded worker pool and
// waits for the result.
func (a *Assembler) GenerateCollection(ctx context.Context, ownerID, projectID string, req CollectionRequest) (*batches.Run, error) {
	b, err := a.StartCollection(ctx, ownerID, projectID, req)
	if err != nil {
		return nil, err
	}
	run := b.Run(ctx)
	return &run, nil
}

// LaunchCollection starts a batch and runs it in the background, detached
// from ctx's cancellation. Wait blocks until launched batches finish.
func (a *Assembler) LaunchCollection(ctx context.Context, ownerID, projectID string, req CollectionRequest) (string, error) {
	b, err := a.StartCollection(ctx, ownerID, projectID, req)
	if err != nil {
		return "", err
	}
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		b.Run(context.WithoutCancel(ctx))
	}()
	return b.ID(), nil
}

// Wait blocks until every launched batch has finished.
func (a *Assembler) Wait() {
	a.inflight.Wait()
}

// Run generates the batch. A failed variant is recorded and the rest carry
// on. Once ctx is cancelled no further variants start; variants already
// persisted stay.
func (b *Batch) Run(ctx context.Context) batches.Run {
	a := b.a
	log := logger.FromContext(ctx).With().Str("batch_id", b.ID()).Str("project_id", b.project.ID).Logger()
	log.Info().Int("count", b.req.Count).Int("first_variant", b.first).Msg("collection batch started")

	var g errgroup.Group
	g.SetLimit(a.opt.Workers)
	for i := 0; i < b.req.Count; i++ {
		if ctx.Err() != nil {
			break
		}
		index := b.first + i
		var s *sampler.Sampler
		if b.req.Seed != nil {
			s = sampler.NewSeeded(*b.req.Seed + uint64(i))
		} else {
			s = a.newSampler()
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			n, err := a.buildVariant(ctx, b.project, b.h, s, index)
			if err != nil {
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					return nil
				}
				log.Warn().Err(err).Int("variant", index).Msg("variant failed")
				b.tracker.Failed(ctx, index, VariantFailureKind(err), err)
				return nil
			}
			b.tracker.Succeeded(ctx, n.ID)
			return nil
		})
	}
	_ = g.Wait()

	run := b.tracker.Finish(ctx, ctx.Err() != nil)
	log.Info().Str("status", string(run.Status)).Int("succeeded", run.Succeeded).Int("failed", run.Failed).Msg("collection batch finished")
	return run
}

// VariantFailureKind names the error taxonomy entry of a failed variant.
func VariantFailureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrTraitResolution):
		return "TraitResolutionFailure"
	case errors.Is(err, imaging.ErrDimensionMismatch):
		return "DimensionMismatch"
	case errors.Is(err, imaging.ErrInvalidImage):
		return "InvalidImage"
	case errors.Is(err, domain.ErrNothingToAssemble):
		return "NothingToAssemble"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Cancelled"
	default:
		return "Internal"
	}
}
