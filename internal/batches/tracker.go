package batches

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// Store is what a Tracker needs to persist progress.
type Store interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
}

// Tracker records variant outcomes of a running batch. It is safe for
// concurrent use. A nil store keeps progress in memory only.
type Tracker struct {
	mu    sync.Mutex
	store Store
	run   *Run
}

func Start(ctx context.Context, store Store, projectID, ownerID string, requested int) (*Tracker, error) {
	run := &Run{
		ProjectID: projectID,
		OwnerID:   ownerID,
		Status:    StatusRunning,
		Requested: requested,
		NFTIDs:    []string{},
	}
	if store != nil {
		if err := store.Create(ctx, run); err != nil {
			return nil, err
		}
	} else {
		run.ID = uuid.New().String()
		run.CreatedAt = time.Now().UTC()
		run.UpdatedAt = run.CreatedAt
	}
	return &Tracker{store: store, run: run}, nil
}

func (t *Tracker) ID() string {
	return t.run.ID
}

func (t *Tracker) Succeeded(ctx context.Context, nftID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.run.Succeeded++
	t.run.NFTIDs = append(t.run.NFTIDs, nftID)
	t.save(ctx)
}

func (t *Tracker) Failed(ctx context.Context, variantIndex int, kind string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.run.Failed++
	t.run.Failures = append(t.run.Failures, VariantFailure{
		VariantIndex: variantIndex,
		Kind:         kind,
		Message:      err.Error(),
	})
	t.save(ctx)
}

// Finish sets the terminal status and returns a copy of the final run.
func (t *Tracker) Finish(ctx context.Context, cancelled bool) Run {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	t.run.Status = t.run.finalStatus(cancelled)
	t.run.CompletedAt = &now
	t.save(ctx)

	out := *t.run
	out.NFTIDs = append([]string(nil), t.run.NFTIDs...)
	out.Failures = append([]VariantFailure(nil), t.run.Failures...)
	return out
}

// save is best effort; a lost progress write never fails the batch.
func (t *Tracker) save(ctx context.Context) {
	if t.store == nil {
		t.run.UpdatedAt = time.Now().UTC()
		return
	}
	if err := t.store.Update(context.WithoutCancel(ctx), t.run); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("batch_id", t.run.ID).Msg("failed to save batch progress")
	}
}
