package batches

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	runKeyPrefix          = "nft:batch:"       // nft:batch:{run_id}
	projectRunSetPrefix   = "nft:project:"     // nft:project:{project_id}:batches
	runEventChannelPrefix = "nft:events:"      // nft:events:{run_id}
	runTTL                = 7 * 24 * time.Hour // batch records are kept for a week
)

// Repository stores batch runs in redis and publishes every update.
type Repository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Create(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = StatusRunning
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal batch run: %w", err)
	}

	setKey := projectRunSetKey(run.ProjectID)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, runKey(run.ID), data, runTTL)
	pipe.SAdd(ctx, setKey, run.ID)
	pipe.Expire(ctx, setKey, runTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create batch run: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	data, err := r.client.Get(ctx, runKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch run: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch run: %w", err)
	}
	return &run, nil
}

// Update overwrites the run and publishes it on the run's event channel.
func (r *Repository) Update(ctx context.Context, run *Run) error {
	run.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal batch run: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, runKey(run.ID), data, runTTL)
	pipe.Publish(ctx, EventChannel(run.ID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update batch run: %w", err)
	}
	return nil
}

func (r *Repository) ListByProject(ctx context.Context, projectID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, projectRunSetKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list batch runs: %w", err)
	}
	return ids, nil
}

// Subscribe returns a subscription to the run's progress events. The
// caller must close it.
func (r *Repository) Subscribe(ctx context.Context, id string) *redis.PubSub {
	return r.client.Subscribe(ctx, EventChannel(id))
}

func EventChannel(id string) string {
	return runEventChannelPrefix + id
}

func runKey(id string) string {
	return runKeyPrefix + id
}

func projectRunSetKey(projectID string) string {
	return fmt.Sprintf("%s%s:batches", projectRunSetPrefix, projectID)
}
