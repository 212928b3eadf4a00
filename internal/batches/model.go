package batches

import (
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("batch run not found")

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// VariantFailure records why one variant of a batch was not produced.
type VariantFailure struct {
	VariantIndex int    `json:"variantIndex"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
}

// Run is the progress record of one collection generation batch.
type Run struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"projectId"`
	OwnerID     string           `json:"ownerId"`
	Status      Status           `json:"status"`
	Requested   int              `json:"requested"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	NFTIDs      []string         `json:"nftIds"`
	Failures    []VariantFailure `json:"failures,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (r *Run) Done() bool {
	return r.Status != StatusRunning
}

// finalStatus derives the terminal status from the counters.
func (r *Run) finalStatus(cancelled bool) Status {
	switch {
	case cancelled:
		return StatusCancelled
	case r.Failed > 0 && r.Succeeded == 0:
		return StatusFailed
	case r.Failed > 0 || r.Succeeded < r.Requested:
		return StatusPartial
	default:
		return StatusCompleted
	}
}
