package domain

import (
	"fmt"
	"time"
)

type MintStatus string

const (
	MintPending MintStatus = "pending"
	MintMinted  MintStatus = "minted"
	MintFailed  MintStatus = "failed"
)

func ParseMintStatus(s string) (MintStatus, error) {
	switch MintStatus(s) {
	case MintPending, MintMinted, MintFailed:
		return MintStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMintStatus, s)
}

// CanTransition reports whether a record may move from s to next.
// Failed mints may be retried by going back to pending.
func (s MintStatus) CanTransition(next MintStatus) bool {
	switch s {
	case MintPending:
		return next == MintMinted || next == MintFailed
	case MintFailed:
		return next == MintPending
	}
	return false
}

// Attribute is one manifest entry: the layer name and the trait drawn for it.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFT is one assembled variant. Image and Attributes are always written
// together.
type NFT struct {
	ID           string      `json:"id"`
	ProjectID    string      `json:"projectId"`
	VariantIndex int         `json:"variantIndex"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Image        string      `json:"image"`
	Attributes   []Attribute `json:"attributes"`
	MintStatus   MintStatus  `json:"mintStatus"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Filter narrows FindMany. Empty fields match everything.
type Filter struct {
	ProjectID string
	Statuses  []MintStatus
	Limit     int
	Offset    int
}
