package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNFTNotFound          = errors.New("nft not found")
	ErrInvalidMintStatus    = errors.New("invalid mint status")
	ErrMintStatusTransition = errors.New("mint status transition not allowed")
	ErrUnknownAttribute     = errors.New("attribute does not match a layer trait")
	ErrNothingToAssemble    = errors.New("no layer has traits to sample")
	ErrInvalidCount         = errors.New("variant count out of range")
	ErrVariantIndexTaken    = errors.New("variant index already used in project")

	// ErrTraitResolution matches every *TraitResolutionError through errors.Is.
	ErrTraitResolution = errors.New("trait image could not be resolved")
)

// TraitResolutionError means a selected trait's image bytes could not be
// loaded. The variant is abandoned and nothing is persisted.
type TraitResolutionError struct {
	Layer string
	Trait string
	Ref   string
	Err   error
}

func (e *TraitResolutionError) Error() string {
	return fmt.Sprintf("resolve trait %q of layer %q: %v", e.Trait, e.Layer, e.Err)
}

func (e *TraitResolutionError) Unwrap() error {
	return e.Err
}

func (e *TraitResolutionError) Is(target error) bool {
	return target == ErrTraitResolution
}
