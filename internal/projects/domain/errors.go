package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrInvalidStatusTransition = errors.New("invalid project status transition")
	ErrProjectPublished        = errors.New("project is published")
	ErrLayerNotFound           = errors.New("layer not found")
	ErrTraitNotFound           = errors.New("trait not found")
	ErrTraitExists             = errors.New("trait already exists in layer")
	ErrInvalidTrait            = errors.New("trait name is required")
	ErrInvalidRarity           = errors.New("rarity must be between 0 and 100")
	ErrInvalidPosition         = errors.New("position width and height must not be negative")
	ErrPromptRequired          = errors.New("prompt is required")
	ErrNameRequired            = errors.New("name is required")
	ErrInvalidCount            = errors.New("count out of range")

	// ErrInvalidHierarchy matches every *HierarchyError through errors.Is.
	ErrInvalidHierarchy = errors.New("invalid layer hierarchy")
)

type HierarchyErrorKind string

const (
	OrphanParent     HierarchyErrorKind = "OrphanParent"
	CyclicParent     HierarchyErrorKind = "CyclicParent"
	RarityMismatch   HierarchyErrorKind = "RarityMismatch"
	DuplicateLayer   HierarchyErrorKind = "DuplicateLayer"
	InvalidLayer     HierarchyErrorKind = "InvalidLayer"
	LayerHasChildren HierarchyErrorKind = "LayerHasChildren"
)

type HierarchyError struct {
	Kind   HierarchyErrorKind
	Layer  string
	Detail string
}

func (e *HierarchyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: layer %q", e.Kind, e.Layer)
	}
	return fmt.Sprintf("%s: layer %q: %s", e.Kind, e.Layer, e.Detail)
}

func (e *HierarchyError) Is(target error) bool {
	return target == ErrInvalidHierarchy
}

func hierarchyErr(kind HierarchyErrorKind, layer, format string, args ...any) *HierarchyError {
	return &HierarchyError{Kind: kind, Layer: layer, Detail: fmt.Sprintf(format, args...)}
}

// HasKind reports whether err, or any error joined into it, is a
// HierarchyError of the given kind.
func HasKind(err error, kind HierarchyErrorKind) bool {
	if err == nil {
		return false
	}
	if he, ok := err.(*HierarchyError); ok && he.Kind == kind {
		return true
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasKind(inner, kind) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return HasKind(e.Unwrap(), kind)
	}
	return false
}
