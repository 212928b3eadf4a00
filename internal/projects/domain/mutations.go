package domain

import (
	"fmt"
	"math"
	"strings"
)

// Layer edits below keep the structural rules (unique names, existing
// parents, no cycles) on every call. Rarity sums are only enforced by
// SetRarities, Publish and sampling.

func (p *Project) editable() error {
	if p.Status == StatusPublished {
		return ErrProjectPublished
	}
	return nil
}

func (p *Project) layer(name string) (*Layer, error) {
	i := p.LayerIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	return &p.Layers[i], nil
}

func (p *Project) AddLayer(l Layer) error {
	if err := p.editable(); err != nil {
		return err
	}

	l.Name = strings.TrimSpace(l.Name)
	l.ParentLayer = strings.TrimSpace(l.ParentLayer)
	if l.Name == "" {
		return hierarchyErr(InvalidLayer, l.Name, "name is required")
	}
	if p.LayerIndex(l.Name) >= 0 {
		return hierarchyErr(DuplicateLayer, l.Name, "layer already exists")
	}
	if l.ParentLayer != "" && p.LayerIndex(l.ParentLayer) < 0 {
		return hierarchyErr(OrphanParent, l.Name, "parent %q does not exist", l.ParentLayer)
	}
	if l.Position.Width < 0 || l.Position.Height < 0 {
		return ErrInvalidPosition
	}
	if l.Traits == nil {
		l.Traits = []Trait{}
	}

	p.Layers = append(p.Layers, l)
	return nil
}

// AddTrait appends t to a layer. Without an explicit weight every trait of
// the layer is reset to an equal share of 100.
func (p *Project) AddTrait(layerName string, t Trait, explicitWeight bool) error {
	if err := p.editable(); err != nil {
		return err
	}
	l, err := p.layer(layerName)
	if err != nil {
		return err
	}

	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return ErrInvalidTrait
	}
	if _, exists := l.Trait(t.Name); exists {
		return fmt.Errorf("%w: %q", ErrTraitExists, t.Name)
	}
	if explicitWeight && !validRarity(t.Rarity) {
		return ErrInvalidRarity
	}

	l.Traits = append(l.Traits, t)
	if !explicitWeight {
		NormalizeRarities(l.Traits)
	}
	return nil
}

func (p *Project) RemoveTrait(layerName, traitName string) error {
	if err := p.editable(); err != nil {
		return err
	}
	l, err := p.layer(layerName)
	if err != nil {
		return err
	}
	for i, t := range l.Traits {
		if t.Name == traitName {
			l.Traits = append(l.Traits[:i], l.Traits[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrTraitNotFound, traitName)
}

// SetRarities replaces the weights of the named traits. The resulting layer
// must sum to 100 within RarityTolerance.
func (p *Project) SetRarities(layerName string, rarities map[string]float64) error {
	if err := p.editable(); err != nil {
		return err
	}
	l, err := p.layer(layerName)
	if err != nil {
		return err
	}

	next := append([]Trait(nil), l.Traits...)
	for name, r := range rarities {
		if !validRarity(r) {
			return fmt.Errorf("%w: trait %q", ErrInvalidRarity, name)
		}
		found := false
		for i := range next {
			if next[i].Name == name {
				next[i].Rarity = r
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrTraitNotFound, name)
		}
	}

	candidate := *l
	candidate.Traits = next
	if err := checkRarities(candidate); err != nil {
		return err
	}
	l.Traits = next
	return nil
}

func (p *Project) NormalizeLayer(layerName string) error {
	if err := p.editable(); err != nil {
		return err
	}
	l, err := p.layer(layerName)
	if err != nil {
		return err
	}
	NormalizeRarities(l.Traits)
	return nil
}

// RenameLayer renames a layer and repoints its children.
func (p *Project) RenameLayer(oldName, newName string) error {
	if err := p.editable(); err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return hierarchyErr(InvalidLayer, oldName, "new name is required")
	}
	l, err := p.layer(oldName)
	if err != nil {
		return err
	}
	if newName == oldName {
		return nil
	}
	if p.LayerIndex(newName) >= 0 {
		return hierarchyErr(DuplicateLayer, newName, "layer already exists")
	}

	l.Name = newName
	for i := range p.Layers {
		if p.Layers[i].ParentLayer == oldName {
			p.Layers[i].ParentLayer = newName
		}
	}
	return nil
}

// DeleteLayer removes a layer. A layer with children is only removed with
// cascade, which also removes all of its descendants.
func (p *Project) DeleteLayer(name string, cascade bool) error {
	if err := p.editable(); err != nil {
		return err
	}
	if p.LayerIndex(name) < 0 {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}

	doomed := map[string]bool{name: true}
	for changed := true; changed; {
		changed = false
		for _, l := range p.Layers {
			if !doomed[l.Name] && doomed[l.ParentLayer] {
				if !cascade {
					return hierarchyErr(LayerHasChildren, name, "child %q still references it", l.Name)
				}
				doomed[l.Name] = true
				changed = true
			}
		}
	}

	kept := p.Layers[:0]
	for _, l := range p.Layers {
		if !doomed[l.Name] {
			kept = append(kept, l)
		}
	}
	p.Layers = kept
	return nil
}

func (p *Project) MoveLayer(name string, pos Position) error {
	if err := p.editable(); err != nil {
		return err
	}
	if pos.Width < 0 || pos.Height < 0 {
		return ErrInvalidPosition
	}
	l, err := p.layer(name)
	if err != nil {
		return err
	}
	l.Position = pos
	return nil
}

// ReparentLayer moves a layer under parent ("" makes it a root). Moves that
// would create a cycle are rejected.
func (p *Project) ReparentLayer(name, parent string) error {
	if err := p.editable(); err != nil {
		return err
	}
	l, err := p.layer(name)
	if err != nil {
		return err
	}
	parent = strings.TrimSpace(parent)
	if parent != "" {
		if p.LayerIndex(parent) < 0 {
			return hierarchyErr(OrphanParent, name, "parent %q does not exist", parent)
		}
		for cur, hops := parent, 0; cur != "" && hops <= len(p.Layers); hops++ {
			if cur == name {
				return hierarchyErr(CyclicParent, name, "%q is below it", parent)
			}
			idx := p.LayerIndex(cur)
			if idx < 0 {
				break
			}
			cur = p.Layers[idx].ParentLayer
		}
	}
	l.ParentLayer = parent
	return nil
}

// SetBaseCharacter makes sure the Background root and Body layers exist and
// puts the base image in Body as its only trait.
func (p *Project) SetBaseCharacter(imageURL string, canvas int) error {
	if err := p.editable(); err != nil {
		return err
	}

	if p.LayerIndex(RootLayerName) < 0 {
		bg := Layer{
			Name:        RootLayerName,
			Description: "Background layer",
			Position:    FullCanvas(canvas),
			Traits:      []Trait{},
		}
		p.Layers = append([]Layer{bg}, p.Layers...)
	}

	base := Trait{
		Name:        BaseTraitName,
		Description: "Original generated base",
		Rarity:      100,
		ImageURL:    imageURL,
	}
	if i := p.LayerIndex(BodyLayerName); i >= 0 {
		p.Layers[i].Traits = []Trait{base}
	} else {
		p.Layers = append(p.Layers, Layer{
			Name:        BodyLayerName,
			Description: "Base character body",
			ParentLayer: RootLayerName,
			Position:    FullCanvas(canvas),
			Traits:      []Trait{base},
		})
	}

	p.PreviewImage = imageURL
	if p.Status == StatusInitializing {
		p.Status = StatusDraft
	}
	return nil
}

// Publish freezes a draft once its whole hierarchy is valid.
func (p *Project) Publish() error {
	if p.Status != StatusDraft {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, StatusPublished)
	}
	if err := ValidateHierarchy(p.Layers); err != nil {
		return err
	}
	p.Status = StatusPublished
	return nil
}

// MarkDraft moves an initializing project to draft. Drafts stay drafts.
func (p *Project) MarkDraft() error {
	switch p.Status {
	case StatusInitializing, StatusDraft:
		p.Status = StatusDraft
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, StatusDraft)
	}
}

// NormalizeRarities gives every trait an equal share of 100.
func NormalizeRarities(traits []Trait) {
	if len(traits) == 0 {
		return
	}
	share := 100 / float64(len(traits))
	for i := range traits {
		traits[i].Rarity = share
	}
}

func validRarity(r float64) bool {
	return r >= 0 && r <= 100 && !math.IsNaN(r)
}
