package domain

import (
	"errors"
	"math"
	"slices"
	"strings"
)

// RarityTolerance is how far a layer's trait rarities may drift from 100.
const RarityTolerance = 0.5

// ValidateHierarchy checks layer names, parent references, cycles and
// trait rarities. Every violation is reported; the result is an
// errors.Join of *HierarchyError values.
func ValidateHierarchy(layers []Layer) error {
	return validate(layers, true)
}

// ValidateStructure is ValidateHierarchy without the rarity rule. Draft
// edits use it so traits can be added with explicit weights one at a time.
func ValidateStructure(layers []Layer) error {
	return validate(layers, false)
}

func validate(layers []Layer, rarities bool) error {
	var errs []error

	index := make(map[string]int, len(layers))
	for i, l := range layers {
		if strings.TrimSpace(l.Name) == "" {
			errs = append(errs, hierarchyErr(InvalidLayer, l.Name, "layer %d has an empty name", i))
			continue
		}
		if _, dup := index[l.Name]; dup {
			errs = append(errs, hierarchyErr(DuplicateLayer, l.Name, "name is used more than once"))
			continue
		}
		index[l.Name] = i
	}

	parent := make([]int, len(layers))
	for i, l := range layers {
		parent[i] = -1
		if l.ParentLayer == "" {
			continue
		}
		p, ok := index[l.ParentLayer]
		if !ok {
			errs = append(errs, hierarchyErr(OrphanParent, l.Name, "parent %q does not exist", l.ParentLayer))
			continue
		}
		parent[i] = p
	}

	// 0 unvisited, 1 on the current walk, 2 known to reach a root
	state := make([]uint8, len(layers))
	for i := range layers {
		var path []int
		cur := i
		for cur != -1 && state[cur] == 0 {
			state[cur] = 1
			path = append(path, cur)
			cur = parent[cur]
		}
		if cur != -1 && state[cur] == 1 {
			errs = append(errs, hierarchyErr(CyclicParent, layers[cur].Name, "parent chain loops back to this layer"))
		}
		for _, p := range path {
			state[p] = 2
		}
	}

	if rarities {
		for _, l := range layers {
			if err := checkRarities(l); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func checkRarities(l Layer) error {
	if len(l.Traits) == 0 {
		return nil
	}
	for _, t := range l.Traits {
		if t.Rarity < 0 || t.Rarity > 100 || math.IsNaN(t.Rarity) {
			return hierarchyErr(RarityMismatch, l.Name, "trait %q has rarity %.2f outside 0..100", t.Name, t.Rarity)
		}
	}
	if sum := l.RaritySum(); math.Abs(sum-100) > RarityTolerance {
		return hierarchyErr(RarityMismatch, l.Name, "trait rarities sum to %.2f, want 100", sum)
	}
	return nil
}

// Hierarchy is a validated layer list with parent links resolved to indices.
type Hierarchy struct {
	layers []Layer
	index  map[string]int
	parent []int
	order  []int
}

// NewHierarchy validates layers and resolves them. The slice is not copied.
func NewHierarchy(layers []Layer) (*Hierarchy, error) {
	if err := ValidateHierarchy(layers); err != nil {
		return nil, err
	}

	h := &Hierarchy{
		layers: layers,
		index:  make(map[string]int, len(layers)),
		parent: make([]int, len(layers)),
	}
	children := make([][]int, len(layers))
	for i, l := range layers {
		h.index[l.Name] = i
	}
	for i, l := range layers {
		h.parent[i] = -1
		if l.ParentLayer != "" {
			p := h.index[l.ParentLayer]
			h.parent[i] = p
			children[p] = append(children[p], i)
		}
	}
	h.order = drawOrder(h.parent, children)
	return h, nil
}

// drawOrder keeps the list order where it can while placing every parent
// before its children: the next layer drawn is always the lowest-index
// layer whose parent is already drawn.
func drawOrder(parent []int, children [][]int) []int {
	var ready []int
	for i, p := range parent {
		if p == -1 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(parent))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, c := range children[next] {
			pos, _ := slices.BinarySearch(ready, c)
			ready = slices.Insert(ready, pos, c)
		}
	}
	return order
}

func (h *Hierarchy) Len() int {
	return len(h.layers)
}

func (h *Hierarchy) Layer(i int) Layer {
	return h.layers[i]
}

// Parent returns the parent index of layer i, or -1 for roots.
func (h *Hierarchy) Parent(i int) int {
	return h.parent[i]
}

func (h *Hierarchy) Index(name string) (int, bool) {
	i, ok := h.index[name]
	return i, ok
}

// Order lists layer indices parent-before-child.
func (h *Hierarchy) Order() []int {
	return h.order
}
