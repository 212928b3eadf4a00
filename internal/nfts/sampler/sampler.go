package sampler

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

// Selection is the trait drawn for one layer. Trait is a copy taken at
// sampling time, so later edits to the project do not change it.
type Selection struct {
	LayerIndex int
	Layer      string
	Trait      domain.Trait
}

// Sampler draws traits by rarity. A Sampler is not safe for concurrent
// use; give every goroutine its own.
type Sampler struct {
	rng *rand.Rand
}

func New(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// NewSeeded returns a reproducible sampler.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandom returns a sampler seeded from crypto/rand.
func NewRandom() *Sampler {
	var b [16]byte
	_, _ = crand.Read(b[:])
	return New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])))
}

// Sample draws one trait for every layer that has traits, in the
// hierarchy's draw order. Layers without traits are skipped.
func (s *Sampler) Sample(h *domain.Hierarchy) []Selection {
	out := make([]Selection, 0, h.Len())
	for _, i := range h.Order() {
		l := h.Layer(i)
		idx, ok := s.Pick(l.Traits)
		if !ok {
			continue
		}
		out = append(out, Selection{LayerIndex: i, Layer: l.Name, Trait: l.Traits[idx]})
	}
	return out
}

// Pick draws uniformly in [0,100) and returns the first trait whose running
// rarity total exceeds the draw. A draw past the total (sums a little under
// 100) falls to the last trait with a positive rarity.
func (s *Sampler) Pick(traits []domain.Trait) (int, bool) {
	if len(traits) == 0 {
		return 0, false
	}

	draw := s.rng.Float64() * 100
	var cumulative float64
	last := 0
	for i, t := range traits {
		if t.Rarity <= 0 {
			continue
		}
		cumulative += t.Rarity
		last = i
		if cumulative > draw {
			return i, true
		}
	}
	return last, true
}
