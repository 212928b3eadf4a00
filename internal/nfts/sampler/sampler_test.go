package sampler

import (
	"testing"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick_FrequenciesFollowRarity(t *testing.T) {
	s := NewSeeded(42)
	traits := []domain.Trait{{Name: "Common", Rarity: 90}, {Name: "Rare", Rarity: 10}}

	const draws = 20000
	counts := make([]int, 2)
	for i := 0; i < draws; i++ {
		idx, ok := s.Pick(traits)
		require.True(t, ok)
		counts[idx]++
	}

	assert.InDelta(t, 0.9, float64(counts[0])/draws, 0.02)
	assert.InDelta(t, 0.1, float64(counts[1])/draws, 0.02)
}

func TestPick_ZeroRarityNeverDrawn(t *testing.T) {
	s := NewSeeded(7)
	traits := []domain.Trait{{Name: "Never", Rarity: 0}, {Name: "Always", Rarity: 100}}
	for i := 0; i < 1000; i++ {
		idx, _ := s.Pick(traits)
		assert.Equal(t, 1, idx)
	}
}

func TestPick_ShortSumFallsToLastWeightedTrait(t *testing.T) {
	s := NewSeeded(3)
	traits := []domain.Trait{{Name: "A", Rarity: 49.6}, {Name: "B", Rarity: 50}, {Name: "C", Rarity: 0}}
	for i := 0; i < 5000; i++ {
		idx, ok := s.Pick(traits)
		require.True(t, ok)
		assert.NotEqual(t, 2, idx)
	}
}

func TestPick_Empty(t *testing.T) {
	_, ok := NewSeeded(1).Pick(nil)
	assert.False(t, ok)
}

func TestSample(t *testing.T) {
	h, err := domain.NewHierarchy([]domain.Layer{
		{Name: "Background", Traits: []domain.Trait{}},
		{Name: "Body", ParentLayer: "Background", Traits: []domain.Trait{{Name: "Base", Rarity: 100, ImageURL: "body.png"}}},
		{Name: "Hat", ParentLayer: "Body", Traits: []domain.Trait{{Name: "Cap", Rarity: 50}, {Name: "Crown", Rarity: 50}}},
	})
	require.NoError(t, err)

	sel := NewSeeded(99).Sample(h)
	require.Len(t, sel, 2)
	assert.Equal(t, "Body", sel[0].Layer)
	assert.Equal(t, 1, sel[0].LayerIndex)
	assert.Equal(t, "body.png", sel[0].Trait.ImageURL)
	assert.Equal(t, "Hat", sel[1].Layer)
	assert.Contains(t, []string{"Cap", "Crown"}, sel[1].Trait.Name)
}

func TestSample_SameSeedSameVariant(t *testing.T) {
	h, err := domain.NewHierarchy([]domain.Layer{
		{Name: "Eyes", Traits: []domain.Trait{{Name: "A", Rarity: 25}, {Name: "B", Rarity: 25}, {Name: "C", Rarity: 50}}},
		{Name: "Mouth", Traits: []domain.Trait{{Name: "D", Rarity: 10}, {Name: "E", Rarity: 90}}},
	})
	require.NoError(t, err)

	for seed := uint64(0); seed < 20; seed++ {
		assert.Equal(t, NewSeeded(seed).Sample(h), NewSeeded(seed).Sample(h))
	}
}

func TestSample_CharacterHierarchy(t *testing.T) {
	h, err := domain.NewHierarchy([]domain.Layer{
		{Name: "Background", Traits: []domain.Trait{{Name: "Sky", Rarity: 100}}},
		{Name: "Body", ParentLayer: "Background", Traits: []domain.Trait{{Name: "Base", Rarity: 100}}},
		{Name: "Head", ParentLayer: "Body", Traits: []domain.Trait{{Name: "Eyes", Rarity: 100}}},
		{Name: "Clothing", ParentLayer: "Body", Traits: []domain.Trait{{Name: "Shirt", Rarity: 60}, {Name: "Jacket", Rarity: 40}}},
	})
	require.NoError(t, err)

	s := NewSeeded(2024)
	const variants = 5000
	jackets := 0
	for i := 0; i < variants; i++ {
		sel := s.Sample(h)
		require.Len(t, sel, 4)
		layers := make([]string, len(sel))
		for j, x := range sel {
			layers[j] = x.Layer
		}
		assert.ElementsMatch(t, []string{"Background", "Body", "Head", "Clothing"}, layers)
		assert.Equal(t, "Background", layers[0])
		if sel[3].Trait.Name == "Jacket" || sel[2].Trait.Name == "Jacket" {
			jackets++
		}
	}
	assert.InDelta(t, 0.40, float64(jackets)/variants, 0.03)
}
