package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"strings"
	"sync"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

type memProjects struct {
	projects map[string]*projdomain.Project
}

func (m *memProjects) GetOwned(ctx context.Context, ownerID, id string) (*projdomain.Project, error) {
	p, ok := m.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, projdomain.ErrProjectNotFound
	}
	return p.Clone(), nil
}

type memNFTs struct {
	mu        sync.Mutex
	nfts      map[string]*domain.NFT
	next      map[string]int
	createErr error
}

func newMemNFTs() *memNFTs {
	return &memNFTs{nfts: map[string]*domain.NFT{}, next: map[string]int{}}
}

func (m *memNFTs) Create(ctx context.Context, n *domain.NFT) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, o := range m.nfts {
		if o.ProjectID == n.ProjectID && o.VariantIndex == n.VariantIndex {
			return fmt.Errorf("%w: %d", domain.ErrVariantIndexTaken, n.VariantIndex)
		}
	}
	cp := *n
	m.nfts[n.ID] = &cp
	return nil
}

func (m *memNFTs) GetByID(ctx context.Context, id string) (*domain.NFT, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nfts[id]
	if !ok {
		return nil, domain.ErrNFTNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memNFTs) FindMany(ctx context.Context, f domain.Filter) ([]domain.NFT, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.NFT
	for _, n := range m.nfts {
		if n.ProjectID != f.ProjectID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, n.MintStatus) {
			continue
		}
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b domain.NFT) int { return a.VariantIndex - b.VariantIndex })
	return out, nil
}

func (m *memNFTs) ReserveVariantIndexes(ctx context.Context, projectID string, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first, ok := m.next[projectID]
	if !ok {
		first = 1
		for _, x := range m.nfts {
			if x.ProjectID == projectID && x.VariantIndex >= first {
				first = x.VariantIndex + 1
			}
		}
	}
	m.next[projectID] = first + n
	return first, nil
}

func (m *memNFTs) ReplaceContent(ctx context.Context, id, image string, attributes []domain.Attribute) (*domain.NFT, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nfts[id]
	if !ok {
		return nil, domain.ErrNFTNotFound
	}
	n.Image = image
	n.Attributes = attributes
	cp := *n
	return &cp, nil
}

func (m *memNFTs) UpdateMintStatus(ctx context.Context, id string, from, to domain.MintStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nfts[id]
	if !ok || n.MintStatus != from {
		return false, nil
	}
	n.MintStatus = to
	return true, nil
}

func (m *memNFTs) TraitCounts(ctx context.Context, projectID string) (map[string]map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]map[string]int{}
	for _, n := range m.nfts {
		if n.ProjectID != projectID {
			continue
		}
		for _, a := range n.Attributes {
			if out[a.TraitType] == nil {
				out[a.TraitType] = map[string]int{}
			}
			out[a.TraitType][a.Value]++
		}
	}
	return out, nil
}

func (m *memNFTs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nfts)
}

// dataResolver decodes data URLs and fails for everything else.
type dataResolver struct{}

func (dataResolver) Bytes(ctx context.Context, ref string) ([]byte, error) {
	if !imaging.IsDataURL(ref) {
		return nil, fmt.Errorf("fetch %s: 404", ref)
	}
	_, data, err := imaging.ParseDataURL(ref)
	return data, err
}

func (r dataResolver) Image(ctx context.Context, ref string) (*image.NRGBA, error) {
	data, err := r.Bytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.ToNRGBA(img), nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (m *memObjects) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "s3://test/" + key, nil
}

func (m *memObjects) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(m.objects, key)
	return nil
}

func solidPNG(w, h int, c color.NRGBA) string {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		panic(err)
	}
	return imaging.PNGDataURL(data)
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
)

// twoLayerProject is an 8x8 red background with a 4x4 hat at (2,2).
func twoLayerProject() *projdomain.Project {
	return &projdomain.Project{
		ID:      "collection-00001-0000",
		OwnerID: "owner-1",
		Name:    "Cat Space Collection",
		Prompt:  "space cat",
		Status:  projdomain.StatusPublished,
		Layers: []projdomain.Layer{
			{
				Name:     "Background",
				Position: projdomain.FullCanvas(8),
				Traits:   []projdomain.Trait{{Name: "Red", Rarity: 100, ImageURL: solidPNG(8, 8, red)}},
			},
			{
				Name:        "Hat",
				ParentLayer: "Background",
				Position:    projdomain.Position{X: 2, Y: 2, Width: 4, Height: 4},
				Traits: []projdomain.Trait{
					{Name: "Blue", Rarity: 50, ImageURL: solidPNG(4, 4, blue)},
					{Name: "Green", Rarity: 50, ImageURL: solidPNG(4, 4, green)},
				},
			},
		},
	}
}

func newTestAssembler(p *projdomain.Project, objects *memObjects) (*Assembler, *memNFTs) {
	nfts := newMemNFTs()
	sink := assets.NewSink(nil)
	if objects != nil {
		sink = assets.NewSink(objects)
	}
	a := NewAssembler(&memProjects{projects: map[string]*projdomain.Project{p.ID: p}}, nfts, dataResolver{}, sink, nil, Options{Workers: 3, MaxVariants: 50})
	return a, nfts
}

func decodeRef(ref string) image.Image {
	_, data, err := imaging.ParseDataURL(ref)
	if err != nil {
		panic(err)
	}
	img, err := imaging.Decode(data)
	if err != nil {
		panic(err)
	}
	return img
}

func attrValue(attrs []domain.Attribute, layer string) string {
	for _, a := range attrs {
		if strings.EqualFold(a.TraitType, layer) {
			return a.Value
		}
	}
	return ""
}
