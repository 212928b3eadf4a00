package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/generation"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/repository"
)

type memStore struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
	next     int
	mutates  int
}

func newMemStore() *memStore {
	return &memStore{projects: map[string]*domain.Project{}}
}

func (m *memStore) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	cp := p.Clone()
	cp.ID = fmt.Sprintf("collection-%05d-0000", m.next)
	m.projects[cp.ID] = cp
	return cp.Clone(), nil
}

func (m *memStore) GetOwned(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrProjectNotFound
	}
	return p.Clone(), nil
}

func (m *memStore) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Project
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, ownerID, id string, in repository.UpdateInput) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrProjectNotFound
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.PreviewImage != nil {
		p.PreviewImage = *in.PreviewImage
	}
	if in.Config != nil {
		p.Config = *in.Config
	}
	return p.Clone(), nil
}

func (m *memStore) Mutate(ctx context.Context, ownerID, id string, fn func(*domain.Project) error) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrProjectNotFound
	}
	cp := p.Clone()
	if err := fn(cp); err != nil {
		return nil, err
	}
	m.mutates++
	m.projects[id] = cp
	return cp.Clone(), nil
}

func (m *memStore) SoftDelete(ctx context.Context, ownerID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.OwnerID != ownerID {
		return false, nil
	}
	delete(m.projects, id)
	return true, nil
}

func (m *memStore) get(id string) *domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[id].Clone()
}

type fakeAnalyzer struct {
	cfg       *domain.CharacterConfig
	cfgErr    error
	layers    []domain.Layer
	layersErr error
}

func (f *fakeAnalyzer) ParseConfig(ctx context.Context, prompt string) (*domain.CharacterConfig, error) {
	if f.cfgErr != nil {
		return nil, f.cfgErr
	}
	return f.cfg, nil
}

func (f *fakeAnalyzer) AnalyzeLayers(ctx context.Context, prompt string) ([]domain.Layer, error) {
	if f.layersErr != nil {
		return nil, f.layersErr
	}
	return f.layers, nil
}

// fakeGenerator returns an 8x8 red square on the sheet grey. Prompts
// containing any of failOn fail with a service error.
type fakeGenerator struct {
	mu     sync.Mutex
	failOn []string
	calls  int
}

func (g *fakeGenerator) Generate(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range g.failOn {
		if strings.Contains(req.Prompt, f) {
			return nil, &generation.ServiceError{Op: "generate image", Err: errors.New("model refused")}
		}
	}
	return &generation.ImageResult{Data: squarePNG(8), MimeType: "image/png"}, nil
}

func squarePNG(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{R: 184, G: 184, B: 184, A: 255}
			if x >= size/4 && x < 3*size/4 && y >= size/4 && y < 3*size/4 {
				c = color.NRGBA{R: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		panic(err)
	}
	return data
}
