package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

const fileScheme = "file://"

// dirStore keeps objects as files under root. References are file:// URLs
// so trait images anywhere on disk resolve through the same store.
type dirStore struct {
	root string
}

func newDirStore(root string) (*dirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &dirStore{root: abs}, nil
}

func (s *dirStore) path(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *dirStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return fileScheme + p, nil
}

func (s *dirStore) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

func (s *dirStore) Delete(_ context.Context, key string) error {
	return os.Remove(s.path(key))
}

func (s *dirStore) KeyFor(ref string) (string, bool) {
	if !strings.HasPrefix(ref, fileScheme) {
		return "", false
	}
	return strings.TrimPrefix(ref, fileScheme), true
}

type staticProjects struct {
	p *projdomain.Project
}

func (s staticProjects) GetOwned(_ context.Context, ownerID, id string) (*projdomain.Project, error) {
	if s.p.ID != id || s.p.OwnerID != ownerID {
		return nil, projdomain.ErrProjectNotFound
	}
	return s.p, nil
}

// metadataStore keeps NFT records in memory and mirrors each one to
// metadata/<variant>.json in the ERC-721 metadata layout.
type metadataStore struct {
	dir string

	mu   sync.Mutex
	byID map[string]*domain.NFT
	next map[string]int
}

type tokenMetadata struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Attributes  []domain.Attribute `json:"attributes"`
}

func newMetadataStore(out string) *metadataStore {
	return &metadataStore{dir: filepath.Join(out, "metadata"), byID: make(map[string]*domain.NFT), next: make(map[string]int)}
}

func (m *metadataStore) Create(_ context.Context, n *domain.NFT) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = n.CreatedAt
	if err := m.write(n); err != nil {
		return err
	}

	m.mu.Lock()
	cp := *n
	m.byID[n.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *metadataStore) write(n *domain.NFT) error {
	data, err := json.MarshalIndent(tokenMetadata{
		Name:        n.Name,
		Description: n.Description,
		Image:       strings.TrimPrefix(n.Image, fileScheme),
		Attributes:  n.Attributes,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, fmt.Sprintf("%d.json", n.VariantIndex)), data, 0o644)
}

func (m *metadataStore) GetByID(_ context.Context, id string) (*domain.NFT, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNFTNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *metadataStore) FindMany(_ context.Context, f domain.Filter) ([]domain.NFT, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.NFT
	for _, n := range m.byID {
		if f.ProjectID == "" || n.ProjectID == f.ProjectID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *metadataStore) ReserveVariantIndexes(_ context.Context, projectID string, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := m.next[projectID]
	if first == 0 {
		first = 1
	}
	m.next[projectID] = first + n
	return first, nil
}

func (m *metadataStore) ReplaceContent(_ context.Context, id, image string, attributes []domain.Attribute) (*domain.NFT, error) {
	m.mu.Lock()
	n, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNFTNotFound
	}
	n.Image, n.Attributes, n.UpdatedAt = image, attributes, time.Now().UTC()
	cp := *n
	m.mu.Unlock()
	return &cp, m.write(&cp)
}

func (m *metadataStore) UpdateMintStatus(context.Context, string, domain.MintStatus, domain.MintStatus) (bool, error) {
	return false, errors.New("mint status is not tracked locally")
}

func (m *metadataStore) TraitCounts(_ context.Context, projectID string) (map[string]map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]int)
	for _, n := range m.byID {
		if n.ProjectID != projectID {
			continue
		}
		for _, a := range n.Attributes {
			if out[a.TraitType] == nil {
				out[a.TraitType] = make(map[string]int)
			}
			out[a.TraitType][a.Value]++
		}
	}
	return out, nil
}
