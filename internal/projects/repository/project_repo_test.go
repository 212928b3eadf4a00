package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

func TestDecodeLayers(t *testing.T) {
	layers, err := DecodeLayers([]byte(`[{"name":"Background","position":{"x":0,"y":0,"width":8,"height":8},"traits":[{"name":"Sky","rarity":100}]}]`))
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "Sky", layers[0].Traits[0].Name)

	empty, err := DecodeLayers(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	null, err := DecodeLayers([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, null)
}

func TestDecodeLayers_RejectsUnknownFields(t *testing.T) {
	_, err := DecodeLayers([]byte(`[{"name":"Hat","zIndex":3,"traits":[]}]`))
	assert.Error(t, err)
}

func TestEncodeJSON_NilLayers(t *testing.T) {
	_, layers, err := encodeJSON(domain.CharacterConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", layers)
}

// The remaining tests need a postgres with the projects table; they run
// only when TEST_DB_DSN is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestProjectRepository_MutateRollsBackOnError(t *testing.T) {
	repo := NewProjectRepository(testPool(t))
	ctx := context.Background()

	p, err := repo.Create(ctx, &domain.Project{OwnerID: "owner-1", Name: "Fox Collection", Prompt: "fox"})
	require.NoError(t, err)

	_, err = repo.Mutate(ctx, "owner-1", p.ID, func(p *domain.Project) error {
		p.Name = "changed"
		return domain.ErrLayerNotFound
	})
	assert.ErrorIs(t, err, domain.ErrLayerNotFound)

	got, err := repo.GetOwned(ctx, "owner-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fox Collection", got.Name)

	_, err = repo.GetOwned(ctx, "someone-else", p.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}
