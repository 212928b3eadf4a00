package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nftCols = []string{"id", "project_id", "variant_index", "name", "description", "image", "attributes", "mint_status", "created_at", "updated_at"}

func setupNFTRepo(t *testing.T) (*NFTRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNFTRepository(db), mock
}

func TestNFTRepository_Create(t *testing.T) {
	repo, mock := setupNFTRepo(t)
	ctx := context.Background()

	t.Run("inserts with defaults", func(t *testing.T) {
		n := &domain.NFT{
			ProjectID:    "collection-12345-6789",
			VariantIndex: 3,
			Name:         "Cat Collection #3",
			Image:        "data:image/png;base64,AAA",
			Attributes:   []domain.Attribute{{TraitType: "Hat", Value: "Cap"}},
		}

		mock.ExpectQuery(`INSERT INTO nfts`).
			WithArgs(
				sqlmock.AnyArg(),
				"collection-12345-6789",
				3,
				"Cat Collection #3",
				"",
				"data:image/png;base64,AAA",
				[]byte(`[{"trait_type":"Hat","value":"Cap"}]`),
				"pending",
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

		require.NoError(t, repo.Create(ctx, n))
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, domain.MintPending, n.MintStatus)
		assert.False(t, n.CreatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO nfts`).WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, &domain.NFT{ProjectID: "p"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create nft")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("variant index already used", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO nfts`).WillReturnError(&pq.Error{Code: "23505", Constraint: "nfts_project_variant_uidx"})

		err := repo.Create(ctx, &domain.NFT{ProjectID: "p", VariantIndex: 4})
		assert.ErrorIs(t, err, domain.ErrVariantIndexTaken)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNFTRepository_GetByID(t *testing.T) {
	repo, mock := setupNFTRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM nfts WHERE id = \$1`).
			WithArgs("nft-1").
			WillReturnRows(sqlmock.NewRows(nftCols).AddRow(
				"nft-1", "p1", 1, "P #1", "", "img", []byte(`[{"trait_type":"Eyes","value":"Laser"}]`), "minted", now, now,
			))

		n, err := repo.GetByID(ctx, "nft-1")
		require.NoError(t, err)
		assert.Equal(t, domain.MintMinted, n.MintStatus)
		assert.Equal(t, []domain.Attribute{{TraitType: "Eyes", Value: "Laser"}}, n.Attributes)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM nfts WHERE id = \$1`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNFTNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNFTRepository_FindMany(t *testing.T) {
	repo, mock := setupNFTRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("filters by project and status", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM nfts WHERE project_id = \$1 AND mint_status = ANY\(\$2\) ORDER BY variant_index ASC, created_at ASC LIMIT \$3`).
			WithArgs("p1", sqlmock.AnyArg(), 10).
			WillReturnRows(sqlmock.NewRows(nftCols).
				AddRow("a", "p1", 1, "P #1", "", "img", []byte(`[]`), "pending", now, now).
				AddRow("b", "p1", 2, "P #2", "", "img", nil, "failed", now, now))

		items, err := repo.FindMany(ctx, domain.Filter{
			ProjectID: "p1",
			Statuses:  []domain.MintStatus{domain.MintPending, domain.MintFailed},
			Limit:     10,
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "b", items[1].ID)
		assert.NotNil(t, items[1].Attributes)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filter", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM nfts ORDER BY`).
			WillReturnRows(sqlmock.NewRows(nftCols))

		items, err := repo.FindMany(ctx, domain.Filter{})
		require.NoError(t, err)
		assert.Empty(t, items)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNFTRepository_ReplaceContent(t *testing.T) {
	repo, mock := setupNFTRepo(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`UPDATE nfts\s+SET image = \$2, attributes = \$3`).
		WithArgs("a", "new-img", []byte(`[{"trait_type":"Hat","value":"Crown"}]`)).
		WillReturnRows(sqlmock.NewRows(nftCols).
			AddRow("a", "p1", 1, "P #1", "", "new-img", []byte(`[{"trait_type":"Hat","value":"Crown"}]`), "pending", now, now))

	n, err := repo.ReplaceContent(ctx, "a", "new-img", []domain.Attribute{{TraitType: "Hat", Value: "Crown"}})
	require.NoError(t, err)
	assert.Equal(t, "new-img", n.Image)
	assert.Equal(t, "Crown", n.Attributes[0].Value)

	mock.ExpectQuery(`UPDATE nfts`).WillReturnError(sql.ErrNoRows)
	_, err = repo.ReplaceContent(ctx, "zzz", "img", nil)
	assert.ErrorIs(t, err, domain.ErrNFTNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNFTRepository_UpdateMintStatus(t *testing.T) {
	repo, mock := setupNFTRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE nfts\s+SET mint_status = \$3`).
		WithArgs("a", "pending", "minted").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.UpdateMintStatus(ctx, "a", domain.MintPending, domain.MintMinted)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE nfts`).
		WithArgs("a", "pending", "failed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.UpdateMintStatus(ctx, "a", domain.MintPending, domain.MintFailed)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNFTRepository_ReserveVariantIndexesAndCounts(t *testing.T) {
	repo, mock := setupNFTRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO nft_variant_counters .+ ON CONFLICT \(project_id\) DO UPDATE`).
		WithArgs("p1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"first"}).AddRow(8))
	first, err := repo.ReserveVariantIndexes(ctx, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 8, first)

	_, err = repo.ReserveVariantIndexes(ctx, "p1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCount)

	mock.ExpectQuery(`jsonb_array_elements`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"trait_type", "value", "count"}).
			AddRow("Hat", "Cap", 7).
			AddRow("Hat", "Crown", 3).
			AddRow("Eyes", "Laser", 10))
	counts, err := repo.TraitCounts(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, counts["Hat"]["Crown"])
	assert.Equal(t, 10, counts["Eyes"]["Laser"])

	require.NoError(t, mock.ExpectationsWereMet())
}
