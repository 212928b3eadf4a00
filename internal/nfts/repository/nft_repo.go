package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const nftColumns = `id, project_id, variant_index, name, description, image, attributes, mint_status, created_at, updated_at`

// NFTRepository handles PostgreSQL operations for assembled NFTs
type NFTRepository struct {
	db *sql.DB
}

func NewNFTRepository(db *sql.DB) *NFTRepository {
	return &NFTRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNFT(row rowScanner) (*domain.NFT, error) {
	var n domain.NFT
	var attrs []byte
	var status string
	if err := row.Scan(
		&n.ID,
		&n.ProjectID,
		&n.VariantIndex,
		&n.Name,
		&n.Description,
		&n.Image,
		&attrs,
		&status,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	n.MintStatus = domain.MintStatus(status)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
		}
	}
	if n.Attributes == nil {
		n.Attributes = []domain.Attribute{}
	}
	return &n, nil
}

// Create inserts a complete record in one statement; a failed insert leaves nothing behind.
func (r *NFTRepository) Create(ctx context.Context, n *domain.NFT) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.MintStatus == "" {
		n.MintStatus = domain.MintPending
	}

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	const q = `
		INSERT INTO nfts (id, project_id, variant_index, name, description, image, attributes, mint_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, q,
		n.ID, n.ProjectID, n.VariantIndex, n.Name, n.Description, n.Image, attrs, string(n.MintStatus),
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %d", domain.ErrVariantIndexTaken, n.VariantIndex)
		}
		return fmt.Errorf("failed to create nft: %w", err)
	}
	return nil
}

func (r *NFTRepository) GetByID(ctx context.Context, id string) (*domain.NFT, error) {
	q := `SELECT ` + nftColumns + ` FROM nfts WHERE id = $1`

	n, err := scanNFT(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNFTNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return n, nil
}

func (r *NFTRepository) FindMany(ctx context.Context, f domain.Filter) ([]domain.NFT, error) {
	var (
		where []string
		args  []any
	)
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("mint_status = ANY($%d)", len(args)))
	}

	q := `SELECT ` + nftColumns + ` FROM nfts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY variant_index ASC, created_at ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list nfts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.NFT, 0, 16)
	for rows.Next() {
		n, err := scanNFT(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nft: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// ReserveVariantIndexes hands out n consecutive variant indexes and returns
// the first. The counter row is seeded from the stored records on first
// use and bumped in the same statement, so concurrent callers get disjoint
// ranges. Indexes of variants that later fail are not reused.
func (r *NFTRepository) ReserveVariantIndexes(ctx context.Context, projectID string, n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: reserve %d", domain.ErrInvalidCount, n)
	}
	const q = `
		INSERT INTO nft_variant_counters (project_id, next_index)
		SELECT $1, COALESCE(MAX(variant_index), 0) + 1 + $2 FROM nfts WHERE project_id = $1
		ON CONFLICT (project_id) DO UPDATE
		SET next_index = nft_variant_counters.next_index + $2
		RETURNING next_index - $2
	`
	var first int
	if err := r.db.QueryRowContext(ctx, q, projectID, n).Scan(&first); err != nil {
		return 0, fmt.Errorf("failed to reserve variant indexes: %w", err)
	}
	return first, nil
}

// ReplaceContent swaps image and attributes together.
func (r *NFTRepository) ReplaceContent(ctx context.Context, id, image string, attributes []domain.Attribute) (*domain.NFT, error) {
	attrs, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}

	q := `
		UPDATE nfts
		SET image = $2, attributes = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + nftColumns

	n, err := scanNFT(r.db.QueryRowContext(ctx, q, id, image, attrs))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNFTNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace nft content: %w", err)
	}
	return n, nil
}

// UpdateMintStatus moves a record from one status to another. It returns
// false when the record is missing or no longer in the from status.
func (r *NFTRepository) UpdateMintStatus(ctx context.Context, id string, from, to domain.MintStatus) (bool, error) {
	const q = `
		UPDATE nfts
		SET mint_status = $3, updated_at = NOW()
		WHERE id = $1 AND mint_status = $2
	`
	res, err := r.db.ExecContext(ctx, q, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("failed to update mint status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TraitCounts tallies how often each layer/trait pair appears in a
// project's manifests.
func (r *NFTRepository) TraitCounts(ctx context.Context, projectID string) (map[string]map[string]int, error) {
	const q = `
		SELECT attr->>'trait_type', attr->>'value', COUNT(*)
		FROM nfts, jsonb_array_elements(attributes) AS attr
		WHERE project_id = $1
		GROUP BY 1, 2
	`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count traits: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var layer, trait string
		var count int
		if err := rows.Scan(&layer, &trait, &count); err != nil {
			return nil, err
		}
		if out[layer] == nil {
			out[layer] = make(map[string]int)
		}
		out[layer][trait] = count
	}
	return out, rows.Err()
}
