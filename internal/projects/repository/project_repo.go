package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

// ProjectRepository persists projects with their layer hierarchy as JSONB.
type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	Status       *domain.Status
	PreviewImage *string
	Config       *domain.CharacterConfig
}

const projectColumns = `id, owner_id, name, prompt, status, coalesce(preview_image, ''), config::text, layers::text, created_at, updated_at`

// Create inserts p with a fresh public id, retrying on id collisions.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if p.OwnerID == "" {
		return nil, fmt.Errorf("owner id required")
	}
	if p.Status == "" {
		p.Status = domain.StatusInitializing
	}
	if p.Layers == nil {
		p.Layers = []domain.Layer{}
	}

	cfg, layers, err := encodeJSON(p.Config, p.Layers)
	if err != nil {
		return nil, err
	}

	for i := 0; i < 5; i++ {
		id, err := domain.NewProjectID()
		if err != nil {
			return nil, err
		}

		const q = `
insert into projects (id, owner_id, name, prompt, status, preview_image, config, layers)
values ($1, $2, $3, $4, $5, nullif($6, ''), $7::jsonb, $8::jsonb)
returning ` + projectColumns + `;
`
		out, err := scanProject(r.db.QueryRow(ctx, q,
			id, p.OwnerID, p.Name, p.Prompt, string(p.Status), p.PreviewImage, cfg, layers))
		if err == nil {
			return out, nil
		}

		// unique violation on id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

// Get loads a project regardless of owner.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where id = $1 and deleted_at is null;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	return p, err
}

func (r *ProjectRepository) GetOwned(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where id = $1 and owner_id = $2 and deleted_at is null;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	return p, err
}

func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where owner_id = $1 and deleted_at is null
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update of the scalar fields.
func (r *ProjectRepository) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Project, error) {
	var status, cfg *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}
	if in.Config != nil {
		data, err := json.Marshal(in.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		s := string(data)
		cfg = &s
	}

	const q = `
update projects
set name = coalesce($3, name),
    status = coalesce($4, status),
    preview_image = coalesce($5, preview_image),
    config = coalesce($6::jsonb, config),
    updated_at = now()
where id = $1 and owner_id = $2 and deleted_at is null
returning ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id, ownerID, in.Name, status, in.PreviewImage, cfg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	return p, err
}

// Mutate loads the project under a row lock, applies fn and writes the
// result back in the same transaction. Nothing is written when fn fails.
func (r *ProjectRepository) Mutate(ctx context.Context, ownerID, id string, fn func(*domain.Project) error) (*domain.Project, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const sel = `
select ` + projectColumns + `
from projects
where id = $1 and owner_id = $2 and deleted_at is null
for update;
`
	p, err := scanProject(tx.QueryRow(ctx, sel, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	cfg, layers, err := encodeJSON(p.Config, p.Layers)
	if err != nil {
		return nil, err
	}

	const upd = `
update projects
set name = $2,
    status = $3,
    preview_image = nullif($4, ''),
    config = $5::jsonb,
    layers = $6::jsonb,
    updated_at = now()
where id = $1
returning updated_at;
`
	if err := tx.QueryRow(ctx, upd, p.ID, p.Name, string(p.Status), p.PreviewImage, cfg, layers).
		Scan(&p.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) SoftDelete(ctx context.Context, ownerID, id string) (bool, error) {
	const q = `
update projects
set deleted_at = now(), updated_at = now()
where id = $1 and owner_id = $2 and deleted_at is null;
`
	tag, err := r.db.Exec(ctx, q, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteStaleInitializing soft deletes projects that never left the
// initializing state within maxAge.
func (r *ProjectRepository) DeleteStaleInitializing(ctx context.Context, maxAge time.Duration) (int64, error) {
	const q = `
update projects
set deleted_at = now(), updated_at = now()
where status = 'initializing'
  and deleted_at is null
  and created_at < now() - make_interval(secs => $1);
`
	tag, err := r.db.Exec(ctx, q, maxAge.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p             domain.Project
		status        string
		cfg, layerTxt string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Prompt, &status, &p.PreviewImage,
		&cfg, &layerTxt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.Status(status)

	if cfg != "" {
		if err := json.Unmarshal([]byte(cfg), &p.Config); err != nil {
			return nil, fmt.Errorf("failed to decode config of %s: %w", p.ID, err)
		}
	}
	layers, err := DecodeLayers([]byte(layerTxt))
	if err != nil {
		return nil, fmt.Errorf("failed to decode layers of %s: %w", p.ID, err)
	}
	p.Layers = layers
	return &p, nil
}

// DecodeLayers parses stored layers, rejecting unknown fields so schema
// drift surfaces as an error instead of silently dropped data.
func DecodeLayers(data []byte) ([]domain.Layer, error) {
	layers := []domain.Layer{}
	if len(bytes.TrimSpace(data)) == 0 {
		return layers, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&layers); err != nil {
		return nil, err
	}
	if layers == nil {
		layers = []domain.Layer{}
	}
	return layers, nil
}

func encodeJSON(cfg domain.CharacterConfig, layers []domain.Layer) (string, string, error) {
	c, err := json.Marshal(cfg)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if layers == nil {
		layers = []domain.Layer{}
	}
	l, err := json.Marshal(layers)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal layers: %w", err)
	}
	return string(c), string(l), nil
}
