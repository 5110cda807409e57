package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// Repository provides read access to the materials catalogs. Catalog
// maintenance lives on a separate surface.
type Repository interface {
	GetMaterial(ctx context.Context, id int64) (*Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
	GetMiscMaterial(ctx context.Context, id int64) (*MiscMaterial, error)
	ListActiveMiscMaterials(ctx context.Context) ([]MiscMaterial, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetMaterial(ctx context.Context, id int64) (*Material, error) {
	var m Material
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, unit, unit_cost, active FROM materials WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Unit, &m.UnitCost, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, unit, unit_cost, active FROM materials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.UnitCost, &m.Active); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) GetMiscMaterial(ctx context.Context, id int64) (*MiscMaterial, error) {
	var m MiscMaterial
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, active FROM misc_materials WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Price, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListActiveMiscMaterials(ctx context.Context) ([]MiscMaterial, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, active FROM misc_materials WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MiscMaterial
	for rows.Next() {
		var m MiscMaterial
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Active); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
