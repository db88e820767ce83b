package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
)

// CatalogRepo keeps every published version of the plan catalog. It is a
// plans.Source that serves the highest version.
type CatalogRepo struct {
	db DB
}

func NewCatalogRepo(db DB) *CatalogRepo {
	if db == nil {
		panic("store: db is required")
	}
	return &CatalogRepo{db: db}
}

// Load implements plans.Source.
func (r *CatalogRepo) Load(ctx context.Context) (*plans.Catalog, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT document FROM plan_catalogs ORDER BY version DESC LIMIT 1`).Scan(&raw)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("loading plan catalog: %w", err)
	}
	var doc plans.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(plans.ErrInvalidPlanConfiguration, err)
	}
	return doc.Build()
}

// Publish stores c under its version. Versions are immutable.
func (r *CatalogRepo) Publish(ctx context.Context, c *plans.Catalog) error {
	raw, err := json.Marshal(c.Document())
	if err != nil {
		return fmt.Errorf("encoding plan catalog: %w", err)
	}
	if _, err := r.db.Exec(ctx, `INSERT INTO plan_catalogs (version, document) VALUES ($1, $2)`, c.Version(), raw); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrCatalogVersionExists
		}
		return fmt.Errorf("publishing plan catalog: %w", err)
	}
	return nil
}
