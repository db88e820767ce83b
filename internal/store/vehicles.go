package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
)

// VehicleRepo stores listings and counts them for the usage registry.
type VehicleRepo struct {
	db DB
}

func NewVehicleRepo(db DB) *VehicleRepo {
	if db == nil {
		panic("store: db is required")
	}
	return &VehicleRepo{db: db}
}

const (
	countActiveSQL   = `SELECT COUNT(*) FROM vehicles WHERE account_id = $1 AND status = 'active'`
	countFeaturedSQL = `SELECT COUNT(*) FROM vehicles WHERE account_id = $1 AND status = 'active' AND featured`
)

// CountActive counts the owner's active listings. It has the shape of a
// usage.CounterFunc.
func (r *VehicleRepo) CountActive(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countActiveSQL, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vehicles: %w", err)
	}
	return n, nil
}

// CountFeatured counts the owner's active featured listings.
func (r *VehicleRepo) CountFeatured(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countFeaturedSQL, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting featured vehicles: %w", err)
	}
	return n, nil
}

// lockAccount takes the row lock that serializes capacity-checked writes of
// one owner and returns the owner's plan id.
func lockAccount(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*plans.PlanID, error) {
	var planID *string
	err := tx.QueryRow(ctx, `SELECT plan_id FROM accounts WHERE id = $1 FOR UPDATE`, ownerID).Scan(&planID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, access.ErrAccountNotFound
		}
		return nil, fmt.Errorf("locking account: %w", err)
	}
	if planID == nil {
		return nil, nil
	}
	id := plans.PlanID(*planID)
	return &id, nil
}

// CreateWithinLimit implements listing.Store.
func (r *VehicleRepo) CreateWithinLimit(ctx context.Context, v *listing.Vehicle, resolve listing.PlanResolver) error {
	return pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		planID, err := lockAccount(ctx, tx, v.AccountID)
		if err != nil {
			return err
		}
		var current int64
		if err := tx.QueryRow(ctx, countActiveSQL, v.AccountID).Scan(&current); err != nil {
			return fmt.Errorf("counting vehicles: %w", err)
		}
		if d := access.Decide(resolve(planID), plans.ResourceVehicles, current); !d.Permitted {
			return &listing.LimitError{Decision: d}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO vehicles (id, account_id, title, make, model, year, price, mileage_km, status, featured, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $11)
		`, v.ID, v.AccountID, v.Title, v.Make, v.Model, v.Year, v.Price, v.MileageKM, string(v.Status), v.CreatedAt, v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting vehicle: %w", err)
		}
		return nil
	})
}

const vehicleColumns = `id, account_id, title, make, model, year, price, mileage_km, status, featured, featured_at, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*listing.Vehicle, error) {
	var (
		v      listing.Vehicle
		status string
	)
	err := row.Scan(
		&v.ID,
		&v.AccountID,
		&v.Title,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.Price,
		&v.MileageKM,
		&status,
		&v.Featured,
		&v.FeaturedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Status = listing.VehicleStatus(status)
	return &v, nil
}

// FeatureWithinLimit implements listing.Store.
func (r *VehicleRepo) FeatureWithinLimit(ctx context.Context, ownerID, vehicleID uuid.UUID, at time.Time, resolve listing.PlanResolver) (*listing.Vehicle, error) {
	var out *listing.Vehicle
	err := pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		planID, err := lockAccount(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		v, err := scanVehicle(tx.QueryRow(ctx, `
			SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND account_id = $2
		`, vehicleID, ownerID))
		if err != nil {
			if pg.IsNotFoundError(err) {
				return listing.ErrVehicleNotFound
			}
			return fmt.Errorf("getting vehicle: %w", err)
		}
		switch {
		case v.Featured:
			return listing.ErrAlreadyFeatured
		case v.Status != listing.VehicleActive:
			return listing.ErrVehicleInactive
		}

		var current int64
		if err := tx.QueryRow(ctx, countFeaturedSQL, ownerID).Scan(&current); err != nil {
			return fmt.Errorf("counting featured vehicles: %w", err)
		}
		if d := access.Decide(resolve(planID), plans.ResourceFeaturedVehicles, current); !d.Permitted {
			return &listing.LimitError{Decision: d}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE vehicles SET featured = TRUE, featured_at = $2, updated_at = $2 WHERE id = $1
		`, vehicleID, at); err != nil {
			return fmt.Errorf("featuring vehicle: %w", err)
		}
		v.Featured = true
		v.FeaturedAt = &at
		v.UpdatedAt = at
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByAccount returns the owner's listings, newest first.
func (r *VehicleRepo) ListByAccount(ctx context.Context, ownerID uuid.UUID) ([]listing.Vehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying vehicles: %w", err)
	}
	defer rows.Close()

	var out []listing.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vehicle row: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vehicle rows: %w", err)
	}
	return out, nil
}
