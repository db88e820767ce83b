// Package listing creates and features vehicle listings within the owner's
// plan limits and meters external API calls.
package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/plans"
)

var (
	ErrVehicleNotFound   = errors.New("listing: vehicle not found")
	ErrUsageUnavailable  = errors.New("listing: usage could not be verified")
	ErrAlreadyFeatured   = errors.New("listing: vehicle is already featured")
	ErrVehicleInactive   = errors.New("listing: only active vehicles can be featured")
	ErrMeterUnconfigured = errors.New("listing: external call meter is not configured")
)

// LimitError reports a plan limit that blocked a write. It matches
// access.ErrLimitExceeded with errors.Is.
type LimitError struct {
	Decision access.Decision
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("listing: %s", e.Decision.Reason)
}

func (e *LimitError) Unwrap() error { return access.ErrLimitExceeded }

type VehicleStatus string

const (
	VehicleActive   VehicleStatus = "active"
	VehicleSold     VehicleStatus = "sold"
	VehicleArchived VehicleStatus = "archived"
)

// Vehicle is a listing. Price is in centavos.
type Vehicle struct {
	ID         uuid.UUID     `json:"id"`
	AccountID  uuid.UUID     `json:"account_id"`
	Title      string        `json:"title"`
	Make       string        `json:"make"`
	Model      string        `json:"model"`
	Year       int           `json:"year"`
	Price      int64         `json:"price"`
	MileageKM  int64         `json:"mileage_km"`
	Status     VehicleStatus `json:"status"`
	Featured   bool          `json:"featured"`
	FeaturedAt *time.Time    `json:"featured_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// VehicleInput is the data a seller submits for a new listing.
type VehicleInput struct {
	Title     string `json:"title"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Price     int64  `json:"price"`
	MileageKM int64  `json:"mileage_km"`
}

// PlanResolver maps the plan id read under lock to the plan applied.
type PlanResolver func(id *plans.PlanID) plans.Plan

// Store performs the capacity-checked writes. Both methods lock the owner's
// account row, count under that lock and write in the same transaction; a
// full plan yields *LimitError.
type Store interface {
	CreateWithinLimit(ctx context.Context, v *Vehicle, resolve PlanResolver) error
	FeatureWithinLimit(ctx context.Context, ownerID, vehicleID uuid.UUID, at time.Time, resolve PlanResolver) (*Vehicle, error)
}

// Checker is the advisory side of the evaluator.
type Checker interface {
	CanAddResource(ctx context.Context, ownerID uuid.UUID) access.Decision
	CanFeatureResource(ctx context.Context, ownerID uuid.UUID) access.Decision
	CanUse(ctx context.Context, ownerID uuid.UUID, res plans.Resource) access.Decision
	Catalog() *plans.Catalog
}

// Meter increments a monthly counter and returns the new value.
type Meter interface {
	Record(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
