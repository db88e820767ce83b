package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/plans"
	"github.com/autovitrine/marketplace/pkg/validator"
)

type Service struct {
	store   Store
	checker Checker
	meter   Meter
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMeter enables RecordExternalCall.
func WithMeter(m Meter) Option {
	return func(s *Service) { s.meter = m }
}

func NewService(store Store, checker Checker, opts ...Option) *Service {
	if store == nil {
		panic("listing: store is required")
	}
	if checker == nil {
		panic("listing: checker is required")
	}
	s := &Service{store: store, checker: checker, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("listing"))
	return s
}

func (s *Service) resolver() PlanResolver {
	catalog := s.checker.Catalog()
	return func(id *plans.PlanID) plans.Plan { return catalog.LookupPtr(id) }
}

// ValidateVehicle checks a listing before any limit is consulted.
func ValidateVehicle(in VehicleInput, now time.Time) error {
	return validator.Apply(
		validator.Required("title", in.Title),
		validator.MaxLen("title", in.Title, 120),
		validator.Required("make", in.Make),
		validator.Required("model", in.Model),
		validator.Between("year", in.Year, 1900, now.Year()+1),
		validator.Positive("price", in.Price),
		validator.Between("mileage_km", in.MileageKM, 0, 5_000_000),
	)
}

// CreateVehicle adds a listing for owner. A failed advisory check returns
// early; the store re-checks the limit inside its transaction.
func (s *Service) CreateVehicle(ctx context.Context, ownerID uuid.UUID, in VehicleInput) (*Vehicle, error) {
	now := s.now().UTC()
	if err := ValidateVehicle(in, now); err != nil {
		return nil, err
	}
	if err := denial(s.checker.CanAddResource(ctx, ownerID)); err != nil {
		return nil, err
	}

	v := &Vehicle{
		ID:        uuid.New(),
		AccountID: ownerID,
		Title:     strings.TrimSpace(in.Title),
		Make:      strings.TrimSpace(in.Make),
		Model:     strings.TrimSpace(in.Model),
		Year:      in.Year,
		Price:     in.Price,
		MileageKM: in.MileageKM,
		Status:    VehicleActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateWithinLimit(ctx, v, s.resolver()); err != nil {
		return nil, s.writeError(ctx, "create vehicle", ownerID, err)
	}
	s.log.InfoContext(ctx, "vehicle created", logger.AccountID(ownerID), slog.String("vehicle_id", v.ID.String()))
	return v, nil
}

// FeatureVehicle marks one of owner's active listings as featured.
func (s *Service) FeatureVehicle(ctx context.Context, ownerID, vehicleID uuid.UUID) (*Vehicle, error) {
	if err := denial(s.checker.CanFeatureResource(ctx, ownerID)); err != nil {
		return nil, err
	}
	v, err := s.store.FeatureWithinLimit(ctx, ownerID, vehicleID, s.now().UTC(), s.resolver())
	if err != nil {
		return nil, s.writeError(ctx, "feature vehicle", ownerID, err)
	}
	s.log.InfoContext(ctx, "vehicle featured", logger.AccountID(ownerID), slog.String("vehicle_id", vehicleID.String()))
	return v, nil
}

// RecordExternalCall counts one outbound integration call against the
// owner's monthly allowance and returns the new count. The counter is
// incremented atomically, so a call that lands over the cap is rejected
// even when the advisory check raced with another request.
func (s *Service) RecordExternalCall(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if s.meter == nil {
		return 0, ErrMeterUnconfigured
	}
	d := s.checker.CanUse(ctx, ownerID, plans.ResourceExternalCalls)
	if err := denial(d); err != nil {
		return 0, err
	}
	n, err := s.meter.Record(ctx, ownerID)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to record external call", logger.AccountID(ownerID), logger.Error(err))
		return 0, errors.Join(ErrUsageUnavailable, err)
	}
	if !d.Max.Allows(n - 1) {
		d.Permitted = false
		d.Code = access.CodeLimitReached
		d.Current = n - 1
		d.Reason = fmt.Sprintf("Plan %s allows up to %s external calls per month",
			s.checker.Catalog().Lookup(d.PlanID).Name, d.Max)
		return n, &LimitError{Decision: d}
	}
	return n, nil
}

func denial(d access.Decision) error {
	if d.Permitted {
		return nil
	}
	if !d.Known {
		return ErrUsageUnavailable
	}
	return &LimitError{Decision: d}
}

func (s *Service) writeError(ctx context.Context, op string, ownerID uuid.UUID, err error) error {
	var limitErr *LimitError
	switch {
	case errors.As(err, &limitErr):
		s.log.InfoContext(ctx, "plan limit reached on write", logger.AccountID(ownerID),
			logger.Resource(string(limitErr.Decision.Resource)))
		return err
	case errors.Is(err, ErrVehicleNotFound), errors.Is(err, ErrAlreadyFeatured),
		errors.Is(err, ErrVehicleInactive), errors.Is(err, access.ErrAccountNotFound):
		return err
	}
	s.log.ErrorContext(ctx, "failed to "+op, logger.AccountID(ownerID), logger.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
