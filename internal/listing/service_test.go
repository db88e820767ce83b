package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/plans"
	"github.com/autovitrine/marketplace/pkg/validator"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type mockChecker struct{ mock.Mock }

func (m *mockChecker) CanAddResource(ctx context.Context, owner uuid.UUID) access.Decision {
	return m.Called(ctx, owner).Get(0).(access.Decision)
}

func (m *mockChecker) CanFeatureResource(ctx context.Context, owner uuid.UUID) access.Decision {
	return m.Called(ctx, owner).Get(0).(access.Decision)
}

func (m *mockChecker) CanUse(ctx context.Context, owner uuid.UUID, res plans.Resource) access.Decision {
	return m.Called(ctx, owner, res).Get(0).(access.Decision)
}

func (m *mockChecker) Catalog() *plans.Catalog { return plans.DefaultCatalog() }

// memStore enforces limits the way the SQL store does: count and insert
// under one lock.
type memStore struct {
	mu       sync.Mutex
	planOf   map[uuid.UUID]plans.PlanID
	vehicles map[uuid.UUID]*listing.Vehicle
	err      error
}

func newMemStore() *memStore {
	return &memStore{planOf: map[uuid.UUID]plans.PlanID{}, vehicles: map[uuid.UUID]*listing.Vehicle{}}
}

func (s *memStore) count(owner uuid.UUID, featured bool) int64 {
	var n int64
	for _, v := range s.vehicles {
		if v.AccountID == owner && v.Status == listing.VehicleActive && (!featured || v.Featured) {
			n++
		}
	}
	return n
}

func (s *memStore) plan(owner uuid.UUID, resolve listing.PlanResolver) plans.Plan {
	id, ok := s.planOf[owner]
	if !ok {
		return resolve(nil)
	}
	return resolve(&id)
}

func (s *memStore) CreateWithinLimit(_ context.Context, v *listing.Vehicle, resolve listing.PlanResolver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	d := access.Decide(s.plan(v.AccountID, resolve), plans.ResourceVehicles, s.count(v.AccountID, false))
	if !d.Permitted {
		return &listing.LimitError{Decision: d}
	}
	cp := *v
	s.vehicles[v.ID] = &cp
	return nil
}

func (s *memStore) FeatureWithinLimit(_ context.Context, owner, id uuid.UUID, at time.Time, resolve listing.PlanResolver) (*listing.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok || v.AccountID != owner {
		return nil, listing.ErrVehicleNotFound
	}
	if v.Featured {
		return nil, listing.ErrAlreadyFeatured
	}
	d := access.Decide(s.plan(owner, resolve), plans.ResourceFeaturedVehicles, s.count(owner, true))
	if !d.Permitted {
		return nil, &listing.LimitError{Decision: d}
	}
	v.Featured = true
	v.FeaturedAt = &at
	cp := *v
	return &cp, nil
}

type fakeMeter struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int64
	err    error
}

func (m *fakeMeter) Record(_ context.Context, owner uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = map[uuid.UUID]int64{}
	}
	m.counts[owner]++
	return m.counts[owner], nil
}

func permit(res plans.Resource) access.Decision {
	return access.Decision{Permitted: true, Known: true, Code: access.CodeWithinLimit, Resource: res}
}

func input() listing.VehicleInput {
	return listing.VehicleInput{Title: "Civic EXL 2.0", Make: "Honda", Model: "Civic", Year: 2021, Price: 11990000, MileageKM: 42000}
}

func newService(store listing.Store, checker *mockChecker, opts ...listing.Option) *listing.Service {
	opts = append([]listing.Option{
		listing.WithClock(func() time.Time { return now }),
		listing.WithLogger(logger.Discard()),
	}, opts...)
	return listing.NewService(store, checker, opts...)
}

func TestCreateVehicle(t *testing.T) {
	t.Parallel()

	t.Run("creates within limit", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		checker := &mockChecker{}
		checker.On("CanAddResource", mock.Anything, owner).Return(permit(plans.ResourceVehicles))
		store := newMemStore()

		v, err := newService(store, checker).CreateVehicle(context.Background(), owner, input())
		require.NoError(t, err)
		assert.Equal(t, owner, v.AccountID)
		assert.Equal(t, listing.VehicleActive, v.Status)
		assert.Equal(t, now, v.CreatedAt)
		assert.Len(t, store.vehicles, 1)
	})

	t.Run("validation runs before any check", func(t *testing.T) {
		t.Parallel()
		checker := &mockChecker{}
		in := input()
		in.Title = ""
		in.Price = 0
		in.Year = 1800

		_, err := newService(newMemStore(), checker).CreateVehicle(context.Background(), uuid.New(), in)
		verrs := validator.ExtractValidationErrors(err)
		require.NotNil(t, verrs)
		assert.ElementsMatch(t, []string{"title", "price", "year"}, verrs.Fields())
		checker.AssertNotCalled(t, "CanAddResource", mock.Anything, mock.Anything)
	})

	t.Run("advisory denial", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		checker := &mockChecker{}
		checker.On("CanAddResource", mock.Anything, owner).Return(access.Decision{
			Known: true, Code: access.CodeLimitReached, Resource: plans.ResourceVehicles, Reason: "Plan Gratuito allows up to 3 vehicles",
		})
		store := newMemStore()

		_, err := newService(store, checker).CreateVehicle(context.Background(), owner, input())
		require.ErrorIs(t, err, access.ErrLimitExceeded)
		var limitErr *listing.LimitError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, access.CodeLimitReached, limitErr.Decision.Code)
		assert.Empty(t, store.vehicles)
	})

	t.Run("unknown usage denies", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		checker := &mockChecker{}
		checker.On("CanAddResource", mock.Anything, owner).Return(access.Decision{Code: access.CodeUsageUnavailable})

		_, err := newService(newMemStore(), checker).CreateVehicle(context.Background(), owner, input())
		assert.ErrorIs(t, err, listing.ErrUsageUnavailable)
	})

	t.Run("store error is wrapped", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		checker := &mockChecker{}
		checker.On("CanAddResource", mock.Anything, owner).Return(permit(plans.ResourceVehicles))
		store := newMemStore()
		boom := errors.New("connection reset")
		store.err = boom

		_, err := newService(store, checker).CreateVehicle(context.Background(), owner, input())
		assert.ErrorIs(t, err, boom)
	})
}

func TestCreateVehicleConcurrentRequestsRespectLimit(t *testing.T) {
	t.Parallel()

	// Every advisory check passes, as it would when requests race; the
	// transactional write is what holds the line.
	owner := uuid.New()
	checker := &mockChecker{}
	checker.On("CanAddResource", mock.Anything, owner).Return(permit(plans.ResourceVehicles))
	store := newMemStore()
	store.planOf[owner] = plans.PlanFree
	svc := newService(store, checker)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created, denied int
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateVehicle(context.Background(), owner, input())
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, access.ErrLimitExceeded) {
				denied++
				return
			}
			if err == nil {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, 7, denied)
}

func TestFeatureVehicle(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	checker := &mockChecker{}
	checker.On("CanAddResource", mock.Anything, owner).Return(permit(plans.ResourceVehicles))
	checker.On("CanFeatureResource", mock.Anything, owner).Return(permit(plans.ResourceFeaturedVehicles))
	store := newMemStore()
	store.planOf[owner] = plans.PlanBasic
	svc := newService(store, checker)

	var ids []uuid.UUID
	for range 3 {
		v, err := svc.CreateVehicle(context.Background(), owner, input())
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	v, err := svc.FeatureVehicle(context.Background(), owner, ids[0])
	require.NoError(t, err)
	assert.True(t, v.Featured)
	require.NotNil(t, v.FeaturedAt)
	assert.Equal(t, now, *v.FeaturedAt)

	_, err = svc.FeatureVehicle(context.Background(), owner, ids[0])
	assert.ErrorIs(t, err, listing.ErrAlreadyFeatured)

	_, err = svc.FeatureVehicle(context.Background(), owner, ids[1])
	require.NoError(t, err)

	// Básico allows two featured listings.
	_, err = svc.FeatureVehicle(context.Background(), owner, ids[2])
	assert.ErrorIs(t, err, access.ErrLimitExceeded)

	_, err = svc.FeatureVehicle(context.Background(), uuid.New(), ids[2])
	assert.ErrorIs(t, err, listing.ErrVehicleNotFound)
}

func TestRecordExternalCall(t *testing.T) {
	t.Parallel()

	limited := func(n int64) access.Decision {
		d := permit(plans.ResourceExternalCalls)
		d.PlanID = plans.PlanFree
		d.Max = plans.Limited(n)
		return d
	}

	t.Run("counts until the cap", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		checker := &mockChecker{}
		checker.On("CanUse", mock.Anything, owner, plans.ResourceExternalCalls).Return(limited(2))
		svc := newService(newMemStore(), checker, listing.WithMeter(&fakeMeter{}))

		n, err := svc.RecordExternalCall(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		_, err = svc.RecordExternalCall(context.Background(), owner)
		require.NoError(t, err)

		// The advisory check was stale; the increment itself crosses the cap.
		_, err = svc.RecordExternalCall(context.Background(), owner)
		assert.ErrorIs(t, err, access.ErrLimitExceeded)
	})

	t.Run("unlimited", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		d := permit(plans.ResourceExternalCalls)
		d.Max = plans.Unlimited()
		checker := &mockChecker{}
		checker.On("CanUse", mock.Anything, owner, plans.ResourceExternalCalls).Return(d)
		meter := &fakeMeter{counts: map[uuid.UUID]int64{owner: 1_000_000}}

		n, err := newService(newMemStore(), checker, listing.WithMeter(meter)).RecordExternalCall(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), n)
	})

	t.Run("meter failure", func(t *testing.T) {
		t.Parallel()
		owner := uuid.New()
		checker := &mockChecker{}
		checker.On("CanUse", mock.Anything, owner, plans.ResourceExternalCalls).Return(limited(10))
		meter := &fakeMeter{err: errors.New("redis down")}

		_, err := newService(newMemStore(), checker, listing.WithMeter(meter)).RecordExternalCall(context.Background(), owner)
		assert.ErrorIs(t, err, listing.ErrUsageUnavailable)
	})

	t.Run("no meter", func(t *testing.T) {
		t.Parallel()
		_, err := newService(newMemStore(), &mockChecker{}).RecordExternalCall(context.Background(), uuid.New())
		assert.ErrorIs(t, err, listing.ErrMeterUnconfigured)
	})
}
