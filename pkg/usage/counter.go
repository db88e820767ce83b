package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/plans"
)

// CounterFunc returns the current usage of one resource for an owner.
// It must return an error rather than zero when the count is unknown.
type CounterFunc func(ctx context.Context, ownerID uuid.UUID) (int64, error)

// Registry maps resources to their counters. Register at startup; lookups are
// safe for concurrent use afterwards.
type Registry struct {
	mu       sync.RWMutex
	counters map[plans.Resource]CounterFunc
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[plans.Resource]CounterFunc)}
}

// Register adds the counter for res. It panics on a nil counter or a second
// registration for the same resource.
func (r *Registry) Register(res plans.Resource, fn CounterFunc) {
	if fn == nil {
		panic("usage: nil counter for resource " + string(res))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.counters[res]; exists {
		panic("usage: counter for resource " + string(res) + " already registered")
	}
	r.counters[res] = fn
}

func (r *Registry) get(res plans.Resource) (CounterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.counters[res]
	return fn, ok
}

// Resources returns the resources with a registered counter.
func (r *Registry) Resources() []plans.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plans.Resource, 0, len(r.counters))
	for _, res := range plans.Resources {
		if _, ok := r.counters[res]; ok {
			out = append(out, res)
		}
	}
	return out
}

// Counter answers usage questions through a Registry.
type Counter struct {
	registry *Registry
	now      func() time.Time
}

func NewCounter(registry *Registry) *Counter {
	if registry == nil {
		panic("usage: registry is required")
	}
	return &Counter{registry: registry, now: time.Now}
}

// Count returns the owner's current usage of res. Failures are reported as
// ErrCountUnavailable; a failed count is never reported as zero.
func (c *Counter) Count(ctx context.Context, ownerID uuid.UUID, res plans.Resource) (int64, error) {
	fn, ok := c.registry.get(res)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoCounter, res)
	}
	n, err := fn(ctx, ownerID)
	if err != nil {
		return 0, errors.Join(fmt.Errorf("%w: %s", ErrCountUnavailable, res), err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s: negative count %d", ErrCountUnavailable, res, n)
	}
	return n, nil
}

// Snapshot holds the counts taken for one owner at one instant.
type Snapshot struct {
	OwnerID uuid.UUID
	TakenAt time.Time
	Counts  map[plans.Resource]int64
	Failed  map[plans.Resource]error
}

// Count returns the recorded count for res. ok is false when the count failed
// or was not requested.
func (s Snapshot) Count(res plans.Resource) (n int64, ok bool) {
	n, ok = s.Counts[res]
	return n, ok
}

// Snapshot counts every requested resource, or every registered one when
// none are given. Individual failures are recorded in Failed.
func (c *Counter) Snapshot(ctx context.Context, ownerID uuid.UUID, resources ...plans.Resource) Snapshot {
	if len(resources) == 0 {
		resources = c.registry.Resources()
	}
	snap := Snapshot{
		OwnerID: ownerID,
		TakenAt: c.now().UTC(),
		Counts:  make(map[plans.Resource]int64, len(resources)),
		Failed:  make(map[plans.Resource]error),
	}
	for _, res := range resources {
		n, err := c.Count(ctx, ownerID, res)
		if err != nil {
			snap.Failed[res] = err
			continue
		}
		snap.Counts[res] = n
	}
	return snap
}
