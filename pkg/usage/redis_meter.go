package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/autovitrine/marketplace/pkg/plans"
)

// MeterClient is the subset of the redis client used by RedisMeter.
type MeterClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
}

// RedisMeter tracks per-month usage counters in redis. Counters reset at the
// start of every calendar month (UTC).
type RedisMeter struct {
	client   MeterClient
	resource plans.Resource
	prefix   string
	now      func() time.Time
}

// MeterOption configures a RedisMeter.
type MeterOption func(*RedisMeter)

// WithMeterPrefix overrides the key prefix (default "usage").
func WithMeterPrefix(prefix string) MeterOption {
	return func(m *RedisMeter) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// WithMeterClock sets the time source used to pick the current month.
func WithMeterClock(now func() time.Time) MeterOption {
	return func(m *RedisMeter) {
		if now != nil {
			m.now = now
		}
	}
}

func NewRedisMeter(client MeterClient, res plans.Resource, opts ...MeterOption) *RedisMeter {
	if client == nil {
		panic("usage: redis client is required")
	}
	m := &RedisMeter{client: client, resource: res, prefix: "usage", now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RedisMeter) key(ownerID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", m.prefix, m.resource, ownerID, at.UTC().Format("2006-01"))
}

func monthEnd(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// Count returns this month's usage. A missing key means no usage yet.
func (m *RedisMeter) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	val, err := m.client.Get(ctx, m.key(ownerID, m.now())).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrMeterUnavailable, err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrMeterUnavailable, err)
	}
	return n, nil
}

// Record adds one unit of usage and returns the new monthly total.
func (m *RedisMeter) Record(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	now := m.now()
	key := m.key(ownerID, now)
	n, err := m.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Join(ErrMeterUnavailable, err)
	}
	if n == 1 {
		// Keep the key one day past month end so late reads still see it.
		if err := m.client.ExpireAt(ctx, key, monthEnd(now).Add(24*time.Hour)).Err(); err != nil {
			return n, errors.Join(ErrMeterUnavailable, err)
		}
	}
	return n, nil
}

// CounterFunc adapts the meter to the usage registry.
func (m *RedisMeter) CounterFunc() CounterFunc {
	return m.Count
}
