package asaas

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes how long the client waits before retrying a GET request.
// Implementations must be safe for concurrent use.
type Backoff interface {
	// NextInterval returns the delay before retry number attempt. The first
	// retry is attempt 1; attempt 0 or below yields no delay.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff multiplies the delay by Multiplier on every retry and
// caps it at MaxInterval. Zero fields take the client defaults.
//
// JitterFactor spreads each delay uniformly within ±JitterFactor of its
// nominal value. Zero disables jitter, which keeps delays deterministic.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 10 * time.Second
	defaultMultiplier      = 2
)

// NextInterval returns min(InitialInterval * Multiplier^(attempt-1) * jitter, MaxInterval).
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	initial := orDefault(e.InitialInterval, defaultInitialInterval)
	ceiling := orDefault(e.MaxInterval, defaultMaxInterval)
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = defaultMultiplier
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	return time.Duration(math.Min(interval, float64(ceiling)))
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// defaultBackoff waits 0.5s, 1s, 2s (±10%) across the default three retries.
func defaultBackoff() Backoff {
	return ExponentialBackoff{
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
		Multiplier:      defaultMultiplier,
		JitterFactor:    0.1,
	}
}
