package db

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryConfig controls connection retries with exponential backoff.
type RetryConfig struct {
	// Attempts is the total number of tries. Values < 1 mean 1.
	Attempts int
	// Initial is the delay before the second try. Default 500ms.
	Initial time.Duration
	// Max caps any single delay. Default 10s.
	Max time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts < 1 {
		c.Attempts = 1
	}
	if c.Initial <= 0 {
		c.Initial = 500 * time.Millisecond
	}
	if c.Max <= 0 {
		c.Max = 10 * time.Second
	}
	return c
}

// backoff returns the delay after the given zero-based attempt with ±25% jitter.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.Initial) * math.Pow(2, float64(attempt))
	if d > float64(c.Max) {
		d = float64(c.Max)
	}
	d += (rand.Float64()*2 - 1) * d * 0.25
	return time.Duration(d)
}

// ConnectRetry is Connect with retries, for deployments where the database
// may come up after the service. Context cancellation stops retrying.
func ConnectRetry(ctx context.Context, connString string, cfg PoolConfig, rc RetryConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := retry(ctx, rc, func(ctx context.Context) error {
		var err error
		pool, err = Connect(ctx, connString, cfg)
		return err
	})
	return pool, err
}

// retry calls fn until it succeeds, attempts run out, or ctx is done.
func retry(ctx context.Context, rc RetryConfig, fn func(ctx context.Context) error) error {
	rc = rc.withDefaults()

	var err error
	for attempt := 0; attempt < rc.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == rc.Attempts-1 {
			break
		}

		delay := rc.backoff(attempt)
		zap.L().Warn("db: retrying connect",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return eris.Wrap(err, "db: connect cancelled")
		case <-timer.C:
		}
	}
	return eris.Wrapf(err, "db: connect failed after %d attempts", rc.Attempts)
}
