package transport

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Delay returns the wait before dial attempt N+1 after N failures (1-based).
// Jitter scales the delay into [0.5, 1.5) of its nominal value.
func (c BackoffConfig) Delay(attempt int, rng *rand.Rand) time.Duration {
	if c.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	mult := math.Max(c.Multiplier, 1.0)
	delay := float64(c.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if c.MaxDelay > 0 {
		delay = math.Min(delay, float64(c.MaxDelay))
	}
	if !c.Jitter {
		return time.Duration(delay)
	}
	scale := 0.5
	if rng != nil {
		scale += rng.Float64()
	}
	return time.Duration(delay * scale)
}

// wait sleeps for the attempt's delay unless ctx ends first.
func (c BackoffConfig) wait(ctx context.Context, attempt int, rng *rand.Rand) error {
	timer := time.NewTimer(c.Delay(attempt, rng))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
