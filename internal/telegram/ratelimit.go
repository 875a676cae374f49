package telegram

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests of a single client to the Telegram API.
// Flood-wait cooldowns are not handled here, the Tracker owns those; this
// only keeps the steady-state request rate below what triggers them.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter with the given requests per second and burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// DefaultRateLimiter returns conservative settings for resolve traffic.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(2.0, 1)
}

// Wait blocks until the next request is allowed or the context ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
