package sourcing

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"govcon/research/internal/catalog"
)

// Limiter blocks until the next call to a source is allowed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// LimiterFactory creates the shared limiter for one source.
type LimiterFactory func(source catalog.Source) Limiter

// PerMinute allows source.RateLimit calls per rolling minute, one at a time.
func PerMinute(source catalog.Source) Limiter {
	n := source.RateLimit
	if n <= 0 {
		n = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// Unlimited never waits. Used for offline runs against fixture sources.
func Unlimited(catalog.Source) Limiter {
	return rate.NewLimiter(rate.Inf, 0)
}
