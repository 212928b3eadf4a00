package generation

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedGenerator holds calls to an ImageGenerator to a fixed rate.
type RateLimitedGenerator struct {
	next    ImageGenerator
	limiter *rate.Limiter
}

// RateLimited allows perMinute calls per minute with a burst of one.
// A non-positive perMinute disables limiting.
func RateLimited(next ImageGenerator, perMinute int) *RateLimitedGenerator {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimitedGenerator{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (g *RateLimitedGenerator) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ServiceError{Op: "rate limit", Quota: true, Err: err}
	}
	return g.next.Generate(ctx, req)
}
