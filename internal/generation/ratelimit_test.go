package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimited_Unlimited(t *testing.T) {
	next := &countingGenerator{}
	g := RateLimited(next, 0)

	for i := 0; i < 5; i++ {
		_, err := g.Generate(context.Background(), ImageRequest{Prompt: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, next.calls)
}

func TestRateLimited_WaitHonoursContext(t *testing.T) {
	next := &countingGenerator{}
	g := RateLimited(next, 1)

	_, err := g.Generate(context.Background(), ImageRequest{Prompt: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, ImageRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestUnavailable_FailsAsServiceError(t *testing.T) {
	_, err := Unavailable{}.Generate(context.Background(), ImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
}
