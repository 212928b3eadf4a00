package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	calls  atomic.Int32
	maxAge atomic.Int64
	err    error
}

func (s *countingStore) DeleteStaleInitializing(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.calls.Add(1)
	s.maxAge.Store(int64(maxAge))
	return 2, s.err
}

func TestSweep(t *testing.T) {
	store := &countingStore{}
	s := NewScheduler(store, 24*time.Hour, "")

	s.Sweep(context.Background())
	assert.Equal(t, int32(1), store.calls.Load())
	assert.Equal(t, int64(24*time.Hour), store.maxAge.Load())

	store.err = errors.New("db down")
	s.Sweep(context.Background())
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	store := &countingStore{}
	s := NewScheduler(store, time.Hour, "* * * * * *")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return store.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_BadSpec(t *testing.T) {
	s := NewScheduler(&countingStore{}, time.Hour, "every tuesday")
	assert.Error(t, s.Start(context.Background()))
}
