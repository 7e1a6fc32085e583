package handoff

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestWins(t *testing.T) {
	s := New[int]()
	s.Publish(1)
	s.Publish(2)

	v, ok := s.TryTake()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = s.TryTake()
	assert.False(t, ok, "slot should be empty after a single take")

	st := s.Stats()
	assert.Equal(t, Stats{Published: 2, Consumed: 1, Drops: 1}, st)
}

func TestTakeTimesOut(t *testing.T) {
	s := New[string]()
	start := time.Now()
	_, ok := s.Take(context.Background(), 20*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTakeReturnsOnCancel(t *testing.T) {
	s := New[string]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := s.Take(ctx, time.Hour)
	assert.False(t, ok)
}

func TestTakeWakesOnPublish(t *testing.T) {
	s := New[string]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Publish("frame")
	}()
	v, ok := s.Take(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, "frame", v)
}

func TestZeroTimeoutPolls(t *testing.T) {
	s := New[int]()
	_, ok := s.Take(context.Background(), 0)
	assert.False(t, ok)
	s.Publish(7)
	v, ok := s.Take(context.Background(), 0)
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestConcurrentPublishersNeverBlock(t *testing.T) {
	s := New[int]()
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.Publish(p*1000 + i)
			}
		}(p)
	}
	wg.Wait()

	_, ok := s.TryTake()
	assert.True(t, ok)
	_, ok = s.TryTake()
	assert.False(t, ok)
	st := s.Stats()
	assert.Equal(t, uint64(4000), st.Published)
	assert.Equal(t, uint64(3999), st.Drops)
}

func TestReset(t *testing.T) {
	s := New[int]()
	s.Publish(1)
	s.Reset()
	_, ok := s.TryTake()
	assert.False(t, ok)
	assert.Zero(t, s.Stats().Drops)
}
