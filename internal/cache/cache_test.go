package cache

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqcache/internal/base"
)

// Helper to create a test frame
func makeTestFrame(level int) *base.Frame {
	return &base.Frame{
		Img:   image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Level: level,
	}
}

func frameLoader(level int) func() (*base.Frame, error) {
	return func() (*base.Frame, error) {
		return makeTestFrame(level), nil
	}
}

func TestFrameCacheBasics(t *testing.T) {
	t.Parallel()

	c := New(32)
	key := Key{Path: "/shot/frame_0000.png", Level: 1}

	// Test cache miss
	_, hit := c.Get(key)
	assert.False(t, hit, "expected cache miss")

	frame, err := c.GetOrLoad(key, frameLoader(1))
	require.NoError(t, err)
	require.NotNil(t, frame)

	// Should now hit
	got, hit := c.Get(key)
	assert.True(t, hit, "expected cache hit")
	assert.Same(t, frame, got)

	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains(key))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(1), stats.Loads)
}

func TestFrameCacheLevelsAreDistinctKeys(t *testing.T) {
	t.Parallel()

	c := New(32)
	path := "/shot/frame_0000.png"

	_, err := c.GetOrLoad(Key{Path: path, Level: 1}, frameLoader(1))
	require.NoError(t, err)

	assert.False(t, c.Contains(Key{Path: path, Level: 2}))

	f2, err := c.GetOrLoad(Key{Path: path, Level: 2}, frameLoader(2))
	require.NoError(t, err)
	assert.Equal(t, 2, f2.Level)
	assert.Equal(t, 2, c.Len())
}

func TestFrameCacheGetOrLoadIsNoOpOnHit(t *testing.T) {
	t.Parallel()

	c := New(32)
	key := Key{Path: "/shot/frame_0000.png", Level: 1}

	var calls atomic.Int32
	load := func() (*base.Frame, error) {
		calls.Add(1)
		return makeTestFrame(1), nil
	}

	_, err := c.GetOrLoad(key, load)
	require.NoError(t, err)
	_, err = c.GetOrLoad(key, load)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second GetOrLoad must not decode again")
}

func TestFrameCacheBoundedEviction(t *testing.T) {
	t.Parallel()

	c := New(MinCapacity)

	for i := 0; i < 3*MinCapacity; i++ {
		key := Key{Path: fmt.Sprintf("/shot/frame_%04d.png", i), Level: 1}
		_, err := c.GetOrLoad(key, frameLoader(1))
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, c.Len(), MinCapacity)
	assert.Greater(t, c.Stats().Evictions, uint64(0))

	// Most recently loaded entries survive.
	last := Key{Path: fmt.Sprintf("/shot/frame_%04d.png", 3*MinCapacity-1), Level: 1}
	assert.True(t, c.Contains(last))
}

func TestFrameCacheCapacityClamped(t *testing.T) {
	t.Parallel()

	c := New(0)
	for i := 0; i < MinCapacity; i++ {
		key := Key{Path: fmt.Sprintf("/shot/frame_%04d.png", i), Level: 1}
		_, err := c.GetOrLoad(key, frameLoader(1))
		require.NoError(t, err)
	}
	assert.Equal(t, MinCapacity, c.Len())
}

func TestFrameCacheLoadFailureNotCached(t *testing.T) {
	t.Parallel()

	c := New(32)
	key := Key{Path: "/shot/frame_0000.png", Level: 1}
	decodeErr := errors.New("truncated file")

	_, err := c.GetOrLoad(key, func() (*base.Frame, error) {
		return nil, decodeErr
	})
	assert.ErrorIs(t, err, decodeErr)
	assert.False(t, c.Contains(key))
	assert.Equal(t, uint64(1), c.Stats().LoadFailures)

	// A later load of the same key is attempted again and can succeed.
	frame, err := c.GetOrLoad(key, frameLoader(1))
	require.NoError(t, err)
	assert.NotNil(t, frame)
	assert.True(t, c.Contains(key))
}

func TestFrameCacheConcurrentLoadsSingleFlight(t *testing.T) {
	t.Parallel()

	c := New(32)
	key := Key{Path: "/shot/frame_0000.png", Level: 1}

	var calls atomic.Int32
	gate := make(chan struct{})
	started := make(chan struct{})
	load := func() (*base.Frame, error) {
		calls.Add(1)
		close(started)
		<-gate
		return makeTestFrame(1), nil
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]*base.Frame, readers)

	// First requester becomes the loader and blocks on the gate.
	wg.Add(1)
	go func() {
		defer wg.Done()
		frame, err := c.GetOrLoad(key, load)
		assert.NoError(t, err)
		results[0] = frame
	}()
	<-started

	// Remaining requesters join while the decode is in flight.
	var entered sync.WaitGroup
	for i := 1; i < readers; i++ {
		wg.Add(1)
		entered.Add(1)
		go func(slot int) {
			defer wg.Done()
			entered.Done()
			frame, err := c.GetOrLoad(key, load)
			assert.NoError(t, err)
			results[slot] = frame
		}(i)
	}
	entered.Wait()

	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses must share one decode")
	for _, frame := range results {
		assert.Same(t, results[0], frame)
	}
}

func TestFrameCachePurge(t *testing.T) {
	t.Parallel()

	c := New(32)
	for i := 0; i < 5; i++ {
		key := Key{Path: fmt.Sprintf("/shot/frame_%04d.png", i), Level: 1}
		_, err := c.GetOrLoad(key, frameLoader(1))
		require.NoError(t, err)
	}
	require.Equal(t, 5, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Contains(Key{Path: "/shot/frame_0000.png", Level: 1}))
}
